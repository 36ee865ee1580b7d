// Package board defines the data model shared by both halves of a
// twin board: square coordinates, moves, the lit LED pair and the
// board-wide display state.
package board
