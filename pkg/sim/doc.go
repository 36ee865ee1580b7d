// Package sim simulates the board devices so a board runs on a desktop:
// a key matrix pressed by name and a display remembering the lit square.
package sim
