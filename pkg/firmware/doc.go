// Package firmware assembles one board: the LED pair multiplexer, the
// key scanner with its debounce interlock, the link protocol and the
// dispatch loop which coordinates display power.
//
//	matrix edge ──> Scanner ──SendMove──> Link ──bytes──> peer
//	                   │                   │
//	                   └──wake──> Loop <──wake + MoveMsg
//	                                │
//	                           Multiplexer ──> Display
//
// Device handlers (key edges, link bytes, the multiplexer ticker) run on
// their own goroutines. Only the dispatch loop installs incoming moves
// and puts the board to sleep.
package firmware
