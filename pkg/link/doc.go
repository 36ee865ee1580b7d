// Package link implements the board-to-board move protocol.
//
// The protocol runs over a half-duplex byte link which delivers
// uncorrupted bytes in order but may drop them, and gives no delivery
// acknowledgment. It is a minimal stop-and-wait scheme:
//
//   sender                      receiver
//   Start ... Start  ------->
//                    <-------   Ack
//   coord(from)      ------->
//   coord(to)        ------->   move complete
//
// The sender re-announces Start on every transmit-ready until it sees an
// Ack. A receiver missing data asks for a full resend with Repeat, which
// the sender answers starting from the first coordinate.
//
// Single-byte signals share the channel: Move-announce (two coordinates
// follow without handshake), Power-off, Draw-offer and Invalid-move.
// Coordinates are sent offset into a range below all control codes so
// no framing is needed.
package link
