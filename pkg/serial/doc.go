// Package serial implements serial link drivers carrying the link
// protocol bytes between two boards, or between a board and the host.
//
// A driver delivers received bytes and transmit-ready notifications on
// its own goroutines. Open selects a driver by URL scheme:
//
//	tcp://host:port          dial the peer
//	tcp-listen://:port       accept one peer at a time
//	file:///dev/ttyUSB0      a tty device, already configured
//
// Other packages register more schemes, e.g. serial/websocket and
// serial/mqtt.
package serial
