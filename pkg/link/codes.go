package link

import "github.com/robotalks/twinboard/pkg/board"

// Control codes. The values are the ASCII letters understood by the
// host program, all above the encoded coordinate range.
const (
	CodeStart       byte = 's'
	CodeAck         byte = 'a'
	CodeRepeat      byte = 'r'
	CodeMove        byte = 'm'
	CodePowerOff    byte = 'o'
	CodeDrawOffer   byte = 'd'
	CodeInvalidMove byte = 'i'
)

// IsControl tells whether b is one of the control codes.
func IsControl(b byte) bool {
	switch b {
	case CodeStart, CodeAck, CodeRepeat, CodeMove, CodePowerOff, CodeDrawOffer, CodeInvalidMove:
		return true
	}
	return false
}

// IsSignal tells whether b can be sent with SendSignal.
func IsSignal(b byte) bool {
	switch b {
	case CodePowerOff, CodeDrawOffer, CodeInvalidMove:
		return true
	}
	return false
}

// CodeName returns a readable name for logging.
func CodeName(b byte) string {
	switch b {
	case CodeStart:
		return "START"
	case CodeAck:
		return "ACK"
	case CodeRepeat:
		return "REPEAT"
	case CodeMove:
		return "MOVE"
	case CodePowerOff:
		return "POWER-OFF"
	case CodeDrawOffer:
		return "DRAW-OFFER"
	case CodeInvalidMove:
		return "INVALID-MOVE"
	}
	if c, err := board.DecodeCoordinate(b); err == nil {
		return "COORD(" + c.String() + ")"
	}
	return "?"
}

// RateOf maps a blink signal to its BlinkRate.
func RateOf(code byte) (board.BlinkRate, bool) {
	switch code {
	case CodeDrawOffer:
		return board.BlinkDrawOffer, true
	case CodeInvalidMove:
		return board.BlinkInvalidMove, true
	}
	return board.BlinkNormal, false
}
