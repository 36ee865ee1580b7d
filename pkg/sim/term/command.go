package term

import (
	"errors"
	"strings"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/link"
)

// CommandKind is the kind of a typed command.
type CommandKind int

// Command kinds.
const (
	CmdNone CommandKind = iota
	CmdPress
	CmdSignal
	CmdQuit
)

// Command is a parsed input line.
type Command struct {
	Kind   CommandKind
	Square board.Coordinate
	Code   byte
}

// ErrUnknownCommand is returned for an input line which is not understood.
var ErrUnknownCommand = errors.New("unknown command")

var signalNames = map[string]byte{
	"o":    link.CodePowerOff,
	"off":  link.CodePowerOff,
	"d":    link.CodeDrawOffer,
	"draw": link.CodeDrawOffer,
	"i":    link.CodeInvalidMove,
	"bad":  link.CodeInvalidMove,
}

// ParseCommand parses an input line: a square like "e2" presses it,
// "!o", "!d" and "!i" send signals and "q" quits.
func ParseCommand(line string) (Command, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch {
	case line == "":
		return Command{}, nil
	case line == "q" || line == "quit":
		return Command{Kind: CmdQuit}, nil
	case strings.HasPrefix(line, "!"):
		code, ok := signalNames[line[1:]]
		if !ok {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: CmdSignal, Code: code}, nil
	}
	c, err := board.ParseCoordinate(line)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: CmdPress, Square: c}, nil
}
