package term

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/link"
)

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		name string
		line string
		cmd  Command
		err  bool
	}{
		{name: "empty", line: "  ", cmd: Command{}},
		{name: "square", line: "e2", cmd: Command{Kind: CmdPress, Square: 12}},
		{name: "upper case", line: "D8", cmd: Command{Kind: CmdPress, Square: 59}},
		{name: "index", line: "63", cmd: Command{Kind: CmdPress, Square: 63}},
		{name: "power off", line: "!o", cmd: Command{Kind: CmdSignal, Code: link.CodePowerOff}},
		{name: "draw", line: "!draw", cmd: Command{Kind: CmdSignal, Code: link.CodeDrawOffer}},
		{name: "invalid move", line: "!i", cmd: Command{Kind: CmdSignal, Code: link.CodeInvalidMove}},
		{name: "quit", line: "q", cmd: Command{Kind: CmdQuit}},
		{name: "unknown signal", line: "!x", err: true},
		{name: "off board", line: "i9", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := ParseCommand(tc.line)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.cmd, cmd)
		})
	}
	_, err := ParseCommand("99")
	require.Equal(t, board.ErrOutOfRange, err)
}
