// Package sh wraps ishell into the interactive shell of the board tools.
package sh

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/google/shlex"
	"github.com/mattn/go-isatty"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	// Target is what the commands operate on, e.g. a board or a host peer.
	Target interface{}
}

const shellKey = "$shell"

// ErrNoTarget is reported by commands when the shell target has the wrong type.
var ErrNoTarget = errors.New("command not available")

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell. It is interactive unless -e is given or
// stdin is not a terminal.
func New(target interface{}, prompt string) *Shell {
	s := &Shell{
		Interactive: !evalOnly && isatty.IsTerminal(os.Stdin.Fd()),
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Target: target,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt + " > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Output prints v as JSON with -json, text otherwise.
func Output(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Result reports err or prints OK.
func Result(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	Output(c, map[string]bool{"ok": true}, "OK")
}

// Exec runs one command line split with shell quoting rules.
func (s *Shell) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("%q: %v", line, err)
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}
	return s.Shell.Process(args...)
}

// RunScript runs command lines from r until EOF or the first error.
func (s *Shell) RunScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := s.Exec(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Run runs the shell: the command in args, the interactive shell, or
// a script on stdin.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	if err := s.RunScript(os.Stdin); err != nil {
		log.Fatalln(err)
	}
}
