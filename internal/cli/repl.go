package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// Consumer evaluates one line of REPL input. Consume returns true to end
// the loop.
type Consumer interface {
	Consume(line string) bool
	Prompt() string
}

// RunREPL reads lines from in until the consumer asks to stop or input
// ends. A terminal on stdin gets line editing and history.
func RunREPL(c Consumer, in io.Reader, out io.Writer) error {
	if f, ok := in.(*os.File); ok && f == os.Stdin && term.IsTerminal(int(f.Fd())) {
		return runLiner(c)
	}
	return runScanner(c, in, out)
}

func runLiner(c Consumer) error {
	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)
	for {
		line, err := l.Prompt(c.Prompt())
		if err == io.EOF || err == liner.ErrPromptAborted {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		if c.Consume(line) {
			return nil
		}
		l.AppendHistory(line)
	}
}

func runScanner(c Consumer, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, c.Prompt())
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if c.Consume(sc.Text()) {
			return nil
		}
	}
}
