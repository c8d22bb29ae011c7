package dialog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal implements Mediator over a line-oriented terminal. An empty line
// accepts the default; "q" or end of input cancels.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

// NewTerminal creates a mediator over the given streams.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// NewStdTerminal creates a mediator over stdin/stdout.
func NewStdTerminal() *Terminal {
	t := NewTerminal(os.Stdin, os.Stdout)
	t.tty = term.IsTerminal(int(os.Stdin.Fd()))
	return t
}

func (t *Terminal) PromptAmount(message, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", message, defaultValue)
	} else {
		fmt.Fprintf(t.out, "%s: ", message)
	}

	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	if err != nil && line == "" {
		return "", ErrCancelled
	}

	line = strings.TrimSpace(line)
	switch line {
	case "q", "Q":
		return "", ErrCancelled
	case "":
		if defaultValue == "" {
			return "", ErrCancelled
		}
		return defaultValue, nil
	}
	return line, nil
}

func (t *Terminal) ShowError(message string) {
	fmt.Fprintf(t.out, "error: %s\n", message)
}

// Interactive reports whether the mediator is attached to a real terminal.
func (t *Terminal) Interactive() bool {
	return t.tty
}
