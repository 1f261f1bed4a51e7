package cancel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Iron-Ham/xmod/internal/errors"
	"github.com/Iron-Ham/xmod/internal/styles"
)

// ConfirmQuestion is asked by the leader before an abort.
const ConfirmQuestion = "Are you sure you want to terminate the program? (Y/N)"

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(question string) (bool, error)

// Confirm calls f.
func (f ConfirmerFunc) Confirm(question string) (bool, error) { return f(question) }

// Input selects where TerminalConfirmer reads answers from.
type Input string

const (
	// InputAuto reads stdin when it is a terminal, /dev/tty otherwise, and
	// falls back to stdin when there is no controlling terminal.
	InputAuto Input = "auto"
	// InputStdin always reads stdin.
	InputStdin Input = "stdin"
	// InputTTY always reads /dev/tty.
	InputTTY Input = "tty"
)

// TerminalConfirmer reads a Y or N answer line by line.
type TerminalConfirmer struct {
	in     *bufio.Reader
	out    io.Writer
	styles *styles.Renderer
	closer io.Closer
}

// NewTerminalConfirmer reads answers from in and writes prompts to out.
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{
		in:     bufio.NewReader(in),
		out:    out,
		styles: styles.NewRenderer(out),
	}
}

// OpenTerminalConfirmer picks the answer stream according to input.
// Close releases /dev/tty when it was opened.
func OpenTerminalConfirmer(input Input, stdin *os.File, out io.Writer) (*TerminalConfirmer, error) {
	switch input {
	case InputStdin:
		return NewTerminalConfirmer(stdin, out), nil
	case InputTTY:
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return nil, errors.Wrap(err, "failed to open controlling terminal")
		}
		c := NewTerminalConfirmer(tty, out)
		c.closer = tty
		return c, nil
	case InputAuto, "":
		if term.IsTerminal(int(stdin.Fd())) {
			return NewTerminalConfirmer(stdin, out), nil
		}
		if tty, err := os.Open("/dev/tty"); err == nil {
			c := NewTerminalConfirmer(tty, out)
			c.closer = tty
			return c, nil
		}
		return NewTerminalConfirmer(stdin, out), nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("invalid confirmation input '%s'", input), errors.ErrInvalidArguments)
	}
}

// Confirm prints question and reads lines until one is Y or N, in either
// case. End of input counts as N.
func (c *TerminalConfirmer) Confirm(question string) (bool, error) {
	for {
		if _, err := fmt.Fprintln(c.out, c.styles.Prompt(question)); err != nil {
			return false, errors.Wrap(err, "failed to write prompt")
		}

		line, err := c.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(answer, "y"):
			return true, nil
		case strings.EqualFold(answer, "n"):
			return false, nil
		}

		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "failed to read answer")
		}
	}
}

// Close releases the controlling terminal if it was opened.
func (c *TerminalConfirmer) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
