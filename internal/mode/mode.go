// Package mode parses xmod mode arguments and computes permission bits.
//
// Two notations are accepted:
//
//	<u|g|o|a><-|+|=><rwx>     symbolic, one to three distinct permission letters
//	0<0-7><0-7><0-7>          octal, exactly four characters
//
// Resolve is pure; Apply is the only function that touches the filesystem.
package mode

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Iron-Ham/xmod/internal/errors"
)

// PermMask selects the nine rwx permission bits.
const PermMask os.FileMode = 0o777

// specialMask selects the setuid, setgid and sticky bits, which xmod never touches.
const specialMask = os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// Notation tells whether a Spec was written symbolically or in octal.
type Notation int

const (
	Symbolic Notation = iota
	Octal
)

// Spec is a parsed mode argument.
type Spec struct {
	Notation Notation
	raw      string

	// symbolic notation
	who   os.FileMode // class bits selected by u/g/o/a
	op    byte        // '-', '+' or '='
	perms os.FileMode // r/w/x replicated over all three classes

	// octal notation
	bits os.FileMode
}

// String returns the argument the Spec was parsed from.
func (s Spec) String() string { return s.raw }

// Parse validates a mode argument.
func Parse(arg string) (Spec, error) {
	if arg == "" {
		return Spec{}, invalid(arg)
	}
	switch arg[0] {
	case 'u', 'g', 'o', 'a':
		return parseSymbolic(arg)
	case '0':
		return parseOctal(arg)
	default:
		return Spec{}, invalid(arg)
	}
}

func parseSymbolic(arg string) (Spec, error) {
	if len(arg) < 3 || len(arg) > 5 {
		return Spec{}, invalid(arg)
	}

	s := Spec{Notation: Symbolic, raw: arg}
	switch arg[0] {
	case 'u':
		s.who = 0o700
	case 'g':
		s.who = 0o070
	case 'o':
		s.who = 0o007
	case 'a':
		s.who = 0o777
	}

	switch arg[1] {
	case '-', '+', '=':
		s.op = arg[1]
	default:
		return Spec{}, invalid(arg)
	}

	seen := make(map[byte]bool, 3)
	for i := 2; i < len(arg); i++ {
		c := arg[i]
		if seen[c] {
			return Spec{}, invalid(arg)
		}
		seen[c] = true
		switch c {
		case 'r':
			s.perms |= 0o444
		case 'w':
			s.perms |= 0o222
		case 'x':
			s.perms |= 0o111
		default:
			return Spec{}, invalid(arg)
		}
	}
	return s, nil
}

func parseOctal(arg string) (Spec, error) {
	if len(arg) != 4 {
		return Spec{}, invalid(arg)
	}
	v, err := strconv.ParseUint(arg[1:], 8, 32)
	if err != nil {
		return Spec{}, invalid(arg)
	}
	return Spec{Notation: Octal, raw: arg, bits: os.FileMode(v)}, nil
}

func invalid(arg string) error {
	return errors.NewConfigError(fmt.Sprintf("invalid mode '%s'", arg), errors.ErrInvalidMode)
}

// Resolve computes the mode that applying spec to current yields.
// Only the nine permission bits are affected; special and type bits pass through.
func Resolve(current os.FileMode, spec Spec) os.FileMode {
	keep := current &^ PermMask
	perm := current & PermMask

	switch spec.Notation {
	case Octal:
		return keep | spec.bits
	default:
		sel := spec.perms & spec.who
		switch spec.op {
		case '-':
			perm &^= sel
		case '+':
			perm |= sel
		case '=':
			perm = (perm &^ spec.who) | sel
		}
		return keep | perm
	}
}

// Apply sets the permission and special bits of path to m.
func Apply(path string, m os.FileMode) error {
	return os.Chmod(path, m&(PermMask|specialMask))
}

// Format renders the nine permission bits as "rwxr-xr-x".
func Format(m os.FileMode) string {
	const letters = "rwxrwxrwx"
	var b strings.Builder
	b.Grow(9)
	for i := 0; i < 9; i++ {
		if m&(1<<uint(8-i)) != 0 {
			b.WriteByte(letters[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// OctalString renders the permission bits as a four-digit octal number.
func OctalString(m os.FileMode) string {
	return fmt.Sprintf("%04o", uint32(m&PermMask))
}
