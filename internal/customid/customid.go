// Package customid encodes routing information into the custom IDs
// Discord attaches to buttons, select menus, and modals.
//
// A custom ID has the form "name:arg1:arg2:...". The name addresses a
// handler; the remaining segments are positional arguments. Values must
// not contain ':' themselves, the codec performs no escaping.
package customid

import (
	"encoding"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const sep = ":"

// ErrEmpty is returned by Decode when the input has no name segment.
var ErrEmpty = errors.New("custom id is empty")

// Encode joins a handler name and positional arguments into a custom ID.
func Encode(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + sep + strings.Join(args, sep)
}

// Decode splits a custom ID into its handler name and argument list.
// The only invalid input is the empty string.
func Decode(s string) (name string, args []string, err error) {
	if s == "" {
		return "", nil, ErrEmpty
	}
	parts := strings.Split(s, sep)
	return parts[0], parts[1:], nil
}

// MissingArgError reports that a destination had no argument to fill.
// Index is the position of the first missing argument.
type MissingArgError struct {
	Index int
}

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("missing custom id argument at index %d", e.Index)
}

// ExtraArgsError reports more arguments than destinations.
type ExtraArgsError struct {
	Expected int
	Actual   int
}

func (e *ExtraArgsError) Error() string {
	return fmt.Sprintf("expected %d custom id arguments, got %d", e.Expected, e.Actual)
}

// UnconvertibleArgError wraps the parse failure for a single argument.
type UnconvertibleArgError struct {
	Index int
	Value string
	Err   error
}

func (e *UnconvertibleArgError) Error() string {
	return fmt.Sprintf("unconvertible custom id argument %d (%q): %v", e.Index, e.Value, e.Err)
}

func (e *UnconvertibleArgError) Unwrap() error {
	return e.Err
}

// Scan decodes positional arguments into dests. The argument count must
// match the destination count exactly. Supported destinations are
// *string, *bool, signed and unsigned integer pointers, and anything
// implementing encoding.TextUnmarshaler.
func Scan(args []string, dests ...any) error {
	if len(args) < len(dests) {
		return &MissingArgError{Index: len(args)}
	}
	if len(args) > len(dests) {
		return &ExtraArgsError{Expected: len(dests), Actual: len(args)}
	}
	for i, dest := range dests {
		if err := scanOne(args[i], dest); err != nil {
			return &UnconvertibleArgError{Index: i, Value: args[i], Err: err}
		}
	}
	return nil
}

func scanOne(arg string, dest any) error {
	switch d := dest.(type) {
	case *string:
		*d = arg
	case *bool:
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return err
		}
		*d = v
	case *int:
		n, err := strconv.ParseInt(arg, 10, strconv.IntSize)
		if err != nil {
			return err
		}
		*d = int(n)
	case *int64:
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return err
		}
		*d = n
	case *uint64:
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return err
		}
		*d = n
	default:
		if u, ok := dest.(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(arg))
		}
		return fmt.Errorf("unsupported destination type %T", dest)
	}
	return nil
}
