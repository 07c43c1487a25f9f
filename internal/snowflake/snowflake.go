// Package snowflake handles Discord's 64-bit unsigned IDs and their
// signed representation in the database.
package snowflake

import (
	"fmt"
	"strconv"
)

// ID is a Discord snowflake. Discord transmits snowflakes as decimal
// strings inside JSON.
type ID uint64

// Parse converts the decimal string form of a snowflake into an ID.
func Parse(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return ID(n), nil
}

// String returns the canonical decimal form.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == 0
}

// Int64 reinterprets the ID's bits for storage in a BIGINT column. The
// conversion is lossless; IDs at or above 1<<63 map to negative values
// and FromInt64 reverses the mapping exactly.
func (id ID) Int64() int64 {
	return int64(id)
}

// FromInt64 reverses Int64.
func FromInt64(n int64) ID {
	return ID(n)
}

// MarshalJSON encodes the ID as a decimal string, the form the platform
// expects everywhere.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// UnmarshalJSON accepts a quoted decimal string, a bare number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	if s == "null" || s == "" {
		*id = 0
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText lets IDs travel through text codecs such as custom-ID
// arguments.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the decimal form.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
