package domain

import (
	"bytes"
	"fmt"
)

// Tristate is a boolean that may not have been observed yet.
// The zero value is Unknown.
type Tristate int8

const (
	Unknown Tristate = iota
	True
	False
)

// FromBool converts an observed boolean.
func FromBool(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Bool returns the value and whether it is known.
func (t Tristate) Bool() (value, known bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	default:
		return false, false
	}
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// ParseTristate is the inverse of String. Empty input is Unknown.
func ParseTristate(s string) (Tristate, error) {
	switch s {
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "unknown", "":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("invalid tristate %q", s)
	}
}

func (t Tristate) MarshalJSON() ([]byte, error) {
	if t == Unknown {
		return []byte("null"), nil
	}
	return []byte(t.String()), nil
}

func (t *Tristate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Unknown
		return nil
	}
	v, err := ParseTristate(string(data))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
