package protocol

import (
	"fmt"
)

// Alias constants.
const (
	// AliasSize is the width of an alias token in bytes.
	AliasSize = 4

	// MaxAlias is the largest alias value a side can assign locally.
	MaxAlias = 0xffff

	// ControlEvent is the reserved listener name used for announcements.
	ControlEvent = "#WSIO#addListener"
)

// ControlAlias is the reserved alias bound to ControlEvent on both peers.
var ControlAlias = Alias{'0', '0', '0', '0'}

// Alias is a fixed-width token standing in for an event name on the wire.
//
// Locally assigned aliases are lowercase hex renderings of a counter, but any
// 4-byte token announced by a peer is accepted and echoed back unchanged.
type Alias [AliasSize]byte

// NewAlias renders n as a 4-digit lowercase hex alias.
func NewAlias(n int) (Alias, error) {
	if n < 0 || n > MaxAlias {
		return Alias{}, fmt.Errorf("%w: %d out of range", ErrInvalidAlias, n)
	}
	var a Alias
	copy(a[:], fmt.Sprintf("%04x", n))
	return a, nil
}

// ParseAlias converts a token into an Alias.
// The token must be exactly AliasSize printable ASCII bytes.
func ParseAlias(s string) (Alias, error) {
	var a Alias
	if len(s) != AliasSize {
		return a, fmt.Errorf("%w: %q has length %d", ErrInvalidAlias, s, len(s))
	}
	for i := 0; i < AliasSize; i++ {
		c := s[i]
		if c < 0x21 || c > 0x7e {
			return Alias{}, fmt.Errorf("%w: %q has non-printable byte", ErrInvalidAlias, s)
		}
		a[i] = c
	}
	return a, nil
}

// String returns the alias token.
func (a Alias) String() string {
	return string(a[:])
}

// IsControl reports whether a is the reserved control alias.
func (a Alias) IsControl() bool {
	return a == ControlAlias
}

// MarshalText implements encoding.TextMarshaler.
func (a Alias) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Alias) UnmarshalText(text []byte) error {
	parsed, err := ParseAlias(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
