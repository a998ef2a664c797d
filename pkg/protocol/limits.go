package protocol

import "errors"

// Message size limits.
const (
	// DefaultMaxMessageSize bounds a single incoming WebSocket message.
	// Binary payloads such as images are the common large case.
	DefaultMaxMessageSize = 16 * 1024 * 1024

	// MaxTextNesting is the deepest JSON nesting accepted in a text message,
	// counting the envelope itself.
	MaxTextNesting = 64
)

// ErrMaxDepthExceeded is returned when a text message nests deeper than
// MaxTextNesting.
var ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")

// checkNesting scans msg for object and array nesting deeper than max.
// Brackets inside strings are ignored. msg is assumed to be valid JSON.
func checkNesting(msg []byte, max int) error {
	depth := 0
	inString := false
	escaped := false
	for _, c := range msg {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > max {
				return ErrMaxDepthExceeded
			}
		case '}', ']':
			depth--
		}
	}
	return nil
}
