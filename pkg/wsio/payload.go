package wsio

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Payload is the structured data of a received text event: the raw JSON of
// the envelope's "d" field.
type Payload []byte

// Raw returns the payload JSON.
func (p Payload) Raw() []byte {
	return p
}

// Get returns the value at a gjson path, e.g. "geometry.0" or "user.name".
func (p Payload) Get(path string) gjson.Result {
	return gjson.GetBytes(p, path)
}

// Decode unmarshals the payload into v.
func (p Payload) Decode(v any) error {
	return json.Unmarshal(p, v)
}

// String returns the payload JSON as a string.
func (p Payload) String() string {
	return string(p)
}

// MarshalJSON emits the payload unchanged so a received payload can be
// forwarded with Emit.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// MessageHandler handles a structured event.
type MessageHandler func(s *Socket, data Payload)

// BinaryHandler handles a binary event. data is only valid for the duration
// of the call; copy it to keep it.
type BinaryHandler func(s *Socket, data []byte)
