package protocol

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Envelope field names.
const (
	FieldAlias = "f"
	FieldData  = "d"
)

// Envelope is a decoded text message.
type Envelope struct {
	Alias Alias
	// Data is the raw JSON of the "d" field. It aliases the decoded message.
	Data []byte
}

// EncodeEnvelope builds the text message for alias and an already encoded
// JSON payload.
func EncodeEnvelope(alias Alias, payload []byte) ([]byte, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrInvalidPayload
	}
	msg, err := sjson.SetBytes([]byte("{}"), FieldAlias, alias.String())
	if err != nil {
		return nil, fmt.Errorf("protocol: encode envelope: %w", err)
	}
	msg, err = sjson.SetRawBytes(msg, FieldData, payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode envelope: %w", err)
	}
	return msg, nil
}

// DecodeEnvelope parses a text message.
// Both fields are required and "f" must be an alias string.
func DecodeEnvelope(msg []byte) (*Envelope, error) {
	if !gjson.ValidBytes(msg) {
		return nil, decodeError("envelope", ErrInvalidEnvelope)
	}
	if err := checkNesting(msg, MaxTextNesting); err != nil {
		return nil, decodeError("envelope", err)
	}
	root := gjson.ParseBytes(msg)
	if !root.IsObject() {
		return nil, decodeError("envelope", ErrInvalidEnvelope)
	}

	f := root.Get(FieldAlias)
	if !f.Exists() {
		return nil, decodeError("envelope", fmt.Errorf("%w: %q", ErrMissingField, FieldAlias))
	}
	if f.Type != gjson.String {
		return nil, decodeError("envelope", fmt.Errorf("%w: %q is %s", ErrInvalidAlias, FieldAlias, f.Type))
	}
	alias, err := ParseAlias(f.Str)
	if err != nil {
		return nil, decodeError("envelope", err)
	}

	d := root.Get(FieldData)
	if !d.Exists() {
		return nil, decodeError("envelope", fmt.Errorf("%w: %q", ErrMissingField, FieldData))
	}

	return &Envelope{
		Alias: alias,
		Data:  []byte(d.Raw),
	}, nil
}
