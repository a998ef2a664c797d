package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Announcement fields.
const (
	FieldListener = "listener"
	FieldAliasTok = "alias"
)

// Announcement tells the peer which alias a newly registered listener uses.
// It travels as the payload of a ControlAlias envelope.
type Announcement struct {
	Listener string `json:"listener"`
	Alias    Alias  `json:"alias"`
}

// EncodeAnnouncement returns the JSON payload for an announcement.
func EncodeAnnouncement(a Announcement) []byte {
	data, err := json.Marshal(a)
	if err != nil {
		// Only a string and a text-marshaled array; cannot fail.
		panic(fmt.Sprintf("protocol: encode announcement: %v", err))
	}
	return data
}

// DecodeAnnouncement parses the payload of a control envelope.
func DecodeAnnouncement(data []byte) (*Announcement, error) {
	if !gjson.ValidBytes(data) {
		return nil, decodeError("announcement", ErrInvalidPayload)
	}
	d := gjson.ParseBytes(data)

	listener := d.Get(FieldListener)
	if listener.Type != gjson.String || listener.Str == "" {
		return nil, decodeError("announcement", fmt.Errorf("%w: %q", ErrMissingField, FieldListener))
	}

	tok := d.Get(FieldAliasTok)
	if tok.Type != gjson.String {
		return nil, decodeError("announcement", fmt.Errorf("%w: %q", ErrMissingField, FieldAliasTok))
	}
	alias, err := ParseAlias(tok.Str)
	if err != nil {
		return nil, decodeError("announcement", err)
	}

	return &Announcement{
		Listener: listener.Str,
		Alias:    alias,
	}, nil
}
