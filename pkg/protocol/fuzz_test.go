package protocol

import (
	"testing"
)

// FuzzDecodeEnvelope tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeEnvelope(f *testing.F) {
	f.Add([]byte(`{"f":"0001","d":{"x":10}}`))
	f.Add([]byte(`{"f":"0000","d":{"listener":"a","alias":"0002"}}`))
	f.Add([]byte(`{"f":"00","d":null}`))
	f.Add([]byte(`[[[[[[`))

	f.Fuzz(func(t *testing.T, data []byte) {
		env, err := DecodeEnvelope(data)
		if err == nil && env == nil {
			t.Fatal("nil envelope without error")
		}
	})
}

// FuzzDecodeAnnouncement tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeAnnouncement(f *testing.F) {
	f.Add([]byte(`{"listener":"stringMessage","alias":"0001"}`))
	f.Add([]byte(`{"listener":"","alias":"0001"}`))
	f.Add([]byte(`"text"`))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeAnnouncement(data)
	})
}

// FuzzBinaryRoundTrip checks that every binary message decodes back to the
// alias and payload it was built from.
func FuzzBinaryRoundTrip(f *testing.F) {
	f.Add("0001", []byte{0, 1, 2})
	f.Add("ffff", []byte{})

	f.Fuzz(func(t *testing.T, token string, payload []byte) {
		alias, err := ParseAlias(token)
		if err != nil {
			return
		}
		gotAlias, gotPayload, err := DecodeBinary(EncodeBinary(alias, payload))
		if err != nil {
			t.Fatalf("DecodeBinary error: %v", err)
		}
		if gotAlias != alias || string(gotPayload) != string(payload) {
			t.Fatalf("round trip mismatch: %q/%v -> %q/%v", alias, payload, gotAlias, gotPayload)
		}
	})
}
