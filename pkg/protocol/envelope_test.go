package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeEnvelope(t *testing.T) {
	alias, _ := NewAlias(3)
	msg, err := EncodeEnvelope(alias, []byte(`{"x":44,"y":144}`))
	if err != nil {
		t.Fatalf("EncodeEnvelope error: %v", err)
	}
	if string(msg) != `{"f":"0003","d":{"x":44,"y":144}}` {
		t.Fatalf("EncodeEnvelope = %s", msg)
	}
}

func TestEncodeEnvelope_InvalidPayload(t *testing.T) {
	_, err := EncodeEnvelope(ControlAlias, []byte(`{"x":`))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("error = %v, want ErrInvalidPayload", err)
	}
}

func TestEnvelope_StructuredRoundTrip(t *testing.T) {
	sample := map[string]any{"x": 44, "y": 144, "w": 244, "h": 344}
	payload, err := json.Marshal(sample)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	alias, _ := NewAlias(1)

	msg, err := EncodeEnvelope(alias, payload)
	if err != nil {
		t.Fatalf("EncodeEnvelope error: %v", err)
	}
	env, err := DecodeEnvelope(msg)
	if err != nil {
		t.Fatalf("DecodeEnvelope error: %v", err)
	}
	if env.Alias != alias {
		t.Errorf("Alias = %q, want %q", env.Alias, alias)
	}

	var got map[string]any
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("Unmarshal data error: %v", err)
	}
	want := map[string]any{"x": 44.0, "y": 144.0, "w": 244.0, "h": 344.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded tree = %v, want %v", got, want)
	}
}

func TestDecodeEnvelope_PayloadKinds(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		data string
	}{
		{"object", `{"f":"0001","d":{"a":[1,2]}}`, `{"a":[1,2]}`},
		{"array", `{"f":"0001","d":[1,"two"]}`, `[1,"two"]`},
		{"string", `{"f":"0001","d":"hello"}`, `"hello"`},
		{"null", `{"f":"0001","d":null}`, `null`},
		{"field_order", `{"d":7,"f":"0001"}`, `7`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tc.msg))
			if err != nil {
				t.Fatalf("DecodeEnvelope error: %v", err)
			}
			if string(env.Data) != tc.data {
				t.Errorf("Data = %s, want %s", env.Data, tc.data)
			}
		})
	}
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want error
	}{
		{"not_json", `hello`, ErrInvalidEnvelope},
		{"truncated", `{"f":"0001","d":`, ErrInvalidEnvelope},
		{"array_root", `["0001",{}]`, ErrInvalidEnvelope},
		{"missing_f", `{"d":{}}`, ErrMissingField},
		{"missing_d", `{"f":"0001"}`, ErrMissingField},
		{"numeric_f", `{"f":1,"d":{}}`, ErrInvalidAlias},
		{"short_f", `{"f":"01","d":{}}`, ErrInvalidAlias},
		{"too_deep", `{"f":"0001","d":` + strings.Repeat("[", 80) + strings.Repeat("]", 80) + `}`, ErrMaxDepthExceeded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tc.msg))
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			var de *DecodeError
			if !errors.As(err, &de) || de.Op != "envelope" {
				t.Errorf("error %v is not an envelope DecodeError", err)
			}
		})
	}
}

func TestCheckNesting_IgnoresBracketsInStrings(t *testing.T) {
	msg := []byte(`{"f":"0001","d":"` + strings.Repeat("[{", 100) + `\""}`)
	if err := checkNesting(msg, 4); err != nil {
		t.Fatalf("checkNesting error: %v", err)
	}
}
