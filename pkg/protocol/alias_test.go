package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewAlias(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0000"},
		{1, "0001"},
		{15, "000f"},
		{255, "00ff"},
		{4096, "1000"},
		{MaxAlias, "ffff"},
	}

	for _, tc := range tests {
		got, err := NewAlias(tc.n)
		if err != nil {
			t.Fatalf("NewAlias(%d) error: %v", tc.n, err)
		}
		if got.String() != tc.want {
			t.Errorf("NewAlias(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestNewAlias_OutOfRange(t *testing.T) {
	for _, n := range []int{-1, MaxAlias + 1} {
		if _, err := NewAlias(n); !errors.Is(err, ErrInvalidAlias) {
			t.Errorf("NewAlias(%d) error = %v, want ErrInvalidAlias", n, err)
		}
	}
}

func TestParseAlias(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"hex", "00a1", false},
		{"control", "0000", false},
		{"foreign_token", "zZ_9", false},
		{"short", "001", true},
		{"long", "00001", true},
		{"empty", "", true},
		{"space", "00 1", true},
		{"control_char", "00\n1", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAlias(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidAlias) {
					t.Fatalf("ParseAlias(%q) error = %v, want ErrInvalidAlias", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAlias(%q) error: %v", tc.in, err)
			}
			if a.String() != tc.in {
				t.Errorf("String() = %q, want %q", a, tc.in)
			}
		})
	}
}

func TestAlias_IsControl(t *testing.T) {
	if !ControlAlias.IsControl() {
		t.Error("ControlAlias.IsControl() = false")
	}
	one, _ := NewAlias(1)
	if one.IsControl() {
		t.Error("alias 0001 reported as control")
	}
	zero, _ := NewAlias(0)
	if zero != ControlAlias {
		t.Errorf("NewAlias(0) = %q, want control alias", zero)
	}
}

func TestAlias_JSON(t *testing.T) {
	a, _ := NewAlias(0x2a)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `"002a"` {
		t.Fatalf("Marshal = %s, want \"002a\"", data)
	}

	var b Alias
	if err := json.Unmarshal([]byte(`"beef"`), &b); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if b.String() != "beef" {
		t.Errorf("Unmarshal = %q, want beef", b)
	}

	if err := json.Unmarshal([]byte(`"toolong"`), &b); err == nil {
		t.Error("Unmarshal of 7-byte token succeeded, want error")
	}
}
