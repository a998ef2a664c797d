package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("W101")
	if err.Code != "W101" {
		t.Errorf("Code = %q, want W101", err.Code)
	}
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want config", err.Category)
	}
	if err.Message == "" || err.Detail == "" {
		t.Error("template fields not copied")
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("W999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestError_WrapAndUnwrap(t *testing.T) {
	err := New("W100").Wrap(fs.ErrNotExist)

	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should see the wrapped error")
	}
	if !strings.HasPrefix(err.Error(), "W100: ") {
		t.Errorf("Error() = %q", err.Error())
	}
	if Code(err) != "W100" {
		t.Errorf("Code() = %q", Code(err))
	}
	if Code(fs.ErrNotExist) != "" {
		t.Error("Code() of a plain error should be empty")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W200") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("W150")
	if got := FromError(coded, "W200"); got != coded {
		t.Error("FromError should keep an existing code")
	}

	plain := stderrors.New("refused")
	got := FromError(plain, "W200")
	if got.Code != "W200" || !stderrors.Is(got, plain) {
		t.Errorf("FromError(plain) = %v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("W101").
		WithFile("wsio.toml").
		WithSuggestion("Check the TOML syntax").
		Wrap(stderrors.New("line 3: expected '='"))

	out := err.Format()
	for _, want := range []string{
		"ERROR W101: Config file is invalid",
		"wsio.toml",
		"Cause: line 3: expected '='",
		"Hint: Check the TOML syntax",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); !strings.HasPrefix(got, "wsio.toml: W101: ") {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("W102").WithDetailf("retry.attempts must be >= 0, got %d", -1)

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", jerr)
	}
	if decoded["code"] != "W102" || decoded["category"] != "config" {
		t.Errorf("FormatJSON() = %v", decoded)
	}
	if decoded["detail"] != "retry.attempts must be >= 0, got -1" {
		t.Errorf("detail = %q", decoded["detail"])
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("PrintError(plain) = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, New("W200"))
	if !strings.Contains(buf.String(), "ERROR W200: Connection failed") {
		t.Errorf("PrintError(coded) = %q", buf.String())
	}
}

func TestCodesSorted(t *testing.T) {
	codes := Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("Codes() not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		if _, ok := GetTemplate(code); !ok {
			t.Errorf("GetTemplate(%q) missing", code)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q longer than 20", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}
