package wsio

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSendError(t *testing.T) {
	err := &SendError{SocketID: "127.0.0.1:1", Event: "x", Kind: "text", Err: io.ErrClosedPipe}

	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("SendError should unwrap to the transport error")
	}
	for _, want := range []string{"127.0.0.1:1", `"x"`, "text"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, missing %q", err.Error(), want)
		}
	}
}

func TestHandlerError(t *testing.T) {
	err := &HandlerError{SocketID: "s", Event: "boom", Panic: "kaboom"}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("Error() = %q", err.Error())
	}
}
