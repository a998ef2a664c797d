package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/wsio/internal/config"
	"github.com/vango-dev/wsio/pkg/wsio"
	"github.com/vango-dev/wsio/pkg/wsiotest"
)

func TestRectangle(t *testing.T) {
	out, err := json.Marshal(rectangle(wsio.Payload(`{"x":10,"y":20,"w":200,"h":150}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"rectangle","geometry":[10,20,200,150]}`, string(out))

	out, err = json.Marshal(rectangle(wsio.Payload(`{"x":1.5}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"rectangle","geometry":[1.5,null,null,null]}`, string(out))
}

func TestTripleBytes(t *testing.T) {
	assert.Equal(t,
		[]byte{0, 3, 6, 9, 12, 15, 18, 21, 24, 27},
		tripleBytes([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	assert.Equal(t, []byte{255, 255, 252}, tripleBytes([]byte{86, 255, 84}))
	assert.Empty(t, tripleBytes(nil))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApp_DemoRoundTrip(t *testing.T) {
	cfg := config.New()
	cfg.Server.Public = ""
	a := newApp(cfg, quietLogger())

	ts := httptest.NewServer(a.handler)
	defer ts.Close()
	defer a.wsio.Close()

	cfg.Client.URL = "ws" + strings.TrimPrefix(ts.URL, "http")

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, runClient(ctx, cfg, true, &out))

	assert.Contains(t, out.String(), `stringMessage: {"type":"rectangle","geometry":[10,20,200,150]}`)
	assert.Contains(t, out.String(), `binaryMessage: [0 3 6 9 12 15 18 21 24 27]`)
	require.NoError(t, ctx.Err(), "client should exit on its own with --once")
}

func TestApp_StaticAndMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>demo</h1>"), 0644))

	cfg := config.New()
	cfg.Server.Public = dir
	a := newApp(cfg, quietLogger())
	ts := httptest.NewServer(a.handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "demo")

	resp, err = http.Get(ts.URL + "/missing.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + cfg.Metrics.Path)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wsio_open_sockets")
}

func TestRunClient_DialFailure(t *testing.T) {
	cfg := config.New()
	cfg.Client.URL = "ws://127.0.0.1:1"

	err := runClient(context.Background(), cfg, true, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "W200")
}

func TestDemoServer_Handlers(t *testing.T) {
	pair := wsiotest.NewPair().OnServer(registerDemoServer).Start(t)

	rec := wsiotest.NewRecorder()
	rec.On(pair.Client, eventString)
	rec.OnBinary(pair.Client, eventBinary)
	wsiotest.WaitRemote(t, pair.Client, eventRequestString, wsiotest.DefaultTimeout)
	wsiotest.WaitRemote(t, pair.Client, eventRequestBinary, wsiotest.DefaultTimeout)

	pair.Client.Emit(eventRequestString, map[string]int{"x": 1, "y": 2, "w": 3, "h": 4})
	ev := rec.Wait(t, eventString, wsiotest.DefaultTimeout)
	assert.JSONEq(t, `{"type":"rectangle","geometry":[1,2,3,4]}`, string(ev.Text))

	pair.Client.EmitBinary(eventRequestBinary, []byte{1, 100})
	ev = rec.Wait(t, eventBinary, wsiotest.DefaultTimeout)
	assert.Equal(t, []byte{3, 255}, ev.Binary)
}

// dialForwarded connects through the demo app as if a proxy had forwarded
// the request for 203.0.113.7 and returns the server-side socket ID.
func dialForwarded(t *testing.T, cfg *config.Config) string {
	t.Helper()
	a := newApp(cfg, quietLogger())
	ts := httptest.NewServer(a.handler)
	defer ts.Close()
	defer a.wsio.Close()

	sc := wsio.DefaultConfig()
	sc.Header = http.Header{"X-Forwarded-For": {"203.0.113.7"}}
	client, err := wsio.Dial(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http"), sc)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return a.wsio.Len() == 1 }, 5*time.Second, time.Millisecond)
	return a.wsio.Clients()[0].ID()
}

func TestApp_SocketIDFromTrustedProxy(t *testing.T) {
	cfg := config.New()
	cfg.Server.TrustedProxies = []string{"127.0.0.1"}

	id := dialForwarded(t, cfg)
	assert.True(t, strings.HasPrefix(id, "203.0.113.7:"), "socket ID = %q", id)
}

func TestApp_ForwardedHeaderIgnoredWithoutTrustedProxy(t *testing.T) {
	id := dialForwarded(t, config.New())
	assert.True(t, strings.HasPrefix(id, "127.0.0.1:"), "socket ID = %q", id)
}
