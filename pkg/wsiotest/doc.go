// Package wsiotest provides testing helpers for code built on wsio.
//
// # Quick Start
//
//	func TestEcho(t *testing.T) {
//	    pair := wsiotest.NewPair().
//	        OnServer(func(s *wsio.Socket) {
//	            s.On("echo", func(s *wsio.Socket, data wsio.Payload) {
//	                s.Emit("echo", data)
//	            })
//	        }).
//	        Start(t)
//
//	    rec := wsiotest.NewRecorder()
//	    rec.On(pair.Client, "echo")
//	    pair.Client.Emit("echo", "hi")
//
//	    ev := rec.Wait(t, "echo", time.Second)
//	    if ev.Text.String() != `"hi"` {
//	        t.Errorf("got %s", ev.Text)
//	    }
//	}
//
// The pair runs a real wsio.Server on an httptest server and dials it with
// wsio.Dial, so tests exercise the full wire protocol. Everything is closed
// through t.Cleanup.
package wsiotest
