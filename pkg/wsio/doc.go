// Package wsio implements named-event messaging over a single WebSocket.
//
// Each side of a connection registers listeners by name and emits events to
// the listeners its peer registered. Names are negotiated down to 4-character
// aliases (see package protocol), so after registration every message carries
// only the alias.
//
// # Client
//
//	sock := wsio.NewClient("ws://localhost:8000", nil)
//	err := sock.Connect(ctx, func(s *wsio.Socket) {
//	    s.On("stringMessage", func(s *wsio.Socket, data wsio.Payload) {
//	        fmt.Println(data.Get("type").String())
//	    })
//	    s.Emit("requestStringMessage", map[string]int{"x": 10, "y": 20})
//	})
//
// Connect blocks for the lifetime of the connection. Program logic runs from
// the open callback and from listeners.
//
// # Server
//
//	srv := wsio.NewServer(nil)
//	srv.OnConnection(func(s *wsio.Socket) {
//	    s.On("requestStringMessage", handleRequest)
//	})
//	http.Handle("/", srv)
//
// # Delivery
//
// Emit, EmitRaw and EmitBinary are fire-and-forget. When the peer has not yet
// announced a listener for the name, the emission is retried every
// Config.RetryDelay up to Config.RetryAttempts times, then dropped with a
// warning. Emissions on a socket that is not open are dropped silently.
// Failures are logged and never returned to the caller.
package wsio
