package main

import (
	"encoding/json"
	"log/slog"

	"github.com/vango-dev/wsio/pkg/wsio"
)

// Demo event names.
const (
	eventRequestString = "requestStringMessage"
	eventRequestBinary = "requestBinaryMessage"
	eventString        = "stringMessage"
	eventBinary        = "binaryMessage"
)

// shape is the reply to a string request.
type shape struct {
	Type     string            `json:"type"`
	Geometry []json.RawMessage `json:"geometry"`
}

// rectangle turns {x, y, w, h} into a rectangle shape. Missing fields become
// null.
func rectangle(data wsio.Payload) shape {
	geometry := make([]json.RawMessage, 0, 4)
	for _, key := range []string{"x", "y", "w", "h"} {
		raw := data.Get(key).Raw
		if raw == "" {
			raw = "null"
		}
		geometry = append(geometry, json.RawMessage(raw))
	}
	return shape{Type: "rectangle", Geometry: geometry}
}

// tripleBytes multiplies every byte by three, saturating at 255.
func tripleBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		v := 3 * int(b)
		if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// registerDemoServer installs the demo request listeners on a server-side
// socket.
func registerDemoServer(s *wsio.Socket) {
	logger := s.Logger()

	s.OnClose(func(s *wsio.Socket) {
		logger.Info("client disconnect", "id", s.ID())
	})

	s.On(eventRequestString, func(s *wsio.Socket, data wsio.Payload) {
		logger.Info("string request", "data", data.String())
		s.Emit(eventString, rectangle(data))
	})

	s.OnBinary(eventRequestBinary, func(s *wsio.Socket, data []byte) {
		logger.Info("binary request", "bytes", len(data))
		s.EmitBinary(eventBinary, tripleBytes(data))
	})
}

// demoRequest is the structured request the demo client sends.
var demoRequest = map[string]int{"x": 10, "y": 20, "w": 200, "h": 150}

// demoBinaryRequest is the binary request the demo client sends.
var demoBinaryRequest = []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

// reply is one message received by the demo client.
type reply struct {
	event string
	text  string
	bytes []byte
}

// registerDemoClient installs the reply listeners and sends both requests.
func registerDemoClient(s *wsio.Socket, replies chan<- reply) {
	slog.Info("open websocket", "id", s.ID())

	deliver := func(s *wsio.Socket, r reply) {
		select {
		case replies <- r:
		case <-s.Done():
		}
	}
	s.On(eventString, func(s *wsio.Socket, data wsio.Payload) {
		deliver(s, reply{event: eventString, text: data.String()})
	})
	s.OnBinary(eventBinary, func(s *wsio.Socket, data []byte) {
		deliver(s, reply{event: eventBinary, bytes: append([]byte(nil), data...)})
	})

	s.Emit(eventRequestString, demoRequest)
	s.EmitBinary(eventRequestBinary, demoBinaryRequest)
}
