// Package protocol implements the wire format for wsio named-event messaging.
//
// Every event name is negotiated down to a 4-character alias when a listener
// is registered. After that, messages carry only the alias. Two message kinds
// share one WebSocket connection and one alias space.
//
// # Text Messages
//
// Text messages are JSON objects with exactly two fields:
//
//	{"f": "<alias>", "d": <payload>}
//
// "f" holds the alias of the target listener. "d" holds an arbitrary JSON
// value, the event payload.
//
// # Binary Messages
//
// Binary messages carry the alias as a fixed-width prefix:
//
//	┌──────────────────────┬───────────────────────────────┐
//	│ Alias                │ Payload                       │
//	│ (4 ASCII bytes)      │ (rest of the message)         │
//	└──────────────────────┴───────────────────────────────┘
//
// There is no length prefix; the length is implied by the WebSocket frame.
//
// # Listener Announcements
//
// The alias "0000" is permanently bound to the control event
// "#WSIO#addListener" on both peers and needs no handshake of its own. When a
// side registers a listener it announces the assigned alias to its peer:
//
//	{"f": "0000", "d": {"listener": "stringMessage", "alias": "0001"}}
//
// The peer records the alias and uses it for every later message addressed
// to that listener. Announcements only travel on the text channel.
package protocol
