package protocol

// EncodeBinary frames payload for alias: the alias bytes followed directly by
// the payload. The result never shares memory with payload.
func EncodeBinary(alias Alias, payload []byte) []byte {
	buf := make([]byte, AliasSize+len(payload))
	copy(buf, alias[:])
	copy(buf[AliasSize:], payload)
	return buf
}

// DecodeBinary splits a binary message into its alias and payload.
// The payload aliases msg.
func DecodeBinary(msg []byte) (Alias, []byte, error) {
	var a Alias
	if len(msg) < AliasSize {
		return a, nil, decodeError("binary", ErrShortBinary)
	}
	copy(a[:], msg[:AliasSize])
	return a, msg[AliasSize:], nil
}
