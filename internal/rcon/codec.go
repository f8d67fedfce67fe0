// Package rcon implements a client for the Hell Let Loose RCON V2
// protocol: length-framed binary messages over TCP, a per-session XOR
// stream cipher negotiated during the handshake, and JSON envelopes
// correlated by message id. All header fields use little-endian byte
// order.
package rcon

import (
	"encoding/binary"
	"errors"
	"io"
)

// ProtocolVersion is the RCON V2 protocol version sent in every request.
const ProtocolVersion = 2

// FrameHeaderSize is the size of the frame header: a uint32 message id
// followed by a uint32 body length.
const FrameHeaderSize = 8

// EncodeFrame produces the wire form of a frame: header(id, len(body))
// followed by the body bytes, no padding.
func EncodeFrame(id uint32, body []byte) []byte {
	frame := make([]byte, FrameHeaderSize+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], id)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(body)))
	copy(frame[FrameHeaderSize:], body)
	return frame
}

// DecodeFrame reads exactly one frame from r: 8 header bytes, then
// exactly the announced number of body bytes. A peer close before the
// body is complete yields an IOError wrapping ErrPeerClosed.
func DecodeFrame(r io.Reader) (id uint32, body []byte, err error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, readError(err)
	}

	id = binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])

	body = make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, readError(err)
	}

	return id, body, nil
}

func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &IOError{Op: "read", Err: ErrPeerClosed}
	}
	return &IOError{Op: "read", Err: err}
}

// XORTransform XORs each byte of data with key[i mod len(key)]. The
// transform is involutive, so the same call both obscures and reveals.
// An empty key is a protocol error: the key must have been obtained
// from the ServerConnect handshake before any encrypted frame moves.
func XORTransform(data, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, &ProtocolError{Reason: "xor key not initialized"}
	}

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}
