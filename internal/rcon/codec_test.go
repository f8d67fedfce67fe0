package rcon

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFrameRoundTrip verifies decode(encode(id, body)) recovers the
// original id and body for a range of payloads.
func TestFrameRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		id   uint32
		body []byte
	}{
		{"empty", 1, []byte{}},
		{"small", 7, []byte("hello")},
		{"json", 42, []byte(`{"Name":"ChangeMap","ContentBody":"foy_warfare"}`)},
		{"binary", 0xFFFFFFFF, []byte{0x00, 0xFF, 0x01, 0xFE}},
		{"id_zero", 0, []byte("zero id is legal on the wire")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame := EncodeFrame(tc.id, tc.body)
			require.Len(t, frame, FrameHeaderSize+len(tc.body))

			id, body, err := DecodeFrame(bytes.NewReader(frame))
			require.NoError(t, err)
			assert.Equal(t, tc.id, id)
			assert.Equal(t, tc.body, body)
		})
	}
}

// TestEncodeFrameHeader verifies the header layout: two little-endian
// uint32 fields, id first, then body length.
func TestEncodeFrameHeader(t *testing.T) {
	frame := EncodeFrame(0x01020304, []byte("abc"))

	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, frame[0:4], "id is little-endian")
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00}, frame[4:8], "length is little-endian")
	assert.Equal(t, []byte("abc"), frame[8:])
}

// TestDecodeFramePeerClosed verifies that a stream ending before the
// announced body length yields a connection-closed IO error.
func TestDecodeFramePeerClosed(t *testing.T) {
	frame := EncodeFrame(3, []byte("full body"))

	// Truncate mid-body.
	_, _, err := DecodeFrame(bytes.NewReader(frame[:FrameHeaderSize+3]))
	require.Error(t, err)
	assert.True(t, IsConnectionClosed(err))

	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr), "peer close is a subtype of IOError")
}

// TestDecodeFrameShortHeader verifies truncation inside the header is
// reported the same way.
func TestDecodeFrameShortHeader(t *testing.T) {
	_, _, err := DecodeFrame(bytes.NewReader([]byte{0x01, 0x02}))
	require.Error(t, err)
	assert.True(t, IsConnectionClosed(err))
}

// errReader fails with a non-EOF error to model a reset connection.
type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDecodeFrameReadFault(t *testing.T) {
	_, _, err := DecodeFrame(errReader{})
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.False(t, IsConnectionClosed(err))
}

// TestXORTransformInvolution verifies applying the transform twice with
// the same key is a no-op.
func TestXORTransformInvolution(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		key  []byte
	}{
		{"short_key", []byte("the quick brown fox"), []byte("k")},
		{"key_longer_than_data", []byte("hi"), []byte("a much longer key than the data")},
		{"binary", []byte{0x00, 0x01, 0xFF, 0xFE, 0x7F}, []byte{0xAA, 0x55}},
		{"empty_data", []byte{}, []byte("key")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			once, err := XORTransform(tc.data, tc.key)
			require.NoError(t, err)

			twice, err := XORTransform(once, tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.data, twice)
		})
	}
}

func TestXORTransformEmptyKey(t *testing.T) {
	_, err := XORTransform([]byte("data"), nil)
	require.Error(t, err)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Contains(t, protoErr.Reason, "xor key not initialized")
}

// TestParseContentBody exercises the nested-JSON decoding heuristic.
func TestParseContentBody(t *testing.T) {
	t.Run("nested_object_with_nul_padding", func(t *testing.T) {
		got := parseContentBody("  {\"a\":1}\x00")
		assert.Equal(t, map[string]interface{}{"a": float64(1)}, got)
	})

	t.Run("nested_array", func(t *testing.T) {
		got := parseContentBody("[1,2]")
		assert.Equal(t, []interface{}{float64(1), float64(2)}, got)
	})

	t.Run("plain_string_unchanged", func(t *testing.T) {
		assert.Equal(t, "plain text", parseContentBody("plain text"))
	})

	t.Run("malformed_json_falls_back_to_string", func(t *testing.T) {
		assert.Equal(t, "{not json", parseContentBody("{not json"))
	})

	t.Run("map_passes_through", func(t *testing.T) {
		m := map[string]interface{}{"MapName": "foy_warfare"}
		assert.Equal(t, m, parseContentBody(m))
	})

	t.Run("nil_passes_through", func(t *testing.T) {
		assert.Nil(t, parseContentBody(nil))
	})
}

// TestStatusFieldDualCasing verifies both field casings some server
// builds emit are accepted.
func TestStatusFieldDualCasing(t *testing.T) {
	upper := map[string]interface{}{"StatusCode": float64(200), "StatusMessage": "OK"}
	lower := map[string]interface{}{"statusCode": float64(500), "statusMessage": "busy"}

	assert.Equal(t, 200, intField(upper, "StatusCode", "statusCode"))
	assert.Equal(t, "OK", stringField(upper, "StatusMessage", "statusMessage"))
	assert.Equal(t, 500, intField(lower, "StatusCode", "statusCode"))
	assert.Equal(t, "busy", stringField(lower, "StatusMessage", "statusMessage"))
}

// TestMessageIDSequence verifies increment-then-use allocation starting
// at 1 and wraparound behavior.
func TestMessageIDSequence(t *testing.T) {
	s := &Session{}
	assert.Equal(t, uint32(1), s.nextMessageID())
	assert.Equal(t, uint32(2), s.nextMessageID())

	s.messageID = 0xFFFFFFFF
	assert.Equal(t, uint32(0), s.nextMessageID(), "wrap modulo 2^32")
	assert.Equal(t, uint32(1), s.nextMessageID())
}

// TestStateTransitions verifies only the forward path through the
// lifecycle is allowed.
func TestStateTransitions(t *testing.T) {
	s := &Session{state: StateDisconnected}

	require.NoError(t, s.transition(StateConnected))
	require.NoError(t, s.transition(StateKeyed))
	require.NoError(t, s.transition(StateAuthenticated))

	err := s.transition(StateConnected)
	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
}

func TestStateSkippingForbidden(t *testing.T) {
	s := &Session{state: StateConnected}
	err := s.transition(StateAuthenticated)
	require.Error(t, err, "cannot authenticate before the key exchange")
}

var _ io.Reader = errReader{}
