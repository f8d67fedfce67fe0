package rcon

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds the connect and every subsequent read/write
// when the caller does not supply a timeout.
const DefaultTimeout = 5 * time.Second

// Endpoint identifies one controllable game server. Immutable once
// loaded from configuration.
type Endpoint struct {
	Name     string
	Host     string
	Port     int
	Password string
}

// Addr returns the host:port dial address for the endpoint.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// State is the position of a session in its lifecycle. A session only
// ever moves forward: Disconnected -> Connected -> Keyed ->
// Authenticated, and from any state to Closed.
type State int

const (
	StateDisconnected State = iota
	StateConnected          // TCP established, no XOR key yet
	StateKeyed              // XOR key obtained from ServerConnect
	StateAuthenticated      // Login accepted, auth token held
	StateClosed
)

// stateStrings maps State values to their log representation.
var stateStrings = map[State]string{
	StateDisconnected:  "disconnected",
	StateConnected:     "connected",
	StateKeyed:         "keyed",
	StateAuthenticated: "authenticated",
	StateClosed:        "closed",
}

// String returns the string representation of State.
func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return "unknown"
}

// forwardTransitions lists the single legal forward step out of each
// state. Closed is additionally reachable from everywhere via Close.
var forwardTransitions = map[State]State{
	StateDisconnected: StateConnected,
	StateConnected:    StateKeyed,
	StateKeyed:        StateAuthenticated,
}

// Session owns one TCP connection to an RCON V2 endpoint, the XOR key
// and auth token established during its handshake, and the message-id
// counter shared by every frame it sends. Sessions are ephemeral: one
// connect..Close scope per logical operation, exclusively owned by the
// caller that opened it, never reused.
type Session struct {
	endpoint Endpoint
	timeout  time.Duration
	logger   zerolog.Logger

	conn      net.Conn
	state     State
	xorKey    []byte
	authToken string
	messageID uint32
}

// requestEnvelope is the JSON body of an outbound frame.
type requestEnvelope struct {
	AuthToken   string      `json:"AuthToken"`
	Version     int         `json:"Version"`
	Name        string      `json:"Name"`
	ContentBody interface{} `json:"ContentBody"`
}

// response is a decoded inbound envelope plus its frame id.
type response struct {
	ID            uint32
	StatusCode    int
	StatusMessage string
	Name          string
	Content       interface{}
}

// Dial opens a TCP connection to the endpoint and performs the two-step
// handshake (ServerConnect key exchange, then Login). On any failure
// the partially-opened session is torn down before the error returns.
func Dial(endpoint Endpoint, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &Session{
		endpoint: endpoint,
		timeout:  timeout,
		state:    StateDisconnected,
		logger: log.With().
			Str("component", "rcon").
			Str("server", endpoint.Addr()).
			Logger(),
	}

	conn, err := net.DialTimeout("tcp", endpoint.Addr(), timeout)
	if err != nil {
		return nil, &ConnectionError{Host: endpoint.Host, Port: endpoint.Port, Err: err}
	}

	s.conn = conn
	if err := s.transition(StateConnected); err != nil {
		s.Close()
		return nil, err
	}

	if err := s.handshake(); err != nil {
		s.Close()
		return nil, err
	}

	s.logger.Debug().Msg("session authenticated")
	return s, nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Endpoint returns the endpoint this session was dialed against.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

// handshake runs the key exchange and login steps. ServerConnect is the
// only exchange of a session that travels in cleartext.
func (s *Session) handshake() error {
	resp, err := s.exchange("ServerConnect", "", false, false)
	if err != nil {
		return err
	}

	encodedKey, ok := resp.Content.(string)
	if !ok || encodedKey == "" {
		return &ProtocolError{Reason: "ServerConnect did not return an XOR key"}
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return &ProtocolError{Reason: "failed to decode XOR key from ServerConnect: " + err.Error()}
	}
	if len(key) == 0 {
		return &ProtocolError{Reason: "received empty XOR key"}
	}

	s.xorKey = key
	if err := s.transition(StateKeyed); err != nil {
		return err
	}

	// Login shares the XOR key but carries no auth token yet.
	resp, err = s.exchange("Login", s.endpoint.Password, true, false)
	if err != nil {
		return err
	}

	token, ok := resp.Content.(string)
	if !ok || strings.TrimSpace(token) == "" {
		return &ProtocolError{Reason: "Login did not return an auth token"}
	}

	s.authToken = strings.TrimSpace(token)
	return s.transition(StateAuthenticated)
}

// SendCommand issues one authenticated request and returns the decoded
// response content. Valid only once the handshake has completed.
func (s *Session) SendCommand(name string, content interface{}) (interface{}, error) {
	if s.state != StateAuthenticated {
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("command %s sent in state %s, session not authenticated", name, s.state),
		}
	}

	resp, err := s.exchange(name, content, true, true)
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// exchange sends a single request frame and reads its reply. The reply
// must echo the request's message id; a mismatch poisons the session.
func (s *Session) exchange(name string, content interface{}, encrypt, includeAuth bool) (*response, error) {
	if s.conn == nil {
		return nil, &ProtocolError{Reason: "session is closed"}
	}

	if content == nil {
		content = ""
	}

	token := ""
	if includeAuth {
		token = s.authToken
	}

	body, err := json.Marshal(requestEnvelope{
		AuthToken:   token,
		Version:     ProtocolVersion,
		Name:        name,
		ContentBody: content,
	})
	if err != nil {
		return nil, &ProtocolError{Reason: "failed to encode request body: " + err.Error()}
	}

	if encrypt {
		if body, err = XORTransform(body, s.xorKey); err != nil {
			return nil, err
		}
	}

	id := s.nextMessageID()

	s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	if _, err := s.conn.Write(EncodeFrame(id, body)); err != nil {
		return nil, &IOError{Op: "write", Err: err}
	}

	s.conn.SetReadDeadline(time.Now().Add(s.timeout))
	respID, respBody, err := DecodeFrame(s.conn)
	if err != nil {
		return nil, err
	}

	if encrypt {
		if respBody, err = XORTransform(respBody, s.xorKey); err != nil {
			return nil, err
		}
	}

	payload := make(map[string]interface{})
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, &ProtocolError{Reason: "failed to decode response JSON: " + err.Error()}
	}

	if respID != id {
		// The server echoes the request id; a mismatch means the
		// stream is desynchronized and nothing further can be trusted.
		s.poison()
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("response id %d did not match request id %d for %s", respID, id, name),
		}
	}

	resp := &response{
		ID:            respID,
		StatusCode:    intField(payload, "StatusCode", "statusCode"),
		StatusMessage: stringField(payload, "StatusMessage", "statusMessage"),
		Name:          stringField(payload, "Name", "name"),
		Content:       parseContentBody(fieldValue(payload, "ContentBody", "contentBody")),
	}

	if resp.StatusCode != 200 {
		return nil, &CommandError{
			Command:       name,
			StatusCode:    resp.StatusCode,
			StatusMessage: resp.StatusMessage,
		}
	}

	return resp, nil
}

// nextMessageID advances the session's message-id counter: increment
// then wrap modulo 2^32, so the first issued id is 1. Wraparound reuse
// is acceptable because sessions are short-lived.
func (s *Session) nextMessageID() uint32 {
	s.messageID++
	return s.messageID
}

// poison invalidates a desynchronized session: the socket is released
// immediately so no further frame can be read against a stale id.
func (s *Session) poison() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateClosed
}

// Close releases the socket and clears the key and token. Idempotent,
// and safe on a session that failed mid-handshake.
func (s *Session) Close() error {
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	s.xorKey = nil
	s.authToken = ""
	s.state = StateClosed
	return err
}

// transition moves the session forward one lifecycle step, rejecting
// anything the state machine does not allow.
func (s *Session) transition(to State) error {
	if forwardTransitions[s.state] != to {
		return &ProtocolError{
			Reason: fmt.Sprintf("invalid session transition %s -> %s", s.state, to),
		}
	}
	s.state = to
	return nil
}

// parseContentBody applies the content-decoding heuristic: string
// content is stripped of NUL bytes and surrounding whitespace, then
// re-parsed as JSON when it looks like a nested object or array.
// Non-string content passes through unchanged.
func parseContentBody(body interface{}) interface{} {
	str, ok := body.(string)
	if !ok {
		return body
	}

	trimmed := strings.TrimSpace(strings.ReplaceAll(str, "\x00", ""))
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var nested interface{}
		if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
			return nested
		}
	}
	return trimmed
}

// fieldValue looks a field up under each of the given keys in order.
// Some server builds emit lowerCamel field names, so both casings are
// consulted.
func fieldValue(payload map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			return v
		}
	}
	return nil
}

func intField(payload map[string]interface{}, keys ...string) int {
	switch v := fieldValue(payload, keys...).(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringField(payload map[string]interface{}, keys ...string) string {
	if v, ok := fieldValue(payload, keys...).(string); ok {
		return v
	}
	return ""
}
