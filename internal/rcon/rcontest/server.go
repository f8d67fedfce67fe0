// Package rcontest provides an in-process RCON V2 server for tests.
// It speaks the real wire format (length-framed little-endian headers,
// XOR-obscured JSON envelopes) over a loopback TCP listener so client
// code is exercised end to end.
package rcontest

import (
	"encoding/base64"
	"encoding/json"
	"net"
	"sync"

	"github.com/frontline-project/frontline/internal/rcon"
)

// Response is what a command handler returns to the client.
type Response struct {
	StatusCode    int
	StatusMessage string
	Content       interface{}
}

// OK builds a 200 response carrying the given content.
func OK(content interface{}) Response {
	return Response{StatusCode: 200, StatusMessage: "OK", Content: content}
}

// Request is one decoded envelope received from the client, with the
// plaintext JSON body as it looked before XOR was applied.
type Request struct {
	ID        uint32
	Name      string
	AuthToken string
	Content   interface{}
	Body      []byte
}

// Server is a scriptable RCON V2 endpoint bound to 127.0.0.1.
type Server struct {
	ln       net.Listener
	key      []byte
	token    string
	password string

	mu       sync.Mutex
	handlers map[string]func(content interface{}) Response
	requests []Request

	// DesyncCommand, when set, makes the server echo a wrong message
	// id on that command's response.
	DesyncCommand string

	// Mute, when true, makes the server accept connections but never
	// answer, so client read deadlines fire.
	Mute bool
}

// NewServer starts a server with the given XOR key, auth token, and
// accepted password, listening on an ephemeral loopback port.
func NewServer(key []byte, token, password string) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:       ln,
		key:      key,
		token:    token,
		password: password,
		handlers: make(map[string]func(content interface{}) Response),
	}

	go s.acceptLoop()
	return s, nil
}

// Handle registers a handler for an authenticated command name.
// Unhandled commands are answered with a bare 200.
func (s *Server) Handle(name string, fn func(content interface{}) Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = fn
}

// Endpoint returns an endpoint pointing at the server, carrying the
// given password.
func (s *Server) Endpoint(password string) rcon.Endpoint {
	addr := s.ln.Addr().(*net.TCPAddr)
	return rcon.Endpoint{
		Name:     "test server",
		Host:     addr.IP.String(),
		Port:     addr.Port,
		Password: password,
	}
}

// Requests returns every envelope received so far, handshake included.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close stops the listener. In-flight connections are abandoned.
func (s *Server) Close() {
	s.ln.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serveConn(conn)
	}
}

type envelope struct {
	AuthToken   string      `json:"AuthToken"`
	Version     int         `json:"Version"`
	Name        string      `json:"Name"`
	ContentBody interface{} `json:"ContentBody"`
}

type replyEnvelope struct {
	StatusCode    int         `json:"StatusCode"`
	StatusMessage string      `json:"StatusMessage"`
	Name          string      `json:"Name"`
	ContentBody   interface{} `json:"ContentBody"`
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	if s.Mute {
		// Swallow whatever arrives until the client gives up.
		buf := make([]byte, 4096)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}

	encrypted := false
	for {
		id, body, err := rcon.DecodeFrame(conn)
		if err != nil {
			return
		}

		plain := body
		if encrypted {
			plain, err = rcon.XORTransform(body, s.key)
			if err != nil {
				return
			}
		}

		var req envelope
		if err := json.Unmarshal(plain, &req); err != nil {
			return
		}

		s.record(Request{
			ID:        id,
			Name:      req.Name,
			AuthToken: req.AuthToken,
			Content:   req.ContentBody,
			Body:      append([]byte(nil), plain...),
		})

		resp := s.dispatch(req)
		reply, err := json.Marshal(replyEnvelope{
			StatusCode:    resp.StatusCode,
			StatusMessage: resp.StatusMessage,
			Name:          req.Name,
			ContentBody:   resp.Content,
		})
		if err != nil {
			return
		}

		if encrypted {
			if reply, err = rcon.XORTransform(reply, s.key); err != nil {
				return
			}
		}

		respID := id
		if s.DesyncCommand == req.Name {
			respID = id + 100
		}

		if _, err := conn.Write(rcon.EncodeFrame(respID, reply)); err != nil {
			return
		}

		// Everything after the ServerConnect reply travels XOR'd.
		if req.Name == "ServerConnect" {
			encrypted = true
		}
	}
}

func (s *Server) dispatch(req envelope) Response {
	switch req.Name {
	case "ServerConnect":
		return OK(base64.StdEncoding.EncodeToString(s.key))
	case "Login":
		if pw, _ := req.ContentBody.(string); pw != s.password {
			return Response{StatusCode: 401, StatusMessage: "invalid password"}
		}
		return OK(s.token)
	}

	s.mu.Lock()
	fn := s.handlers[req.Name]
	s.mu.Unlock()

	if fn == nil {
		return OK("")
	}
	return fn(req.ContentBody)
}

func (s *Server) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}
