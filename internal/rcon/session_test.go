package rcon_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontline-project/frontline/internal/rcon"
	"github.com/frontline-project/frontline/internal/rcon/rcontest"
)

const (
	testKey      = "ABCD"
	testToken    = "tok123"
	testPassword = "hunter2"
)

func startServer(t *testing.T) *rcontest.Server {
	t.Helper()
	srv, err := rcontest.NewServer([]byte(testKey), testToken, testPassword)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func TestDialHandshake(t *testing.T) {
	srv := startServer(t)

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, rcon.StateAuthenticated, sess.State())

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "ServerConnect", reqs[0].Name)
	assert.Empty(t, reqs[0].AuthToken)
	assert.Equal(t, "Login", reqs[1].Name)
	assert.Equal(t, testPassword, reqs[1].Content)
	assert.Empty(t, reqs[1].AuthToken, "login carries no auth token yet")
}

func TestDialBadPassword(t *testing.T) {
	srv := startServer(t)

	_, err := rcon.Dial(srv.Endpoint("wrong"), time.Second)
	require.Error(t, err)

	var cmdErr *rcon.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "Login", cmdErr.Command)
	assert.Equal(t, 401, cmdErr.StatusCode)
}

func TestDialConnectionRefused(t *testing.T) {
	srv := startServer(t)
	ep := srv.Endpoint(testPassword)
	srv.Close()

	_, err := rcon.Dial(ep, time.Second)
	require.Error(t, err)

	var connErr *rcon.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, ep.Host, connErr.Host)
	assert.Equal(t, ep.Port, connErr.Port)
}

func TestDialReadDeadline(t *testing.T) {
	srv := startServer(t)
	srv.Mute = true

	start := time.Now()
	_, err := rcon.Dial(srv.Endpoint(testPassword), 200*time.Millisecond)
	require.Error(t, err)

	var ioErr *rcon.IOError
	assert.True(t, errors.As(err, &ioErr), "deadline expiry surfaces as an IO error")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSendCommandRequestShape(t *testing.T) {
	srv := startServer(t)

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.ChangeMap("foy_warfare"))

	reqs := srv.Requests()
	require.Len(t, reqs, 3)

	// The pre-XOR JSON body must match the envelope schema exactly.
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(reqs[2].Body, &envelope))
	assert.Equal(t, map[string]interface{}{
		"AuthToken":   testToken,
		"Version":     float64(2),
		"Name":        "ChangeMap",
		"ContentBody": "foy_warfare",
	}, envelope)
}

func TestSendCommandNon200(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ChangeMap", func(content interface{}) rcontest.Response {
		return rcontest.Response{StatusCode: 500, StatusMessage: "busy"}
	})

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	err = sess.ChangeMap("foy_warfare")
	require.Error(t, err)

	var cmdErr *rcon.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "ChangeMap", cmdErr.Command)
	assert.Equal(t, 500, cmdErr.StatusCode)
	assert.Equal(t, "busy", cmdErr.StatusMessage)
}

func TestSendCommandDesync(t *testing.T) {
	srv := startServer(t)
	srv.DesyncCommand = "ChangeMap"

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	err = sess.ChangeMap("foy_warfare")
	require.Error(t, err)

	var protoErr *rcon.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Contains(t, protoErr.Reason, "did not match")

	// The session is poisoned: nothing further may be issued on it.
	assert.Equal(t, rcon.StateClosed, sess.State())
	_, err = sess.SendCommand("ChangeMap", "foy_warfare")
	require.Error(t, err)
}

func TestSendCommandBeforeHandshake(t *testing.T) {
	// A zero-value session has not completed any handshake step.
	sess := &rcon.Session{}
	_, err := sess.SendCommand("ChangeMap", "foy_warfare")
	require.Error(t, err)

	var protoErr *rcon.ProtocolError
	require.True(t, errors.As(err, &protoErr))
}

func TestServerInformationNestedContent(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ServerInformation", func(content interface{}) rcontest.Response {
		// Some server builds ship the document as a NUL-padded JSON
		// string rather than a structured body.
		return rcontest.OK("{\"ServerName\":\"Test FL #1\",\"MapName\":\"foy_warfare\"}\x00")
	})

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	info, err := sess.ServerInformation("session", "")
	require.NoError(t, err)
	assert.Equal(t, "Test FL #1", info["ServerName"])
	assert.Equal(t, "foy_warfare", info["MapName"])

	// The request content is the {Name, Value} document selector.
	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, map[string]interface{}{"Name": "session", "Value": ""}, last.Content)
}

func TestServerInformationNonMapContent(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ServerInformation", func(content interface{}) rcontest.Response {
		return rcontest.OK("not a document")
	})

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	info, err := sess.ServerInformation("session", "")
	require.NoError(t, err)
	assert.Empty(t, info)
}

func TestCloseIdempotent(t *testing.T) {
	srv := startServer(t)

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	assert.Equal(t, rcon.StateClosed, sess.State())

	// Closing again and using after close are both safe failures.
	sess.Close()
	_, err = sess.SendCommand("ChangeMap", "foy_warfare")
	require.Error(t, err)
}

func TestMessageIDsIncrementAcrossCommands(t *testing.T) {
	srv := startServer(t)

	sess, err := rcon.Dial(srv.Endpoint(testPassword), time.Second)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.ChangeMap("foy_warfare"))
	_, err = sess.ServerInformation("session", "")
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 4)
	for i, req := range reqs {
		assert.Equal(t, uint32(i+1), req.ID, "ids are allocated increment-then-use from 1")
	}
}
