package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/events"
	"github.com/frontline-project/frontline/internal/rcon/rcontest"
	"github.com/frontline-project/frontline/internal/registry"
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

func sessionInfo(serverName, mapName string) func(interface{}) rcontest.Response {
	return func(interface{}) rcontest.Response {
		return rcontest.OK(map[string]interface{}{
			"ServerName":     serverName,
			"MapName":        mapName,
			"PlayerCount":    14,
			"MaxPlayerCount": 100,
		})
	}
}

func serverConfig(srv *rcontest.Server, name string) config.ServerConfig {
	ep := srv.Endpoint(testPassword)
	return config.ServerConfig{
		Name:     name,
		Host:     ep.Host,
		Port:     ep.Port,
		Password: ep.Password,
	}
}

func TestFetchServerNames(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ServerInformation", sessionInfo("Glorious HLL Server", "foy_warfare"))

	reg := registry.New([]config.ServerConfig{serverConfig(srv, "Configured Name")}, time.Second)
	reg.FetchServerNames()

	servers := reg.ListServers()
	require.Len(t, servers, 1)
	assert.Equal(t, 0, servers[0].Index)
	assert.Equal(t, "Glorious HLL Server", servers[0].Name)
}

func TestFetchServerNamesIsolatesFailures(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ServerInformation", sessionInfo("Alive Server", "foy_warfare"))

	cfgs := []config.ServerConfig{
		{Name: "Dead Server", Host: "127.0.0.1", Port: 1, Password: "x"},
		serverConfig(srv, "Configured Name"),
	}

	reg := registry.New(cfgs, time.Second)
	reg.FetchServerNames()

	servers := reg.ListServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "Dead Server", servers[0].Name)
	assert.Equal(t, "Alive Server", servers[1].Name)
}

func TestCurrentMap(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ServerInformation", sessionInfo("Server", "  stmariedumont_warfare \x00"))

	reg := registry.New([]config.ServerConfig{serverConfig(srv, "Server")}, time.Second)
	assert.Equal(t, "stmariedumont_warfare", reg.CurrentMap(0))
}

func TestCurrentMapDegradesToUnknown(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ServerInformation", func(interface{}) rcontest.Response {
		return rcontest.OK(map[string]interface{}{"ServerName": "Server"})
	})

	reg := registry.New([]config.ServerConfig{
		serverConfig(srv, "Server"),
		{Name: "Dead", Host: "127.0.0.1", Port: 1, Password: "x"},
	}, time.Second)

	assert.Equal(t, registry.UnknownMap, reg.CurrentMap(0), "missing MapName field")
	assert.Equal(t, registry.UnknownMap, reg.CurrentMap(1), "unreachable server")
	assert.Equal(t, registry.UnknownMap, reg.CurrentMap(7), "index out of range")
}

func TestChangeMap(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ChangeMap", func(content interface{}) rcontest.Response {
		assert.Equal(t, "carentan_warfare", content)
		return rcontest.OK("")
	})
	srv.Handle("ServerInformation", sessionInfo("Server", "carentan_warfare"))

	reg := registry.New([]config.ServerConfig{serverConfig(srv, "Server")}, time.Second)

	ok, msg := reg.ChangeMap(context.Background(), 0, "carentan_warfare")
	assert.True(t, ok)
	assert.Contains(t, msg, "carentan_warfare")
}

func TestChangeMapRejected(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ChangeMap", func(interface{}) rcontest.Response {
		return rcontest.Response{StatusCode: 400, StatusMessage: "invalid map name"}
	})

	reg := registry.New([]config.ServerConfig{serverConfig(srv, "Server")}, time.Second)

	ok, msg := reg.ChangeMap(context.Background(), 0, "bogus_map")
	assert.False(t, ok)
	assert.Contains(t, msg, "invalid map name")
}

func TestChangeMapSurvivesReQueryFailure(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ChangeMap", func(interface{}) rcontest.Response {
		return rcontest.OK("")
	})
	srv.Handle("ServerInformation", func(interface{}) rcontest.Response {
		return rcontest.Response{StatusCode: 500, StatusMessage: "busy"}
	})

	reg := registry.New([]config.ServerConfig{serverConfig(srv, "Server")}, time.Second)

	ok, msg := reg.ChangeMap(context.Background(), 0, "utahbeach_warfare")
	assert.True(t, ok, "re-query failure must not invalidate the change")
	assert.Contains(t, msg, "utahbeach_warfare")
}

type stubSetter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubSetter) SetMap(_ context.Context, mapID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, mapID)
	return s.err
}

func (s *stubSetter) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestChangeMapFallback(t *testing.T) {
	reg := registry.New([]config.ServerConfig{
		{Name: "Dead", Host: "127.0.0.1", Port: 1, Password: "x"},
	}, 200*time.Millisecond)

	fb := &stubSetter{}
	reg.SetFallback(fb)

	ok, msg := reg.ChangeMap(context.Background(), 0, "kursk_offensive_ger")
	assert.True(t, ok)
	assert.Contains(t, msg, "fallback")
	assert.Equal(t, []string{"kursk_offensive_ger"}, fb.Calls())
}

func TestChangeMapFallbackAlsoFails(t *testing.T) {
	reg := registry.New([]config.ServerConfig{
		{Name: "Dead", Host: "127.0.0.1", Port: 1, Password: "x"},
	}, 200*time.Millisecond)

	fb := &stubSetter{err: errors.New("crcon unavailable")}
	reg.SetFallback(fb)

	ok, _ := reg.ChangeMap(context.Background(), 0, "kursk_warfare")
	assert.False(t, ok)
	assert.Equal(t, []string{"kursk_warfare"}, fb.Calls())
}

func TestChangeMapEmitsEvents(t *testing.T) {
	srv := startServer(t)
	srv.Handle("ChangeMap", func(interface{}) rcontest.Response {
		return rcontest.OK("")
	})
	srv.Handle("ServerInformation", sessionInfo("Server", "foy_warfare"))

	bus := events.NewEventBus()
	defer bus.Stop()

	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventMapChanged, "test", func(_ context.Context, ev events.Event) error {
		received <- ev
		return nil
	})

	reg := registry.New([]config.ServerConfig{serverConfig(srv, "Server")}, time.Second)
	reg.SetBus(bus)

	ok, _ := reg.ChangeMap(context.Background(), 0, "foy_warfare")
	require.True(t, ok)

	select {
	case ev := <-received:
		payload, isPayload := ev.Payload.(events.MapChangedPayload)
		require.True(t, isPayload)
		assert.Equal(t, 0, payload.ServerIndex)
		assert.Equal(t, "foy_warfare", payload.MapID)
	case <-time.After(time.Second):
		t.Fatal("no map_changed event received")
	}
}
