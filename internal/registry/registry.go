// Package registry resolves configured backend servers to short-lived
// RCON sessions and exposes the name, current-map and change-map
// operations used by the API and CLI layers.
//
// Every public operation is self-contained: it opens a fresh session,
// performs the handshake and commands, and tears the session down
// before returning. Connections are never pooled or reused across
// calls, so concurrent operations need no locking beyond the display
// name cache.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/events"
	"github.com/frontline-project/frontline/internal/rcon"
)

// UnknownMap is returned by CurrentMap when the server cannot be
// reached or does not report a map name.
const UnknownMap = "Unknown"

// MapSetter is the narrow fallback surface tried when the RCON path
// fails during a map change. The CRCON HTTP client implements it.
type MapSetter interface {
	SetMap(ctx context.Context, mapID string) error
}

// ServerInfo is one entry in the server listing.
type ServerInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Registry holds the configured endpoints and their cached display
// names. Sessions are created per operation and never stored.
type Registry struct {
	mu       sync.RWMutex
	servers  []serverEntry
	timeout  time.Duration
	bus      *events.EventBus
	fallback MapSetter
	logger   zerolog.Logger
}

type serverEntry struct {
	endpoint    rcon.Endpoint
	displayName string
}

// New builds a registry from the configured server list. Servers are
// numbered 0..N-1 in configuration order. Display names default to the
// configured name until FetchServerNames replaces them with the names
// the servers report.
func New(servers []config.ServerConfig, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = rcon.DefaultTimeout
	}

	entries := make([]serverEntry, 0, len(servers))
	for _, s := range servers {
		entries = append(entries, serverEntry{
			endpoint: rcon.Endpoint{
				Name:     s.Name,
				Host:     s.Host,
				Port:     s.Port,
				Password: s.Password,
			},
			displayName: s.Name,
		})
	}

	return &Registry{
		servers: entries,
		timeout: timeout,
		logger:  log.With().Str("component", "registry").Logger(),
	}
}

// SetBus attaches an event bus for map-change notifications.
func (r *Registry) SetBus(bus *events.EventBus) {
	r.bus = bus
}

// SetFallback attaches a secondary map setter tried when the RCON
// change-map path fails.
func (r *Registry) SetFallback(f MapSetter) {
	r.fallback = f
}

// Count returns the number of configured servers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// ListServers returns the index and display name of every configured
// server.
func (r *Registry) ListServers() []ServerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServerInfo, 0, len(r.servers))
	for i, s := range r.servers {
		out = append(out, ServerInfo{Index: i, Name: s.displayName})
	}
	return out
}

// FetchServerNames queries every configured server for the name it
// reports in its session information and caches it as the display
// name. A failure against one server is logged and leaves that
// server's configured name in place; it never aborts the loop.
func (r *Registry) FetchServerNames() {
	r.mu.RLock()
	count := len(r.servers)
	r.mu.RUnlock()

	for i := 0; i < count; i++ {
		name, err := r.queryServerName(i)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Int("server", i).
				Msg("could not fetch server name, keeping configured name")
			continue
		}

		r.mu.Lock()
		r.servers[i].displayName = name
		r.mu.Unlock()

		r.logger.Info().
			Int("server", i).
			Str("name", name).
			Msg("fetched server name")
	}
}

func (r *Registry) queryServerName(index int) (string, error) {
	endpoint, err := r.endpointAt(index)
	if err != nil {
		return "", err
	}

	session, err := rcon.Dial(endpoint, r.timeout)
	if err != nil {
		return "", err
	}
	defer session.Close()

	info, err := session.ServerInformation("session", "")
	if err != nil {
		return "", err
	}

	name := cleanField(info, "ServerName")
	if name == "" {
		return "", fmt.Errorf("session info has no server name")
	}
	return name, nil
}

// CurrentMap returns the map currently running on the given server, or
// UnknownMap on any failure. It never returns an error: connection,
// auth and protocol failures all degrade to the sentinel.
func (r *Registry) CurrentMap(index int) string {
	endpoint, err := r.endpointAt(index)
	if err != nil {
		r.logger.Warn().Err(err).Int("server", index).Msg("current map lookup failed")
		return UnknownMap
	}

	session, err := rcon.Dial(endpoint, r.timeout)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Int("server", index).
			Str("host", endpoint.Host).
			Msg("current map lookup failed")
		return UnknownMap
	}
	defer session.Close()

	info, err := session.ServerInformation("session", "")
	if err != nil {
		r.logger.Warn().Err(err).Int("server", index).Msg("current map lookup failed")
		return UnknownMap
	}

	name := cleanField(info, "MapName")
	if name == "" {
		return UnknownMap
	}
	return name
}

// ChangeMap switches the given server to mapID. It returns whether the
// change was accepted together with an operator-facing message; it
// never returns an error. On RCON failure the attached fallback map
// setter, if any, is tried before reporting failure. After a
// successful change the new map name is re-queried best-effort for the
// success message; a failure there does not invalidate the change.
func (r *Registry) ChangeMap(ctx context.Context, index int, mapID string) (bool, string) {
	endpoint, err := r.endpointAt(index)
	if err != nil {
		return false, err.Error()
	}

	displayName := r.displayNameAt(index)

	ok, msg := r.changeMapRcon(endpoint, mapID)
	if !ok && r.fallback != nil {
		r.logger.Warn().
			Int("server", index).
			Str("map", mapID).
			Str("reason", msg).
			Msg("rcon map change failed, trying fallback")
		if fbErr := r.fallback.SetMap(ctx, mapID); fbErr == nil {
			ok = true
			msg = fmt.Sprintf("Map change to %s sent via fallback", mapID)
		}
	}

	if ok {
		r.logger.Info().
			Int("server", index).
			Str("map", mapID).
			Msg("map changed")
		r.emit(ctx, events.Event{
			Type:   events.EventMapChanged,
			Source: "registry",
			Payload: events.MapChangedPayload{
				ServerIndex: index,
				ServerName:  displayName,
				MapID:       mapID,
				Message:     msg,
			},
		})
	} else {
		r.logger.Warn().
			Int("server", index).
			Str("map", mapID).
			Str("reason", msg).
			Msg("map change failed")
		r.emit(ctx, events.Event{
			Type:   events.EventMapChangeFailed,
			Source: "registry",
			Payload: events.MapChangeFailedPayload{
				ServerIndex: index,
				ServerName:  displayName,
				MapID:       mapID,
				Reason:      msg,
			},
		})
	}

	return ok, msg
}

func (r *Registry) changeMapRcon(endpoint rcon.Endpoint, mapID string) (bool, string) {
	session, err := rcon.Dial(endpoint, r.timeout)
	if err != nil {
		return false, err.Error()
	}
	defer session.Close()

	if err := session.ChangeMap(mapID); err != nil {
		return false, err.Error()
	}

	msg := fmt.Sprintf("Map change to %s accepted", mapID)
	if info, err := session.ServerInformation("session", ""); err == nil {
		if name := cleanField(info, "MapName"); name != "" {
			msg = fmt.Sprintf("Map changed, server now reports %s", name)
		}
	}
	return true, msg
}

func (r *Registry) endpointAt(index int) (rcon.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.servers) {
		return rcon.Endpoint{}, fmt.Errorf("no server with index %d", index)
	}
	return r.servers[index].endpoint, nil
}

func (r *Registry) displayNameAt(index int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.servers) {
		return ""
	}
	return r.servers[index].displayName
}

func (r *Registry) emit(ctx context.Context, event events.Event) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(ctx, event)
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// cleanField extracts a string field and strips the NUL padding and
// whitespace HLL servers wrap around names.
func cleanField(m map[string]interface{}, key string) string {
	return strings.TrimFunc(stringField(m, key), func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}
