// Package maps maintains the catalogue of playable layers, organized
// by game mode and map name. The catalogue refreshes from the CRCON
// API on a TTL, persists the result through the database so restarts
// survive CRCON outages, and falls back to a built-in legacy layer
// table when neither source is available.
package maps

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/crcon"
	"github.com/frontline-project/frontline/internal/db"
	"github.com/frontline-project/frontline/internal/events"
)

// Variant is one selectable layer of a map: the layer id sent to the
// server and the label shown in menus.
type Variant struct {
	ID    string `json:"id"`
	Label string `json:"variant"`
}

// Lister is the CRCON surface the catalogue needs.
type Lister interface {
	GetMaps(ctx context.Context) ([]crcon.Layer, error)
}

var supportedModes = map[string]bool{
	"warfare":   true,
	"offensive": true,
	"skirmish":  true,
}

// Catalogue caches the layer list. All accessors refresh lazily when
// the TTL has elapsed and degrade to the last good data, then to the
// legacy table, when the refresh fails.
type Catalogue struct {
	client Lister
	store  *db.MapStore
	bus    *events.EventBus
	logger zerolog.Logger

	ttl        time.Duration
	staleAfter time.Duration

	mu        sync.Mutex
	data      map[string]map[string][]Variant
	fetchedAt time.Time
	lastErr   string
}

// NewCatalogue builds a catalogue. The client and store may each be
// nil; with both missing the catalogue serves the legacy table only.
// A persisted layer list is loaded immediately so the first reads do
// not block on CRCON.
func NewCatalogue(client Lister, store *db.MapStore, cfg config.CatalogueConfig) *Catalogue {
	c := &Catalogue{
		client:     client,
		store:      store,
		logger:     log.With().Str("component", "catalogue").Logger(),
		ttl:        time.Duration(cfg.TTLSec) * time.Second,
		staleAfter: time.Duration(cfg.StaleAfterSec) * time.Second,
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if c.staleAfter <= 0 {
		c.staleAfter = 7 * 24 * time.Hour
	}

	if store != nil {
		rows, updatedAt, err := store.LoadLayers()
		if err != nil {
			c.logger.Warn().Err(err).Msg("could not load persisted catalogue")
		} else if len(rows) > 0 {
			c.data = fromRows(rows)
			c.fetchedAt = updatedAt
			c.logger.Info().
				Int("layers", len(rows)).
				Time("updated_at", updatedAt).
				Msg("loaded persisted catalogue")
		}
	}

	return c
}

// SetBus attaches an event bus for refresh notifications.
func (c *Catalogue) SetBus(bus *events.EventBus) {
	c.bus = bus
}

// Refresh fetches the layer list from CRCON. Without force it is a
// no-op while the cache is within its TTL, and skips the network while
// persisted data is younger than the stale cutoff. A failed fetch
// keeps the previous data and records the error.
func (c *Catalogue) Refresh(ctx context.Context, force bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, force)
}

func (c *Catalogue) refreshLocked(ctx context.Context, force bool) error {
	now := time.Now()
	if !force && c.data != nil && now.Sub(c.fetchedAt) < c.ttl {
		return nil
	}

	age := c.staleAfter + time.Second
	if !c.fetchedAt.IsZero() {
		age = now.Sub(c.fetchedAt)
	}
	if !force && c.data != nil && age <= c.staleAfter {
		// Persisted data is recent enough; skip the network trip.
		return nil
	}

	if c.client == nil {
		c.lastErr = "no map list source configured"
		return nil
	}

	layers, err := c.client.GetMaps(ctx)
	if err != nil {
		c.lastErr = err.Error()
		c.logger.Warn().Err(err).Msg("map catalogue refresh failed")
		return err
	}

	structured := buildCatalogue(layers)
	if len(structured) == 0 {
		c.lastErr = "map list has no supported game modes"
		c.logger.Warn().Msg("map catalogue refresh returned no supported game modes")
		return &crcon.APIError{Endpoint: "get_maps", Message: c.lastErr}
	}

	added, removed := diffLayers(c.data, structured)
	if len(added) > 0 || len(removed) > 0 {
		c.logger.Info().
			Strs("added", added).
			Strs("removed", removed).
			Msg("map list updated")
	}

	c.data = structured
	c.fetchedAt = now
	c.lastErr = ""

	if c.store != nil {
		if err := c.store.ReplaceLayers(toRows(structured), now); err != nil {
			c.logger.Warn().Err(err).Msg("could not persist catalogue")
		}
	}

	if c.bus != nil {
		c.bus.Emit(ctx, events.Event{
			Type:   events.EventCatalogueRefreshed,
			Source: "catalogue",
			Payload: events.CatalogueRefreshedPayload{
				Layers:  countLayers(structured),
				Added:   added,
				Removed: removed,
			},
		})
	}

	return nil
}

// Modes returns the game modes present in the active catalogue.
func (c *Catalogue) Modes(ctx context.Context) []string {
	data := c.active(ctx)
	modes := make([]string, 0, len(data))
	for mode := range data {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// MapsForMode returns the map names available in a game mode.
func (c *Catalogue) MapsForMode(ctx context.Context, mode string) []string {
	data := c.active(ctx)
	names := make([]string, 0, len(data[mode]))
	for name := range data[mode] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantsForMap returns the variants of one map in a game mode.
func (c *Catalogue) VariantsForMap(ctx context.Context, mode, mapName string) []Variant {
	data := c.active(ctx)
	variants := data[mode][mapName]
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// MapID resolves a mode, map name and variant label to the layer id
// the server accepts.
func (c *Catalogue) MapID(ctx context.Context, mode, mapName, label string) (string, bool) {
	for _, v := range c.VariantsForMap(ctx, mode, mapName) {
		if v.Label == label {
			return v.ID, true
		}
	}
	return "", false
}

// Snapshot returns a deep copy of the active catalogue, for the API.
func (c *Catalogue) Snapshot(ctx context.Context) map[string]map[string][]Variant {
	data := c.active(ctx)
	out := make(map[string]map[string][]Variant, len(data))
	for mode, modeMaps := range data {
		out[mode] = make(map[string][]Variant, len(modeMaps))
		for name, variants := range modeMaps {
			copied := make([]Variant, len(variants))
			copy(copied, variants)
			out[mode][name] = copied
		}
	}
	return out
}

// LastRefreshError returns the most recent refresh failure, or empty
// when the last refresh succeeded.
func (c *Catalogue) LastRefreshError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// active refreshes lazily and returns the data to serve: the cache
// when present, the legacy table otherwise.
func (c *Catalogue) active(ctx context.Context) map[string]map[string][]Variant {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked(ctx, false)
	if c.data != nil {
		return c.data
	}
	return legacyCatalogue
}

// buildCatalogue groups layers by mode and map name, labels each with
// its variant, and drops duplicates and unsupported modes.
func buildCatalogue(layers []crcon.Layer) map[string]map[string][]Variant {
	structured := make(map[string]map[string][]Variant)

	for _, layer := range layers {
		mode := strings.ToLower(layer.GameMode)
		if !supportedModes[mode] {
			continue
		}

		mapName := layer.Map.PrettyName
		if mapName == "" {
			mapName = layer.Map.Name
		}
		if mapName == "" || layer.ID == "" {
			continue
		}

		label := variantLabel(layer)
		if structured[mode] == nil {
			structured[mode] = make(map[string][]Variant)
		}

		duplicate := false
		for _, v := range structured[mode][mapName] {
			if v.Label == label {
				duplicate = true
				break
			}
		}
		if !duplicate {
			structured[mode][mapName] = append(structured[mode][mapName], Variant{ID: layer.ID, Label: label})
		}
	}

	for _, modeMaps := range structured {
		for _, variants := range modeMaps {
			sort.Slice(variants, func(i, j int) bool {
				if variants[i].Label != variants[j].Label {
					return variants[i].Label < variants[j].Label
				}
				return variants[i].ID < variants[j].ID
			})
		}
	}

	return structured
}

func diffLayers(prev, next map[string]map[string][]Variant) (added, removed []string) {
	if prev == nil {
		return nil, nil
	}

	oldSet := layerSet(prev)
	newSet := layerSet(next)

	for id := range newSet {
		if !oldSet[id] {
			added = append(added, id)
		}
	}
	for id := range oldSet {
		if !newSet[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func layerSet(data map[string]map[string][]Variant) map[string]bool {
	set := make(map[string]bool)
	for _, modeMaps := range data {
		for _, variants := range modeMaps {
			for _, v := range variants {
				set[v.ID] = true
			}
		}
	}
	return set
}

func countLayers(data map[string]map[string][]Variant) int {
	n := 0
	for _, modeMaps := range data {
		for _, variants := range modeMaps {
			n += len(variants)
		}
	}
	return n
}

func toRows(data map[string]map[string][]Variant) []db.LayerRow {
	var rows []db.LayerRow
	for mode, modeMaps := range data {
		for name, variants := range modeMaps {
			for _, v := range variants {
				rows = append(rows, db.LayerRow{
					GameMode: mode,
					MapName:  name,
					LayerID:  v.ID,
					Variant:  v.Label,
				})
			}
		}
	}
	return rows
}

func fromRows(rows []db.LayerRow) map[string]map[string][]Variant {
	data := make(map[string]map[string][]Variant)
	for _, row := range rows {
		if data[row.GameMode] == nil {
			data[row.GameMode] = make(map[string][]Variant)
		}
		data[row.GameMode][row.MapName] = append(data[row.GameMode][row.MapName],
			Variant{ID: row.LayerID, Label: row.Variant})
	}
	return data
}
