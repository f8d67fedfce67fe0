package db

import (
	"database/sql"
	"fmt"
	"time"
)

// LayerRow is one persisted catalogue entry: a playable layer keyed by
// game mode and map name.
type LayerRow struct {
	GameMode string
	MapName  string
	LayerID  string
	Variant  string
}

const mapStoreSchema = `
CREATE TABLE IF NOT EXISTS map_layers (
	game_mode TEXT NOT NULL,
	map_name  TEXT NOT NULL,
	layer_id  TEXT NOT NULL,
	variant   TEXT NOT NULL,
	PRIMARY KEY (game_mode, map_name, layer_id)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// MapStore persists the map catalogue between runs.
type MapStore struct {
	db *Database
}

// NewMapStore creates the catalogue tables if needed.
func NewMapStore(database *Database) (*MapStore, error) {
	if _, err := database.Exec(mapStoreSchema); err != nil {
		return nil, fmt.Errorf("failed to create map store schema: %w", err)
	}
	return &MapStore{db: database}, nil
}

// ReplaceLayers swaps the stored catalogue for the given rows and
// records the refresh time, all in one transaction.
func (s *MapStore) ReplaceLayers(rows []LayerRow, updatedAt time.Time) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM map_layers"); err != nil {
			return err
		}

		stmt, err := tx.Prepare(
			"INSERT INTO map_layers (game_mode, map_name, layer_id, variant) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.Exec(row.GameMode, row.MapName, row.LayerID, row.Variant); err != nil {
				return err
			}
		}

		_, err = tx.Exec(
			"INSERT INTO meta (key, value) VALUES ('updated_at', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			updatedAt.UTC().Format(time.RFC3339))
		return err
	})
}

// LoadLayers returns the stored catalogue and the time it was last
// refreshed. An empty store returns no rows and a zero time, not an
// error.
func (s *MapStore) LoadLayers() ([]LayerRow, time.Time, error) {
	rows, err := s.db.Query(
		"SELECT game_mode, map_name, layer_id, variant FROM map_layers ORDER BY game_mode, map_name, variant, layer_id")
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var out []LayerRow
	for rows.Next() {
		var row LayerRow
		if err := rows.Scan(&row.GameMode, &row.MapName, &row.LayerID, &row.Variant); err != nil {
			return nil, time.Time{}, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	var stamp string
	err = s.db.QueryRow("SELECT value FROM meta WHERE key = 'updated_at'").Scan(&stamp)
	if err == sql.ErrNoRows {
		return out, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	updatedAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return out, time.Time{}, nil
	}
	return out, updatedAt, nil
}
