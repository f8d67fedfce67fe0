package crcon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/crcon"
)

type fakeCRCON struct {
	mux    *http.ServeMux
	logins atomic.Int64
	token  string
}

func newFakeCRCON() *fakeCRCON {
	f := &fakeCRCON{mux: http.NewServeMux(), token: "bearer-1"}
	f.mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if creds["username"] != "admin" || creds["password"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		f.logins.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"result": f.token})
	})
	return f
}

func (f *fakeCRCON) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token
}

func newClient(t *testing.T, f *fakeCRCON) *crcon.Client {
	t.Helper()
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	c, err := crcon.New(config.CRCONConfig{
		BaseURL:  srv.URL + "/", // trailing slash must be tolerated
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := crcon.New(config.CRCONConfig{Username: "admin", Password: "x"})
	assert.Error(t, err, "missing base URL")

	_, err = crcon.New(config.CRCONConfig{BaseURL: "http://x", Password: "x"})
	assert.Error(t, err, "missing username")

	_, err = crcon.New(config.CRCONConfig{BaseURL: "http://x", Username: "admin"})
	assert.Error(t, err, "missing password")
}

func TestGetMapsLazyLogin(t *testing.T) {
	f := newFakeCRCON()
	f.mux.HandleFunc("/get_maps", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"id":          "foy_warfare",
					"game_mode":   "warfare",
					"environment": "day",
					"pretty_name": "Foy Warfare",
					"map":         map[string]string{"name": "foy", "pretty_name": "Foy"},
				},
			},
		})
	})

	c := newClient(t, f)
	layers, err := c.GetMaps(context.Background())
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "foy_warfare", layers[0].ID)
	assert.Equal(t, "warfare", layers[0].GameMode)
	assert.Equal(t, "Foy", layers[0].Map.PrettyName)
	assert.Equal(t, int64(1), f.logins.Load(), "login should happen lazily, once")
}

func TestExpiredTokenRetriesOnce(t *testing.T) {
	f := newFakeCRCON()
	var calls atomic.Int64
	f.mux.HandleFunc("/get_gamestate", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// First call rejects the token to force a re-login.
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"num_allied_players": 40,
				"num_axis_players":   38,
				"raw_time_remaining": "1:02:15",
			},
		})
	})

	c := newClient(t, f)
	gs, err := c.GetGamestate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, gs.NumAlliedPlayers)
	assert.Equal(t, "1:02:15", gs.TimeRemaining)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, int64(2), f.logins.Load(), "initial login plus one refresh")
}

func TestSetMap(t *testing.T) {
	f := newFakeCRCON()
	var got map[string]interface{}
	f.mux.HandleFunc("/set_map", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{"result": "done"})
	})

	c := newClient(t, f)
	require.NoError(t, c.SetMap(context.Background(), "kursk_warfare_night"))
	assert.Equal(t, "kursk_warfare_night", got["map_name"])
}

func TestSetMapServerError(t *testing.T) {
	f := newFakeCRCON()
	f.mux.HandleFunc("/set_map", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken rotation", http.StatusInternalServerError)
	})

	c := newClient(t, f)
	err := c.SetMap(context.Background(), "foy_warfare")
	require.Error(t, err)

	var apiErr *crcon.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "broken rotation")
}

func TestGetObjectiveRowsShape(t *testing.T) {
	f := newFakeCRCON()
	rows := [][]string{
		{"a1", "a2", "a3"},
		{"b1", "b2", "b3"},
		{"c1", "c2", "c3"},
		{"d1", "d2", "d3"},
		{"e1", "e2", "e3"},
	}
	f.mux.HandleFunc("/get_objective_rows", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"result": rows})
	})

	c := newClient(t, f)
	got, err := c.GetObjectiveRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestGetObjectiveRowsWrongRowCount(t *testing.T) {
	f := newFakeCRCON()
	f.mux.HandleFunc("/get_objective_rows", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"result": [][]string{{"only", "one", "row"}},
		})
	})

	c := newClient(t, f)
	_, err := c.GetObjectiveRows(context.Background())
	assert.Error(t, err)
}

func TestSetGameLayoutReportedFailure(t *testing.T) {
	f := newFakeCRCON()
	f.mux.HandleFunc("/set_game_layout", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"failed": true,
			"error":  "invalid objective index",
		})
	})

	c := newClient(t, f)
	err := c.SetGameLayout(context.Background(), []interface{}{0, 1, 2, 1, 0}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid objective index")
}
