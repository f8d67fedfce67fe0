// Package crcon implements an HTTP client for the CRCON community
// admin API. It is a peer system to the RCON path with its own
// credential scheme: a username/password login yields a bearer token
// used on every subsequent request. The registry uses it as a map
// change fallback and the catalogue uses it for map list retrieval.
package crcon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/config"
)

const defaultTimeout = 10 * time.Second

// APIError is returned when the CRCON API answers with a non-200
// status or a payload that reports failure.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("crcon %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("crcon %s failed: %s", e.Endpoint, e.Message)
}

// Layer is one playable layer entry from get_maps.
type Layer struct {
	ID          string   `json:"id"`
	GameMode    string   `json:"game_mode"`
	Attackers   string   `json:"attackers"`
	Environment string   `json:"environment"`
	PrettyName  string   `json:"pretty_name"`
	Map         LayerMap `json:"map"`
}

// LayerMap is the base map metadata nested inside a layer entry.
type LayerMap struct {
	Name       string `json:"name"`
	PrettyName string `json:"pretty_name"`
}

// Gamestate is the live state reported by get_gamestate.
type Gamestate struct {
	CurrentMap       interface{} `json:"current_map"`
	NextMap          interface{} `json:"next_map"`
	NumAlliedPlayers int         `json:"num_allied_players"`
	NumAxisPlayers   int         `json:"num_axis_players"`
	AlliedScore      int         `json:"allied_score"`
	AxisScore        int         `json:"axis_score"`
	TimeRemaining    string      `json:"raw_time_remaining"`
}

// Client talks to one CRCON instance. The bearer token is acquired
// lazily on the first call and refreshed once when a request comes
// back 401.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   zerolog.Logger

	mu    sync.Mutex
	token string
}

// New builds a client from configuration. Base URL, username and
// password are all required.
func New(cfg config.CRCONConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("crcon base URL is required")
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return nil, fmt.Errorf("crcon username is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("crcon password is required")
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:  baseURL,
		username: username,
		password: cfg.Password,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		logger: log.With().Str("component", "crcon").Logger(),
	}, nil
}

// Login authenticates and stores the bearer token.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{Endpoint: "login", Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := parseObject(resp, "login")
	if err != nil {
		return err
	}

	token := firstString(data, "result", "token", "access_token")
	if token == "" {
		return &APIError{Endpoint: "login", Message: "response did not include a token"}
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.logger.Debug().Msg("logged in to crcon")
	return nil
}

// GetMaps retrieves the full layer list.
func (c *Client) GetMaps(ctx context.Context) ([]Layer, error) {
	data, err := c.get(ctx, "get_maps")
	if err != nil {
		return nil, err
	}

	raw, ok := data["result"]
	if !ok {
		return nil, &APIError{Endpoint: "get_maps", Message: "response has no result field"}
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var layers []Layer
	if err := json.Unmarshal(encoded, &layers); err != nil {
		return nil, &APIError{Endpoint: "get_maps", Message: fmt.Sprintf("unexpected result shape: %v", err)}
	}
	if len(layers) == 0 {
		return nil, &APIError{Endpoint: "get_maps", Message: "no map entries returned"}
	}
	return layers, nil
}

// GetObjectiveRows fetches the current objectives matrix. The game
// always exposes five rows; anything else is treated as an error.
func (c *Client) GetObjectiveRows(ctx context.Context) ([][]string, error) {
	data, err := c.get(ctx, "get_objective_rows")
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(data["result"])
	if err != nil {
		return nil, err
	}
	var rows [][]string
	if err := json.Unmarshal(encoded, &rows); err != nil || len(rows) != 5 {
		return nil, &APIError{Endpoint: "get_objective_rows", Message: "unexpected objective rows shape"}
	}
	return rows, nil
}

// GetGamestate retrieves live game state.
func (c *Client) GetGamestate(ctx context.Context) (*Gamestate, error) {
	data, err := c.get(ctx, "get_gamestate")
	if err != nil {
		return nil, err
	}
	if failed, _ := data["failed"].(bool); failed {
		return nil, &APIError{Endpoint: "get_gamestate", Message: fmt.Sprintf("%v", data["error"])}
	}

	encoded, err := json.Marshal(data["result"])
	if err != nil {
		return nil, err
	}
	var gs Gamestate
	if err := json.Unmarshal(encoded, &gs); err != nil {
		return nil, &APIError{Endpoint: "get_gamestate", Message: fmt.Sprintf("unexpected result shape: %v", err)}
	}
	return &gs, nil
}

// SetMap changes the current map.
func (c *Client) SetMap(ctx context.Context, mapID string) error {
	_, err := c.post(ctx, "set_map", map[string]interface{}{"map_name": mapID})
	return err
}

// SetGameLayout applies a custom objective layout for the current
// match.
func (c *Client) SetGameLayout(ctx context.Context, objectives []interface{}, randomConstraints int) error {
	data, err := c.post(ctx, "set_game_layout", map[string]interface{}{
		"objectives":         objectives,
		"random_constraints": randomConstraints,
	})
	if err != nil {
		return err
	}
	if failed, _ := data["failed"].(bool); failed {
		return &APIError{Endpoint: "set_game_layout", Message: fmt.Sprintf("%v", data["error"])}
	}
	return nil
}

// get performs an authenticated GET, logging in lazily and retrying
// once after a 401.
func (c *Client) get(ctx context.Context, endpoint string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, endpoint, body)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (map[string]interface{}, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.logger.Debug().Str("endpoint", endpoint).Msg("token rejected, logging in again")

		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()

		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.send(ctx, method, endpoint, body); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	return parseObject(resp, endpoint)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: err.Error()}
	}
	return resp, nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		return nil
	}
	return c.Login(ctx)
}

func (c *Client) bearerToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func parseObject(resp *http.Response, endpoint string) (map[string]interface{}, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: "response is not a JSON object"}
	}
	return data, nil
}

func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
