package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/maps"
	"github.com/frontline-project/frontline/internal/registry"
)

func testRouter(t *testing.T, apiToken string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Servers = []config.ServerConfig{
		{Name: "Dead Server", Host: "127.0.0.1", Port: 1, Password: "x"},
	}
	cfg.ApplicationData.Security.APIToken = apiToken

	reg := registry.New(cfg.GetServers(), 200*time.Millisecond)
	catalogue := maps.NewCatalogue(nil, nil, cfg.GetApplicationData().Catalogue)

	s := NewServer(cfg, reg, catalogue, nil)
	return s.buildRouter()
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodGet, "/api/public/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestTokenRequired(t *testing.T) {
	router := testRouter(t, "sekret")

	w := doRequest(router, http.MethodGet, "/api/servers", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/servers", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/servers", "sekret", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dead Server")
}

func TestPublicEndpointsSkipToken(t *testing.T) {
	router := testRouter(t, "sekret")

	w := doRequest(router, http.MethodGet, "/api/public/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentMapUnknownServer(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodGet, "/api/servers/7/map", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrentMapDegrades(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodGet, "/api/servers/0/map", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), registry.UnknownMap)
}

func TestChangeMapValidation(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodPost, "/api/servers/0/map", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeMapUnreachableServer(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodPost, "/api/servers/0/map", "", `{"map_id":"foy_warfare"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestCatalogueEndpoints(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodGet, "/api/maps/warfare", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Foy")

	w = doRequest(router, http.MethodGet, "/api/maps/bogus_mode", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/maps/warfare/variants?name=Foy", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "foy_warfare_night")

	w = doRequest(router, http.MethodGet, "/api/maps/warfare/variants", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGamestateUnconfigured(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodGet, "/api/gamestate", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	router := testRouter(t, "")

	w := doRequest(router, http.MethodGet, "/api/public/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"servers":1`)
}
