// Package config handles configuration loading, validation, and
// persistence for the Frontline rotation controller. Servers can come
// from the JSON config file or from the SERVER{i}_* environment
// scheme; the environment wins when both are present.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "config.json"
	DefaultAPIPort    = 5000
	DefaultTimeoutSec = 5
)

// Config is the root configuration structure for Frontline.
type Config struct {
	mu   sync.RWMutex
	path string

	Servers         []ServerConfig  `json:"servers"`
	ApplicationData ApplicationData `json:"application_data"`
}

// ServerConfig identifies one controllable game server endpoint.
type ServerConfig struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
}

// ApplicationData contains controller application configuration.
type ApplicationData struct {
	Rcon      RconConfig      `json:"rcon"`
	CRCON     CRCONConfig     `json:"crcon"`
	API       APIConfig       `json:"api"`
	MQTT      MQTTConfig      `json:"mqtt"`
	Webhook   WebhookConfig   `json:"webhook"`
	Catalogue CatalogueConfig `json:"catalogue"`
	Security  SecurityConfig  `json:"security"`
	Logging   LoggingConfig   `json:"logging"`
}

// RconConfig holds RCON transport settings.
type RconConfig struct {
	TimeoutSec int `json:"timeout_sec"`
}

// CRCONConfig holds credentials for the companion CRCON HTTP API.
// The HTTP API is a separate system with its own auth scheme; it is
// used for map-list retrieval and as a fallback map-change path.
type CRCONConfig struct {
	BaseURL    string `json:"base_url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	TimeoutSec int    `json:"timeout_sec"`
}

// APIConfig holds the REST API listener settings.
type APIConfig struct {
	Port int `json:"port"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
}

// WebhookConfig holds operator webhook notification settings.
type WebhookConfig struct {
	URL             string `json:"url"`
	NotifyOnChange  bool   `json:"notify_on_change"`
	NotifyOnFailure bool   `json:"notify_on_failure"`
}

// CatalogueConfig holds map catalogue cache settings.
type CatalogueConfig struct {
	DBPath             string `json:"db_path"`
	RefreshIntervalSec int    `json:"refresh_interval_sec"`
	TTLSec             int    `json:"ttl_sec"`
	StaleAfterSec      int    `json:"stale_after_sec"`
}

// SecurityConfig holds API security settings.
type SecurityConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
	APIToken       string   `json:"api_token"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ApplicationData: ApplicationData{
			Rcon: RconConfig{
				TimeoutSec: DefaultTimeoutSec,
			},
			CRCON: CRCONConfig{
				TimeoutSec: 10,
			},
			API: APIConfig{
				Port: DefaultAPIPort,
			},
			MQTT: MQTTConfig{
				Enabled: false,
				Port:    8883,
				UseTLS:  true,
			},
			Webhook: WebhookConfig{
				NotifyOnChange:  true,
				NotifyOnFailure: true,
			},
			Catalogue: CatalogueConfig{
				DBPath:             "config/mapcache.db",
				RefreshIntervalSec: 300,
				TTLSec:             300,
				StaleAfterSec:      7 * 24 * 3600,
			},
			Security: SecurityConfig{
				RateLimitRPS: 100,
			},
			Logging: LoggingConfig{
				Level:      "info",
				Directory:  "logs",
				MaxSizeMB:  10,
				MaxBackups: 5,
			},
		},
	}
}

// Load reads configuration from a JSON file, overlays defaults, then
// applies the environment on top.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	cfg := DefaultConfig()
	cfg.path = configPath

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		log.Info().Str("path", configPath).Msg("config file not found, creating default")
		if saveErr := cfg.Save(); saveErr != nil {
			return nil, fmt.Errorf("failed to save default config: %w", saveErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
		log.Info().Str("path", configPath).Msg("configuration loaded")
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// applyEnvironment overlays environment variables onto the loaded
// configuration. Endpoint definitions in the environment replace the
// file's server list entirely.
func (c *Config) applyEnvironment() {
	if servers := ServersFromEnv(); len(servers) > 0 {
		c.Servers = servers
		log.Info().Int("count", len(servers)).Msg("server endpoints taken from environment")
	}

	crcon := &c.ApplicationData.CRCON
	if v := os.Getenv("CRCON_BASE_URL"); v != "" {
		crcon.BaseURL = v
	}
	if v := os.Getenv("CRCON_USERNAME"); v != "" {
		crcon.Username = v
	}
	if v := os.Getenv("CRCON_PASSWORD"); v != "" {
		crcon.Password = v
	}
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetServers returns a copy of the configured server endpoints.
func (c *Config) GetServers() []ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ServerConfig, len(c.Servers))
	copy(out, c.Servers)
	return out
}

// GetApplicationData returns a copy of the application configuration.
func (c *Config) GetApplicationData() ApplicationData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ApplicationData
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}
