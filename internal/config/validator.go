package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// Validate performs validation of the configuration.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	if len(cfg.Servers) == 0 {
		result.AddError("servers",
			"no RCON servers configured; provide SERVER{i}_HOST / SERVER{i}_PORT / SERVER{i}_PASSWORD or RCON_HOST / RCON_PORT / RCON_PASSWORD")
	}

	for i, srv := range cfg.Servers {
		field := fmt.Sprintf("servers[%d]", i)
		if strings.TrimSpace(srv.Host) == "" {
			result.AddError(field+".host", "host is required")
		}
		if srv.Port < 1 || srv.Port > 65535 {
			result.AddError(field+".port",
				fmt.Sprintf("port %d is outside 1-65535; set SERVER%d_PORT or the shared RCON_PORT", srv.Port, i+1))
		}
		if srv.Password == "" {
			result.AddError(field+".password",
				fmt.Sprintf("password is required; set SERVER%d_PASSWORD or the shared RCON_PASSWORD", i+1))
		}
	}

	app := &cfg.ApplicationData
	if app.Rcon.TimeoutSec < 1 {
		result.AddWarning("rcon.timeout_sec", "timeout below 1s, using default")
	}
	if app.API.Port < 1 || app.API.Port > 65535 {
		result.AddError("api.port", fmt.Sprintf("invalid API port %d", app.API.Port))
	}

	crcon := &app.CRCON
	if crcon.BaseURL != "" && (crcon.Username == "" || crcon.Password == "") {
		result.AddWarning("crcon",
			"crcon.base_url is set but username or password is missing; catalogue refresh and HTTP fallback will be disabled")
	}

	if app.MQTT.Enabled && app.MQTT.BrokerURL == "" {
		result.AddError("mqtt.broker_url", "MQTT is enabled but no broker URL is configured")
	}

	return result
}
