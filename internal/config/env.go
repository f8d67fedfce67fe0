package config

import (
	"fmt"
	"os"
	"strconv"
)

// ServersFromEnv builds the server list from the indexed environment
// scheme: SERVER{i}_HOST / SERVER{i}_PORT / SERVER{i}_PASSWORD /
// SERVER{i}_NAME starting at i=1, with RCON_PORT and RCON_PASSWORD as
// shared fallbacks. When no indexed server is defined, a single legacy
// endpoint is read from RCON_HOST / RCON_PORT / RCON_PASSWORD.
// Returns nil when the environment defines no endpoint at all.
func ServersFromEnv() []ServerConfig {
	sharedPassword := os.Getenv("RCON_PASSWORD")
	sharedPort := envInt("RCON_PORT", 0)

	var servers []ServerConfig
	for index := 1; ; index++ {
		host := os.Getenv(fmt.Sprintf("SERVER%d_HOST", index))
		if host == "" {
			break
		}

		name := os.Getenv(fmt.Sprintf("SERVER%d_NAME", index))
		if name == "" {
			name = fmt.Sprintf("HLL Server %d", index)
		}

		port := envInt(fmt.Sprintf("SERVER%d_PORT", index), sharedPort)
		password := os.Getenv(fmt.Sprintf("SERVER%d_PASSWORD", index))
		if password == "" {
			password = sharedPassword
		}

		servers = append(servers, ServerConfig{
			Name:     name,
			Host:     host,
			Port:     port,
			Password: password,
		})
	}

	if len(servers) > 0 {
		return servers
	}

	// Legacy single-endpoint form.
	host := os.Getenv("RCON_HOST")
	if host == "" || sharedPort == 0 || sharedPassword == "" {
		return nil
	}

	name := os.Getenv("SERVER_NAME")
	if name == "" {
		name = "HLL Server"
	}

	return []ServerConfig{{
		Name:     name,
		Host:     host,
		Port:     sharedPort,
		Password: sharedPassword,
	}}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
