// Frontline - Hell Let Loose map rotation controller.
//
// Frontline talks RCON V2 to one or more HLL game servers to read and
// change the running map, keeps a catalogue of playable layers fresh
// via the CRCON HTTP API, exposes a REST API and an interactive CLI
// for operators, and publishes rotation telemetry via MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/api"
	"github.com/frontline-project/frontline/internal/cli"
	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/crcon"
	"github.com/frontline-project/frontline/internal/db"
	"github.com/frontline-project/frontline/internal/events"
	"github.com/frontline-project/frontline/internal/maps"
	"github.com/frontline-project/frontline/internal/notify"
	"github.com/frontline-project/frontline/internal/registry"
	"github.com/frontline-project/frontline/internal/scheduler"
	"github.com/frontline-project/frontline/internal/telemetry"
	"github.com/frontline-project/frontline/internal/util"
)

const (
	AppName    = "Frontline"
	AppVersion = "1.0.0"
	Banner     = `
  ______                _   _ _
 |  ____|              | | | (_)
 | |__ _ __ ___  _ __  | |_| |_ _ __   ___
 |  __| '__/ _ \| '_ \ | __| | | '_ \ / _ \
 | |  | | | (_) | | | || |_| | | | | |  __/
 |_|  |_|  \___/|_| |_| \__|_|_|_| |_|\___|  v%s
 HLL Map Rotation Controller
`
)

func main() {
	fmt.Printf(Banner, AppVersion)
	fmt.Println()

	// Initialize logger with defaults first (reconfigured after config load)
	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting Frontline")

	// Load configuration
	cfg, err := config.Load(config.DefaultConfigDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	appData := cfg.GetApplicationData()

	// Re-initialize logger with config-based settings
	logCfg := util.LogConfig{
		Level:      appData.Logging.Level,
		Directory:  appData.Logging.Directory,
		MaxSizeMB:  appData.Logging.MaxSizeMB,
		MaxBackups: appData.Logging.MaxBackups,
		Console:    true,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	// Validate configuration
	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Msg("configuration validation failed, please fix the errors above")
	}

	// Log system info
	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	if localIP, err := util.GetLocalIP(); err == nil {
		log.Info().
			Str("local_ip", localIP).
			Int("api_port", appData.API.Port).
			Msg("network information")
	}

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize core components
	eventBus := events.NewEventBus()

	// CRCON HTTP client (optional): map catalogue source and map change
	// fallback.
	var crconClient *crcon.Client
	if appData.CRCON.BaseURL != "" {
		crconClient, err = crcon.New(appData.CRCON)
		if err != nil {
			log.Warn().Err(err).Msg("CRCON configuration invalid, continuing without it")
		}
	} else {
		log.Info().Msg("CRCON not configured, map catalogue will use built-in data")
	}

	// Persistent map cache
	var mapStore *db.MapStore
	database, err := db.NewDatabase(appData.Catalogue.DBPath)
	if err != nil {
		log.Warn().Err(err).Msg("could not open map cache database, catalogue will not persist")
	} else {
		defer database.Close()
		mapStore, err = db.NewMapStore(database)
		if err != nil {
			log.Warn().Err(err).Msg("could not prepare map cache store")
			mapStore = nil
		}
	}

	// Map catalogue
	var lister maps.Lister
	if crconClient != nil {
		lister = crconClient
	}
	catalogue := maps.NewCatalogue(lister, mapStore, appData.Catalogue)
	catalogue.SetBus(eventBus)

	// Server registry
	timeout := time.Duration(appData.Rcon.TimeoutSec) * time.Second
	reg := registry.New(cfg.GetServers(), timeout)
	reg.SetBus(eventBus)
	if crconClient != nil {
		reg.SetFallback(crconClient)
	}

	// Webhook notifier subscribes itself to rotation events
	notify.NewWebhookNotifier(appData.Webhook, eventBus)

	// REST API
	apiServer := api.NewServer(cfg, reg, catalogue, crconClient)

	// MQTT telemetry
	var mqttHandler *telemetry.MQTTHandler
	if appData.MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(appData.MQTT, eventBus)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	// Scheduler and CLI
	sched := scheduler.NewScheduler(cfg, catalogue, reg)
	cliHandler := cli.NewCLI(reg, catalogue, crconClient, eventBus)

	// Fetch the display names every server reports, one failure does
	// not block startup.
	log.Info().Int("servers", reg.Count()).Msg("fetching server names")
	reg.FetchServerNames()

	// Warm the catalogue; the legacy table covers a failure here.
	if err := catalogue.Refresh(ctx, false); err != nil {
		log.Warn().Err(err).Msg("initial catalogue refresh failed, using cached or built-in data")
	}

	// ---------------------------------------------------------------
	// Launch concurrent tasks
	// ---------------------------------------------------------------
	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	// Task 1: REST API server
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Int("port", appData.API.Port).Msg("starting REST API server")
		if err := apiServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("API server failed")
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	// Task 2: MQTT telemetry
	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed")
			}
		}()
	}

	// Task 3: Scheduler (catalogue and name refreshes)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting task scheduler")
		sched.Start(ctx)
	}()

	// Task 4: Interactive CLI
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting interactive CLI")
		cliHandler.Start(ctx)
	}()

	// The CLI quit command emits a shutdown event.
	shutdownCh := make(chan struct{}, 1)
	eventBus.Subscribe(events.EventShutdown, "main.shutdown", func(context.Context, events.Event) error {
		select {
		case shutdownCh <- struct{}{}:
		default:
		}
		return nil
	})

	// ---------------------------------------------------------------
	// Graceful shutdown handling
	// ---------------------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-shutdownCh:
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	}

	log.Info().Msg("initiating graceful shutdown...")
	cancel()

	// Wait for all goroutines with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out after 30 seconds, forcing exit")
	}

	eventBus.Stop()

	log.Info().Msg("Frontline stopped")
}
