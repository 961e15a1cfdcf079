package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/mwhitfield/leapgate/internal/accessory"
	"github.com/mwhitfield/leapgate/internal/api"
	"github.com/mwhitfield/leapgate/internal/bridge"
	"github.com/mwhitfield/leapgate/internal/devices"
	"github.com/mwhitfield/leapgate/internal/discovery"
	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
	"github.com/mwhitfield/leapgate/internal/infrastructure/database"
	"github.com/mwhitfield/leapgate/internal/infrastructure/influxdb"
	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/infrastructure/mqtt"
	"github.com/mwhitfield/leapgate/internal/leap"
	"github.com/mwhitfield/leapgate/internal/platform"
	_ "github.com/mwhitfield/leapgate/migrations"
)

// Build metadata, injected via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "leapgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Info("starting leapgate", "version", version, "commit", commit, "built", date)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to mqtt broker: %w", err)
		}
		mqttClient.SetLogger(logger)
		defer mqttClient.Close()
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		switch {
		case errors.Is(err, influxdb.ErrDisabled):
		case err != nil:
			logger.Warn("telemetry unavailable, continuing without it", "error", err)
		default:
			influxClient.SetOnError(func(err error) {
				logger.Warn("telemetry write failed", "error", err)
			})
			defer influxClient.Close()
		}
	}

	secrets, err := bridge.NewSecretStore(cfg.Bridges)
	if err != nil {
		return fmt.Errorf("loading bridge credentials: %w", err)
	}

	repo := accessory.NewSQLiteRepository(db)
	index := accessory.NewIndex()

	var announcer accessory.Announcer
	var publisher devices.Publisher
	if mqttClient != nil {
		announcer = mqttClient
		publisher = mqttClient
	}
	var recorder devices.Recorder
	if influxClient != nil {
		recorder = influxClient
	}

	registry := accessory.NewRegistry(repo, announcer, logger)
	manager := bridge.NewManager()

	var browser discovery.Browser = discovery.NewMDNSBrowser(cfg.Discovery.Service, cfg.Discovery.Domain)
	if !cfg.Discovery.Enabled {
		browser = noopBrowser{}
	}

	plat := platform.New(platform.Deps{
		Logger:    logger,
		Secrets:   secrets,
		Manager:   manager,
		Index:     index,
		Registry:  registry,
		Browser:   browser,
		Options:   devices.ResolveOptions(cfg.Options),
		Publisher: publisher,
		Recorder:  recorder,
	})

	hub := api.NewHub(logger)
	wireEventSinks(plat, hub, mqttClient, logger)

	if err := plat.Start(ctx); err != nil {
		return fmt.Errorf("starting platform: %w", err)
	}
	defer plat.Stop()

	var server *api.Server
	if cfg.API.Enabled {
		server = api.New(api.Deps{
			Config:    cfg.API,
			WebSocket: cfg.WebSocket,
			Security:  cfg.Security,
			Logger:    logger,
			Index:     index,
			Bridges:   plat,
			Hub:       hub,
			Version:   version,
			Health:    db.HealthCheck,
		})
		server.Start()
		defer server.Close()
	}
	defer hub.Close()

	go handleProfileSignal(logger)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// wireEventSinks forwards unclaimed bridge notifications to the MQTT
// bridge event topics and the WebSocket hub.
func wireEventSinks(plat *platform.Platform, hub *api.Hub, mqttClient *mqtt.Client, logger *logging.Logger) {
	topics := mqtt.Topics{}
	plat.Subscribe(func(bridgeID string, msg leap.Message) {
		hub.Broadcast(api.BridgeEvent{
			Type:     string(msg.CommuniqueType),
			BridgeID: bridgeID,
			URL:      msg.Header.URL,
			Body:     msg.Body,
		})

		if mqttClient == nil {
			return
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return
		}
		if err := mqttClient.PublishEvent(topics.BridgeEvent(bridgeID), payload); err != nil {
			logger.Warn("failed to publish bridge event", "bridge_id", bridgeID, "error", err)
		}
	})
}

// noopBrowser disables discovery while keeping the platform wiring
// intact.
type noopBrowser struct{}

func (noopBrowser) Browse(ctx context.Context, _ chan<- discovery.Event) error {
	<-ctx.Done()
	return nil
}

// handleProfileSignal writes a heap profile on SIGUSR2.
func handleProfileSignal(logger *logging.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR2)

	for range sig {
		path := filepath.Join(os.TempDir(), fmt.Sprintf("leapgate-heap-%d.pprof", time.Now().Unix()))
		f, err := os.Create(path)
		if err != nil {
			logger.Error("failed to create heap profile", "error", err)
			continue
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Error("failed to write heap profile", "error", err)
		}
		f.Close()
		logger.Info("heap profile written", "path", path)
	}
}

// getConfigPath resolves the config file location, preferring the
// LEAPGATE_CONFIG environment variable over the default.
func getConfigPath() string {
	if path := os.Getenv("LEAPGATE_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}
