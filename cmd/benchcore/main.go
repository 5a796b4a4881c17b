// Bench Core - Instrument Bench Daemon
//
// This is the main entry point for the Bench Core application. Bench Core
// manages the instruments on a test bench: it drives them over TCP or MQTT
// transports, samples measurement properties on intervals, records all
// property traffic, and exposes everything over a REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/calder-instruments/bench-core/migrations"

	"github.com/calder-instruments/bench-core/internal/adapters"
	"github.com/calder-instruments/bench-core/internal/api"
	"github.com/calder-instruments/bench-core/internal/infrastructure/config"
	"github.com/calder-instruments/bench-core/internal/infrastructure/database"
	"github.com/calder-instruments/bench-core/internal/infrastructure/influxdb"
	"github.com/calder-instruments/bench-core/internal/infrastructure/logging"
	"github.com/calder-instruments/bench-core/internal/infrastructure/mqtt"
	"github.com/calder-instruments/bench-core/internal/instrument"
	"github.com/calder-instruments/bench-core/internal/poller"
	"github.com/calder-instruments/bench-core/internal/process"
	"github.com/calder-instruments/bench-core/internal/recorder"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pollerStopTimeout is how long to wait for poll loops to drain on shutdown.
const pollerStopTimeout = 10 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Bench Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Set up the recorder: SQLite always, Influx and MQTT when available
	store := recorder.NewSQLiteStore(db.DB)
	sinks := []recorder.Sink{store}
	if influxClient != nil {
		sinks = append(sinks, recorder.NewInfluxSink(influxClient))
	}
	sinks = append(sinks, recorder.NewMQTTSink(mqttClient, byte(cfg.MQTT.QoS)))

	rec := recorder.New(cfg.Bench.ID, sinks, recorder.WithLogger(log))
	if err := store.StartSession(ctx, rec.SessionID(), rec.BenchID()); err != nil {
		return fmt.Errorf("starting recording session: %w", err)
	}
	defer func() {
		if endErr := store.EndSession(context.Background(), rec.SessionID()); endErr != nil {
			log.Error("error ending session", "error", endErr)
		}
	}()
	log.Info("recording session started",
		"session_id", rec.SessionID(),
		"bench_id", rec.BenchID(),
	)

	// Build instruments from configuration
	registry := instrument.NewRegistry()
	registry.SetLogger(log)

	var targets []poller.Target
	for i := range cfg.Instruments {
		ic := &cfg.Instruments[i]

		adapter, buildErr := buildAdapter(ctx, ic, mqttClient, log)
		if buildErr != nil {
			return fmt.Errorf("instrument %s: %w", ic.ID, buildErr)
		}
		defer func(id string, a adapters.Adapter) {
			if closeErr := a.Close(); closeErr != nil {
				log.Error("error closing adapter", "instrument", id, "error", closeErr)
			}
		}(ic.ID, adapter)

		owner := instrument.New(adapter, ic.Name,
			instrument.WithSCPI(ic.SCPIEnabled()),
			instrument.WithQueryDelay(ic.QueryDelay()),
			instrument.WithLogger(log),
		)
		owner.SetObserver(rec.Observe(ic.ID))

		if addErr := registry.Add(&instrument.Entry{
			ID:          ic.ID,
			Owner:       owner,
			AdapterKind: ic.Adapter.Kind,
		}); addErr != nil {
			return fmt.Errorf("registering instrument: %w", addErr)
		}

		if ic.Poll.Enabled {
			targets = append(targets, poller.Target{
				InstrumentID: ic.ID,
				Reader:       owner,
				Properties:   ic.Poll.Properties,
				Interval:     ic.PollInterval(),
			})
		}
	}
	log.Info("instruments initialised", "count", registry.Count())

	// Start the poller under supervision (if anything polls)
	var pollStats api.PollStats
	if len(targets) > 0 {
		pollerOpts := []poller.Option{poller.WithLogger(log)}
		if influxClient != nil {
			pollerOpts = append(pollerOpts, poller.WithStatsWriter(influxClient))
		}
		p := poller.New(targets, pollerOpts...)
		pollStats = p

		pollerMgr := process.NewManager(process.Config{
			Name: "poller",
			Run: func(runCtx context.Context) error {
				p.Run(runCtx)
				return nil
			},
			RestartOnFailure:   true,
			RestartDelay:       5 * time.Second,
			MaxRestartAttempts: 10,
		})
		pollerMgr.SetLogger(log)
		if startErr := pollerMgr.Start(ctx); startErr != nil {
			return fmt.Errorf("starting poller: %w", startErr)
		}
		defer func() {
			log.Info("stopping poller")
			if stopErr := pollerMgr.Stop(pollerStopTimeout); stopErr != nil {
				log.Error("error stopping poller", "error", stopErr)
			}
		}()
		log.Info("poller started", "targets", len(targets))
	} else {
		log.Info("poller disabled, no poll targets configured")
	}

	// Start API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Store:    store,
		Recorder: rec,
		Poller:   pollStats,
		MQTT:     mqttClient,
		DB:       db.DB,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, poller, adapters, session, InfluxDB, MQTT, database.

	log.Info("Bench Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BENCHCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BENCHCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildAdapter creates the transport for one configured instrument.
func buildAdapter(ctx context.Context, ic *config.InstrumentConfig, mqttClient *mqtt.Client, log *logging.Logger) (adapters.Adapter, error) {
	switch ic.Adapter.Kind {
	case "tcp":
		return adapters.DialTCP(ctx, adapters.TCPConfig{
			Connection:      ic.Adapter.Connection,
			ConnectTimeout:  time.Duration(ic.Adapter.ConnectTimeout) * time.Second,
			ReadTimeout:     time.Duration(ic.Adapter.ReadTimeout) * time.Second,
			WriteTimeout:    time.Duration(ic.Adapter.WriteTimeout) * time.Second,
			WriteTerminator: ic.Adapter.WriteTerminator,
			ReadTerminator:  ic.Adapter.ReadTerminator,
			Logger:          log,
		})

	case "mqtt":
		commandTopic := ic.Adapter.CommandTopic
		if commandTopic == "" {
			commandTopic = mqtt.Topics{}.InstrumentCommand(ic.ID)
		}
		replyTopic := ic.Adapter.ReplyTopic
		if replyTopic == "" {
			replyTopic = mqtt.Topics{}.InstrumentReply(ic.ID)
		}
		return adapters.NewMQTT(mqttClient, adapters.MQTTConfig{
			CommandTopic: commandTopic,
			ReplyTopic:   replyTopic,
			QOS:          1,
			ReplyTimeout: time.Duration(ic.Adapter.ReadTimeout) * time.Second,
			Logger:       log,
		})

	case "fake":
		return adapters.NewFake(), nil

	default:
		return nil, fmt.Errorf("unknown adapter kind %q", ic.Adapter.Kind)
	}
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
