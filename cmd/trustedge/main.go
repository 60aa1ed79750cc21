// TrustEdge Core - Trusted Device Registry and Remote Command Dispatch
//
// This is the main entry point for the TrustEdge Core application.
// TrustEdge keeps an encrypted registry of a user's trusted devices and
// dispatches remote commands (lock, wipe, ping, logout) to them:
//   - Device records encrypted at rest (AES-256-GCM vault)
//   - Online devices get commands immediately; offline devices get a
//     push wake-up and a per-device FIFO queue drained on reconnect
//   - REST + WebSocket API for management clients
//   - MQTT transport to the device agents
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/trustedge/trustedge-core/migrations"

	"github.com/trustedge/trustedge-core/internal/api"
	"github.com/trustedge/trustedge-core/internal/audit"
	"github.com/trustedge/trustedge-core/internal/auth"
	"github.com/trustedge/trustedge-core/internal/bus"
	"github.com/trustedge/trustedge-core/internal/command"
	"github.com/trustedge/trustedge-core/internal/device"
	"github.com/trustedge/trustedge-core/internal/infrastructure/config"
	"github.com/trustedge/trustedge-core/internal/infrastructure/database"
	"github.com/trustedge/trustedge-core/internal/infrastructure/influxdb"
	"github.com/trustedge/trustedge-core/internal/infrastructure/logging"
	"github.com/trustedge/trustedge-core/internal/infrastructure/mqtt"
	"github.com/trustedge/trustedge-core/internal/presence"
	"github.com/trustedge/trustedge-core/internal/secrets"
	"github.com/trustedge/trustedge-core/internal/transport"
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

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
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
	log.Info("starting TrustEdge Core",
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

	// Sealer for encrypted device records
	sealer, err := secrets.NewSealer(cfg.VaultKey())
	if err != nil {
		return fmt.Errorf("initialising vault sealer: %w", err)
	}

	// Event bus: registry, dispatcher and audit all publish/consume here
	events := bus.New()
	events.SetLogger(log)

	// Device registry over the encrypted vault store
	store := device.NewVaultStore(db.DB, sealer)
	store.SetLogger(log)
	registry := device.NewRegistry(store, events)
	registry.SetLogger(log)

	devices, err := registry.GetDevices(ctx)
	if err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry initialised", "devices", len(devices))

	// Connectivity tracker
	tracker := presence.NewTracker()

	// Connect to MQTT broker (optional; without it commands loop back
	// and presence is driven through the API)
	var mqttClient *mqtt.Client
	var agentTransport command.Transport = transport.Loopback{}
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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

		mqttTransport := transport.NewMQTTTransport(mqttClient, byte(cfg.MQTT.QoS))
		mqttTransport.SetLogger(log)
		agentTransport = mqttTransport
	} else {
		log.Info("MQTT disabled, using loopback transport")
	}

	// Command dispatcher
	dispatcher := command.NewDispatcher(registry, tracker, agentTransport, events)
	dispatcher.SetLogger(log)

	// Presence listener: broker LWT/status messages drive connectivity
	if mqttClient != nil {
		listener := transport.NewPresenceListener(mqttClient, dispatcher, byte(cfg.MQTT.QoS))
		listener.SetLogger(log)
		if startErr := listener.Start(ctx); startErr != nil {
			return fmt.Errorf("starting presence listener: %w", startErr)
		}
		log.Info("presence listener started")

		// Ack listener: device-reported command outcomes
		acks := transport.NewAckListener(mqttClient, dispatcher, byte(cfg.MQTT.QoS))
		acks.SetLogger(log)
		if startErr := acks.Start(ctx); startErr != nil {
			return fmt.Errorf("starting ack listener: %w", startErr)
		}
		log.Info("ack listener started")

		// Event bridge: domain events republished on core topics
		bridge := transport.NewEventBridge(mqttClient, events, byte(cfg.MQTT.QoS))
		bridge.SetLogger(log)
		bridge.Start(ctx)
	}

	// Operator accounts; first boot seeds an admin
	userRepo := auth.NewUserRepository(db.DB)
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Audit trail: registry and dispatcher events persisted to SQLite
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo)
	recorder.SetLogger(log)
	recorder.Start(ctx, events)
	defer func() {
		log.Info("stopping audit recorder")
		recorder.Stop()
	}()
	log.Info("audit recorder started")

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

		dispatcher.SetOutcomeObserver(commandOutcomeObserver(influxClient))
		dispatcher.SetAckObserver(commandAckObserver(influxClient))
		go recordMetrics(ctx, influxClient, tracker, dispatcher, registry, log)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start API server (REST + WebSocket)
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Registry:   registry,
		Dispatcher: dispatcher,
		Tracker:    tracker,
		Users:      userRepo,
		AuditRepo:  auditRepo,
		Events:     events,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. Audit recorder
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("TrustEdge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TRUSTEDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TRUSTEDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
