package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/luxd/migrations"

	"github.com/nerrad567/luxd/internal/api"
	"github.com/nerrad567/luxd/internal/channels/ddc"
	"github.com/nerrad567/luxd/internal/channels/wmi"
	"github.com/nerrad567/luxd/internal/history"
	"github.com/nerrad567/luxd/internal/infrastructure/config"
	"github.com/nerrad567/luxd/internal/infrastructure/database"
	"github.com/nerrad567/luxd/internal/infrastructure/logging"
	"github.com/nerrad567/luxd/internal/infrastructure/mqtt"
	"github.com/nerrad567/luxd/internal/monitor"
)

// historyRetention is how long applied brightness values are kept.
// Old entries are pruned once per daemon start.
const historyRetention = 90 * 24 * time.Hour

// newServeCommand runs luxd as a long-lived daemon.
func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the brightness daemon (HTTP API, history, MQTT)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe is the daemon logic, separated from the command for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func runServe(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting luxd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, configPath, err := loadConfig()
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

	// Brightness history
	repo := history.NewSQLiteRepository(db.DB)
	if pruned, pruneErr := repo.Prune(ctx, historyRetention); pruneErr != nil {
		log.Warn("pruning brightness history", "error", pruneErr)
	} else if pruned > 0 {
		log.Info("pruned brightness history", "rows", pruned)
	}

	// Build the dispatcher over the enabled channels
	dispatcher, err := buildDispatcher(cfg, log)
	if err != nil {
		return err
	}
	dispatcher.SetRecorder(&historyRecorder{repo: repo})
	log.Info("channels initialised",
		"wmi", cfg.Channels.WMI.Enabled,
		"ddc", cfg.Channels.DDC.Enabled,
	)

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		dispatcher.SetPublisher(&mqttStatePublisher{client: mqttClient})

		if subErr := subscribeCommands(ctx, mqttClient, dispatcher, log); subErr != nil {
			log.Warn("subscribing to remote commands", "error", subErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Start the HTTP API
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Dispatcher: dispatcher,
		History:    repo,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. MQTT (if enabled)
	// 3. Database

	log.Info("luxd stopped")
	return nil
}

// loadConfig loads the configuration file, falling back to built-in
// defaults when no file exists at the default path. An explicitly
// configured path (LUXD_CONFIG) must exist.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && os.Getenv("LUXD_CONFIG") == "" {
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// buildDispatcher assembles the dispatcher over the channels enabled in config.
func buildDispatcher(cfg *config.Config, log *logging.Logger) (*monitor.Dispatcher, error) {
	var providers []monitor.Provider

	if cfg.Channels.WMI.Enabled {
		p := wmi.New()
		p.SetLogger(log)
		providers = append(providers, p)
	}
	if cfg.Channels.DDC.Enabled {
		p := ddc.New()
		p.SetLogger(log)
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no control channels enabled")
	}

	dispatcher := monitor.NewDispatcher(providers...)
	dispatcher.SetLogger(log)
	return dispatcher, nil
}

// remoteCommand is the payload accepted on the command topic.
type remoteCommand struct {
	Value   *int   `json:"value"`
	Query   string `json:"query,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// subscribeCommands wires the MQTT command topic to the dispatcher so
// external automation can set brightness remotely.
func subscribeCommands(ctx context.Context, client *mqtt.Client, dispatcher *monitor.Dispatcher, log *logging.Logger) error {
	topic := mqtt.Topics{}.CommandSet()
	qos := byte(1)

	return client.Subscribe(topic, qos, func(_ string, payload []byte) error {
		var cmd remoteCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("parsing command payload: %w", err)
		}
		if cmd.Value == nil {
			return fmt.Errorf("command payload missing value")
		}

		constraint, err := monitor.ParseChannel(cmd.Channel)
		if err != nil {
			return err
		}

		_, err = dispatcher.SetBrightness(ctx, *cmd.Value, monitor.ParseQuery(cmd.Query), constraint, false)
		if err != nil {
			return err
		}
		log.Info("remote brightness command applied", "value", *cmd.Value, "query", cmd.Query)
		return nil
	})
}

// historyRecorder adapts the history repository to the dispatcher's
// Recorder interface.
type historyRecorder struct {
	repo history.Repository
}

// RecordBrightness implements monitor.Recorder.
func (r *historyRecorder) RecordBrightness(ctx context.Context, rec monitor.Record, value int) error {
	return r.repo.Record(ctx, history.Entry{
		Serial:  rec.Serial,
		Name:    rec.Name,
		Channel: string(rec.Channel),
		Value:   value,
	})
}

// stateMessage is the JSON payload published to monitor state topics.
type stateMessage struct {
	Value     int    `json:"value"`
	Name      string `json:"name"`
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
}

// mqttStatePublisher adapts the MQTT client to the dispatcher's
// Publisher interface. State is published retained so subscribers see
// the current value immediately.
type mqttStatePublisher struct {
	client *mqtt.Client
}

// PublishBrightness implements monitor.Publisher.
func (p *mqttStatePublisher) PublishBrightness(rec monitor.Record, value int) error {
	payload, err := json.Marshal(stateMessage{
		Value:     value,
		Name:      rec.Name,
		Channel:   string(rec.Channel),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return p.client.PublishRetained(mqtt.Topics{}.MonitorState(rec.Serial), payload)
}
