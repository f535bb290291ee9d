package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AaronLay10/ArcEngine/internal/api"
	"github.com/AaronLay10/ArcEngine/internal/config"
	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/mqtt"
	"github.com/AaronLay10/ArcEngine/internal/storage"
	"github.com/AaronLay10/ArcEngine/internal/storage/postgres"
	"github.com/AaronLay10/ArcEngine/internal/storage/sqlite"
	"github.com/AaronLay10/ArcEngine/internal/story"
	"github.com/AaronLay10/ArcEngine/internal/version"
)

const healthInterval = 5 * time.Second

type closer interface {
	Close() error
}

func main() {
	configPath := flag.String("config", "story.yaml", "path to story.yaml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("storyd"))
		return
	}

	if err := run(*configPath); err != nil {
		events.Emit("error", "system.error", err.Error(), map[string]interface{}{"service": "storyd"})
		log.Fatalf("storyd: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadStoryConfig(configPath)
	if err != nil {
		return err
	}
	overrides, err := config.LoadOverrides(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	project, err := story.LoadProject(cfg.ProjectPath())
	if err != nil {
		return err
	}
	if cfg.Story.Start != "" {
		if _, ok := project.Element(cfg.Story.Start); !ok {
			return fmt.Errorf("start element %s does not exist", cfg.Story.Start)
		}
		project.StartingElement = cfg.Story.Start
	}

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "storyd starting", map[string]interface{}{
		"service":  "storyd",
		"version":  version.Version,
		"hostname": hostname,
		"pid":      os.Getpid(),
		"story_id": cfg.StoryID(),
	})

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		events.SetStore(store)
		if c, ok := store.(closer); ok {
			defer c.Close()
		}
	}

	localizer := story.NewLocalizer(project, cfg.Story.Locale)
	log.Printf("story %q loaded (locale %s)", project.Name, localizer.Locale())

	rt := story.NewRuntime(project, localizer)
	if cfg.Runtime.MaxHops > 0 {
		rt.SetMaxHops(cfg.Runtime.MaxHops)
	}
	if cfg.Runtime.Seed != nil {
		rt.SetSeed(*cfg.Runtime.Seed)
	}

	if store != nil {
		state, n, err := story.RestoreFromEvents(store, cfg.Storage.RestoreLimit)
		if err != nil {
			log.Printf("restore skipped: %v", err)
		} else if err := rt.ApplyRestoredState(state); err != nil {
			log.Printf("restore failed, starting fresh: %v", err)
		} else {
			story.EmitStartupRestore(n, cfg.StoryID())
		}
	}

	var client *mqtt.Client
	if cfg.MQTT.Enabled {
		client = mqtt.NewClient(overrides.MQTTURL, cfg.MQTTClientID())
		rt.AddVariableSink(mqtt.NewVariablePublisher(client, cfg.TopicPrefix()))
	}

	session := story.NewSession(rt)
	if _, err := session.Start(); err != nil {
		return fmt.Errorf("failed to start story: %w", err)
	}

	if client != nil {
		commands := mqtt.NewCommandSubscriber(client, session, cfg.TopicPrefix())
		client.OnConnect(commands.Resubscribe)
		client.Start()
		defer client.Disconnect()
	}

	if err := api.InitAuth(); err != nil {
		return err
	}
	if err := api.InitTLS(); err != nil {
		return err
	}
	if err := api.InitAlerts(); err != nil {
		return err
	}
	api.InitMetrics()
	api.SetStoryName(cfg.StoryID())
	api.SetSession(session)
	api.SetStoryReady(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probes := healthProbes(cfg, client, store)
	api.RunProbes(ctx, probes)
	api.StartHealthMonitor(ctx, healthInterval, probes)

	err = api.ListenAndServe(ctx, cfg.APIPort())

	events.Emit("info", "system.shutdown", "storyd stopping", map[string]interface{}{"service": "storyd"})
	return err
}

// openStore returns the configured event store, or nil for driver none.
func openStore(cfg *config.StoryConfig) (storage.EventStore, error) {
	switch cfg.StorageDriver() {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath(), cfg.StoryID())
		if err != nil {
			return nil, err
		}
		log.Printf("event store: sqlite %s", cfg.SQLitePath())
		return s, nil

	case config.DriverPostgres:
		pg, err := config.LoadPostgres()
		if err != nil {
			return nil, err
		}
		c, err := postgres.New(postgres.Options{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Database,
			StoryID:  cfg.StoryID(),
		})
		if err != nil {
			return nil, err
		}
		log.Printf("event store: postgres %s:%s/%s", pg.Host, pg.Port, pg.Database)
		return c, nil

	default:
		return nil, nil
	}
}

// healthProbes covers the dependencies that are configured. An unconfigured
// dependency is reported as optional and down.
func healthProbes(cfg *config.StoryConfig, client *mqtt.Client, store storage.EventStore) []api.Probe {
	probes := []api.Probe{
		{
			Dependency: api.DependencyStore,
			Optional:   store == nil,
			Check: func(ctx context.Context) bool {
				return storage.Healthy(ctx, store)
			},
		},
		{
			Dependency: api.DependencyMQTT,
			Optional:   !cfg.MQTT.Enabled,
			Check: func(context.Context) bool {
				return client != nil && client.IsConnected()
			},
		},
	}
	return probes
}
