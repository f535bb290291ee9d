package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIPort      = 8080
	DefaultSQLitePath   = "arc-events.db"
	DefaultTopicPrefix  = "arc"
	DefaultMQTTClientID = "arc-storyd"
)

// Storage drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type StoryConfig struct {
	Version int `yaml:"version"`
	Story   struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Project string `yaml:"project"`
		Start   string `yaml:"start"`
		Locale  string `yaml:"locale"`
	} `yaml:"story"`
	Network struct {
		APIPort int `yaml:"api_port"`
	} `yaml:"network"`
	Runtime struct {
		MaxHops int     `yaml:"max_hops"`
		Seed    *uint64 `yaml:"seed"`
	} `yaml:"runtime"`
	Storage struct {
		Driver       string `yaml:"driver"`
		SQLitePath   string `yaml:"sqlite_path"`
		RestoreLimit int    `yaml:"restore_limit"`
	} `yaml:"storage"`
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		TopicPrefix string `yaml:"topic_prefix"`
		ClientID    string `yaml:"client_id"`
	} `yaml:"mqtt"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// APIPort returns the configured API port, defaulting to 8080 if not set.
func (c *StoryConfig) APIPort() int {
	if c.Network.APIPort == 0 {
		return DefaultAPIPort
	}
	return c.Network.APIPort
}

// StorageDriver returns the storage driver, defaulting to none.
func (c *StoryConfig) StorageDriver() string {
	if c.Storage.Driver == "" {
		return DriverNone
	}
	return c.Storage.Driver
}

// SQLitePath returns the sqlite database path resolved against the config
// directory.
func (c *StoryConfig) SQLitePath() string {
	p := c.Storage.SQLitePath
	if p == "" {
		p = DefaultSQLitePath
	}
	return c.resolve(p)
}

// ProjectPath returns the story project path resolved against the config
// directory.
func (c *StoryConfig) ProjectPath() string {
	return c.resolve(c.Story.Project)
}

func (c *StoryConfig) TopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.MQTT.TopicPrefix
}

func (c *StoryConfig) MQTTClientID() string {
	if c.MQTT.ClientID == "" {
		return DefaultMQTTClientID
	}
	return c.MQTT.ClientID
}

// StoryID returns the story id, falling back to the name.
func (c *StoryConfig) StoryID() string {
	if c.Story.ID != "" {
		return c.Story.ID
	}
	return c.Story.Name
}

func (c *StoryConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Validate checks values that have a fixed set of choices.
func (c *StoryConfig) Validate() error {
	switch c.StorageDriver() {
	case DriverNone, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}
	if c.Story.Project == "" {
		return fmt.Errorf("story.project is required")
	}
	if c.Network.APIPort < 0 || c.Network.APIPort > 65535 {
		return fmt.Errorf("invalid api_port: %d", c.Network.APIPort)
	}
	if c.Runtime.MaxHops < 0 {
		return fmt.Errorf("invalid max_hops: %d", c.Runtime.MaxHops)
	}
	return nil
}

func LoadStoryConfig(path string) (*StoryConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg StoryConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported story.yaml version: %d", cfg.Version)
	}
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}
