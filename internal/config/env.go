package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Overrides are environment values that take precedence over story.yaml.
// Zero values leave the file setting in place.
type Overrides struct {
	APIPort       int    `env:"ARC_API_PORT"`
	Locale        string `env:"ARC_LOCALE"`
	StorageDriver string `env:"ARC_STORAGE_DRIVER"`
	SQLitePath    string `env:"ARC_SQLITE_PATH"`
	MQTTURL       string `env:"MQTT_URL"`
}

// Postgres holds the libpq-style connection settings.
type Postgres struct {
	Host     string `env:"PGHOST" envDefault:"localhost"`
	Port     string `env:"PGPORT" envDefault:"5432"`
	User     string `env:"PGUSER" envDefault:"arc"`
	Database string `env:"PGDATABASE" envDefault:"arc"`
	Password string `env:"-"`
}

// LoadOverrides parses the override variables and applies them to cfg.
func LoadOverrides(cfg *StoryConfig) (Overrides, error) {
	var o Overrides
	if err := ParseEnv(&o); err != nil {
		return o, err
	}
	o.Apply(cfg)
	return o, nil
}

func (o Overrides) Apply(cfg *StoryConfig) {
	if o.APIPort != 0 {
		cfg.Network.APIPort = o.APIPort
	}
	if o.Locale != "" {
		cfg.Story.Locale = o.Locale
	}
	if o.StorageDriver != "" {
		cfg.Storage.Driver = o.StorageDriver
	}
	if o.SQLitePath != "" {
		cfg.Storage.SQLitePath = o.SQLitePath
	}
	if o.MQTTURL != "" {
		cfg.MQTT.Enabled = true
	}
}

// LoadPostgres reads the PG* variables. PGPASSWORD supports the *_FILE
// convention.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := ParseEnv(&pg); err != nil {
		return pg, err
	}
	pass, err := ResolveSecret("PGPASSWORD")
	if err != nil {
		return pg, err
	}
	pg.Password = pass
	return pg, nil
}
