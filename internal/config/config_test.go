package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// unsetenv clears variables for the duration of the test.
func unsetenv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadStoryConfig(t *testing.T) {
	path := writeConfig(t, `
version: 1
story:
  id: cellar
  name: The Cellar
  project: projects/cellar.json
  locale: fr
network:
  api_port: 9090
runtime:
  max_hops: 16
  seed: 7
storage:
  driver: sqlite
  sqlite_path: /var/lib/arc/events.db
  restore_limit: 500
mqtt:
  enabled: true
  topic_prefix: rooms/cellar
`)
	cfg, err := LoadStoryConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.StoryID() != "cellar" || cfg.Story.Locale != "fr" {
		t.Errorf("unexpected story section: %+v", cfg.Story)
	}
	if cfg.APIPort() != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.APIPort())
	}
	if cfg.Runtime.MaxHops != 16 || cfg.Runtime.Seed == nil || *cfg.Runtime.Seed != 7 {
		t.Errorf("unexpected runtime section: %+v", cfg.Runtime)
	}
	if cfg.StorageDriver() != DriverSQLite || cfg.SQLitePath() != "/var/lib/arc/events.db" {
		t.Errorf("unexpected storage: %s %s", cfg.StorageDriver(), cfg.SQLitePath())
	}
	if cfg.Storage.RestoreLimit != 500 {
		t.Errorf("expected restore limit 500, got %d", cfg.Storage.RestoreLimit)
	}
	if !cfg.MQTT.Enabled || cfg.TopicPrefix() != "rooms/cellar" || cfg.MQTTClientID() != DefaultMQTTClientID {
		t.Errorf("unexpected mqtt section: %+v", cfg.MQTT)
	}

	want := filepath.Join(filepath.Dir(path), "projects", "cellar.json")
	if cfg.ProjectPath() != want {
		t.Errorf("expected project path %s, got %s", want, cfg.ProjectPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestStoryConfigDefaults(t *testing.T) {
	cfg, err := LoadStoryConfig(writeConfig(t, "version: 1\nstory:\n  name: Demo\n  project: demo.json\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.APIPort() != DefaultAPIPort {
		t.Errorf("expected default port, got %d", cfg.APIPort())
	}
	if cfg.StorageDriver() != DriverNone {
		t.Errorf("expected storage driver none, got %s", cfg.StorageDriver())
	}
	if filepath.Base(cfg.SQLitePath()) != DefaultSQLitePath {
		t.Errorf("expected default sqlite path, got %s", cfg.SQLitePath())
	}
	if cfg.TopicPrefix() != DefaultTopicPrefix {
		t.Errorf("expected default topic prefix, got %s", cfg.TopicPrefix())
	}
	if cfg.StoryID() != "Demo" {
		t.Errorf("expected story id to fall back to name, got %s", cfg.StoryID())
	}
	if cfg.Runtime.Seed != nil {
		t.Error("expected no seed")
	}
}

func TestLoadStoryConfigErrors(t *testing.T) {
	if _, err := LoadStoryConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadStoryConfig(writeConfig(t, "version: [")); err == nil {
		t.Error("expected error for invalid yaml")
	}

	_, err := LoadStoryConfig(writeConfig(t, "version: 2\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported story.yaml version: 2") {
		t.Errorf("expected version error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad driver", "version: 1\nstory: {project: a.json}\nstorage: {driver: mongo}\n", "unsupported storage driver"},
		{"no project", "version: 1\n", "story.project is required"},
		{"bad port", "version: 1\nstory: {project: a.json}\nnetwork: {api_port: 70000}\n", "invalid api_port"},
		{"bad hops", "version: 1\nstory: {project: a.json}\nruntime: {max_hops: -1}\n", "invalid max_hops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadStoryConfig(writeConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadStoryConfig(writeConfig(t, "version: 1\nstory: {project: a.json, locale: en}\nnetwork: {api_port: 9000}\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	t.Setenv("ARC_API_PORT", "9191")
	t.Setenv("ARC_LOCALE", "de")
	t.Setenv("ARC_STORAGE_DRIVER", "sqlite")
	t.Setenv("ARC_SQLITE_PATH", "/tmp/arc.db")
	t.Setenv("MQTT_URL", "tcp://broker:1883")

	o, err := LoadOverrides(cfg)
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if o.MQTTURL != "tcp://broker:1883" {
		t.Errorf("expected MQTT url, got %q", o.MQTTURL)
	}
	if cfg.APIPort() != 9191 || cfg.Story.Locale != "de" {
		t.Errorf("expected overrides applied, got port %d locale %s", cfg.APIPort(), cfg.Story.Locale)
	}
	if cfg.StorageDriver() != DriverSQLite || cfg.SQLitePath() != "/tmp/arc.db" {
		t.Errorf("unexpected storage: %s %s", cfg.StorageDriver(), cfg.SQLitePath())
	}
	if !cfg.MQTT.Enabled {
		t.Error("expected MQTT_URL to enable mqtt")
	}
}

func TestLoadOverridesKeepsFileValues(t *testing.T) {
	cfg, err := LoadStoryConfig(writeConfig(t, "version: 1\nstory: {project: a.json, locale: en}\nnetwork: {api_port: 9000}\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	unsetenv(t, "ARC_API_PORT", "ARC_LOCALE", "ARC_STORAGE_DRIVER", "ARC_SQLITE_PATH", "MQTT_URL")

	if _, err := LoadOverrides(cfg); err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if cfg.APIPort() != 9000 || cfg.Story.Locale != "en" || cfg.MQTT.Enabled {
		t.Errorf("expected file values kept, got %+v", cfg)
	}
}

func TestLoadOverridesParseError(t *testing.T) {
	t.Setenv("ARC_API_PORT", "not-a-port")

	_, err := LoadOverrides(&StoryConfig{})
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("expected parse env error, got %v", err)
	}
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("PGHOST", "db")
	unsetenv(t, "PGPORT", "PGUSER")
	t.Setenv("PGDATABASE", "stories")
	t.Setenv("PGPASSWORD", "direct")
	t.Setenv("PGPASSWORD_FILE", writeSecret(t, "from-file\n"))

	pg, err := LoadPostgres()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pg.Host != "db" || pg.Database != "stories" {
		t.Errorf("unexpected settings: %+v", pg)
	}
	if pg.Port != "5432" || pg.User != "arc" {
		t.Errorf("expected defaults for unset values, got %+v", pg)
	}
	if pg.Password != "from-file" {
		t.Errorf("expected password from file, got %q", pg.Password)
	}
}
