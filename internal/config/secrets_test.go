package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write secret file: %v", err)
	}
	return path
}

func TestResolveSecret(t *testing.T) {
	tests := []struct {
		name string
		env  string
		file *string
		want string
	}{
		{name: "env only", env: "env-value", want: "env-value"},
		{name: "file only", file: strPtr("file-value\n"), want: "file-value"},
		{name: "file wins over env", env: "env-value", file: strPtr("file-value"), want: "file-value"},
		{name: "whitespace trimmed", file: strPtr("  secret-value  \n\n"), want: "secret-value"},
		{name: "empty file", env: "env-value", file: strPtr(""), want: ""},
		{name: "neither set", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const envName = "ARC_TEST_SECRET"
			t.Setenv(envName, tt.env)
			t.Setenv(envName+"_FILE", "")
			if tt.file != nil {
				t.Setenv(envName+"_FILE", writeSecret(t, *tt.file))
			}

			got, err := ResolveSecret(envName)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSecretFileNotFound(t *testing.T) {
	t.Setenv("ARC_TEST_MISSING_FILE", "/nonexistent/path/to/secret")

	_, err := ResolveSecret("ARC_TEST_MISSING")
	if err == nil {
		t.Fatal("expected error when file does not exist")
	}
	if !strings.Contains(err.Error(), "ARC_TEST_MISSING_FILE") {
		t.Errorf("expected error to name the variable, got %v", err)
	}
}

func TestResolveSecrets(t *testing.T) {
	t.Setenv("ARC_TEST_USER", "ada")
	t.Setenv("ARC_TEST_PASS_FILE", writeSecret(t, "hunter2\n"))

	got, err := ResolveSecrets("ARC_TEST_USER", "ARC_TEST_PASS", "ARC_TEST_UNSET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["ARC_TEST_USER"] != "ada" || got["ARC_TEST_PASS"] != "hunter2" || got["ARC_TEST_UNSET"] != "" {
		t.Errorf("unexpected secrets: %v", got)
	}

	t.Setenv("ARC_TEST_PASS_FILE", "/nonexistent")
	if _, err := ResolveSecrets("ARC_TEST_USER", "ARC_TEST_PASS"); err == nil {
		t.Error("expected error from unreadable secret file")
	}
}

func strPtr(s string) *string { return &s }
