package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", c.Concurrency)
	}
	if c.TaskTimeout != 300*time.Second {
		t.Errorf("TaskTimeout = %v, want 300s", c.TaskTimeout)
	}
	if c.StreamShots != 4 {
		t.Errorf("StreamShots = %d, want 4", c.StreamShots)
	}
	if c.UseS3() {
		t.Error("UseS3 without bucket")
	}
	if c.MaxUploadBytes != 10<<20 || c.MaxJSONBytes != 50<<20 {
		t.Errorf("limits = %d, %d", c.MaxUploadBytes, c.MaxJSONBytes)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEUROPHOTO_CONCURRENCY", "5")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("AUTH_TOKENS", "tok1:alice,tok2:bob")
	t.Setenv("BUCKET", "photos")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", c.Concurrency)
	}
	if c.GeminiAPIKey != "secret" {
		t.Errorf("GeminiAPIKey = %q", c.GeminiAPIKey)
	}
	if c.AuthTokens["tok2"] != "bob" {
		t.Errorf("AuthTokens = %v", c.AuthTokens)
	}
	if !c.UseS3() {
		t.Error("UseS3 with bucket")
	}
}

func TestLoadDotenvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NEUROPHOTO_STREAM_SHOTS=6\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("NEUROPHOTO_STREAM_SHOTS") })

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.StreamShots != 6 {
		t.Errorf("StreamShots = %d, want 6", c.StreamShots)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero concurrency", Config{Concurrency: 0, TaskTimeout: time.Second, StreamShots: 1}, ErrConcurrency},
		{"zero timeout", Config{Concurrency: 1, StreamShots: 1}, ErrTaskTimeout},
		{"zero shots", Config{Concurrency: 1, TaskTimeout: time.Second}, ErrStreamShots},
		{"zero upload limit", Config{Concurrency: 1, TaskTimeout: time.Second, StreamShots: 1, MaxJSONBytes: 1}, ErrBodyLimits},
		{"ok", Config{Concurrency: 1, TaskTimeout: time.Second, StreamShots: 1, MaxUploadBytes: 1, MaxJSONBytes: 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
