package settings

import (
	"testing"

	"github.com/google/uuid"
)

func TestOverlayDefaults(t *testing.T) {
	got := overlay(defaultSettings, []byte(""))
	if got != defaultSettings {
		t.Errorf("empty file changed defaults: %+v", got)
	}
}

func TestOverlayAppliesKnownKeys(t *testing.T) {
	file := []byte(`
enable_result_cache: false
cache_size_limit_mb: 250
cache_ttl_minutes: 5
batch_size: 2000
data_dir: /srv/datasets
log_level: debug
instance_id: abc-123
`)
	got := overlay(defaultSettings, file)

	if got.EnableResultCache {
		t.Error("enable_result_cache override not applied")
	}
	if got.CacheSizeLimitMB != 250 {
		t.Errorf("cache size = %d, want 250", got.CacheSizeLimitMB)
	}
	if got.CacheTTLMinutes != 5 {
		t.Errorf("ttl = %d, want 5", got.CacheTTLMinutes)
	}
	if got.BatchSize != 2000 {
		t.Errorf("batch size = %d, want 2000", got.BatchSize)
	}
	if got.DataDir != "/srv/datasets" {
		t.Errorf("data dir = %q", got.DataDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("log level = %q", got.LogLevel)
	}
	if got.InstanceID != "abc-123" {
		t.Errorf("instance id = %q", got.InstanceID)
	}
}

func TestOverlayIgnoresBadValues(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{name: "wrong types", file: "cache_size_limit_mb: huge\nenable_result_cache: 42\n"},
		{name: "out of range", file: "cache_size_limit_mb: -5\nbatch_size: 1\n"},
		{name: "unknown log level", file: "log_level: verbose\n"},
		{name: "unknown keys", file: "no_such_setting: 1\n"},
		{name: "malformed yaml", file: "{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlay(defaultSettings, []byte(tt.file))
			if got != defaultSettings {
				t.Errorf("bad input changed settings: %+v", got)
			}
		})
	}
}

func TestEnsureInstanceIDKeepsExisting(t *testing.T) {
	s := defaultSettings
	s.InstanceID = "abc-123"
	if err := EnsureInstanceID(&s); err != nil {
		t.Fatalf("EnsureInstanceID failed: %v", err)
	}
	if s.InstanceID != "abc-123" {
		t.Errorf("instance id = %q, want existing id kept", s.InstanceID)
	}
}

func TestEnsureInstanceIDAssignsOnFirstRun(t *testing.T) {
	s := defaultSettings
	if err := EnsureInstanceID(&s); err != nil {
		t.Fatalf("EnsureInstanceID failed: %v", err)
	}
	if s.InstanceID == "" {
		t.Error("instance id was not assigned")
	}
	if _, err := uuid.Parse(s.InstanceID); err != nil {
		t.Errorf("instance id %q is not a valid uuid: %v", s.InstanceID, err)
	}
}
