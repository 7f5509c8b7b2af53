package settings

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// GetEffectiveSettings returns the effective settings (defaults overlaid with file overrides if any).
// If anything goes wrong, it returns defaults.
func GetEffectiveSettings() Settings {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	return overlay(settings, b)
}

// overlay applies file overrides key by key, ignoring entries with the
// wrong type or out-of-range values so a bad file never breaks startup.
func overlay(settings Settings, b []byte) Settings {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	if v, ok := m["enable_result_cache"]; ok {
		if vb, okb := v.(bool); okb {
			settings.EnableResultCache = vb
		}
	}
	if v, ok := m["cache_size_limit_mb"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.CacheSizeLimitMB = vi
		}
	}
	if v, ok := m["cache_ttl_minutes"]; ok {
		if vi, oki := v.(int); oki && vi > 0 {
			settings.CacheTTLMinutes = vi
		}
	}
	if v, ok := m["batch_size"]; ok {
		if vi, oki := v.(int); oki && vi >= 100 {
			settings.BatchSize = vi
		}
	}
	if v, ok := m["data_dir"]; ok {
		if vs, oks := v.(string); oks && vs != "" {
			settings.DataDir = vs
		}
	}
	if v, ok := m["log_level"]; ok {
		if vs, oks := v.(string); oks {
			switch vs {
			case "debug", "info", "warning", "error":
				settings.LogLevel = vs
			}
		}
	}
	if v, ok := m["instance_id"]; ok {
		if vs, oks := v.(string); oks {
			settings.InstanceID = vs
		}
	}
	return settings
}

// SaveSettings writes the full settings to the settings file.
func SaveSettings(in Settings) error {
	path, err := settingsFilePath()
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// EnsureInstanceID assigns and persists an instance identifier on first
// run. Existing identifiers are kept.
func EnsureInstanceID(settings *Settings) error {
	if settings.InstanceID != "" {
		return nil
	}
	settings.InstanceID = uuid.New().String()
	return SaveSettings(*settings)
}

func settingsFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, "pivotgrid.yml"), nil
}
