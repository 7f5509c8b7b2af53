package settings

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// Remove omitempty so that false is serialized (we need to persist explicit overrides)
	EnableResultCache bool `yaml:"enable_result_cache" json:"enable_result_cache"`
	// Cache size limit in MB for computed pivot results
	CacheSizeLimitMB int `yaml:"cache_size_limit_mb" json:"cache_size_limit_mb"`
	// How long a cached result stays valid
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	// Rows processed between scheduler yields during filtering and grouping
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// Directory scanned for dataset files
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Minimum log level: debug, info, warning, error
	LogLevel string `yaml:"log_level" json:"log_level"`
	// InstanceID is a unique identifier for this installation (not visible in settings dialog)
	InstanceID string `yaml:"instance_id,omitempty" json:"instance_id,omitempty"`
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	EnableResultCache: true,
	CacheSizeLimitMB:  100, // Default 100MB cache size
	CacheTTLMinutes:   30,
	BatchSize:         10000,
	DataDir:           "data",
	LogLevel:          "info",
}
