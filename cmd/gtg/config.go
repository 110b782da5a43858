package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// envConfig holds settings the environment may override.
type envConfig struct {
	CacheDir      string
	CacheMaxFiles int
	MetricsFile   string
}

func defaultEnvConfig() envConfig {
	return envConfig{
		CacheDir:      filepath.Join(os.TempDir(), "gtg", "tle"),
		CacheMaxFiles: 5,
	}
}

// loadEnvConfig applies GTG_* variables on top of cfg.
func loadEnvConfig(cfg envConfig, logger *slog.Logger) envConfig {

	if v := os.Getenv("GTG_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("GTG_TLE_CACHE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid GTG_TLE_CACHE_MAX_FILES value, using default", "value", v, "default", cfg.CacheMaxFiles)
		} else {
			cfg.CacheMaxFiles = n
		}
	}

	if v := os.Getenv("GTG_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}

	logger.Debug("environment config",
		"cache_dir", cfg.CacheDir,
		"cache_max_files", cfg.CacheMaxFiles,
		"metrics_file", cfg.MetricsFile,
	)

	return cfg
}
