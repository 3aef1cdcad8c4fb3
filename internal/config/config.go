package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the server/CLI configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `mapstructure:"addr"`
	// DBPath is the SQLite database file. Empty means the default
	// location under the user's home directory.
	DBPath string `mapstructure:"db_path"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
	// APIURL is the server the board client talks to.
	APIURL string `mapstructure:"api_url"`
}

func defaultConfig() *Config {
	return &Config{
		Addr:   ":8080",
		Mode:   "release",
		APIURL: "http://localhost:8080",
	}
}

// Load reads ~/.taskdeck/config.yaml if present, applies TASKDECK_*
// environment overrides, and falls back to defaults for everything
// else. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".taskdeck"))
	}

	v.SetEnvPrefix("TASKDECK")
	v.AutomaticEnv()

	defaults := defaultConfig()
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("api_url", defaults.APIURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}
