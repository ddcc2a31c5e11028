package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SAVER"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Saver    SaverConfig    `mapstructure:"saver"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownSeconds int `mapstructure:"shutdown_seconds"`
}

type DatabaseConfig struct {
	// Path overrides SQLITE_DB_PATH when set.
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	// Mode is auto, scoped or legacy.
	Mode     string `mapstructure:"mode"`
	APILevel int    `mapstructure:"api_level"`
	Root     string `mapstructure:"root"`
}

type SaverConfig struct {
	SingleFlight bool `mapstructure:"single_flight"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads saver.yaml from the given directories (the working directory when none
// are given), then applies SAVER_* environment overrides on top of the defaults.
// A missing config file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("saver")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_seconds", 5)
	v.SetDefault("database.path", "")
	v.SetDefault("storage.mode", "auto")
	v.SetDefault("storage.api_level", 34)
	v.SetDefault("storage.root", "./storage")
	v.SetDefault("saver.single_flight", false)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
