// Package conf loads and holds the application settings. Settings come from
// a YAML config file, environment variables with the VOICEVAULT prefix, and
// built-in defaults, in that order of precedence.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings contains all application settings.
type Settings struct {
	Debug bool // true to enable debug logging

	Database struct {
		Path string // path to the SQLite database file
	}

	Backup struct {
		TablePrefix string // prefix for attempt-scoped snapshot tables
	}

	Log struct {
		Path  string // path to the engine log file, empty for stdout only
		Level string // minimum log level: debug, info, warn, error
	}

	Progress struct {
		BufferSize int // per-subscriber event channel capacity
	}
}

// setDefaults registers default values for all settings.
func setDefaults() {
	viper.SetDefault("debug", false)
	viper.SetDefault("database.path", "voicevault.db")
	viper.SetDefault("backup.tableprefix", "vv_backup")
	viper.SetDefault("log.path", "logs/engine.log")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("progress.buffersize", 64)
}

// Load reads the configuration and returns the populated settings.
// A missing config file is not an error, defaults apply.
func Load() (*Settings, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/voicevault")

	viper.SetEnvPrefix("VOICEVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return settings, nil
}
