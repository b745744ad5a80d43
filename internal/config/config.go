package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ListenAddr        string
	LockTimeout       time.Duration
	RatioToleranceBps int64
	VolumeWindow      time.Duration
	SnapshotPath      string
	SnapshotInterval  time.Duration
	PGDSN             string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AMMD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("lock-timeout", 250*time.Millisecond)
	v.SetDefault("ratio-tolerance-bps", int64(50))
	v.SetDefault("volume-window", 24*time.Hour)
	v.SetDefault("snapshot-path", "")
	v.SetDefault("snapshot-interval", time.Minute)
	v.SetDefault("pg-dsn", "")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ListenAddr:        v.GetString("listen"),
		LockTimeout:       v.GetDuration("lock-timeout"),
		RatioToleranceBps: v.GetInt64("ratio-tolerance-bps"),
		VolumeWindow:      v.GetDuration("volume-window"),
		SnapshotPath:      v.GetString("snapshot-path"),
		SnapshotInterval:  v.GetDuration("snapshot-interval"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}
