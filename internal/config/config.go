package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// OTelConfig holds OpenTelemetry log export settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// ArchiveConfig holds the extraction quotas for uploaded replay archives.
type ArchiveConfig struct {
	MaxReplays   int   `json:"maxReplays" mapstructure:"maxReplays"`
	MaxEntrySize int64 `json:"maxEntrySize" mapstructure:"maxEntrySize"`
	MaxTotalSize int64 `json:"maxTotalSize" mapstructure:"maxTotalSize"`
}

// RenderConfig holds map image rendering settings.
type RenderConfig struct {
	AssetPath string `json:"assetPath" mapstructure:"assetPath"`
	Quality   int    `json:"quality" mapstructure:"quality"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./replaylogs")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "bfme2replays")
	viper.SetDefault("db.sqlitePath", "./replays.db")

	viper.SetDefault("influx.enabled", true)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "replay-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "bfme2replaybot")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("archive.maxReplays", 100)
	viper.SetDefault("archive.maxEntrySize", 5*1024*1024)
	viper.SetDefault("archive.maxTotalSize", 500*1024*1024)

	viper.SetDefault("render.assetPath", "./assets/map_wor_rhun.jpg")
	viper.SetDefault("render.quality", 85)

	viper.SetDefault("decode.workers", 4)

	viper.SetConfigName("replaybot.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetOTelConfig returns the OTel settings as a typed struct.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetArchiveConfig returns the archive extraction quotas as a typed struct.
func GetArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		MaxReplays:   viper.GetInt("archive.maxReplays"),
		MaxEntrySize: viper.GetInt64("archive.maxEntrySize"),
		MaxTotalSize: viper.GetInt64("archive.maxTotalSize"),
	}
}

// GetRenderConfig returns the map rendering settings as a typed struct.
func GetRenderConfig() RenderConfig {
	return RenderConfig{
		AssetPath: viper.GetString("render.assetPath"),
		Quality:   viper.GetInt("render.quality"),
	}
}
