package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	MpksDir    string `mapstructure:"mpks_dir"`
	OutDir     string `mapstructure:"out_dir"`
	Workers    int    `mapstructure:"workers"`
	Mip        int    `mapstructure:"mip"`
	TopK       int    `mapstructure:"top_k"`
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
	Quiet      bool   `mapstructure:"quiet"`
	NoProgress bool   `mapstructure:"no_progress"`
}

// Load initializes and loads configuration from file and environment.
// Environment variables use the DIASSET prefix: DIASSET_MPKS_DIR.
func Load(cfgFile string) (*Config, error) {
	// Set defaults
	viper.SetDefault("mpks_dir", "mpks")
	viper.SetDefault("out_dir", "sprites")
	viper.SetDefault("workers", 0) // 0 = number of CPUs
	viper.SetDefault("mip", -1)    // -1 = largest mip
	viper.SetDefault("top_k", 10)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	viper.SetEnvPrefix("DIASSET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file handling
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("diasset")
		viper.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Mip < -1 {
		return fmt.Errorf("mip must be -1 or a slice number, got %d", c.Mip)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (debug, info, warn, error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (text, json)", c.LogFormat)
	}
	return nil
}
