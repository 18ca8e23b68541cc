package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jing2uo/b3hist/store"
	"github.com/jing2uo/b3hist/utils"
	"github.com/jing2uo/b3hist/workflow"
)

const envPrefix = "B3HIST"

// Config is resolved from flags, B3HIST_* environment variables, a .env
// file and an optional config file, in that order of precedence.
type Config struct {
	DBPath    string `mapstructure:"dbpath"`
	LogLevel  string `mapstructure:"log_level"`
	SourceURL string `mapstructure:"source_url"`

	Revision store.Revision `mapstructure:"-"`
	Log      *zap.Logger    `mapstructure:"-"`
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".b3hist", "db")
	}
	return filepath.Join(home, ".b3hist", "db")
}

// LoadConfig reads the configuration. flags may be nil; the flags named
// dbpath and log-level are bound when present.
func LoadConfig(flags *pflag.FlagSet, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dbpath", defaultDBPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("source_url", workflow.DefaultSourceURL)

	if flags != nil {
		for key, name := range map[string]string{"dbpath": "dbpath", "log_level": "log-level"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("b3hist")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".b3hist"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	cfg.Revision = store.CurrentRevision()
	cfg.Log = utils.NewLogger(cfg.LogLevel)
	return cfg, nil
}

// OpenStore opens the configured database, checking its revision marker.
func (c *Config) OpenStore() (*store.Store, error) {
	return store.Open(c.DBPath, c.Revision, c.Log)
}
