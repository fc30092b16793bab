// Package config loads the service configuration from .env, config.yaml
// and CATALYST_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/blob"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "CATALYST"

type Config struct {
	DatabasePath string `mapstructure:"databasePath"`
	OutputDir    string `mapstructure:"outputDir"`
	SiteTitle    string `mapstructure:"siteTitle"`
	BaseURL      string `mapstructure:"baseURL"`
	BlogLimit    int    `mapstructure:"blogLimit"`

	Port         int           `mapstructure:"port"`
	FrontendURLs []string      `mapstructure:"frontendURLs"`
	RateLimit    int           `mapstructure:"rateLimit"`
	CacheTTL     time.Duration `mapstructure:"cacheTTL"`
	SyncInterval time.Duration `mapstructure:"syncInterval"`

	RevalidationURL    string `mapstructure:"revalidationURL"`
	RevalidationSecret string `mapstructure:"revalidationSecret"`

	NatsURL   string `mapstructure:"natsURL"`
	NatsToken string `mapstructure:"natsToken"`

	LogLevel string `mapstructure:"logLevel"`
	LogFile  string `mapstructure:"logFile"`

	Blob blob.Config `mapstructure:"blob"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("databasePath", "data/catalyst.db")
	v.SetDefault("outputDir", "public")
	v.SetDefault("siteTitle", "Catalyst")
	v.SetDefault("baseURL", "/")
	v.SetDefault("blogLimit", 0)
	v.SetDefault("port", 8081)
	v.SetDefault("frontendURLs", []string{})
	v.SetDefault("rateLimit", 100)
	v.SetDefault("cacheTTL", 5*time.Minute)
	v.SetDefault("syncInterval", time.Minute)
	v.SetDefault("revalidationURL", "")
	v.SetDefault("revalidationSecret", "")
	v.SetDefault("natsURL", "")
	v.SetDefault("natsToken", "")
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
	v.SetDefault("blob.driver", string(blob.DriverFilesystem))
	v.SetDefault("blob.fsRoot", "data/exports")
	v.SetDefault("blob.s3Bucket", "")
	v.SetDefault("blob.s3Region", "")
	v.SetDefault("blob.s3Endpoint", "")
	v.SetDefault("blob.s3PathStyle", false)
}

// Load reads .env into the environment, then config.yaml (or cfgFile),
// then CATALYST_* variables, each overriding the previous.
func Load(cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}
	return load(viper.New(), cfgFile)
}

func load(v *viper.Viper, cfgFile string) (Config, error) {
	var cfg Config
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("no config file found, using defaults and environment")
	} else {
		log.Infof("Using config file: %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
