package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ErrMissingToken is returned when TG_TOKEN is unset or empty.
var ErrMissingToken = errors.New("telegram token is not set")

// Config holds all configuration from environment variables.
type Config struct {
	Token     string `envconfig:"TG_TOKEN" required:"true"`
	ServerURL string `envconfig:"TELEGRAM_SERVER_URL" default:""`

	// Photo APIs
	CatAPIURL    string        `envconfig:"CAT_API_URL" default:"https://api.thecatapi.com/v1/images/search"`
	DogAPIURL    string        `envconfig:"DOG_API_URL" default:"https://api.thedogapi.com/v1/images/search"`
	PetAPIKey    string        `envconfig:"PET_API_KEY" default:""`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"5s"`

	// Polling supervisor
	RetryLimit int           `envconfig:"RETRY_LIMIT" default:"5"`
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"10s"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`

	// Path to config.toml file
	ConfigFile string `envconfig:"CONFIG_FILE" default:"config.toml"`

	// Replies loaded from config.toml
	Replies Replies
}

// Replies holds the texts sent back to users. NoPhoto and SendFailed are
// format strings taking the pet kind.
type Replies struct {
	Start      string `toml:"start"`
	NoPhoto    string `toml:"no_photo"`
	SendFailed string `toml:"send_failed"`
}

// FileConfig represents the structure of config.toml.
type FileConfig struct {
	Replies Replies `toml:"replies"`
}

// DefaultReplies provides fallback texts if config.toml is not found.
var DefaultReplies = Replies{
	Start:      "Hi! Send /cat or /dog to get a random photo of a cat or a dog =)",
	NoPhoto:    "%s ran away =(, try again.",
	SendFailed: "Something went wrong while sending the %s photo. Try again.",
}

// LoadEnv loads the configuration from environment variables.
func (c Config) LoadEnv() (Config, error) {
	cfg := c

	if err := envconfig.Process("", &cfg); err != nil {
		return c, err
	}

	// envconfig accepts a present but empty variable as set
	if cfg.Token == "" {
		return c, ErrMissingToken
	}

	if cfg.RetryLimit < 1 {
		return c, fmt.Errorf("RETRY_LIMIT must be positive, got %d", cfg.RetryLimit)
	}

	return cfg, nil
}

// LoadFile loads reply texts from config.toml file.
func (c *Config) LoadFile() error {
	configPath := c.ConfigFile
	if !filepath.IsAbs(configPath) {
		// Try current directory first, then the executable directory
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			execPath, err := os.Executable()
			if err == nil {
				configPath = filepath.Join(filepath.Dir(execPath), c.ConfigFile)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		c.Replies = DefaultReplies
		return nil
	}

	var fileConfig FileConfig
	if _, err := toml.DecodeFile(configPath, &fileConfig); err != nil {
		return fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	c.Replies = fileConfig.Replies

	// Use defaults for empty replies
	if c.Replies.Start == "" {
		c.Replies.Start = DefaultReplies.Start
	}
	if c.Replies.NoPhoto == "" {
		c.Replies.NoPhoto = DefaultReplies.NoPhoto
	}
	if c.Replies.SendFailed == "" {
		c.Replies.SendFailed = DefaultReplies.SendFailed
	}

	return nil
}

// NewConfig reads .env (when present), the environment and config.toml.
func NewConfig(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("unable to read .env file")
	}

	var cfg Config
	loadedCfg, err := cfg.LoadEnv()
	if err != nil {
		msg := "invalid configuration"
		if os.Getenv("TG_TOKEN") == "" {
			msg = "token not found, check the TG_TOKEN environment variable"
		}
		logger.WithLevel(zerolog.FatalLevel).Err(err).Msg(msg)
		return nil, err
	}

	if err := loadedCfg.LoadFile(); err != nil {
		return nil, err
	}

	return &loadedCfg, nil
}

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(
			NewConfig,
		),
	)
}
