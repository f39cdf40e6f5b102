package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/algobytes.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	// LogFile, when set, receives a rotated copy of every log line.
	LogFile string `env:"LOG_FILE"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	DefaultTimezone    string `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
	StartingCredits    int    `env:"STARTING_CREDITS" envDefault:"3"`
	UnlockCost         int    `env:"UNLOCK_COST" envDefault:"1"`
	DailyRewardCredits int    `env:"DAILY_REWARD_CREDITS" envDefault:"1"`
	SubmitRatePerMin   int    `env:"SUBMIT_RATE_PER_MIN" envDefault:"30"`
	Seed               bool   `env:"SEED" envDefault:"true"`

	// WebDir, when set, is served at / with index.html as the fallback.
	WebDir string `env:"WEB_DIR"`
}

// Load reads a .env file when one exists, then parses the environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves DefaultTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.DefaultTimezone, err)
	}
	return loc, nil
}

func (c *Config) validate() error {
	switch {
	case len(c.JWTSecret) < 16:
		return errors.New("JWT_SECRET must be at least 16 characters")
	case c.TokenTTL <= 0:
		return errors.New("TOKEN_TTL must be positive")
	case c.StartingCredits < 0, c.UnlockCost < 0, c.DailyRewardCredits < 0:
		return errors.New("credit settings must not be negative")
	case c.SubmitRatePerMin <= 0:
		return errors.New("SUBMIT_RATE_PER_MIN must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
