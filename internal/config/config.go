package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/paulexconde/together/internal/services"
	"gopkg.in/yaml.v3"
)

type DB struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Push struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subject         string `yaml:"subject"`
}

type Config struct {
	Addr         string                 `yaml:"addr"`
	DB           DB                     `yaml:"db"`
	JWTSecret    string                 `yaml:"jwt_secret"`
	Participants []services.Participant `yaml:"participants"`
	Timezone     string                 `yaml:"timezone"`
	Workers      int                    `yaml:"workers"`
	QueueSize    int                    `yaml:"queue_size"`
	Push         Push                   `yaml:"push"`
	Debug        bool                   `yaml:"debug"`
}

func Default() Config {
	return Config{
		Addr: ":3000",
		DB: DB{
			Driver: "sqlite3",
			DSN:    "file:together.sqlite?_foreign_keys=on&_busy_timeout=5000",
		},
		Timezone:  "Local",
		Workers:   2,
		QueueSize: 64,
		Push:      Push{Subject: "mailto:admin@localhost"},
	}
}

// Load reads path (if not empty) over the defaults, then applies TOGETHER_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"TOGETHER_ADDR":              &cfg.Addr,
		"TOGETHER_DB_DRIVER":         &cfg.DB.Driver,
		"TOGETHER_DB_DSN":            &cfg.DB.DSN,
		"TOGETHER_JWT_SECRET":        &cfg.JWTSecret,
		"TOGETHER_TIMEZONE":          &cfg.Timezone,
		"TOGETHER_VAPID_PUBLIC_KEY":  &cfg.Push.VAPIDPublicKey,
		"TOGETHER_VAPID_PRIVATE_KEY": &cfg.Push.VAPIDPrivateKey,
		"TOGETHER_VAPID_SUBJECT":     &cfg.Push.Subject,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TOGETHER_WORKERS":    &cfg.Workers,
		"TOGETHER_QUEUE_SIZE": &cfg.QueueSize,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup("TOGETHER_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TOGETHER_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	return nil
}

func (cfg Config) Validate() error {
	var errs []error

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite3" {
		errs = append(errs, fmt.Errorf("db.driver must be postgres or sqlite3, got %q", cfg.DB.Driver))
	}
	if cfg.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	if _, err := services.NewPairFrom(cfg.Participants); err != nil {
		errs = append(errs, fmt.Errorf("participants: %w", err))
	}
	if _, err := cfg.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if cfg.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}

	return errors.Join(errs...)
}

// ValidateServe adds the checks only the HTTP server needs.
func (cfg Config) ValidateServe() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	return nil
}

func (cfg Config) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(cfg.Timezone)
}

func (cfg Config) Pair() (services.Pair, error) {
	return services.NewPairFrom(cfg.Participants)
}
