package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Data  DataConfig  `yaml:"data"`
	Admin AdminConfig `yaml:"admin"`
	Log   LogConfig   `yaml:"log"`
	HTTP  HTTPConfig  `yaml:"http"`
	Redis RedisConfig `yaml:"redis"`
	Kafka KafkaConfig `yaml:"kafka"`
}

type DataConfig struct {
	Dir               string `yaml:"dir" env:"ARS_DATA_DIR" validate:"required"`
	FlightsFile       string `yaml:"flights_file" env:"ARS_FLIGHTS_FILE" validate:"required"`
	BookingsFile      string `yaml:"bookings_file" env:"ARS_BOOKINGS_FILE" validate:"required"`
	CancellationsFile string `yaml:"cancellations_file" env:"ARS_CANCELLATIONS_FILE" validate:"required"`
	SeatFileSuffix    string `yaml:"seat_file_suffix" env:"ARS_SEAT_FILE_SUFFIX" validate:"required"`
}

func (d DataConfig) FlightsPath() string       { return d.path(d.FlightsFile) }
func (d DataConfig) BookingsPath() string      { return d.path(d.BookingsFile) }
func (d DataConfig) CancellationsPath() string { return d.path(d.CancellationsFile) }

func (d DataConfig) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// AdminConfig holds the credentials that unlock the admin menu and the
// /admin HTTP routes. They are compared in plain text.
type AdminConfig struct {
	Username string `yaml:"username" env:"ARS_ADMIN_USERNAME" validate:"required"`
	Password string `yaml:"password" env:"ARS_ADMIN_PASSWORD" validate:"required"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=text json"`
}

type HTTPConfig struct {
	Address         string `yaml:"address" env:"HTTP_ADDRESS" validate:"required"`
	ShutdownSeconds int    `yaml:"shutdown_seconds" env:"HTTP_SHUTDOWN_SECONDS" validate:"gte=0"`
}

// RedisConfig enables the shared seat lock when Addr is set.
type RedisConfig struct {
	Addr          string `yaml:"addr" env:"REDIS_ADDR"`
	Password      string `yaml:"password" env:"REDIS_PASSWORD"`
	DB            int    `yaml:"db" env:"REDIS_DB"`
	LockTTLMillis int    `yaml:"lock_ttl_ms" env:"REDIS_LOCK_TTL_MS" validate:"gt=0"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

func (r RedisConfig) LockTTL() time.Duration {
	return time.Duration(r.LockTTLMillis) * time.Millisecond
}

// KafkaConfig enables booking event publishing when Brokers is not empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" validate:"required"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" validate:"required"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

func Default() Config {
	return Config{
		Data: DataConfig{
			Dir:               ".",
			FlightsFile:       "flights.csv",
			BookingsFile:      "details.csv",
			CancellationsFile: "cancellation_requests.csv",
			SeatFileSuffix:    "_seats.csv",
		},
		Admin: AdminConfig{Username: "admin", Password: "admin123"},
		Log:   LogConfig{Level: "info", Format: "text"},
		HTTP:  HTTPConfig{Address: ":8080", ShutdownSeconds: 5},
		Redis: RedisConfig{LockTTLMillis: 5000},
		Kafka: KafkaConfig{Topic: "ars.bookings", GroupID: "ars-notify"},
	}
}

// LoadConfig reads path on top of Default, applies environment overrides and
// validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
