package server

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/kfreiman/anypdf/internal/converter"
)

// Config holds the configuration for the HTTP server
type Config struct {
	StoragePath    string   `env:"STORAGE_PATH" env-default:"./uploads" env-description:"Directory for uploads and produced PDFs"`
	StorageTTL     string   `env:"STORAGE_TTL" env-default:"24h" env-description:"Default TTL for artefact cleanup (e.g., 24h, 1h30m)"`
	Port           int      `env:"PORT" env-default:"8080" env-description:"HTTP server port"`
	MaxUploadBytes int64    `env:"MAX_UPLOAD_BYTES" env-default:"52428800" env-description:"Largest accepted upload in bytes"`
	CORSOrigins    []string `env:"CORS_ORIGINS" env-default:"*" env-separator:"," env-description:"Comma-separated list of allowed origins"`
	InputRoots     []string `env:"INPUT_ROOTS" env-default:"." env-separator:"," env-description:"Comma-separated directories convert_document may read from"`
	LogDebug       bool     `env:"DEBUG" env-default:"false" env-description:"Enable debug logging"`

	Converter converter.Config
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the server settings and the converter settings
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.StoragePath, validation.Required),
		validation.Field(&c.StorageTTL, validation.Required, validation.By(isDuration)),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.InputRoots, validation.Required, validation.Each(validation.Required)),
	)
	if err != nil {
		return err
	}
	return c.Converter.Validate()
}

// TTL returns the parsed storage TTL
func (c Config) TTL() (time.Duration, error) {
	return time.ParseDuration(c.StorageTTL)
}

// WithStoragePath sets the storage path
func (c Config) WithStoragePath(path string) Config {
	c.StoragePath = path
	return c
}

// WithStorageTTL sets the storage TTL
func (c Config) WithStorageTTL(ttl string) Config {
	c.StorageTTL = ttl
	return c
}

// WithPort sets the server port
func (c Config) WithPort(port int) Config {
	c.Port = port
	return c
}

// WithMaxUploadBytes sets the upload ceiling
func (c Config) WithMaxUploadBytes(n int64) Config {
	c.MaxUploadBytes = n
	return c
}

// WithInputRoots sets the directories convert_document may read from
func (c Config) WithInputRoots(roots ...string) Config {
	c.InputRoots = roots
	return c
}

// WithLogDebug enables or disables debug logging
func (c Config) WithLogDebug(debug bool) Config {
	c.LogDebug = debug
	return c
}

func isDuration(value interface{}) error {
	s, _ := value.(string)
	_, err := time.ParseDuration(s)
	return err
}
