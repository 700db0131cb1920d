package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const prefix = "neurophoto"

// Config holds the process configuration. Every key may be given with or
// without the NEUROPHOTO_ prefix.
type Config struct {
	Addr     string `envconfig:"ADDR" default:":3001"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiAPIKeyParam string        `envconfig:"GEMINI_API_KEY_PARAM"`
	GeminiBaseURL     string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GeminiModel       string        `envconfig:"GEMINI_MODEL" default:"gemini-3-pro-image-preview"`
	GeminiHTTPTimeout time.Duration `envconfig:"GEMINI_HTTP_TIMEOUT" default:"310s"`

	Concurrency   int           `envconfig:"CONCURRENCY" default:"3"`
	TaskTimeout   time.Duration `envconfig:"TASK_TIMEOUT" default:"300s"`
	StreamShots   int           `envconfig:"STREAM_SHOTS" default:"4"`
	MaxVariations int           `envconfig:"MAX_VARIATIONS" default:"10"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"neurophoto.db"`

	Bucket        string `envconfig:"BUCKET"`
	Distribution  string `envconfig:"DISTRIBUTION"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:3001"`
	StorageDir    string `envconfig:"STORAGE_DIR" default:"storage/images"`

	AuthTokens      map[string]string `envconfig:"AUTH_TOKENS"`
	AuthTokensParam string            `envconfig:"AUTH_TOKENS_PARAM"`
	MaxUploadBytes  int64             `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	MaxJSONBytes    int64             `envconfig:"MAX_JSON_BYTES" default:"52428800"`
}

var (
	ErrConcurrency = errors.New("concurrency must be at least 1")
	ErrTaskTimeout = errors.New("task timeout must be positive")
	ErrStreamShots = errors.New("stream shots must be at least 1")
	ErrBodyLimits  = errors.New("upload and JSON limits must be positive")
)

// Load reads an optional .env file and then the environment.
func Load(files ...string) (*Config, error) {
	if err := loadDotenv(files...); err != nil {
		return nil, err
	}

	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading %v: %w", files, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return ErrConcurrency
	case c.TaskTimeout <= 0:
		return ErrTaskTimeout
	case c.StreamShots < 1:
		return ErrStreamShots
	case c.MaxUploadBytes <= 0, c.MaxJSONBytes <= 0:
		return ErrBodyLimits
	}
	if c.MaxVariations < 1 {
		c.MaxVariations = 1
	}
	return nil
}

// UseS3 reports whether generated images go to S3 instead of the local disk.
func (c *Config) UseS3() bool {
	return c.Bucket != ""
}
