package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/soundalike/fit"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SOUNDALIKE_"

// PathEnvVar names the config file when no path is passed to Load.
const PathEnvVar = EnvPrefix + "CONFIG"

// Config is the full configuration.
type Config struct {
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	MinIO     MinIOConfig     `koanf:"minio"`
	S3        S3Config        `koanf:"s3"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Engine    EngineConfig    `koanf:"engine"`
	Fit       fit.Config      `koanf:"fit"`
}

// ArtifactsConfig locates the bundle.
type ArtifactsConfig struct {
	// Source is local, minio or s3.
	Source string `koanf:"source" validate:"oneof=local minio s3"`
	// Path is the bundle directory for the local source.
	Path string `koanf:"path"`
	// Bucket and Prefix locate the bundle in object storage.
	Bucket string `koanf:"bucket"`
	Prefix string `koanf:"prefix"`
	// Compression of the feature matrix written by fit and import.
	Compression string `koanf:"compression" validate:"oneof=none zstd lz4"`
}

// MinIOConfig configures the minio source.
type MinIOConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Secure    bool   `koanf:"secure"`
}

// S3Config configures the s3 source. Credentials come from the default
// AWS chain.
type S3Config struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// ServerConfig configures serve.
type ServerConfig struct {
	Addr           string        `koanf:"addr" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"gt=0"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	// RateLimit is requests per second across all clients. Zero disables it.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=1"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// EngineConfig configures the recommendation engine.
type EngineConfig struct {
	// Seed pins category seed selection. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`
	// TopN is the default number of recommendations.
	TopN      int    `koanf:"top_n" validate:"gte=1"`
	Separator string `koanf:"separator" validate:"required"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Source:      "local",
			Path:        "saved_assets",
			Compression: "zstd",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 15 * time.Second,
			RateLimit:      100,
			RateBurst:      200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Engine: EngineConfig{
			TopN:      5,
			Separator: ".",
		},
		Fit: fit.DefaultConfig(),
	}
}

// Load reads the layered configuration. An empty path falls back to
// $SOUNDALIKE_CONFIG; with neither set no file is read.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SOUNDALIKE_SERVER_READ_TIMEOUT to server.read_timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the settings each artifact
// source needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Artifacts.Source {
	case "local":
		if c.Artifacts.Path == "" {
			return errors.New("invalid config: artifacts.path is required for the local source")
		}
	case "minio":
		if c.MinIO.Endpoint == "" {
			return errors.New("invalid config: minio.endpoint is required for the minio source")
		}
		fallthrough
	case "s3":
		if c.Artifacts.Bucket == "" {
			return fmt.Errorf("invalid config: artifacts.bucket is required for the %s source", c.Artifacts.Source)
		}
	}
	return nil
}
