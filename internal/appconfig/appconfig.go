// Package appconfig loads the sewer binary's settings from an optional YAML
// file, an optional .env file and SEWER_* environment variables, in that
// order of increasing precedence.
package appconfig

import (
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dcshock/sewer/logger"
)

// EnvPrefix prefixes every environment variable, e.g. SEWER_HTTP_ADDR.
const EnvPrefix = "SEWER"

// Config is the binary's configuration.
type Config struct {
	Service string `mapstructure:"service" validate:"required"`

	// Systems is the path of the systems YAML file.
	Systems string `mapstructure:"systems" validate:"required"`

	// Workers caps concurrent async module bodies (HTTP requests). 0 runs
	// each on its own goroutine.
	Workers int64 `mapstructure:"workers" validate:"gte=0"`

	Log       logger.Config   `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
}

// HTTPConfig configures `sewer serve`.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// TelemetryConfig configures the OTLP exporters.
type TelemetryConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoint    string        `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool          `mapstructure:"insecure"`
	Environment string        `mapstructure:"environment"`
	Version     string        `mapstructure:"version"`
	SampleRate  float64       `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval    time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// RecorderConfig configures the in-memory run history.
type RecorderConfig struct {
	Limit int `mapstructure:"limit" validate:"gte=1"`
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit YAML config file. It must exist.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file. It must exist.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "sewer")
	v.SetDefault("systems", "systems.yaml")
	v.SetDefault("workers", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logger.FormatConsole)
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", true)
	v.SetDefault("log.caller", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.version", "dev")
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.interval", 15*time.Second)
	v.SetDefault("recorder.limit", 100)
}

// Load builds the configuration. Without WithConfigFile, ./sewer.yaml is read
// when present; without WithEnvFile, ./.env is loaded when present.
func Load(opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadEnv(o.envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case o.configFile != "":
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", o.configFile)
		}
	default:
		v.SetConfigName("sewer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnv(path string) error {
	if path != "" {
		return errors.Wrapf(godotenv.Load(path), "load env %s", path)
	}
	if _, err := os.Stat(".env"); err == nil {
		return errors.Wrap(godotenv.Load(".env"), "load env .env")
	}
	return nil
}

var (
	validate *validator.Validate
	once     sync.Once
)

// Validate checks struct tags and the logger settings.
func (c *Config) Validate() error {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		})
	})
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return errors.Wrap(c.Log.Validate(), "invalid config")
}
