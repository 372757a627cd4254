// Package config loads stepwise settings from defaults, an optional
// stepwise.yaml and STEPWISE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvConfig names an explicit config file, overriding the search path.
const EnvConfig = "STEPWISE_CONFIG"

// Flow sources.
const (
	SourceBuiltin = "builtin"
	SourceYAML    = "yaml"
	SourceLoam    = "loam"
)

// Result backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Flows   FlowsConfig   `mapstructure:"flows"`
	Submit  SubmitConfig  `mapstructure:"submit"`
	Results ResultsConfig `mapstructure:"results"`
	Redis   RedisConfig   `mapstructure:"redis"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
}

// FlowsConfig selects where flow definitions come from.
type FlowsConfig struct {
	Source string `mapstructure:"source"`
	Dir    string `mapstructure:"dir"`
}

// SubmitConfig bounds result packaging.
type SubmitConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ResultsConfig selects the result store and its wrappers.
type ResultsConfig struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	TTL           time.Duration `mapstructure:"ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	PIIPatterns   []string      `mapstructure:"pii_patterns"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPConfig holds listener settings for serve and mcp --sse.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Flows:   FlowsConfig{Source: SourceBuiltin},
		Submit:  SubmitConfig{Timeout: 10 * time.Second},
		Results: ResultsConfig{Backend: BackendMemory},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		HTTP:    HTTPConfig{Port: 8080},
		Log:     LogConfig{Level: "warn", Format: "text"},
	}
}

// Load reads configuration from file and env. An empty path searches the
// working directory and the user config directory for stepwise.yaml; a
// missing file there is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("flows.source", def.Flows.Source)
	v.SetDefault("flows.dir", def.Flows.Dir)
	v.SetDefault("submit.timeout", def.Submit.Timeout)
	v.SetDefault("results.backend", def.Results.Backend)
	v.SetDefault("results.path", def.Results.Path)
	v.SetDefault("results.ttl", def.Results.TTL)
	v.SetDefault("results.encryption_key", "")
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("http.port", def.HTTP.Port)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stepwise")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "stepwise"))
		}
	}

	v.SetEnvPrefix("STEPWISE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("results.pii_patterns")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var problems []error

	switch c.Flows.Source {
	case SourceBuiltin:
	case SourceYAML, SourceLoam:
		if c.Flows.Dir == "" {
			problems = append(problems, fmt.Errorf("flows.dir is required for source %q", c.Flows.Source))
		}
	default:
		problems = append(problems, fmt.Errorf("flows.source: unknown source %q", c.Flows.Source))
	}

	switch c.Results.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	case BackendSQLite:
		if c.Results.Path == "" {
			problems = append(problems, errors.New("results.path is required for the sqlite backend"))
		}
	default:
		problems = append(problems, fmt.Errorf("results.backend: unknown backend %q", c.Results.Backend))
	}

	if c.Submit.Timeout <= 0 {
		problems = append(problems, errors.New("submit.timeout must be positive"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Errorf("http.port: %d is out of range", c.HTTP.Port))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}
