package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Logs    LogConfig     `yaml:"logs"`
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	CORS    CORSConfig    `yaml:"cors"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	Style string `yaml:"style"` // "text" or "json"
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type EngineConfig struct {
	Path           string            `yaml:"path"`
	MoveTime       int               `yaml:"move_time"`     // milliseconds of thinking per query
	DepthOrTime    bool              `yaml:"depth_or_time"` //true for depth, false for time
	Depth          int               `yaml:"depth"`
	Grace          time.Duration     `yaml:"grace"` // how long past MoveTime we wait before sending "stop"
	StartupTimeout time.Duration     `yaml:"startup_timeout"`
	Options        map[string]string `yaml:"options"` // sent as "setoption name K value V"
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Defaults returns the stock service configuration:
// 0.1s of engine time, port 5000, CORS open to everyone.
func Defaults() Config {
	return Config{
		Logs: LogConfig{
			Style: "text",
			Level: "info",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			Path:           "stockfish",
			MoveTime:       100,
			Depth:          12,
			Grace:          2 * time.Second,
			StartupTimeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and the environment
// (including .env), then validates the result. configPath may be empty.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Defaults()

	if path := discoverConfigFile(configPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// discoverConfigFile picks the first of: explicit path, CHESSGPT_CONFIG,
// ./config.yaml, $XDG_CONFIG_HOME/chessgpt/config.yaml (and XDG_CONFIG_DIRS).
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("CHESSGPT_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	if path, err := xdg.SearchConfigFile("chessgpt/config.yaml"); err == nil {
		return path
	}
	return ""
}

func applyEnv(cfg *Config) error {
	var errs []error

	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("converting %s to int: %w", key, err))
				return
			}
			*dst = n
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("parsing %s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	envOption := func(key, option string) {
		if v := os.Getenv(key); v != "" {
			if cfg.Engine.Options == nil {
				cfg.Engine.Options = map[string]string{}
			}
			cfg.Engine.Options[option] = v
		}
	}

	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	envInt("PORT", &cfg.Server.Port)

	if v := os.Getenv("ENGINE_PATH"); v != "" {
		cfg.Engine.Path = v
	}
	envInt("ENGINE_MOVE_TIME", &cfg.Engine.MoveTime)
	envInt("ENGINE_DEPTH", &cfg.Engine.Depth)
	envBool("ENGINE_DEPTH_OR_TIME", &cfg.Engine.DepthOrTime)
	envOption("ENGINE_THREADS", "Threads")
	envOption("ENGINE_HASH", "Hash")

	if v := os.Getenv("LOG_STYLE"); v != "" {
		cfg.Logs.Style = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logs.Level = v
	}

	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowOrigins = origins
	}
	envBool("METRICS_ENABLED", &cfg.Metrics.Enabled)

	return errors.Join(errs...)
}

// Validate checks the configuration and reports every bad field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Engine.Path == "" {
		errs = append(errs, errors.New("engine.path is required"))
	}
	if c.Engine.DepthOrTime {
		if c.Engine.Depth <= 0 {
			errs = append(errs, fmt.Errorf("engine.depth must be > 0 when depth_or_time is set, got %d", c.Engine.Depth))
		}
	} else if c.Engine.MoveTime <= 0 {
		errs = append(errs, fmt.Errorf("engine.move_time must be > 0, got %d", c.Engine.MoveTime))
	}
	if c.Engine.Grace < 0 {
		errs = append(errs, fmt.Errorf("engine.grace must not be negative, got %s", c.Engine.Grace))
	}

	switch c.Logs.Style {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logs.style must be \"text\" or \"json\", got %q", c.Logs.Style))
	}

	if len(c.CORS.AllowOrigins) == 0 {
		errs = append(errs, errors.New("cors.allow_origins must not be empty"))
	}
	for _, origin := range c.CORS.AllowOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("cors.allow_origins entry %q must be \"*\" or start with http:// or https://", origin))
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	return errors.Join(errs...)
}
