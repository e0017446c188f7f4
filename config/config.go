package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	API struct {
		BaseURL    string        `yaml:"base_url"`
		TimeoutRaw string        `yaml:"timeout"`
		Timeout    time.Duration `yaml:"-"`
	} `yaml:"api"`
	Session struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		DSN    string `yaml:"dsn"`
		Key    string `yaml:"key"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"session"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Routes struct {
		Login    string `yaml:"login"`
		Home     string `yaml:"home"`
		NotFound string `yaml:"not_found"`
	} `yaml:"routes"`
}

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 20 * time.Second
)

// Load reads config/envs/<env>.yaml relative to the working directory.
func Load(env string) (*Config, error) {
	return LoadFrom("config", env)
}

// LoadFrom reads <dir>/envs/<env>.yaml, then applies .env and process
// environment overrides and fills defaults.
func LoadFrom(dir, env string) (*Config, error) {
	if env == "" {
		env = "local"
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}

	configPath := filepath.Join(dir, "envs", env+".yaml")

	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout = parseTimeout(cfg.API.TimeoutRaw)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	log.Printf("Loaded configuration for env: %s", env)
	return &cfg, nil
}

// Defaults returns a configuration built from environment overrides and
// defaults only, for running without a config file.
func Defaults() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if url := os.Getenv("CLINIC_API_BASE_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if raw := os.Getenv("CLINIC_API_TIMEOUT"); raw != "" {
		cfg.API.Timeout = parseTimeout(raw)
	}

	// Session persistence overrides
	if driver := os.Getenv("CLINIC_SESSION_DRIVER"); driver != "" {
		cfg.Session.Driver = driver
	}
	if path := os.Getenv("CLINIC_SESSION_PATH"); path != "" {
		cfg.Session.Path = path
	}
	if dsn := os.Getenv("CLINIC_SESSION_DSN"); dsn != "" {
		cfg.Session.DSN = dsn
	}
	if addr := os.Getenv("CLINIC_REDIS_ADDR"); addr != "" {
		cfg.Session.Redis.Addr = addr
	}
	if password := os.Getenv("CLINIC_REDIS_PASSWORD"); password != "" {
		cfg.Session.Redis.Password = password
	}

	if level := os.Getenv("CLINIC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "5173"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.Session.Driver == "" {
		cfg.Session.Driver = "file"
	}
	if cfg.Session.Key == "" {
		cfg.Session.Key = "default"
	}
	if cfg.Session.Driver == "file" && cfg.Session.Path == "" {
		cfg.Session.Path = defaultSessionPath()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Routes.Login == "" {
		cfg.Routes.Login = "login"
	}
	if cfg.Routes.Home == "" {
		cfg.Routes.Home = "dashboard"
	}
	if cfg.Routes.NotFound == "" {
		cfg.Routes.NotFound = "not-found"
	}
}

// parseTimeout accepts a Go duration ("20s") or a bare number of seconds.
func parseTimeout(raw string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".clinic-session.yaml")
	}
	return filepath.Join(dir, "clinic-console", "session.yaml")
}
