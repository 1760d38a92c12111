// ABOUTME: Configuration loader for the planner client
// ABOUTME: Merges environment, YAML config file and .env values with defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL           = "http://localhost:8001"
	DefaultChatHistoryLimit = 10
	DefaultAuthCheckTimeout = 8 * time.Second

	appDirName = "maarif-planner"
)

// Store backends accepted by StoreBackend.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	APIURL string

	// Device key-value store
	StoreBackend string // file, sqlite, redis, memory (default: file)
	StorePath    string // file or sqlite location (default: <ConfigDir>/store.json or store.db)
	RedisAddr    string
	RedisDB      int

	ChatHistoryLimit int           // messages sent as chat context, 0 = unbounded (default: 10)
	AuthCheckTimeout time.Duration // launch auth check deadline (default: 8s)

	LogLevel  string
	LogFormat string

	ConfigDir string
}

// fileConfig mirrors config.yaml. Pointers distinguish "unset" from zero.
type fileConfig struct {
	APIURL string `yaml:"api_url"`
	Store  struct {
		Backend   string `yaml:"backend"`
		Path      string `yaml:"path"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   *int   `yaml:"redis_db"`
	} `yaml:"store"`
	Chat struct {
		HistoryLimit *int `yaml:"history_limit"`
	} `yaml:"chat"`
	AuthCheckTimeout string `yaml:"auth_check_timeout"`
	Log              struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// source resolves a key through env, then the YAML file, then .env.
type source struct {
	file   map[string]string
	dotenv map[string]string
}

func (s source) get(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s.file[key]; v != "" {
		return v
	}
	if v := s.dotenv[key]; v != "" {
		return v
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) (int, error) {
	v := s.get(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func (s source) getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := s.get(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// Load builds a Config. configPath names a YAML file; when empty,
// <ConfigDir>/config.yaml is used if present. A .env file in the working
// directory supplies the lowest-priority values.
func Load(configPath string) (*Config, error) {
	configDir := os.Getenv("MAARIF_CONFIG_DIR")
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	explicit := configPath != ""
	if !explicit && configDir != "" {
		configPath = filepath.Join(configDir, "config.yaml")
	}

	fileValues, err := readConfigFile(configPath, explicit)
	if err != nil {
		return nil, err
	}

	dotenv, err := godotenv.Read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	src := source{file: fileValues, dotenv: dotenv}

	cfg := &Config{
		APIURL:       ensureScheme(strings.TrimRight(src.get("MAARIF_API_URL", DefaultAPIURL), "/")),
		StoreBackend: strings.ToLower(src.get("MAARIF_STORE", StoreFile)),
		StorePath:    src.get("MAARIF_STORE_PATH", ""),
		RedisAddr:    src.get("MAARIF_REDIS_ADDR", "localhost:6379"),
		LogLevel:     src.get("LOG_LEVEL", "info"),
		LogFormat:    src.get("LOG_FORMAT", "text"),
		ConfigDir:    configDir,
	}

	if cfg.RedisDB, err = src.getInt("MAARIF_REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ChatHistoryLimit, err = src.getInt("MAARIF_CHAT_HISTORY_LIMIT", DefaultChatHistoryLimit); err != nil {
		return nil, err
	}
	if cfg.AuthCheckTimeout, err = src.getDuration("MAARIF_AUTH_CHECK_TIMEOUT", DefaultAuthCheckTimeout); err != nil {
		return nil, err
	}

	if cfg.StorePath == "" && configDir != "" {
		switch cfg.StoreBackend {
		case StoreSQLite:
			cfg.StorePath = filepath.Join(configDir, "store.db")
		case StoreFile:
			cfg.StorePath = filepath.Join(configDir, "store.json")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges after all sources are merged.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile, StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("MAARIF_STORE must be one of file, sqlite, redis, memory, got %q", c.StoreBackend)
	}
	if (c.StoreBackend == StoreFile || c.StoreBackend == StoreSQLite) && c.StorePath == "" {
		return fmt.Errorf("MAARIF_STORE_PATH is required when no config directory can be determined")
	}
	if c.ChatHistoryLimit < 0 {
		return fmt.Errorf("MAARIF_CHAT_HISTORY_LIMIT must be >= 0, got %d", c.ChatHistoryLimit)
	}
	if c.AuthCheckTimeout <= 0 {
		return fmt.Errorf("MAARIF_AUTH_CHECK_TIMEOUT must be positive, got %s", c.AuthCheckTimeout)
	}
	return nil
}

// readConfigFile flattens config.yaml into env-style keys. A missing file is
// only an error when the path was given explicitly.
func readConfigFile(path string, explicit bool) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	values := map[string]string{
		"MAARIF_API_URL":            fc.APIURL,
		"MAARIF_STORE":              fc.Store.Backend,
		"MAARIF_STORE_PATH":         fc.Store.Path,
		"MAARIF_REDIS_ADDR":         fc.Store.RedisAddr,
		"MAARIF_AUTH_CHECK_TIMEOUT": fc.AuthCheckTimeout,
		"LOG_LEVEL":                 fc.Log.Level,
		"LOG_FORMAT":                fc.Log.Format,
	}
	if fc.Store.RedisDB != nil {
		values["MAARIF_REDIS_DB"] = strconv.Itoa(*fc.Store.RedisDB)
	}
	if fc.Chat.HistoryLimit != nil {
		values["MAARIF_CHAT_HISTORY_LIMIT"] = strconv.Itoa(*fc.Chat.HistoryLimit)
	}
	return values, nil
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}
