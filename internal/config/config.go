// Package config loads client and server settings from defaults, a TOML
// file, a .env file, TODOLIST_* environment variables and CLI flags, in that
// order of increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TODOLIST_"

// Config holds the TUI and one-shot CLI settings.
type Config struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout string `toml:"request_timeout"`
	Theme          string `toml:"theme"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	LogFile        string `toml:"log_file"`
	NotifyFailures bool   `toml:"notify_failures"`

	// Derived values
	Timeout    time.Duration `toml:"-"`
	ConfigFile string        `toml:"-"`
}

// ServerConfig holds the reference backend settings. In the TOML file they
// live under a [server] table.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	Driver    string `toml:"driver"`
	DSN       string `toml:"dsn"`
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	ConfigFile string `toml:"-"`
}

// Supported storage drivers
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// fileLayout is the on-disk TOML shape.
type fileLayout struct {
	Config
	Server ServerConfig `toml:"server"`
}

func setDefaults(cfg *Config) {
	cfg.BaseURL = "http://localhost:5000"
	cfg.RequestTimeout = "0s"
	cfg.Theme = "nord"
	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
	cfg.LogFile = filepath.Join(stateDir(), "todolist", "todolist.log")
}

func setServerDefaults(cfg *ServerConfig) {
	cfg.Addr = ":5000"
	cfg.Driver = DriverSQLite
	cfg.DataDir = filepath.Join(dataDir(), "todolist")
	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
}

// Load builds the client configuration. fs receives the client flags; the
// remaining positional arguments are available from fs.Args() afterwards.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	if fs == nil {
		fs = flag.NewFlagSet("todolist", flag.ContinueOnError)
	}

	cfg := &Config{}
	setDefaults(cfg)

	var flags Config
	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.StringVar(&flags.BaseURL, "base-url", cfg.BaseURL, "Base URL of the task service")
	fs.StringVar(&flags.RequestTimeout, "timeout", cfg.RequestTimeout, "Per-request timeout (0 disables)")
	fs.StringVar(&flags.Theme, "theme", cfg.Theme, "Color theme")
	fs.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&flags.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.StringVar(&flags.LogFile, "log-file", cfg.LogFile, "Log file path")
	fs.BoolVar(&flags.NotifyFailures, "notify", cfg.NotifyFailures, "Desktop notification on failed requests")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	env, err := newEnvironment(".env")
	if err != nil {
		return nil, err
	}

	path, explicit := resolveConfigFile(configPath, env)
	if path != "" {
		var layout fileLayout
		layout.Config = *cfg
		if err := decodeFile(path, &layout, explicit); err != nil {
			return nil, err
		}
		*cfg = layout.Config
		cfg.ConfigFile = path
	}

	env.apply(cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = flags.BaseURL
		case "timeout":
			cfg.RequestTimeout = flags.RequestTimeout
		case "theme":
			cfg.Theme = flags.Theme
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		case "log-file":
			cfg.LogFile = flags.LogFile
		case "notify":
			cfg.NotifyFailures = flags.NotifyFailures
		}
	})

	if err := finalize(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

// LoadServer builds the backend configuration.
func LoadServer(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	if fs == nil {
		fs = flag.NewFlagSet("todolistd", flag.ContinueOnError)
	}

	cfg := &ServerConfig{}
	setServerDefaults(cfg)

	var flags ServerConfig
	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.StringVar(&flags.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&flags.Driver, "driver", cfg.Driver, "Storage driver (sqlite3, mysql)")
	fs.StringVar(&flags.DSN, "dsn", cfg.DSN, "Database DSN (defaults to <data-dir>/todolist.db for sqlite3)")
	fs.StringVar(&flags.DataDir, "data-dir", cfg.DataDir, "Data directory")
	fs.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&flags.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	env, err := newEnvironment(".env")
	if err != nil {
		return nil, err
	}

	path, explicit := resolveConfigFile(configPath, env)
	if path != "" {
		var layout fileLayout
		layout.Server = *cfg
		if err := decodeFile(path, &layout, explicit); err != nil {
			return nil, err
		}
		*cfg = layout.Server
		cfg.ConfigFile = path
	}

	env.applyServer(cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = flags.Addr
		case "driver":
			cfg.Driver = flags.Driver
		case "dsn":
			cfg.DSN = flags.DSN
		case "data-dir":
			cfg.DataDir = flags.DataDir
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		}
	})

	if err := finalizeServer(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

func finalize(cfg *Config) error {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return errors.New("base_url is empty")
	}

	timeout := strings.TrimSpace(cfg.RequestTimeout)
	if timeout == "" {
		timeout = "0s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", d)
	}
	cfg.Timeout = d
	cfg.LogFile = expandPath(cfg.LogFile)
	return nil
}

func finalizeServer(cfg *ServerConfig) error {
	cfg.DataDir = expandPath(cfg.DataDir)
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" {
			cfg.DSN = filepath.Join(cfg.DataDir, "todolist.db")
		}
	case DriverMySQL:
		if cfg.DSN == "" {
			return errors.New("dsn is required for the mysql driver")
		}
	default:
		return fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	if cfg.Addr == "" {
		return errors.New("addr is empty")
	}
	return nil
}

// resolveConfigFile returns the config file to read and whether the user
// named it explicitly. A missing default file is not an error.
func resolveConfigFile(flagPath string, env environment) (string, bool) {
	if flagPath != "" {
		return expandPath(flagPath), true
	}
	if v, ok := env.lookup("CONFIG"); ok && v != "" {
		return expandPath(v), true
	}
	path := filepath.Join(configDir(), "todolist", "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path, false
	}
	return "", false
}

func decodeFile(path string, layout *fileLayout, explicit bool) error {
	if _, err := toml.DecodeFile(path, layout); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	return nil
}

// environment resolves TODOLIST_* keys from the process environment first,
// then from the .env file.
type environment struct {
	dotenv map[string]string
}

func newEnvironment(dotenvPath string) (environment, error) {
	values, err := godotenv.Read(dotenvPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return environment{}, nil
		}
		return environment{}, fmt.Errorf("loading %s: %w", dotenvPath, err)
	}
	return environment{dotenv: values}, nil
}

func (e environment) lookup(key string) (string, bool) {
	key = EnvPrefix + key
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, true
	}
	v, ok := e.dotenv[key]
	return v, ok
}

func (e environment) apply(cfg *Config) {
	if v, ok := e.lookup("BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := e.lookup("REQUEST_TIMEOUT"); ok && v != "" {
		cfg.RequestTimeout = v
	}
	if v, ok := e.lookup("THEME"); ok && v != "" {
		cfg.Theme = v
	}
	if v, ok := e.lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := e.lookup("LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := e.lookup("LOG_FILE"); ok && v != "" {
		cfg.LogFile = v
	}
	if v, ok := e.lookup("NOTIFY_FAILURES"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NotifyFailures = b
		}
	}
}

func (e environment) applyServer(cfg *ServerConfig) {
	if v, ok := e.lookup("ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := e.lookup("DRIVER"); ok && v != "" {
		cfg.Driver = v
	}
	if v, ok := e.lookup("DSN"); ok && v != "" {
		cfg.DSN = v
	}
	if v, ok := e.lookup("DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := e.lookup("SERVER_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := e.lookup("SERVER_LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
}
