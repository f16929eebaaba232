package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v2"
)

// Config represents the entire application configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Client  ClientConfig  `yaml:"client"`
	path    string        // the file this configuration was loaded from
}

// BackendConfig holds settings for the fact store.
type BackendConfig struct {
	DBPath          string        `yaml:"db_path"`
	SQLPath         string        `yaml:"sql_path"` // optional directory overriding the embedded sql files
	DayStartStr     string        `yaml:"day_start"`
	FactMinDeltaSec int           `yaml:"fact_min_delta"`
	DayStart        time.Duration // Parsed from DayStartStr, offset from midnight
	FactMinDelta    time.Duration // Derived from FactMinDeltaSec
}

// ClientConfig holds settings for the command line client.
type ClientConfig struct {
	UnsortedLocalized string    `yaml:"unsorted_localized"`
	LogLevelStr       string    `yaml:"log_level"`
	LogConsole        bool      `yaml:"log_console"`
	LogFile           bool      `yaml:"log_file"`
	LogFilename       string    `yaml:"log_filename"`
	LogLevel          log.Level // Parsed from LogLevelStr
}

// Error reports an invalid configuration value.
type Error struct {
	Key string
	Err error
}

// Error fulfills the Error interface requirement for Error.
func (e *Error) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(key string, format string, args ...any) *Error {
	return &Error{Key: key, Err: fmt.Errorf(format, args...)}
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(configFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}
	cfg.path = filePath

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateAndPrepare checks for required fields and sets up derived values.
// Relative paths are taken to be relative to the configuration file.
func validateAndPrepare(c *Config) error {
	// Backend
	b := &c.Backend
	if b.DBPath == "" {
		return invalid("backend.db_path", "is missing")
	}
	b.DBPath = c.relative(b.DBPath)
	if b.SQLPath != "" {
		b.SQLPath = c.relative(b.SQLPath)
	}
	if b.DayStartStr == "" {
		return invalid("backend.day_start", "is missing")
	}
	dayStart, err := time.Parse("15:04:05", b.DayStartStr)
	if err != nil {
		return &Error{Key: "backend.day_start", Err: fmt.Errorf("invalid format, expected HH:MM:SS: %w", err)}
	}
	b.DayStart = time.Duration(dayStart.Hour())*time.Hour +
		time.Duration(dayStart.Minute())*time.Minute +
		time.Duration(dayStart.Second())*time.Second
	if b.FactMinDeltaSec < 0 {
		return invalid("backend.fact_min_delta", "must not be negative, got %d", b.FactMinDeltaSec)
	}
	b.FactMinDelta = time.Duration(b.FactMinDeltaSec) * time.Second

	// Client
	cl := &c.Client
	if cl.UnsortedLocalized == "" {
		cl.UnsortedLocalized = "Unsorted"
	}
	if cl.LogLevelStr == "" {
		return invalid("client.log_level", "is missing")
	}
	level, err := log.ParseLevel(strings.ToLower(cl.LogLevelStr))
	if err != nil {
		return &Error{Key: "client.log_level", Err: err}
	}
	cl.LogLevel = level
	if cl.LogFile {
		if strings.TrimSpace(cl.LogFilename) == "" {
			return invalid("client.log_filename", "is required when client.log_file is enabled")
		}
		cl.LogFilename = c.relative(cl.LogFilename)
	}

	return nil
}

// relative resolves p against the directory holding the configuration file.
func (c *Config) relative(p string) string {
	if c.path == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(c.path), p)
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// defaultTemplate is written by WriteDefault on first use.
var defaultTemplate = template.Must(template.New("config").Parse(`# hamster-cli configuration
backend:
  # path to the sqlite fact database, relative to this file
  db_path: {{.DBPath}}
  # the time of day a new tracking day starts, HH:MM:SS
  day_start: "00:00:00"
  # minimum length of a closed fact in seconds
  fact_min_delta: 0

client:
  # category name shown for activities without a category
  unsorted_localized: Unsorted
  # one of debug, info, warn, error, fatal
  log_level: info
  log_console: false
  log_file: false
  log_filename: hamster_cli.log
`))

// WriteDefault writes a default configuration file to filePath, creating its
// directory if needed. An existing file is not overwritten.
func WriteDefault(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("config file %q already exists", filePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	var buf bytes.Buffer
	err := defaultTemplate.Execute(&buf, struct{ DBPath string }{DBPath: "hamster.db"})
	if err != nil {
		return fmt.Errorf("config template error: %w", err)
	}
	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "hamster-cli", "config.yaml")
}
