package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/academy/internal/calendar"
)

const envPrefix = "ACADEMY_"

// Config is the process configuration shared by the CLI and the bridge.
type Config struct {
	APIURL     string        `yaml:"api_url"`
	APIToken   string        `yaml:"api_token"`
	APITimeout time.Duration `yaml:"api_timeout"`
	APIRetries int           `yaml:"api_retries"`

	LogLevel string `yaml:"log_level"`

	Port           string   `yaml:"port"`
	BridgeToken    string   `yaml:"bridge_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// DBPath enables the snapshot cache; empty disables it.
	DBPath          string `yaml:"db_path"`
	CachePassphrase string `yaml:"cache_passphrase"`

	Timezone     string `yaml:"timezone"`
	Refresh      string `yaml:"refresh"`
	DisplayHours string `yaml:"display_hours"`

	// Resolved by Load.
	Location *time.Location        `yaml:"-"`
	Display  calendar.DisplayRange `yaml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		APITimeout:   10 * time.Second,
		LogLevel:     "info",
		Port:         "8080",
		Timezone:     "Europe/Paris",
		Refresh:      "*/5 * * * *",
		DisplayHours: "8-18",
	}
}

// Error lists every missing or invalid setting found by Load.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, "; "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then a .env file in the working directory,
// then ACADEMY_* environment variables. Variables already set in the
// environment win over .env.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	verr := &Error{}
	cfg.applyEnv(verr)
	cfg.resolve(verr)
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return cfg, verr
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(verr *Error) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("API_URL", &c.APIURL)
	str("API_TOKEN", &c.APIToken)
	str("LOG_LEVEL", &c.LogLevel)
	str("PORT", &c.Port)
	str("BRIDGE_TOKEN", &c.BridgeToken)
	str("DB_PATH", &c.DBPath)
	str("CACHE_PASSPHRASE", &c.CachePassphrase)
	str("TIMEZONE", &c.Timezone)
	str("REFRESH", &c.Refresh)
	str("DISPLAY_HOURS", &c.DisplayHours)

	if v, ok := os.LookupEnv(envPrefix + "API_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			verr.Invalid = append(verr.Invalid, envPrefix+"API_TIMEOUT must be a positive duration")
		} else {
			c.APITimeout = d
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "API_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			verr.Invalid = append(verr.Invalid, envPrefix+"API_RETRIES must be a non-negative integer")
		} else {
			c.APIRetries = n
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
}

// resolve validates fields and fills the derived ones.
func (c *Config) resolve(verr *Error) {
	if c.APIURL == "" {
		verr.Missing = append(verr.Missing, envPrefix+"API_URL")
	} else if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		verr.Invalid = append(verr.Invalid, envPrefix+"API_URL must be an http(s) URL")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%sTIMEZONE %q is not an IANA zone", envPrefix, c.Timezone))
	} else {
		c.Location = loc
	}

	display, err := ParseDisplayHours(c.DisplayHours)
	if err != nil {
		verr.Invalid = append(verr.Invalid, envPrefix+"DISPLAY_HOURS "+err.Error())
	} else {
		c.Display = display
	}

	if c.CachePassphrase != "" && c.DBPath == "" {
		verr.Invalid = append(verr.Invalid, envPrefix+"CACHE_PASSPHRASE requires "+envPrefix+"DB_PATH")
	}
}

// ParseDisplayHours reads "8-18" as an inclusive hour band.
func ParseDisplayHours(s string) (calendar.DisplayRange, error) {
	first, last, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return calendar.DisplayRange{}, fmt.Errorf("%q must look like 8-18", s)
	}
	f, err1 := strconv.Atoi(strings.TrimSpace(first))
	l, err2 := strconv.Atoi(strings.TrimSpace(last))
	if err1 != nil || err2 != nil {
		return calendar.DisplayRange{}, fmt.Errorf("%q must look like 8-18", s)
	}
	r := calendar.DisplayRange{First: f, Last: l}
	if err := r.Validate(); err != nil {
		return calendar.DisplayRange{}, err
	}
	return r, nil
}

// Save writes c as YAML with 0600 permissions, creating parent directories.
// Secrets are written too; the file is the user's own.
func Save(path string, c *Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
