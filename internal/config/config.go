package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	fileName = "config.json"

	DefaultServer          = "http://localhost:5000"
	DefaultTimeout         = 15 * time.Second
	DefaultBreakerFailures = 3
	DefaultBreakerCooldown = 5 * time.Second

	envPrefix    = "TASKBOARD_"
	envConfigDir = envPrefix + "CONFIG_DIR"

	breakerFailuresKey = "breaker.failures"
	breakerCooldownKey = "breaker.cooldown"
)

type Config struct {
	// Server is the API base URL, e.g. http://localhost:5000.
	Server string `json:"server,omitempty"`
	// Project scopes every route under /projects/{id}. Empty selects the legacy single board.
	Project string `json:"project,omitempty"`
	// Session is sent as the "session" cookie.
	Session string `json:"session,omitempty"`
	// Timeout is a Go duration string ("15s").
	Timeout string `json:"timeout,omitempty"`

	Breaker BreakerConfig `json:"breaker,omitempty"`

	LogFile  string `json:"logFile,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`

	// Theme is light|dark|auto for the TUI.
	Theme string `json:"theme,omitempty"`
}

type BreakerConfig struct {
	// Failures is the count of consecutive failures that opens the breaker.
	Failures int    `json:"failures,omitempty"`
	Cooldown string `json:"cooldown,omitempty"`
}

func Default() Config {
	return Config{Server: DefaultServer}
}

// Dir is ~/.taskboard unless TASKBOARD_CONFIG_DIR is set.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(envConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskboard"), nil
}

func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// DefaultLogFile is where the TUI writes its log when none is configured.
func DefaultLogFile(dir string) string {
	return filepath.Join(dir, "logs", "taskboard.log")
}

// LoadFile reads config.json from dir. A missing file yields Default().
func LoadFile(dir string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", Path(dir), err)
	}
	if strings.TrimSpace(cfg.Server) == "" {
		cfg.Server = DefaultServer
	}
	return cfg, nil
}

// Load resolves the effective config: file, then .env in workDir, then the
// process environment.
func Load(dir, workDir string) (Config, error) {
	cfg, err := LoadFile(dir)
	if err != nil {
		return cfg, err
	}

	if workDir != "" {
		dotEnv, err := godotenv.Read(filepath.Join(workDir, ".env"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read .env: %w", err)
		}
		if err := applyEnv(&cfg, func(k string) (string, bool) {
			v, ok := dotEnv[k]
			return v, ok
		}); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, fileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, 0o600)
	return os.Rename(tmp, Path(dir))
}

func (c Config) Validate() error {
	if _, err := parseDuration("timeout", c.Timeout); err != nil {
		return err
	}
	if _, err := parseDuration(breakerCooldownKey, c.Breaker.Cooldown); err != nil {
		return err
	}
	if c.Breaker.Failures < 0 {
		return fmt.Errorf("invalid %s: must not be negative", breakerFailuresKey)
	}
	switch strings.ToLower(strings.TrimSpace(c.Theme)) {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("invalid theme %q (want light|dark|auto)", c.Theme)
	}
	return nil
}

func (c Config) RequestTimeout() time.Duration {
	d, err := parseDuration("timeout", c.Timeout)
	if err != nil || d == 0 {
		return DefaultTimeout
	}
	return d
}

func (c Config) BreakerFailures() int {
	if c.Breaker.Failures <= 0 {
		return DefaultBreakerFailures
	}
	return c.Breaker.Failures
}

func (c Config) BreakerCooldown() time.Duration {
	d, err := parseDuration(breakerCooldownKey, c.Breaker.Cooldown)
	if err != nil || d == 0 {
		return DefaultBreakerCooldown
	}
	return d
}

func parseDuration(key, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q (want a duration like 10s)", key, s)
	}
	return d, nil
}

// setters maps `config set` keys (and TASKBOARD_* env suffixes) to fields.
var setters = map[string]func(c *Config, v string) error{
	"server":  func(c *Config, v string) error { c.Server = strings.TrimRight(v, "/"); return nil },
	"project": func(c *Config, v string) error { c.Project = v; return nil },
	"session": func(c *Config, v string) error { c.Session = v; return nil },
	"timeout": func(c *Config, v string) error {
		if _, err := parseDuration("timeout", v); err != nil {
			return err
		}
		c.Timeout = v
		return nil
	},
	"logFile":  func(c *Config, v string) error { c.LogFile = v; return nil },
	"logLevel": func(c *Config, v string) error { c.LogLevel = v; return nil },
	"theme":    func(c *Config, v string) error { c.Theme = v; return nil },
	breakerFailuresKey: func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s %q", breakerFailuresKey, v)
		}
		c.Breaker.Failures = n
		return nil
	},
	breakerCooldownKey: func(c *Config, v string) error {
		if _, err := parseDuration(breakerCooldownKey, v); err != nil {
			return err
		}
		c.Breaker.Cooldown = v
		return nil
	},
}

func Keys() []string {
	out := make([]string, 0, len(setters))
	for k := range setters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Config) Set(key, value string) error {
	fn, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return fn(c, strings.TrimSpace(value))
}

// envName turns "breaker.failures" into TASKBOARD_BREAKER_FAILURES and "logFile" into TASKBOARD_LOG_FILE.
func envName(key string) string {
	var b strings.Builder
	b.WriteString(envPrefix)
	for i, r := range key {
		switch {
		case r == '.':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteString(strings.ToUpper(string(r)))
		}
	}
	return b.String()
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, k := range Keys() {
		v, ok := lookup(envName(k))
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := c.Set(k, v); err != nil {
			return fmt.Errorf("%s: %w", envName(k), err)
		}
	}
	return nil
}
