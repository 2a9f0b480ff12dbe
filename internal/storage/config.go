package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// FieldType tags a configuration field's value type.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeBool
)

// Field describes one configuration key: its type, default, and optional
// constraints. Every read goes through the schema so components always see a
// usable value even when the stored config is stale or hand-edited.
type Field struct {
	Type     FieldType
	Default  any
	Min, Max int      // bounds for TypeInt (Max 0 means unbounded)
	Options  []string // enumerated values for TypeString
	Secret   bool     // credential field, not displayed
}

// Schema is the fixed set of configuration keys.
var Schema = map[string]Field{
	// Display
	"theme": {Type: TypeString, Default: "default",
		Options: []string{"default", "gruvbox", "nord", "dracula"}},
	"hideReadItems": {Type: TypeBool, Default: false},

	// Behavior
	"markReadOnScroll":   {Type: TypeBool, Default: true},
	"ledgerMaxEntries":   {Type: TypeInt, Default: 5000, Min: 100, Max: 100000},
	"pollIntervalMs":     {Type: TypeInt, Default: 500, Min: 100, Max: 5000},
	"debounceMs":         {Type: TypeInt, Default: 500, Min: 50, Max: 5000},
	"refreshIntervalSec": {Type: TypeInt, Default: 30, Min: 5, Max: 600},
	"idleFlushSec":       {Type: TypeInt, Default: 5, Min: 1, Max: 120},
	"authCooldownSec":    {Type: TypeInt, Default: 60, Min: 10, Max: 3600},
	"startURL":           {Type: TypeString, Default: "https://bsky.app/"},

	// Credentials / sync
	"service":     {Type: TypeString, Default: "https://bsky.social"},
	"identifier":  {Type: TypeString, Default: "", Secret: true},
	"appPassword": {Type: TypeString, Default: "", Secret: true},
	"syncEnabled": {Type: TypeBool, Default: false},
}

// Config holds the flat key/value user configuration.
type Config struct {
	values map[string]any
	path   string
}

// DefaultConfig returns a config holding only schema defaults, detached from
// any file.
func DefaultConfig() *Config {
	return &Config{values: make(map[string]any)}
}

// LoadConfig loads configuration from the standard config directory. Missing
// or unparseable files fail open to schema defaults.
func LoadConfig() (*Config, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return loadConfigFrom(filepath.Join(dir, "config.json"))
}

func loadConfigFrom(path string) (*Config, error) {
	cfg := &Config{values: make(map[string]any), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Save default config.
			cfg.Save()
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		// Fail open: a corrupt config runs on defaults.
		return cfg, nil
	}
	for key, v := range raw {
		if _, ok := Schema[key]; ok {
			cfg.values[key] = v
		}
	}
	return cfg, nil
}

// GetString returns the value for a string-typed key, falling back to the
// schema default on missing values, type mismatches, or options violations.
func (c *Config) GetString(key string) string {
	f, ok := Schema[key]
	if !ok || f.Type != TypeString {
		return ""
	}
	def, _ := f.Default.(string)
	v, ok := c.values[key].(string)
	if !ok {
		return def
	}
	if len(f.Options) > 0 && !contains(f.Options, v) {
		return def
	}
	return v
}

// GetInt returns the value for an int-typed key, clamped to the field's
// bounds.
func (c *Config) GetInt(key string) int {
	f, ok := Schema[key]
	if !ok || f.Type != TypeInt {
		return 0
	}
	def, _ := f.Default.(int)
	var v int
	switch n := c.values[key].(type) {
	case float64: // JSON numbers decode as float64
		v = int(n)
	case int:
		v = n
	default:
		return def
	}
	if v < f.Min {
		return f.Min
	}
	if f.Max > 0 && v > f.Max {
		return f.Max
	}
	return v
}

// GetBool returns the value for a bool-typed key.
func (c *Config) GetBool(key string) bool {
	f, ok := Schema[key]
	if !ok || f.Type != TypeBool {
		return false
	}
	def, _ := f.Default.(bool)
	v, ok := c.values[key].(bool)
	if !ok {
		return def
	}
	return v
}

// Set parses and validates raw against the key's schema, then stores it.
func (c *Config) Set(key, raw string) error {
	f, ok := Schema[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	switch f.Type {
	case TypeString:
		if len(f.Options) > 0 && !contains(f.Options, raw) {
			return fmt.Errorf("%s must be one of: %s", key, strings.Join(f.Options, ", "))
		}
		c.values[key] = raw
	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		if n < f.Min || (f.Max > 0 && n > f.Max) {
			return fmt.Errorf("%s must be between %d and %d", key, f.Min, f.Max)
		}
		c.values[key] = n
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		c.values[key] = b
	}
	return nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(c.path, data, 0o600)
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "bskynav")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dir = filepath.Join(appData, "bskynav")
		} else {
			dir = filepath.Join(home, ".bskynav")
		}
	default:
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig != "" {
			dir = filepath.Join(xdgConfig, "bskynav")
		} else {
			dir = filepath.Join(home, ".config", "bskynav")
		}
	}

	return dir, nil
}
