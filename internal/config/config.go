package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	serr "imgsort/internal/errors"
	"imgsort/pkg/types"

	"gopkg.in/yaml.v3"
)

// ReservedKeys are the viewer shortcuts tag keys may not use.
const ReservedKeys = "hlgG0rRmq?"

// DefaultPattern matches the image formats the loader can decode.
const DefaultPattern = "*.{jpg,jpeg,png,gif,bmp,tif,tiff,webp}"

// Config represents the application configuration structure.
// It defines preloading, catalog, tagging and move settings.
type Config struct {
	Preload struct {
		Radius          int       `yaml:"radius"`           // Full images kept loaded on each side of the cursor
		ThumbnailRadius int       `yaml:"thumbnail_radius"` // Thumbnails kept loaded on each side of the cursor
		Workers         int       `yaml:"workers"`          // Concurrent decode workers
		ScaleDown       types.Dim `yaml:"scale_down"`       // Box full images are scaled down to
		Thumbnail       types.Dim `yaml:"thumbnail"`        // Box thumbnails are scaled down to
		DebounceMillis  int       `yaml:"debounce_ms"`      // Cursor moves closer than this are coalesced
		MaxPixels       int       `yaml:"max_pixels"`       // Larger images are rejected before decoding
	} `yaml:"preload"`
	Catalog struct {
		Patterns []string `yaml:"patterns"` // Glob patterns of file names to include
		Watch    bool     `yaml:"watch"`    // Rescan when the directory changes
	} `yaml:"catalog"`
	Tags struct {
		Names []string `yaml:"names"` // Display names, also used as destination folder names
		Keys  string   `yaml:"keys"`  // One shortcut character per tag
	} `yaml:"tags"`
	Settings struct {
		DryRun     bool   `yaml:"dry_run"`     // If true, simulate moves
		CreateDirs bool   `yaml:"create_dirs"` // Create destination directories
		Collision  string `yaml:"collision"`   // Collision strategy: rename, skip, or overwrite
	} `yaml:"settings"`
	Directories struct {
		Default string `yaml:"default"` // Directory opened when none is given
	} `yaml:"directories"`
	Log struct {
		Debug bool   `yaml:"debug"`
		JSON  bool   `yaml:"json"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// DefaultPath returns ~/.config/imgsort/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "imgsort", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location
// (~/.config/imgsort/config.yaml).
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, serr.NewConfigError("error parsing config file", path, serr.InvalidConfig, err)
	}
	// Booleans whose default is true are only taken when present
	var raw map[string]map[string]interface{}
	_ = yaml.Unmarshal(data, &raw)

	if tempCfg.Preload.Radius != 0 {
		cfg.Preload.Radius = tempCfg.Preload.Radius
	}
	if tempCfg.Preload.ThumbnailRadius != 0 {
		cfg.Preload.ThumbnailRadius = tempCfg.Preload.ThumbnailRadius
	} else if cfg.Preload.ThumbnailRadius < cfg.Preload.Radius {
		cfg.Preload.ThumbnailRadius = cfg.Preload.Radius
	}
	if tempCfg.Preload.Workers != 0 {
		cfg.Preload.Workers = tempCfg.Preload.Workers
	}
	if tempCfg.Preload.ScaleDown != (types.Dim{}) {
		cfg.Preload.ScaleDown = tempCfg.Preload.ScaleDown
	}
	if tempCfg.Preload.Thumbnail != (types.Dim{}) {
		cfg.Preload.Thumbnail = tempCfg.Preload.Thumbnail
	}
	if tempCfg.Preload.DebounceMillis != 0 {
		cfg.Preload.DebounceMillis = tempCfg.Preload.DebounceMillis
	}
	if tempCfg.Preload.MaxPixels != 0 {
		cfg.Preload.MaxPixels = tempCfg.Preload.MaxPixels
	}

	if len(tempCfg.Catalog.Patterns) > 0 {
		cfg.Catalog.Patterns = tempCfg.Catalog.Patterns
	}
	if isSet(raw, "catalog", "watch") {
		cfg.Catalog.Watch = tempCfg.Catalog.Watch
	}

	if len(tempCfg.Tags.Names) > 0 {
		cfg.Tags.Names = tempCfg.Tags.Names
	}
	if tempCfg.Tags.Keys != "" {
		cfg.Tags.Keys = tempCfg.Tags.Keys
	}

	cfg.Settings.DryRun = tempCfg.Settings.DryRun
	if isSet(raw, "settings", "create_dirs") {
		cfg.Settings.CreateDirs = tempCfg.Settings.CreateDirs
	}
	if tempCfg.Settings.Collision != "" {
		cfg.Settings.Collision = tempCfg.Settings.Collision
	}

	if tempCfg.Directories.Default != "" {
		cfg.Directories.Default = tempCfg.Directories.Default
	}
	cfg.Log = tempCfg.Log

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func isSet(raw map[string]map[string]interface{}, section, key string) bool {
	_, ok := raw[section][key]
	return ok
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Preload.Radius = 5
	cfg.Preload.ThumbnailRadius = 10
	cfg.Preload.Workers = 4
	cfg.Preload.ScaleDown = types.Dim{Width: 1920, Height: 1080}
	cfg.Preload.Thumbnail = types.Dim{Width: 160, Height: 120}
	cfg.Preload.DebounceMillis = 15
	cfg.Preload.MaxPixels = 100_000_000

	cfg.Catalog.Patterns = []string{DefaultPattern}
	cfg.Catalog.Watch = true

	cfg.Tags.Names = []string{"Red", "Green", "Yellow", "Blue", "Purple", "Orange", "Gray", "Cyan"}
	cfg.Tags.Keys = "aoeupyfc"

	cfg.Settings.DryRun = false
	cfg.Settings.CreateDirs = true
	cfg.Settings.Collision = "rename"

	cfg.Directories.Default = "."

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns a ConfigError naming the offending parameter.
func (c *Config) Validate() error {
	if c == nil {
		return serr.ErrInvalidConfig
	}

	invalid := func(param, format string, args ...interface{}) error {
		return serr.NewConfigError("invalid value", param, serr.InvalidConfig, fmt.Errorf(format, args...))
	}

	if c.Preload.Radius < 0 {
		return invalid("preload.radius", "must be >= 0, got %d", c.Preload.Radius)
	}
	if c.Preload.ThumbnailRadius < c.Preload.Radius {
		return invalid("preload.thumbnail_radius", "must be >= radius (%d), got %d", c.Preload.Radius, c.Preload.ThumbnailRadius)
	}
	if c.Preload.Workers < 1 {
		return invalid("preload.workers", "must be >= 1, got %d", c.Preload.Workers)
	}
	if c.Preload.ScaleDown.IsZero() {
		return invalid("preload.scale_down", "width and height must be > 0")
	}
	if c.Preload.Thumbnail.IsZero() {
		return invalid("preload.thumbnail", "width and height must be > 0")
	}
	if c.Preload.DebounceMillis < 0 {
		return invalid("preload.debounce_ms", "must be >= 0, got %d", c.Preload.DebounceMillis)
	}
	if c.Preload.MaxPixels < 1 {
		return invalid("preload.max_pixels", "must be > 0, got %d", c.Preload.MaxPixels)
	}

	if len(c.Catalog.Patterns) == 0 {
		return invalid("catalog.patterns", "at least one pattern is required")
	}
	for i, p := range c.Catalog.Patterns {
		if p == "" {
			return invalid("catalog.patterns", "pattern %d is empty", i)
		}
	}

	if len(c.Tags.Names) != types.TagCount {
		return invalid("tags.names", "expected %d names, got %d", types.TagCount, len(c.Tags.Names))
	}
	seen := make(map[string]bool, len(c.Tags.Names))
	for i, name := range c.Tags.Names {
		if name == "" {
			return invalid("tags.names", "name %d is empty", i)
		}
		if seen[name] {
			return invalid("tags.names", "duplicate name %q", name)
		}
		seen[name] = true
	}

	keys := make(map[rune]bool)
	for _, r := range c.Tags.Keys {
		if strings.ContainsRune(ReservedKeys, r) {
			return invalid("tags.keys", "%q is a viewer key", r)
		}
		if keys[r] {
			return invalid("tags.keys", "duplicate key %q", r)
		}
		keys[r] = true
	}

	validCollisions := map[string]bool{"rename": true, "skip": true, "overwrite": true}
	if !validCollisions[c.Settings.Collision] {
		return invalid("settings.collision", "unknown strategy %q", c.Settings.Collision)
	}

	return nil
}

// TagName returns the configured name of tag, or "" for NoTag.
func (c *Config) TagName(tag types.Tag) string {
	if !tag.Valid() || int(tag) > len(c.Tags.Names) {
		return ""
	}
	return c.Tags.Names[tag-1]
}

// TagForKey maps a shortcut character to its tag.
func (c *Config) TagForKey(key string) (types.Tag, bool) {
	if len(key) != 1 {
		return types.NoTag, false
	}
	for i, r := range []rune(c.Tags.Keys) {
		if string(r) == key && i < types.TagCount {
			return types.Tag(i + 1), true
		}
	}
	return types.NoTag, false
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
