package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"

	"searchbox/internal/eventbus"
)

// EnvPrefix prefixes environment overrides, e.g. SEARCHBOX_UI__OPEN_COMMAND
const EnvPrefix = "SEARCHBOX_"

// Source types understood by the source factory
const (
	SourceDemo    = "demo"
	SourceStatic  = "static"
	SourceSQLite  = "sqlite"
	SourceAlgolia = "algolia"
)

// Config represents the application configuration
type Config struct {
	Placeholder          string         `koanf:"placeholder" toml:"placeholder"`
	OpenOnFocus          bool           `koanf:"open_on_focus" toml:"open_on_focus"`
	WrapNavigation       bool           `koanf:"wrap_navigation" toml:"wrap_navigation"`
	CloseOnSelect        bool           `koanf:"close_on_select" toml:"close_on_select"`
	StallThreshold       string         `koanf:"stall_threshold" toml:"stall_threshold"` // e.g. "300ms"
	MaxConcurrentFetches int            `koanf:"max_concurrent_fetches" toml:"max_concurrent_fetches"`
	LogFile              string         `koanf:"log_file" toml:"log_file"`
	Trace                TraceSettings  `koanf:"trace" toml:"trace"`
	UI                   UISettings     `koanf:"ui" toml:"ui"`
	Sources              []SourceConfig `koanf:"sources" toml:"sources"`
}

// TraceSettings controls the per-fetch trace exporter
type TraceSettings struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	File    string `koanf:"file" toml:"file"` // defaults to the log file
}

// UISettings represents UI-related configuration
type UISettings struct {
	OpenCommand string `koanf:"open_command" toml:"open_command"` // run with the selected URL appended
	ShowHelp    bool   `koanf:"show_help" toml:"show_help"`
}

// SourceConfig describes one result source
type SourceConfig struct {
	ID          string        `koanf:"id" toml:"id"`
	Type        string        `koanf:"type" toml:"type"`
	Timeout     string        `koanf:"timeout" toml:"timeout,omitempty"`
	HitsPerPage int           `koanf:"hits_per_page" toml:"hits_per_page,omitempty"`
	Path        string        `koanf:"path" toml:"path,omitempty"`                 // static and sqlite catalogs
	URLTemplate string        `koanf:"url_template" toml:"url_template,omitempty"` // {id} is replaced by the object id
	Algolia     AlgoliaConfig `koanf:"algolia" toml:"algolia,omitempty"`
}

// AlgoliaConfig points a source at a hosted index
type AlgoliaConfig struct {
	AppID     string `koanf:"app_id" toml:"app_id,omitempty"`
	APIKey    string `koanf:"api_key" toml:"api_key,omitempty"`
	IndexName string `koanf:"index_name" toml:"index_name,omitempty"`
	Host      string `koanf:"host" toml:"host,omitempty"` // overrides https://{app_id}-dsn.algolia.net
}

// StallDuration parses StallThreshold. Empty means zero.
func (c *Config) StallDuration() (time.Duration, error) {
	return parseDuration(c.StallThreshold)
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (s SourceConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(s.Timeout)
}

// SourceIDs returns the configured source ids in order
func (c *Config) SourceIDs() []string {
	ids := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		ids[i] = s.ID
	}
	return ids
}

// Validate checks the values a controller cannot be built without
func (c *Config) Validate() error {
	if _, err := c.StallDuration(); err != nil {
		return fmt.Errorf("invalid stall_threshold: %w", err)
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.ID == "" {
			return fmt.Errorf("source %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true

		switch s.Type {
		case SourceDemo, SourceStatic, SourceSQLite, SourceAlgolia:
		default:
			return fmt.Errorf("source %q has unknown type %q", s.ID, s.Type)
		}
		if _, err := s.TimeoutDuration(); err != nil {
			return fmt.Errorf("source %q has invalid timeout: %w", s.ID, err)
		}
	}
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service reading path, or the default location when path is empty
func NewConfigService(path string) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{filePath: path}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(path string, bus eventbus.EventBus) ConfigService {
	cs := NewConfigService(path).(*configService)
	cs.bus = bus
	return cs
}

// DefaultPath returns the user-level config file location
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "searchbox", "searchbox.toml")
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads .env, then the config file if it exists, then environment overrides
func (cs *configService) Load() (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	cfg, err := load(cs.filePath, false)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded config from %s with sources %v", cs.filePath, cfg.SourceIDs())
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath, Sources: cfg.SourceIDs()})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	// Publish ConfigSaved event if bus is available
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path, which must exist
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	return load(path, true)
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	// Ensure config directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func load(path string, mustExist bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), TOML()); err != nil {
		if mustExist || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// SEARCHBOX_UI__OPEN_COMMAND -> ui.open_command
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := baseConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}
	for i := range cfg.Sources {
		cfg.Sources[i].Algolia.AppID = substituteEnvVars(cfg.Sources[i].Algolia.AppID)
		cfg.Sources[i].Algolia.APIKey = substituteEnvVars(cfg.Sources[i].Algolia.APIKey)
		cfg.Sources[i].Path = substituteEnvVars(cfg.Sources[i].Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := baseConfig()
	cfg.Sources = defaultSources()
	return cfg
}

// baseConfig has every default except sources, which must not be merged with configured ones
func baseConfig() *Config {
	return &Config{
		Placeholder:    "Search products",
		CloseOnSelect:  true,
		StallThreshold: "300ms",
		LogFile:        "searchbox.log",
		UI: UISettings{
			ShowHelp: true,
		},
	}
}

func defaultSources() []SourceConfig {
	return []SourceConfig{
		{ID: "products", Type: SourceDemo},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
