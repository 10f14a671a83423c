package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/eventum-app/eventum/internal/errors"
)

const (
	// ConfigFileName is the JSON configuration file.
	ConfigFileName = "eventum.json"

	// YAMLFileName is read when ConfigFileName is absent.
	YAMLFileName = "eventum.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "EVENTUM_"

	// DefaultPort is the default dev server port.
	DefaultPort = 3000

	// DefaultHost is the default dev server host.
	DefaultHost = "localhost"

	// DefaultAPIURL is the API base the dev server serves.
	DefaultAPIURL = "http://localhost:3000/api/srv"

	// DefaultWSURL is the push server base the dev server serves.
	DefaultWSURL = "ws://localhost:3000"

	// DefaultDB is the dev server's store file.
	DefaultDB = "eventum.db"
)

// Config is the complete eventum configuration.
type Config struct {
	// API configures the model client.
	API APIConfig `json:"api" yaml:"api" envPrefix:"API_"`

	// Realtime configures the notification channel.
	Realtime RealtimeConfig `json:"realtime" yaml:"realtime" envPrefix:"WS_"`

	// Assets configures how stored photos become URLs.
	Assets AssetsConfig `json:"assets" yaml:"assets" envPrefix:"ASSETS_"`

	// Dev configures the development server.
	Dev DevConfig `json:"dev" yaml:"dev" envPrefix:"DEV_"`

	// Log configures the process logger.
	Log LogConfig `json:"log" yaml:"log" envPrefix:"LOG_"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" envPrefix:"METRICS_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// APIConfig locates the HTTP API.
type APIConfig struct {
	// URL is the API base, e.g. "https://eventum.xyz/api/srv".
	URL string `json:"url" yaml:"url" env:"URL"`

	// ChatURL is the chat service base. Empty derives it from URL.
	ChatURL string `json:"chatUrl,omitempty" yaml:"chatUrl,omitempty" env:"CHAT_URL"`

	// Timeout bounds each request, e.g. "30s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"TIMEOUT"`
}

// RealtimeConfig locates the push server.
type RealtimeConfig struct {
	// URL is the ws:// or wss:// base. The connect path is appended.
	URL string `json:"url" yaml:"url" env:"URL"`

	// Backoff controls reconnection.
	Backoff BackoffConfig `json:"backoff" yaml:"backoff" envPrefix:"BACKOFF_"`
}

// BackoffConfig is the reconnect schedule.
type BackoffConfig struct {
	Initial  string `json:"initial,omitempty" yaml:"initial,omitempty" env:"INITIAL"`
	Max      string `json:"max,omitempty" yaml:"max,omitempty" env:"MAX"`
	Attempts int    `json:"attempts,omitempty" yaml:"attempts,omitempty" env:"ATTEMPTS"`
}

// AssetsConfig selects a static base URL or an S3 bucket.
type AssetsConfig struct {
	// BaseURL serves objects directly when Bucket is empty.
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" env:"BASE_URL"`

	// Bucket enables presigned S3 URLs.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" env:"BUCKET"`

	// Region is the bucket's region.
	Region string `json:"region,omitempty" yaml:"region,omitempty" env:"REGION"`

	// Endpoint overrides the S3 endpoint for compatible stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`

	// Expiry is how long presigned URLs stay valid, e.g. "15m".
	Expiry string `json:"expiry,omitempty" yaml:"expiry,omitempty" env:"EXPIRY"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" yaml:"port,omitempty" env:"PORT"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty" env:"HOST"`

	// DB is the bbolt file holding seeded data.
	DB string `json:"db,omitempty" yaml:"db,omitempty" env:"DB"`

	// Seed fills an empty store with demo data.
	Seed bool `json:"seed" yaml:"seed" env:"SEED"`
}

// LogConfig configures slog.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"FORMAT"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" env:"ENABLED"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" env:"NAMESPACE"`
}

// New creates a new Config with default values.
func New() *Config {
	c := base()
	c.applyDefaults()
	return c
}

// base holds the defaults that a file may switch off.
func base() *Config {
	return &Config{
		Dev:     DevConfig{Seed: true},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads eventum.json, or eventum.yaml, from dir and applies
// environment overrides.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E101").
		WithDetail("No " + ConfigFileName + " or " + YAMLFileName + " found in " + dir).
		WithSuggestion("Create " + ConfigFileName + " or pass --config")
}

// LoadOrDefault is Load, except that a missing file yields the defaults
// with environment overrides applied.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.Code(err) != "E101" {
		return cfg, err
	}
	cfg = New()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads the configuration at path. Files ending in .yaml or .yml
// are YAML; anything else is JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No configuration at " + path)
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := base()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + format(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func format(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}

// applyEnv overlays EVENTUM_* variables.
func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("E107").Wrap(err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as YAML when path ends in
// .yaml or .yml.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E108").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E108").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.DB == "" {
		c.Dev.DB = DefaultDB
	}

	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "30s"
	}

	if c.Realtime.URL == "" {
		c.Realtime.URL = DefaultWSURL
	}
	if c.Realtime.Backoff.Initial == "" {
		c.Realtime.Backoff.Initial = "500ms"
	}
	if c.Realtime.Backoff.Max == "" {
		c.Realtime.Backoff.Max = "30s"
	}
	if c.Realtime.Backoff.Attempts == 0 {
		c.Realtime.Backoff.Attempts = 8
	}

	if c.Assets.BaseURL == "" && c.Assets.Bucket == "" {
		c.Assets.BaseURL = "http://" + c.DevAddress() + "/static"
	}
	if c.Assets.Expiry == "" {
		c.Assets.Expiry = "15m"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "eventum"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !absoluteURL(c.API.URL, "http", "https") {
		return errors.New("E103").WithDetail(fmt.Sprintf("api.url %q must be an absolute http or https URL", c.API.URL))
	}
	if c.API.ChatURL != "" && !absoluteURL(c.API.ChatURL, "http", "https") {
		return errors.New("E103").WithDetail(fmt.Sprintf("api.chatUrl %q must be an absolute http or https URL", c.API.ChatURL))
	}
	if !absoluteURL(c.Realtime.URL, "ws", "wss") {
		return errors.New("E104").WithDetail(fmt.Sprintf("realtime.url %q must be an absolute ws or wss URL", c.Realtime.URL))
	}
	if c.Dev.Port < 1 || c.Dev.Port > 65535 {
		return errors.New("E105").WithDetail(fmt.Sprintf("dev.port %d is outside 1-65535", c.Dev.Port))
	}
	if _, _, _, err := c.Backoff(); err != nil {
		return err
	}
	if _, err := c.APITimeout(); err != nil {
		return err
	}
	if _, err := c.AssetExpiry(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E109").WithDetail(fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	return nil
}

func absoluteURL(raw string, schemes ...string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return true
		}
	}
	return false
}

func duration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("E109").
			WithDetail(fmt.Sprintf("%s %q must be a positive duration", field, raw)).
			WithSuggestion(`Use Go duration syntax, e.g. "500ms" or "15m"`)
	}
	return d, nil
}

// Backoff returns the parsed reconnect schedule.
func (c *Config) Backoff() (initial, max time.Duration, attempts int, err error) {
	b := c.Realtime.Backoff
	initial, err1 := time.ParseDuration(b.Initial)
	max, err2 := time.ParseDuration(b.Max)
	if err1 != nil || err2 != nil || initial <= 0 || max < initial || b.Attempts < 1 {
		return 0, 0, 0, errors.New("E106").
			WithDetail(fmt.Sprintf("initial %q, max %q, attempts %d", b.Initial, b.Max, b.Attempts))
	}
	return initial, max, b.Attempts, nil
}

// APITimeout returns the parsed per-request timeout.
func (c *Config) APITimeout() (time.Duration, error) {
	return duration("api.timeout", c.API.Timeout)
}

// AssetExpiry returns the parsed presigned URL lifetime.
func (c *Config) AssetExpiry() (time.Duration, error) {
	return duration("assets.expiry", c.Assets.Expiry)
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("E109").
			WithDetail(fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	return level, nil
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
