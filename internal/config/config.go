package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/pkg/assets"
	"github.com/vango-dev/pagebridge/pkg/host"
	"github.com/vango-dev/pagebridge/pkg/offline"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pagebridge.json"

	// DefaultAddr is the default host listen address.
	DefaultAddr = ":8080"

	// DefaultOutput is the default directory for generated files.
	DefaultOutput = "dist"
)

// Storage kinds.
const (
	StorageMemory = "memory"
	StorageS3     = "s3"
)

// Config represents pagebridge.json.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Worker configures the offline worker.
	Worker WorkerConfig `json:"worker"`

	// Host configures the host endpoint.
	Host HostConfig `json:"host"`

	// Storage selects the cache backend used by the host.
	Storage StorageConfig `json:"storage"`

	configPath string
}

// WorkerConfig configures the offline worker.
type WorkerConfig struct {
	// Fingerprint names the cache generation. When empty it is derived
	// from the manifest contents.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Prefix is the cache name prefix (default: "app-").
	Prefix string `json:"prefix,omitempty"`

	// Manifest is the path to an asset manifest, relative to the config
	// file. Its sources are precached under their fingerprinted names.
	Manifest string `json:"manifest,omitempty"`

	// AssetPrefix is prepended to manifest entries.
	AssetPrefix string `json:"assetPrefix,omitempty"`

	// Assets are request URLs precached as given.
	Assets []string `json:"assets,omitempty"`

	// ExtraAssets are absolute cross-origin URLs precached as given.
	ExtraAssets []string `json:"extraAssets,omitempty"`

	// Output is the directory app-worker.js is written to.
	Output string `json:"output,omitempty"`

	// Origin resolves relative asset URLs when the host precaches.
	Origin string `json:"origin,omitempty"`
}

// HostConfig configures the host endpoint. Durations use time.ParseDuration
// syntax, e.g. "30s".
type HostConfig struct {
	Addr              string  `json:"addr,omitempty"`
	ReadTimeout       string  `json:"readTimeout,omitempty"`
	WriteTimeout      string  `json:"writeTimeout,omitempty"`
	HeartbeatInterval string  `json:"heartbeatInterval,omitempty"`
	ShutdownTimeout   string  `json:"shutdownTimeout,omitempty"`
	MaxMessageSize    int64   `json:"maxMessageSize,omitempty"`
	EventRate         float64 `json:"eventRate,omitempty"`
	EventBurst        int     `json:"eventBurst,omitempty"`

	// Metrics serves Prometheus metrics on /metrics.
	Metrics bool `json:"metrics,omitempty"`
}

// StorageConfig selects the cache backend.
type StorageConfig struct {
	// Kind is "memory" (default) or "s3".
	Kind string `json:"kind,omitempty"`

	Bucket       string `json:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	Region       string `json:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads pagebridge.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E124").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'pagebridge init' to create one")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E120").Wrap(err)
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

func (c *Config) applyDefaults() {
	if c.Worker.Prefix == "" {
		c.Worker.Prefix = offline.DefaultPrefix
	}
	if c.Worker.Output == "" {
		c.Worker.Output = DefaultOutput
	}
	if c.Host.Addr == "" {
		c.Host.Addr = DefaultAddr
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = StorageMemory
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Worker.Fingerprint == "" && c.Worker.Manifest == "" {
		return errors.New("E121").
			WithSuggestion("Set worker.fingerprint or point worker.manifest at an asset manifest")
	}

	switch c.Storage.Kind {
	case StorageMemory:
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("E122").WithDetail("storage.bucket is required for s3")
		}
	default:
		return errors.New("E122").WithDetailf("Unknown storage.kind %q", c.Storage.Kind)
	}

	if _, err := c.HostConfig(); err != nil {
		return err
	}
	return nil
}

// resolve returns p relative to the config directory.
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// OutputPath returns the directory app-worker.js is written to.
func (c *Config) OutputPath() string {
	return c.resolve(c.Worker.Output)
}

// HostConfig converts the host section into a host.Config.
func (c *Config) HostConfig() (host.Config, error) {
	hc := host.Config{
		MaxMessageSize: c.Host.MaxMessageSize,
		EventRate:      rate.Limit(c.Host.EventRate),
		EventBurst:     c.Host.EventBurst,
	}
	if c.Host.Addr == "" {
		return hc, errors.New("E123").WithDetail("host.addr is empty")
	}
	if c.Host.MaxMessageSize < 0 || c.Host.EventRate < 0 || c.Host.EventBurst < 0 {
		return hc, errors.New("E123").WithDetail("host limits must not be negative")
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"readTimeout", c.Host.ReadTimeout, &hc.ReadTimeout},
		{"writeTimeout", c.Host.WriteTimeout, &hc.WriteTimeout},
		{"heartbeatInterval", c.Host.HeartbeatInterval, &hc.HeartbeatInterval},
		{"shutdownTimeout", c.Host.ShutdownTimeout, &hc.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil || v <= 0 {
			return hc, errors.New("E123").WithDetailf("host.%s: %q is not a positive duration", d.name, d.value)
		}
		*d.dst = v
	}
	return hc, nil
}

// ManifestPath returns the manifest path resolved against the config
// directory, or "" when none is configured.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Worker.Manifest)
}

// LoadManifest loads the configured asset manifest, or returns nil when
// none is configured.
func (c *Config) LoadManifest() (*assets.Manifest, error) {
	if c.Worker.Manifest == "" {
		return nil, nil
	}
	return assets.Load(c.ManifestPath())
}

// NewWorker builds the offline worker described by the worker section. The
// fingerprint defaults to the SHA-1 of the canonical manifest encoding.
// Storage and Fetcher are left for the caller.
func (c *Config) NewWorker() (*offline.Worker, error) {
	m, err := c.LoadManifest()
	if err != nil {
		return nil, errors.New("E120").WithDetail("worker.manifest could not be read").Wrap(err)
	}

	fingerprint := c.Worker.Fingerprint
	var list []string
	if m != nil {
		if fingerprint == "" {
			fingerprint, err = offline.Fingerprint(bytes.NewReader(m.Bytes()))
			if err != nil {
				return nil, err
			}
		}
		list = assets.List(assets.NewResolver(m, c.Worker.AssetPrefix), m.Sources(),
			append(append([]string(nil), c.Worker.Assets...), c.Worker.ExtraAssets...)...)
	} else {
		list = assets.List(assets.NewPassthroughResolver(""), c.Worker.Assets, c.Worker.ExtraAssets...)
	}
	if fingerprint == "" {
		return nil, errors.New("E121")
	}

	return &offline.Worker{
		Fingerprint: fingerprint,
		Prefix:      c.Worker.Prefix,
		Assets:      list,
	}, nil
}

// NewStorage builds the configured cache backend.
func (c *Config) NewStorage() (offline.Storage, error) {
	switch c.Storage.Kind {
	case StorageMemory, "":
		return offline.NewMemoryStorage(), nil
	case StorageS3:
		if c.Storage.Bucket == "" {
			return nil, errors.New("E122").WithDetail("storage.bucket is required for s3")
		}
		client := offline.NewS3Client(offline.S3Config{
			Region:       c.Storage.Region,
			Endpoint:     c.Storage.Endpoint,
			UsePathStyle: c.Storage.UsePathStyle,
		})
		return offline.NewS3Storage(client, c.Storage.Bucket, c.Storage.Prefix), nil
	default:
		return nil, errors.New("E122").WithDetailf("Unknown storage.kind %q", c.Storage.Kind)
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the directory containing
// pagebridge.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E124").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'pagebridge init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
