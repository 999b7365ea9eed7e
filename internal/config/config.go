package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jshufro/abi-gen/internal/typemap"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "ABI_GEN"

	DefaultNetworkID = 50
	DefaultExtension = "ts"
)

var ErrMissingFlag = errors.New("missing required option")

// Config is the merged view of flags, ABI_GEN_* environment variables and an optional config file
type Config struct {
	ABIs      string `mapstructure:"abis"`
	Output    string `mapstructure:"output"`
	Partials  string `mapstructure:"partials"`
	Template  string `mapstructure:"template"`
	Backend   string `mapstructure:"backend"`
	NetworkID uint64 `mapstructure:"network-id"`
	Extension string `mapstructure:"extension"`
	Force     bool   `mapstructure:"force"`
	Watch     bool   `mapstructure:"watch"`

	Verbose int  `mapstructure:"verbose"`
	Quiet   bool `mapstructure:"quiet"`
	LogJSON bool `mapstructure:"log-json"`
}

// SetDefaults registers the default value of every optional key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", string(typemap.DefaultBackend))
	v.SetDefault("network-id", DefaultNetworkID)
	v.SetDefault("extension", DefaultExtension)
}

// New returns a viper instance with defaults and environment lookup configured.
// configFile is optional.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	return v, nil
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Output = filepath.Clean(c.Output)
	c.Template = filepath.Clean(c.Template)
	return &c, nil
}

func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"abis", c.ABIs},
		{"output", c.Output},
		{"template", c.Template},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.WithHintf(errors.Wrapf(ErrMissingFlag, "--%s", r.name),
				"set --%s or %s_%s", r.name, EnvPrefix, strings.ToUpper(r.name))
		}
	}

	if _, err := typemap.ParseBackend(c.Backend); err != nil {
		return err
	}

	return nil
}

// BackendValue is the validated backend. Only call after Validate.
func (c *Config) BackendValue() typemap.Backend {
	b, _ := typemap.ParseBackend(c.Backend)
	return b
}

// Verbosity folds -q and -v into one level
func (c *Config) Verbosity() int {
	if c.Quiet {
		return -1
	}
	return c.Verbose
}
