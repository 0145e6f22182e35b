package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the optional settings file looked up in the working directory.
const DefaultFile = "rhipster.yaml"

// DefaultTimeout bounds the whole database part of a run.
const DefaultTimeout = 5 * time.Minute

const (
	envVerbose = "RHIPSTER_VERBOSE"
	envNoColor = "RHIPSTER_NO_COLOR"
	envTimeout = "RHIPSTER_TIMEOUT"
)

type Config struct {
	Verbose bool
	NoColor bool
	Timeout time.Duration
}

type fileConfig struct {
	Verbose *bool  `yaml:"verbose"`
	NoColor *bool  `yaml:"no_color"`
	Timeout string `yaml:"timeout"`
}

// Default returns the settings used when neither file nor environment says otherwise.
func Default() Config {
	return Config{Timeout: DefaultTimeout}
}

// Load reads path (missing is fine) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, data); err != nil {
				return cfg, errors.Wrapf(err, "parsing %s", path)
			}
		case !os.IsNotExist(err):
			return cfg, errors.Wrapf(err, "reading %s", path)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.NoColor != nil {
		cfg.NoColor = *fc.NoColor
	}
	if fc.Timeout != "" {
		d, err := cast.ToDurationE(fc.Timeout)
		if err != nil {
			return errors.Wrap(err, "timeout")
		}
		cfg.Timeout = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(envVerbose); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return errors.Wrapf(err, "%s", envVerbose)
		}
		cfg.Verbose = b
	}
	if v, ok := os.LookupEnv(envNoColor); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return errors.Wrapf(err, "%s", envNoColor)
		}
		cfg.NoColor = b
	}
	if v, ok := os.LookupEnv(envTimeout); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return errors.Wrapf(err, "%s", envTimeout)
		}
		cfg.Timeout = d
	}
	if cfg.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}
