package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "FOCUS_NARRATOR_"

// Load reads the YAML file at path over the defaults. An empty path falls
// back to DefaultPath, and a missing default file yields the defaults; a
// missing explicit file is ErrConfigNotFound. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return nil, errors.Wrap(ErrConfigNotFound, path)
	default:
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// ReadEnvFile parses a .env file into a map without touching the process
// environment.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return env, nil
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// MapLookup adapts a map to LookupFunc.
func MapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// ApplyEnv overrides settings from FOCUS_NARRATOR_* variables and
// revalidates. Pass os.LookupEnv for the process environment.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "%s%s", EnvPrefix, name))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "%s%s", EnvPrefix, name))
				return
			}
			*dst = d
		}
	}

	str("SPEECH_COMMAND", &c.Speech.Command)
	integer("SPEECH_RATE", &c.Speech.Rate)
	str("LANGUAGE", &c.Vision.Language)
	str("TESSDATA_PREFIX", &c.Vision.TessdataPrefix)
	str("APP_CONTEXT", &c.General.AppContext)
	str("SCREEN_FILE", &c.General.ScreenFile)
	str("TREE_FILE", &c.General.TreeFile)
	duration("REFRESH_RATE", &c.General.RefreshRate)
	duration("HEALTH_INTERVAL", &c.Recovery.HealthInterval)
	integer("CACHE_SIZE", &c.Cache.MaxSize)

	if err := multierr.Combine(errs...); err != nil {
		return err
	}
	return c.Validate()
}
