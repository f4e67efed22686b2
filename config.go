package texpect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config controls how templates are parsed and how outputs are matched.
// Option names as used by [Config.ApplyOptions] and [LoadConfigFile] are
// given in brackets.
type Config struct {
	// Collapse whitespace runs into one [norm-ws]
	NormWS bool
	// Recognize capture tags [tags]
	Tags bool
	// Recognize trailing [input] markers [input]
	Input bool
	// Allow repeated tag names that must match the same text [adv-captures]
	AdvCaptures bool
	// Minimum characters a recovered region must be anchored on [min-rcount]
	MinRCount int
	// Time budget for recovering a template that did not match. Zero
	// disables recovery. [recover-timeout]
	RecoverTimeout time.Duration
	// Upper bound for one match with the complete template regex. Zero
	// means no bound. [match-timeout]
	MatchTimeout time.Duration
	// Range of literal characters for the prefix of an input
	// [input-prefix-range]
	InputPrefixMin, InputPrefixMax int
	// Substrings removed from template and output before anything else [rm]
	Remove []string
	// Report with captures and visible whitespace [enhance-diff]
	EnhanceDiff bool
}

const (
	DefaultMinRCount      = 6
	DefaultRecoverTimeout = 2 * time.Second
	DefaultMatchTimeout   = 10 * time.Second
	DefaultInputPrefixMin = 6
	DefaultInputPrefixMax = 12
)

func DefaultConfig() Config {
	return Config{
		Tags:           true,
		MinRCount:      DefaultMinRCount,
		RecoverTimeout: DefaultRecoverTimeout,
		MatchTimeout:   DefaultMatchTimeout,
		InputPrefixMin: DefaultInputPrefixMin,
		InputPrefixMax: DefaultInputPrefixMax,
	}
}

func (cfg *Config) Validate() error {
	var errs []error
	if cfg.MinRCount < 0 {
		errs = append(errs, fmt.Errorf("negative min-rcount %d", cfg.MinRCount))
	}
	if cfg.RecoverTimeout < 0 {
		errs = append(errs, fmt.Errorf("negative recover-timeout %s", cfg.RecoverTimeout))
	}
	if cfg.MatchTimeout < 0 {
		errs = append(errs, fmt.Errorf("negative match-timeout %s", cfg.MatchTimeout))
	}
	if cfg.InputPrefixMin < 0 || cfg.InputPrefixMax < cfg.InputPrefixMin {
		errs = append(errs, fmt.Errorf("invalid input-prefix-range %d:%d",
			cfg.InputPrefixMin,
			cfg.InputPrefixMax,
		))
	}
	for _, rm := range cfg.Remove {
		if rm == "" {
			errs = append(errs, errors.New("empty rm string"))
			break
		}
	}
	return errors.Join(errs...)
}

// Strip removes all Remove strings from s.
func (cfg *Config) Strip(s string) string {
	for _, rm := range cfg.Remove {
		s = strings.ReplaceAll(s, rm, "")
	}
	return s
}

// ApplyOptions sets options from a whitespace separated list. "+name" and
// "-name" switch a flag on or off, a bare "name" is the same as "+name" and
// "name=value" sets a value. Values of rm
// may be Go quoted strings. rm accumulates.
func (cfg *Config) ApplyOptions(opts string) error {
	for _, opt := range strings.Fields(opts) {
		switch {
		case strings.HasPrefix(opt, "+") && !strings.Contains(opt, "="):
			if err := cfg.Set(opt[1:], true); err != nil {
				return err
			}
		case strings.HasPrefix(opt, "-") && !strings.Contains(opt, "="):
			if err := cfg.Set(opt[1:], false); err != nil {
				return err
			}
		default:
			name, val, ok := strings.Cut(strings.TrimPrefix(opt, "+"), "=")
			if !ok {
				if err := cfg.Set(name, true); err != nil {
					return err
				}
			} else if err := cfg.Set(name, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// Set sets the option name to val. Besides strings, val may be of the types
// the YAML, TOML and JSON decoders produce.
func (cfg *Config) Set(name string, val any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("option %s: %w", name, err)
		}
	}()
	switch name {
	case "norm-ws":
		cfg.NormWS, err = optBool(val)
	case "tags":
		cfg.Tags, err = optBool(val)
	case "input":
		cfg.Input, err = optBool(val)
	case "adv-captures":
		cfg.AdvCaptures, err = optBool(val)
	case "enhance-diff":
		cfg.EnhanceDiff, err = optBool(val)
	case "min-rcount":
		cfg.MinRCount, err = optInt(val)
	case "recover-timeout":
		cfg.RecoverTimeout, err = optDuration(val)
	case "match-timeout":
		cfg.MatchTimeout, err = optDuration(val)
	case "input-prefix-range":
		cfg.InputPrefixMin, cfg.InputPrefixMax, err = optRange(val)
	case "rm":
		var rms []string
		if rms, err = optStrings(val); err == nil {
			cfg.Remove = append(cfg.Remove, rms...)
		}
	default:
		return errors.New("unknown option")
	}
	return err
}

// LoadConfigFile applies the options from a YAML, TOML or JSON file to cfg.
// The format is chosen by the file extension.
func LoadConfigFile(cfg *Config, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var opts map[string]any
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	case ".toml":
		err = toml.Unmarshal(data, &opts)
	case ".json":
		err = json.Unmarshal(data, &opts)
	default:
		return fmt.Errorf("unsupported config file type '%s'", ext)
	}
	if err != nil {
		return fmt.Errorf("config file %s: %w", file, err)
	}
	for name, val := range opts {
		if err := cfg.Set(name, val); err != nil {
			return fmt.Errorf("config file %s: %w", file, err)
		}
	}
	return nil
}

func optBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("cannot use %T as flag", v)
}

func optInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("cannot use %T as integer", v)
}

// optDuration accepts seconds as numbers and Go duration strings.
func optDuration(v any) (time.Duration, error) {
	switch v := v.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if s, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(s * float64(time.Second)), nil
		}
		return time.ParseDuration(v)
	}
	return 0, fmt.Errorf("cannot use %T as duration", v)
}

// optRange accepts "min:max" and two element lists.
func optRange(v any) (lo, hi int, err error) {
	switch v := v.(type) {
	case string:
		l, h, ok := strings.Cut(v, ":")
		if !ok {
			return 0, 0, fmt.Errorf("range '%s' not min:max", v)
		}
		if lo, err = strconv.Atoi(l); err != nil {
			return 0, 0, err
		}
		hi, err = strconv.Atoi(h)
		return lo, hi, err
	case []any:
		if len(v) != 2 {
			return 0, 0, fmt.Errorf("range needs 2 elements, got %d", len(v))
		}
		if lo, err = optInt(v[0]); err != nil {
			return 0, 0, err
		}
		hi, err = optInt(v[1])
		return lo, hi, err
	}
	return 0, 0, fmt.Errorf("cannot use %T as range", v)
}

func optStrings(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		if strings.HasPrefix(v, `"`) {
			s, err := strconv.Unquote(v)
			return []string{s}, err
		}
		return []string{v}, nil
	case []any:
		res := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("cannot use %T as string", e)
			}
			res = append(res, s)
		}
		return res, nil
	}
	return nil, fmt.Errorf("cannot use %T as string", v)
}
