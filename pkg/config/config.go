// Package config loads YAML configuration files. ${VAR} and
// ${VAR:-fallback} references are expanded from the environment before
// decoding.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load reads filename into target and validates the result.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal([]byte(Expand(string(data))), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return validate(target)
}

// LoadOptional loads filename when it exists. A missing file leaves target
// untouched, which keeps its defaults; it is still validated.
func LoadOptional[T any](filename string, target *T) (loaded bool, err error) {
	if filename != "" {
		_, statErr := os.Stat(filename)
		if statErr == nil {
			if err := Load(filename, target); err != nil {
				return false, err
			}
			return true, nil
		}
		if !errors.Is(statErr, os.ErrNotExist) {
			return false, fmt.Errorf("failed to stat config file %s: %w", filename, statErr)
		}
	}
	return false, validate(target)
}

// Expand replaces ${VAR} and $VAR with environment values. ${VAR:-x}
// yields x when VAR is unset or empty.
func Expand(s string) string {
	return os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if v := os.Getenv(name); v != "" || !hasFallback {
			return v
		}
		return fallback
	})
}

func validate[T any](target *T) error {
	v, ok := any(target).(Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
