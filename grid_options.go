package boardclient

import (
	"errors"
	"fmt"
	"strconv"
)

// gridConfig holds configuration during server grid construction.
type gridConfig struct {
	addressTemplate string
	idTemplate      string
	dimensions      map[string][]string
}

// GridOption configures server grid generation.
// GridOption implements the functional options pattern for [NewServerGrid].
type GridOption func(*gridConfig) error

// WithAddressTemplate sets the address template for server generation.
// The template uses Go's text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithAddressTemplate("{{.host}}:8000/nodes/{{.node}}")
//
// Returns an error if the template string is empty.
func WithAddressTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("address template required")
		}
		cfg.addressTemplate = tmpl
		return nil
	}
}

// WithIDTemplate sets a template for server ids. Values are interpolated
// unescaped.
//
//	WithIDTemplate("{{.host}}-{{.node}}")
func WithIDTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("id template cannot be empty")
		}
		cfg.idTemplate = tmpl
		return nil
	}
}

// WithDimensions adds dimension values for cartesian product expansion.
// Each key becomes a template variable. Later options overwrite earlier
// dimensions with the same key.
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		for k, vals := range dims {
			cfg.dimensions[k] = append([]string(nil), vals...)
		}
		return nil
	}
}

// WithRange adds a numeric dimension with n consecutive values starting at
// from, e.g. WithRange("node", 0, 3) yields "0", "1", "2".
//
// Returns an error if the key is empty or n is not positive.
func WithRange(key string, from, n int) GridOption {
	return func(cfg *gridConfig) error {
		if key == "" {
			return errors.New("range key cannot be empty")
		}
		if n <= 0 {
			return fmt.Errorf("range '%s' must have at least one value", key)
		}
		vals := make([]string, n)
		for i := range vals {
			vals[i] = strconv.Itoa(from + i)
		}
		cfg.dimensions[key] = vals
		return nil
	}
}
