// Package config provides YAML configuration parsing for the board client.
//
// This package enables running the board client as a standalone binary with
// a configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Replicated Board
//	port: 8080
//	retry_delay: 1s
//	initial_server: "1"
//
//	servers:
//	  "0": 127.0.0.1:8000/nodes/0
//	  "1": ${NODE1_ADDR:-127.0.0.1:8000/nodes/1}
//
//	grids:
//	  - address_template: "10.0.0.{{.host}}:8000/nodes/{{.node}}"
//	    id_template: "{{.host}}-{{.node}}"
//	    range: {key: node, from: 0, count: 3}
//	    dimensions:
//	      host: ["2", "3"]
//
// Servers may also be given as a list of {id, address} objects. Both forms
// keep declaration order.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort       = 8080
	defaultRetryDelay = time.Second
)

// Config is the root configuration structure for the board client.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Board" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// RetryDelay is the fixed delay before a failed board fetch is retried.
	// Accepts duration strings like "1s", "500ms". Defaults to 1s.
	RetryDelay Duration `yaml:"retry_delay"`

	// RequestTimeout bounds each request to a board server.
	// Zero (the default) means no timeout.
	RequestTimeout Duration `yaml:"request_timeout"`

	// InitialServer is the id selected at startup.
	// Defaults to the first server.
	InitialServer string `yaml:"initial_server"`

	// Health selects how server_status is summarized.
	Health HealthConfig `yaml:"health"`

	// Servers is the registry, in declaration order.
	Servers ServerList `yaml:"servers"`

	// Grids defines server grids that expand via cartesian product and are
	// appended after Servers.
	Grids []GridConfig `yaml:"grids"`
}

// ServerConfig is one registry entry.
type ServerConfig struct {
	// ID is the logical server identifier.
	ID string `yaml:"id"`

	// Address is host:port with an optional path prefix.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Address string `yaml:"address"`
}

// ServerList is the ordered server registry.
//
// It accepts a sequence of {id, address} objects or a mapping from id to
// address. Mapping order is preserved.
type ServerList []ServerConfig

// UnmarshalYAML implements yaml.Unmarshaler for ServerList.
func (l *ServerList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []ServerConfig
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil

	case yaml.MappingNode:
		// Content alternates key and value nodes in document order
		items := make([]ServerConfig, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var sc ServerConfig
			if err := node.Content[i].Decode(&sc.ID); err != nil {
				return fmt.Errorf("line %d: server id: %w", node.Content[i].Line, err)
			}
			if err := node.Content[i+1].Decode(&sc.Address); err != nil {
				return fmt.Errorf("line %d: server %q: address must be a string: %w",
					node.Content[i+1].Line, sc.ID, err)
			}
			items = append(items, sc)
		}
		*l = items
		return nil
	}

	return fmt.Errorf("servers must be a list or a mapping, got %v", node.Kind)
}

// GridConfig defines a server grid that expands via cartesian product.
//
// For example, with dimensions {host: [a, b]} and a range over node 0..1,
// the grid expands to 4 servers: a/0, a/1, b/0, b/1.
type GridConfig struct {
	// AddressTemplate is a Go template for generating server addresses.
	// Dimension keys are available as template variables: {{.node}}
	// Supports environment variable substitution.
	AddressTemplate string `yaml:"address_template"`

	// IDTemplate is an optional Go template for server ids. Defaults to the
	// dimension values joined by "/".
	IDTemplate string `yaml:"id_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`

	// Range adds a numeric dimension.
	Range *RangeConfig `yaml:"range"`
}

// RangeConfig is a numeric grid dimension: Count values starting at From.
type RangeConfig struct {
	Key   string `yaml:"key"`
	From  int    `yaml:"from"`
	Count int    `yaml:"count"`
}

// HealthConfig specifies how server_status is summarized for display.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	health: default
//	health: crashed:node.crashed
//	health: text
//
// Structured object:
//
//	health:
//	  type: crashed
//	  path: node.crashed
type HealthConfig struct {
	// Type is the extractor type: "default", "crashed", "text".
	Type string

	// Path is the flag path (for type: crashed). Defaults to "crashed".
	Path string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for HealthConfig.
func (h *HealthConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return h.parseShorthand(s)

	case yaml.MappingNode:
		// separate type so Decode does not recurse into this method
		var raw struct {
			Type string `yaml:"type"`
			Path string `yaml:"path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		h.Type = raw.Type
		h.Path = raw.Path
		return nil
	}

	return fmt.Errorf("health must be a string or object, got %v", node.Kind)
}

// parseShorthand parses health shorthand syntax.
//
// Supported formats:
//   - "default" → crashed flag, then status text
//   - "crashed" or "crashed:path" → boolean flag at path
//   - "text" → plain string status
func (h *HealthConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if typ, path, ok := strings.Cut(s, ":"); ok {
		if typ != "crashed" {
			return fmt.Errorf("unknown health type %q", typ)
		}
		h.Type = typ
		h.Path = path
		return nil
	}

	switch s {
	case "default", "crashed", "text":
		h.Type = s
	default:
		return fmt.Errorf("unknown health %q (expected 'default', 'crashed', 'crashed:path', or 'text')", s)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part, present when a default was given
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in addresses are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Address and AddressTemplate values.
// Defaults are applied for Port (8080) and RetryDelay (1s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = Duration(defaultRetryDelay)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GridSize returns the number of servers grid g expands to.
func (g GridConfig) GridSize() int {
	size := 1
	for _, vals := range g.Dimensions {
		size *= len(vals)
	}
	if g.Range != nil {
		size *= g.Range.Count
	}
	return size
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.RetryDelay.Duration() < 0 {
		return fmt.Errorf("retry_delay must be positive, got %s", c.RetryDelay.Duration())
	}
	if c.RequestTimeout.Duration() < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %s", c.RequestTimeout.Duration())
	}

	if err := validateHealth(c.Health); err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(c.Servers))
	for i := range c.Servers {
		s := &c.Servers[i]

		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("servers[%d]: id is required", i)
		}
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("servers[%d]: duplicate id %q", i, s.ID)
		}
		ids[s.ID] = struct{}{}

		if s.Address == "" {
			return fmt.Errorf("servers[%d] (%s): address is required", i, s.ID)
		}
		expanded, err := expandEnvVars(s.Address)
		if err != nil {
			return fmt.Errorf("servers[%d] (%s): address: %w", i, s.ID, err)
		}
		s.Address = expanded
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.AddressTemplate == "" {
			return fmt.Errorf("grids[%d]: address_template is required", i)
		}
		expanded, err := expandEnvVars(g.AddressTemplate)
		if err != nil {
			return fmt.Errorf("grids[%d]: address_template: %w", i, err)
		}
		g.AddressTemplate = expanded

		// fail fast before the SDK executes an invalid template
		if _, err := template.New("").Parse(g.AddressTemplate); err != nil {
			return fmt.Errorf("grids[%d]: invalid address_template: %w", i, err)
		}
		if g.IDTemplate != "" {
			if _, err := template.New("").Parse(g.IDTemplate); err != nil {
				return fmt.Errorf("grids[%d]: invalid id_template: %w", i, err)
			}
		}

		if len(g.Dimensions) == 0 && g.Range == nil {
			return fmt.Errorf("grids[%d]: at least one dimension or a range is required", i)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("grids[%d]: dimension %q has no values", i, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("grids[%d]: dimension %q has duplicate value %q", i, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}

		if r := g.Range; r != nil {
			if r.Key == "" {
				return fmt.Errorf("grids[%d]: range key is required", i)
			}
			if r.Count <= 0 {
				return fmt.Errorf("grids[%d]: range count must be positive, got %d", i, r.Count)
			}
			if _, clash := g.Dimensions[r.Key]; clash {
				return fmt.Errorf("grids[%d]: range key %q is also a dimension", i, r.Key)
			}
		}
	}

	if len(c.Servers) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one server or grid must be defined")
	}

	return nil
}

func validateHealth(h HealthConfig) error {
	switch h.Type {
	case "", "default", "text":
		if h.Path != "" {
			return fmt.Errorf("health: path is only valid for type 'crashed'")
		}
	case "crashed":
	default:
		return fmt.Errorf("health: unknown type %q", h.Type)
	}
	return nil
}
