package boardclient

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// NewServerGrid creates registry entries from an address template and
// dimensions using cartesian product expansion.
//
// The address template uses Go's text/template syntax. Dimension values are
// path-escaped before interpolation. Missing template keys cause an error.
//
// Server ids default to the dimension values joined by "/" in sorted key
// order; [WithIDTemplate] overrides this. Generated ids must be unique.
//
// Example:
//
//	servers, err := NewServerGrid(
//	    WithAddressTemplate("127.0.0.1:8000/nodes/{{.node}}"),
//	    WithRange("node", 0, 3),
//	)
//	// Returns servers "0", "1" and "2", usable with WithServers(servers...)
func NewServerGrid(opts ...GridOption) ([]Server, error) {
	cfg := &gridConfig{
		dimensions: make(map[string][]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.addressTemplate == "" {
		return nil, errors.New("address template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	// missingkey=error fails on typos instead of rendering "<no value>"
	addrTmpl, err := template.New("address").Option("missingkey=error").Parse(cfg.addressTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid address template: %w", err)
	}

	var idTmpl *template.Template
	if cfg.idTemplate != "" {
		idTmpl, err = template.New("id").Option("missingkey=error").Parse(cfg.idTemplate)
		if err != nil {
			return nil, fmt.Errorf("invalid id template: %w", err)
		}
	}

	combinations := cartesianProduct(cfg.dimensions)

	servers := make([]Server, 0, len(combinations))
	seen := make(map[string]bool, len(combinations))
	for _, combo := range combinations {
		address, err := executeTemplate(addrTmpl, pathEscapeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("address template execution failed: %w", err)
		}

		id := formatServerID(combo)
		if idTmpl != nil {
			id, err = executeTemplate(idTmpl, combo)
			if err != nil {
				return nil, fmt.Errorf("id template execution failed: %w", err)
			}
		}
		if seen[id] {
			return nil, fmt.Errorf("grid produced duplicate server id %q", id)
		}
		seen[id] = true

		s, err := NewServer(id, address)
		if err != nil {
			return nil, fmt.Errorf("failed to create server '%s': %w", id, err)
		}
		servers = append(servers, s)
	}

	return servers, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically; values keep their slice order.
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	keys := sortedKeys(dims)
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}
	result := make([]map[string]string, 0, total)

	// odometer over the sorted keys, rightmost digit fastest
	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		i := len(keys) - 1
		for ; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
		}
		if i < 0 {
			return result
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pathEscapeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.PathEscape(v)
	}
	return result
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatServerID joins the combination's values by sorted key.
func formatServerID(combo map[string]string) string {
	keys := sortedKeys(combo)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return strings.Join(parts, "/")
}
