package boardclient

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Health summarizes a board server's opaque status value for display.
type Health string

const (
	// HealthUp indicates the server reports itself as running.
	HealthUp Health = "up"

	// HealthCrashed indicates the server is in its simulated crashed state.
	HealthCrashed Health = "crashed"

	// HealthUnknown indicates the status could not be interpreted.
	HealthUnknown Health = "unknown"
)

// String returns the string representation of the health value.
func (h Health) String() string {
	return string(h)
}

// HealthExtractor derives a [Health] from the raw JSON server_status value
// returned alongside the board entries.
//
// HealthExtractor functions are called within a panic recovery boundary; a
// panicking extractor yields [HealthUnknown] and the panic is logged with a
// correlation id.
type HealthExtractor func(status []byte) Health

// CrashedFlagExtractor returns a [HealthExtractor] that reads a boolean flag
// at a dot-notation path of the status object, e.g. "crashed" or
// "node.crashed".
//
// true (or 1) maps to [HealthCrashed], false (or 0) to [HealthUp]; a missing
// field or a non-object status maps to [HealthUnknown].
func CrashedFlagExtractor(path string) HealthExtractor {
	parts := strings.Split(path, ".")

	return func(status []byte) Health {
		var data interface{}
		if err := json.Unmarshal(status, &data); err != nil {
			return HealthUnknown
		}

		switch extractJSONPath(data, parts) {
		case "true":
			return HealthCrashed
		case "false":
			return HealthUp
		default:
			return HealthUnknown
		}
	}
}

// StatusTextExtractor is a [HealthExtractor] for servers that report a plain
// string status such as "ok" or "crashed".
var StatusTextExtractor HealthExtractor = func(status []byte) Health {
	var s string
	if err := json.Unmarshal(status, &s); err != nil {
		return HealthUnknown
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok", "up", "healthy", "running", "alive":
		return HealthUp
	case "crashed", "down", "dead", "unavailable":
		return HealthCrashed
	default:
		return HealthUnknown
	}
}

// FirstMatch returns a [HealthExtractor] that tries extractors in order,
// returning the first result that is not [HealthUnknown].
func FirstMatch(extractors ...HealthExtractor) HealthExtractor {
	return func(status []byte) Health {
		for _, extractor := range extractors {
			if h := extractor(status); h != HealthUnknown {
				return h
			}
		}
		return HealthUnknown
	}
}

// DefaultHealthExtractor is used when no extractor is configured. It reads
// the "crashed" flag board servers piggyback on their status object, then
// falls back to [StatusTextExtractor].
var DefaultHealthExtractor = FirstMatch(
	CrashedFlagExtractor("crashed"),
	StatusTextExtractor,
)

// extractJSONPath walks a JSON structure using dot notation parts and
// renders the scalar found there as a string.
func extractJSONPath(data interface{}, parts []string) string {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current, ok = obj[part]
		if !ok {
			return ""
		}
	}

	switch v := current.(type) {
	case string:
		return strings.ToLower(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == 0 {
			return "false"
		}
		if v == 1 {
			return "true"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
