package config

import (
	"fmt"

	"github.com/jpalmerr/boardclient"
)

// BuildServers converts parsed configuration into SDK Server values.
//
// Direct servers come first, in declaration order, followed by each grid's
// expansion.
func BuildServers(cfg *Config) ([]boardclient.Server, error) {
	servers := make([]boardclient.Server, 0, len(cfg.Servers))

	for i, sc := range cfg.Servers {
		s, err := boardclient.NewServer(sc.ID, sc.Address)
		if err != nil {
			return nil, fmt.Errorf("servers[%d] (%s): %w", i, sc.ID, err)
		}
		servers = append(servers, s)
	}

	for i, gc := range cfg.Grids {
		gridServers, err := boardclient.NewServerGrid(gridOptions(gc)...)
		if err != nil {
			return nil, fmt.Errorf("grids[%d]: %w", i, err)
		}
		servers = append(servers, gridServers...)
	}

	return servers, nil
}

// gridOptions converts a GridConfig to SDK grid options.
func gridOptions(gc GridConfig) []boardclient.GridOption {
	opts := []boardclient.GridOption{
		boardclient.WithAddressTemplate(gc.AddressTemplate),
	}
	if gc.IDTemplate != "" {
		opts = append(opts, boardclient.WithIDTemplate(gc.IDTemplate))
	}
	if len(gc.Dimensions) > 0 {
		opts = append(opts, boardclient.WithDimensions(gc.Dimensions))
	}
	if gc.Range != nil {
		opts = append(opts, boardclient.WithRange(gc.Range.Key, gc.Range.From, gc.Range.Count))
	}
	return opts
}

// BuildOptions converts parsed configuration into SDK options, servers
// included. Callers append their own options (such as a logger).
func BuildOptions(cfg *Config) ([]boardclient.Option, error) {
	servers, err := BuildServers(cfg)
	if err != nil {
		return nil, err
	}

	opts := []boardclient.Option{
		boardclient.WithServers(servers...),
		boardclient.WithPort(cfg.Port),
		boardclient.WithRetryDelay(cfg.RetryDelay.Duration()),
	}
	if cfg.RequestTimeout != 0 {
		opts = append(opts, boardclient.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	}
	if cfg.InitialServer != "" {
		opts = append(opts, boardclient.WithInitialServer(cfg.InitialServer))
	}
	if cfg.Title != "" {
		opts = append(opts, boardclient.WithTitle(cfg.Title))
	}
	if extractor := buildHealthExtractor(cfg.Health); extractor != nil {
		opts = append(opts, boardclient.WithHealthExtractor(extractor))
	}

	return opts, nil
}

// buildHealthExtractor converts HealthConfig to a HealthExtractor.
// Returns nil for default/empty configs (SDK uses DefaultHealthExtractor).
func buildHealthExtractor(hc HealthConfig) boardclient.HealthExtractor {
	switch hc.Type {
	case "crashed":
		path := hc.Path
		if path == "" {
			path = "crashed"
		}
		return boardclient.CrashedFlagExtractor(path)
	case "text":
		return boardclient.StatusTextExtractor
	default:
		return nil
	}
}
