package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/boardclient/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a boardclient configuration file without starting the server.

This command parses the YAML, expands environment variables, expands grids
and validates all fields, including that server ids are unique and the
initial server exists.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  boardclient validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	servers, err := config.BuildServers(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ids := make(map[string]struct{}, len(servers))
	for _, s := range servers {
		if _, dup := ids[s.ID()]; dup {
			return fmt.Errorf("invalid config: duplicate server id %q", s.ID())
		}
		ids[s.ID()] = struct{}{}
	}

	initial := cfg.InitialServer
	if initial == "" {
		initial = servers[0].ID()
	} else if _, ok := ids[initial]; !ok {
		return fmt.Errorf("invalid config: initial_server %q is not a configured server", initial)
	}

	direct := len(cfg.Servers)
	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:           %d\n", cfg.Port)
	fmt.Printf("  Retry delay:    %s\n", cfg.RetryDelay.Duration())
	fmt.Printf("  Initial server: %s\n", initial)
	fmt.Printf("  Servers:        %d direct + %d from grids = %d total\n",
		direct, len(servers)-direct, len(servers))

	return nil
}
