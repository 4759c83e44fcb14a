// Standalone mock board backend for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver --nodes 3 --port 8000
//
// Then in another terminal:
//
//	go run ./cmd/boardclient serve -c example/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/boardclient/internal/mockboard"
)

var rootCmd = &cobra.Command{
	Use:   "mockserver",
	Short: "Serve in-memory board nodes",
	RunE:  run,
}

func init() {
	rootCmd.Flags().Int("nodes", 2, "number of board nodes")
	rootCmd.Flags().Int("port", 8000, "port to listen on")
	rootCmd.Flags().Duration("latency", 0, "delay added to every response")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	nodes, _ := cmd.Flags().GetInt("nodes")
	port, _ := cmd.Flags().GetInt("port")
	latency, _ := cmd.Flags().GetDuration("latency")
	if nodes < 1 {
		return fmt.Errorf("nodes must be positive, got %d", nodes)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cluster := mockboard.New(nodes, mockboard.WithLatency(latency), mockboard.WithLogger(logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: cluster.Handler(),
	}

	fmt.Printf("Mock board backend with %d nodes on :%d\n", nodes, port)
	for _, addr := range cluster.Addresses(fmt.Sprintf("127.0.0.1:%d", port)) {
		fmt.Printf("  %s\n", addr)
	}
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
