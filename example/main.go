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

	"github.com/jpalmerr/boardclient"
	"github.com/jpalmerr/boardclient/internal/mockboard"
)

const (
	nodes       = 3
	backendAddr = "127.0.0.1:8000"
)

func main() {
	// in-process board nodes with a little latency so loading states show
	cluster := mockboard.New(nodes, mockboard.WithLatency(150*time.Millisecond))
	cluster.Add(0, "hello from node 0")
	cluster.SetNotes(1, "starts crashed")
	cluster.Crash(1)

	backend := &http.Server{Addr: backendAddr, Handler: cluster.Handler()}
	go func() {
		if err := backend.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	servers, err := boardclient.NewServerGrid(
		boardclient.WithAddressTemplate(backendAddr+"/nodes/{{.node}}"),
		boardclient.WithRange("node", 0, nodes),
	)
	if err != nil {
		slog.Error("failed to create server grid", "error", err)
		os.Exit(1)
	}

	bc, err := boardclient.New(
		boardclient.WithServers(servers...),
		boardclient.WithTitle("Board Demo"),
		boardclient.WithPort(8080),
		boardclient.WithSnapshotCallback(func(s boardclient.Snapshot) {
			slog.Info("board loaded",
				"server", s.Server,
				"entries", len(s.Entries),
				"health", s.Health,
				"latency", s.Latency.String(),
			)
		}),
	)
	if err != nil {
		slog.Error("failed to create board client", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Board Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Printf("  %d mock nodes at http://%s/nodes/{0..%d}\n", nodes, backendAddr, nodes-1)
	fmt.Println("  Node 1 starts crashed: writes are rejected until you recover it")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bc.Start(ctx); err != nil {
		slog.Error("board client error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = backend.Shutdown(shutdownCtx)
}
