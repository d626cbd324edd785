package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/marketsim/internal/httpserver"
	"github.com/sawpanic/marketsim/internal/registry"
	"github.com/sawpanic/marketsim/internal/resilience"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose /healthz and /metrics over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().String("host", "127.0.0.1", "Bind host")
	cmd.Flags().Int("port", 8080, "Bind port")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	addr := fmt.Sprintf("%s:%d", host, port)

	guards := map[string]*resilience.Guard{}
	for _, src := range registry.Sources() {
		guards[string(src)] = resilience.NewGuard(string(src), 5, 10, 60*time.Second)
	}

	_, reg := httpserver.NewMetrics()
	srv := httpserver.New(addr, guards, reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("addr", addr).Msg("starting marketsim monitoring server")
	return srv.ListenAndServe(ctx)
}
