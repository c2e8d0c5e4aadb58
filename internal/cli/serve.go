package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/kaneo-automation/internal/server"
	kasync "github.com/nhle/kaneo-automation/internal/sync"
	"github.com/nhle/kaneo-automation/internal/tasklink"
	"github.com/nhle/kaneo-automation/internal/workflow"
)

func (a *app) newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and API server with the scheduled importer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := a.openStore()
	if err != nil {
		return err
	}
	creds, err := a.openCredentials()
	if err != nil {
		return err
	}

	cfg := a.cfg.Server
	if addr != "" {
		cfg.Addr = addr
	}

	hub := server.NewHub(a.logger)
	engine := workflow.NewEngine(s, s, hub, a.logger)
	links := tasklink.NewService(s, a.logger)
	srv := server.New(cfg, s, links, engine, creds.Lookup, hub, a.logger)

	importer := kasync.New(s, engine, kasync.NewSourceFactory(creds.Lookup), a.logger)
	if a.cfg.Import.Enabled {
		if err := importer.Start(ctx, a.cfg.Import.Schedule); err != nil {
			return err
		}
		defer func() { <-importer.Stop().Done() }()
	}

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	return g.Wait()
}
