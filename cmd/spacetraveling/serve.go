package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var prerender bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blog over HTTP",
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().BoolVar(&prerender, "prerender", false, "generate every page before accepting requests")
}

func serveAction(cmd *cobra.Command, _ []string) error {
	cfg, client, err := loadSource()
	if err != nil {
		return err
	}
	store, err := spacetraveling.NewStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	app := spacetraveling.New(cfg, client, spacetraveling.WithStore(store))
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if prerender {
		start := time.Now()
		if err := app.Prerender(ctx); err != nil {
			app.Logger().Warnf("prerender: %v", err)
		} else {
			app.Logger().Infof("prerendered %d page(s) in %s", app.Cache.Len(), time.Since(start).Round(time.Millisecond))
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
