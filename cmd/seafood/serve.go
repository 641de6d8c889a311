package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seafoodai/seafood-terminal/pkg/config"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

var flagNoWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard datasets over HTTP",
	Long: `Load every configured dataset (from cache when fresh), then serve
filtered, paginated views on /api/datasets. Datasets are refetched in the
background once their TTL elapses, and the config file is watched for TTL
and page size changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagNoWatch, "no-watch", false, "do not reload the config file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger(logging.ComponentServer)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.board.Initialize(ctx); err != nil {
		logger.Warn().Err(err).Msg("Some datasets failed to load")
	}
	go a.board.Run(ctx, cfg.RefreshDuration())

	if !flagNoWatch {
		path := configPath()
		if _, err := os.Stat(path); err == nil {
			go func() {
				if err := config.Watch(ctx, path, a.board.ApplyConfig); err != nil {
					logger.Error().Err(err).Str("path", path).Msg("Config watch stopped")
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServer(a.board, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("api_url", cfg.APIURL).Str("store", cfg.Store).Msg("Starting data server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
