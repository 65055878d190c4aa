package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/nodrums/nodrums/pkg/cli/config"
	controller "github.com/nodrums/nodrums/pkg/controller/http"
	"github.com/nodrums/nodrums/pkg/domain/types"
	"github.com/nodrums/nodrums/pkg/infra/fetch"
	"github.com/nodrums/nodrums/pkg/infra/sox"
	"github.com/nodrums/nodrums/pkg/infra/spleeter"
	"github.com/nodrums/nodrums/pkg/infra/store"
	"github.com/nodrums/nodrums/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		storeCfg  config.Storage
		sepCfg    config.Separator
		sentryCfg config.Sentry
	)

	flags := append(serverCfg.Flags(), storeCfg.Flags()...)
	flags = append(flags, sepCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting nodrums server",
				slog.Any("server", serverCfg),
				slog.Any("storage", storeCfg),
				slog.Any("separator", sepCfg),
			)

			if sentryCfg.Enabled() {
				if err := sentry.Init(sentry.ClientOptions{
					Dsn:         sentryCfg.DSN,
					Environment: sentryCfg.Env,
					Release:     types.ServiceName + "@" + types.Version,
				}); err != nil {
					return goerr.Wrap(err, "failed to initialize Sentry")
				}
				defer sentry.Flush(2 * time.Second)
			}

			layout, err := store.NewLayout(storeCfg.UploadsDir, storeCfg.OutputsDir)
			if err != nil {
				return err
			}

			tracks, err := store.Open(storeCfg.DBPath, layout)
			if err != nil {
				return err
			}

			// Build the pipeline
			proc := usecase.NewProcessor(
				fetch.New(),
				spleeter.New(
					spleeter.WithBinary(sepCfg.SpleeterBin),
					spleeter.WithPreset(sepCfg.Preset),
					spleeter.WithModelPath(storeCfg.ModelPath),
				),
				sox.New(
					sox.WithBinary(sepCfg.SoxBin),
					sox.WithBitrate(sepCfg.BitrateKbps),
					sox.WithGain(sepCfg.GainDB),
				),
				tracks,
				layout,
			)
			jobs := usecase.NewJobs(proc, sepCfg.MaxParallel)

			server, err := controller.NewServer(
				ctx,
				jobs,
				tracks,
				layout,
				controller.WithAddr(serverCfg.Addr),
				controller.WithAdminToken(serverCfg.AdminToken),
			)
			if err != nil {
				_ = tracks.Close()
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
					if sentryCfg.Enabled() {
						sentry.CaptureException(err)
					}
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				_ = tracks.Close()
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			if err := tracks.Close(); err != nil {
				return err
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
