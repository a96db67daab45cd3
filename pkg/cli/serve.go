package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/cli/config"
	controller "github.com/dicloak-labs/dicloak-console/pkg/controller/http"
	"github.com/dicloak-labs/dicloak-console/pkg/usecase"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		dicloakCfg   config.DICloak
		intervalsCfg config.Intervals
	)

	flags := joinFlags(
		serverCfg.Flags(),
		dicloakCfg.Flags(),
		intervalsCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting dicloak-console server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("dicloak", dicloakCfg),
				slog.Any("intervals", intervalsCfg),
			)

			if err := dicloakCfg.Validate(); err != nil {
				return err
			}

			// The API key may arrive later via POST /api/credentials, so
			// an empty key is allowed here.
			client := dicloakCfg.Configure(intervalsCfg.Configure())
			console := usecase.NewConsole(client)

			server := controller.NewServer(ctx, serverCfg.Addr, console)

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
