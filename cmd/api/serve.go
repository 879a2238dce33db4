package main

import (
	"context"
	"errors"
	"lounge-portal/internal/realtime"
	"lounge-portal/internal/server"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and realtime hub",
		Action: func(c *cli.Context) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			hub := realtime.NewHub(a.log)
			services, err := a.services(hub)
			if err != nil {
				return err
			}

			srv := server.NewServer(a.cfg.Auth, services, hub, a.log)
			serverAddr := a.cfg.HTTP.Host + ":" + a.cfg.HTTP.Port

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return hub.Run(ctx)
			})

			g.Go(func() error {
				a.log.WithField("addr", serverAddr).Info("starting HTTP server")
				if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				a.log.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
}
