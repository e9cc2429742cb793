package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulexconde/together/internal/api"
	"github.com/paulexconde/together/internal/catalog"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the HTTP API, the reminder scheduler and the notification workers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config
			if addr != "" {
				cfg.Addr = addr
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			entries, err := catalog.Load()
			if err != nil {
				return err
			}
			if _, err := app.Questions.Seed(ctx, entries); err != nil {
				return err
			}

			loc, _ := cfg.Location()
			sched, err := scheduler.New(ctx, loc, app.Reminders)
			if err != nil {
				return err
			}
			sched.Start()

			srv := &http.Server{
				Addr: cfg.Addr,
				Handler: api.Wire(api.Deps{
					Pair:      app.Pair,
					JWTSecret: []byte(cfg.JWTSecret),
					Checkins:  app.Checkins,
					Analytics: app.Analytics,
					Questions: app.Questions,
					Push:      app.Push,
					Hub:       app.Hub,
				}),
				IdleTimeout: time.Minute,
				ReadTimeout: 10 * time.Second,
			}

			srv.RegisterOnShutdown(app.Hub.Close)

			errCh := make(chan error, 1)
			go func() {
				log.Infof("Listening on %s", cfg.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			withTimeout(func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					log.Warnf("server shutdown: %v", err)
				}
			})
			withTimeout(sched.Stop)
			withTimeout(app.Close)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// withTimeout gives each shutdown stage its own deadline.
func withTimeout(stage func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	stage(ctx)
}
