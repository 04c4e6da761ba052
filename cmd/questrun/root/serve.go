package root

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nathoo/questrun/hub"
)

const shutdownGrace = 5 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Tick the run on a timer and push changes to WebSocket observers",
		Long: "Serve GET /state (the run as JSON), GET /healthz and /ws, which sends a " +
			`{"type":"changed","rev":N} message after every state change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			s, cleanup, err := openSession(ctx, cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			h := hub.New(s.logger)
			go h.Run(ctx)
			h.Relay(ctx, s.eng.Bus())
			go tickLoop(ctx, s, cfg.TickInterval)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           h.Handler(s.eng),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			s.logger.Info("serving", "addr", cfg.Addr, "tick", cfg.TickInterval)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			s.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $QUESTRUN_ADDR)")
	return cmd
}

// tickLoop logs in once, then ticks every interval and fires due timers
// every second until ctx is done.
func tickLoop(ctx context.Context, s *session, interval time.Duration) {
	if _, err := s.eng.Login(ctx); err != nil {
		s.logger.Error("login failed", "err", err)
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	timers := time.NewTicker(time.Second)
	defer timers.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			res, err := s.eng.Tick(ctx)
			if err != nil {
				s.logger.Error("tick failed", "err", err)
				continue
			}
			for _, line := range res.Output {
				s.logger.Info("tick", "msg", line)
			}
		case <-timers.C:
			if _, err := s.eng.RunDue(ctx); err != nil {
				s.logger.Error("timers failed", "err", err)
			}
		}
	}
}
