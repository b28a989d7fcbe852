package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appLog "contentcal/internal/log"
	"contentcal/internal/planner"
	"contentcal/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		listen string
		open   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API and the scheduled refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			return a.serve(cmd.Context(), open)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&open, "open", false, "open the dashboard endpoint in a browser")
	return cmd
}

func (a *app) serve(parent context.Context, open bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := a.service(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if a.cfg.RefreshCron != "" {
		r, err := planner.StartRefresher(ctx, svc, a.cfg.RefreshCron)
		if err != nil {
			return err
		}
		defer r.Stop()
	}

	ln, err := net.Listen("tcp", a.cfg.Listen)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           web.NewServer(svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLog.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLog.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if open {
		url := "http://" + ln.Addr().String() + "/api/dashboard"
		if err := browser.OpenURL(url); err != nil {
			appLog.Warn("could not open browser", "url", url, "err", err.Error())
		}
	}

	return g.Wait()
}
