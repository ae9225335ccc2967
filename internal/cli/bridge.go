package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-portal-client/internal/config"
	transport "quiz-portal-client/internal/transport/http"
)

func newBridgeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Serve quiz sessions to a browser over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd.Context(), o)
		},
	}
}

func runBridge(ctx context.Context, o *options) error {
	anon, err := o.portalClient(false)
	if err != nil {
		return err
	}
	// a stored token serves connections that bring none
	fallback := anon
	if client, err := o.portalClient(true); err == nil {
		fallback = client
	}

	ws := transport.NewWSHandler(transport.WSConfig{
		Backend: func(token string) transport.SessionBackend {
			if token == "" {
				return fallback
			}
			return anon.WithToken(token)
		},
		SubmitTimeout: config.TTLDuration(o.cfg.Session.SubmitTimeout, 30*time.Second),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", ws.ServeWS)

	server := &http.Server{
		Addr:              ":" + o.listenPort(o.cfg.Bridge.Port, "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	return serve(ctx, "bridge", server)
}

// serve runs server until ctx is done or the process is interrupted, then
// shuts it down gracefully.
func serve(ctx context.Context, name string, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, name+": HTTP listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.InfoContext(ctx, name+": shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, name+": shutdown with error", "error", err)
	}
	return err
}
