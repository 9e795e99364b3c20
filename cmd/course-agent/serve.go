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
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/course-agent/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant RPCs over HTTP",
	Long: `Starts the connect RPC server. HTTP/1.1 and cleartext HTTP/2 are both
accepted, so connect, gRPC, and gRPC-Web clients can all call it.

Endpoints:
  /courseagent.v1.AssistantService/*  assistant procedures
  /healthz                            database health
  /metrics                            prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	srv := server.New(a.kernel, a.executor, a.sessions, a.store,
		server.WithPersistence(a.store.Persistence()),
		server.WithTranscripts(a.transcripts),
		server.WithMetrics(a.metrics),
		server.WithHealthCheck(a.store.Ping),
	)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(duration(cfg.Server.PruneInterval, defaultPruneInterval))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				if dropped := a.sessions.Prune(now); len(dropped) > 0 {
					logger.Info("pruned idle sessions", "count", len(dropped), "open", a.sessions.Len())
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), duration(cfg.Server.ShutdownTimeout, defaultShutdownTimeout))
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
