package main

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/upform/pkg/demoapi"
)

func serveCmd(g *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the validating demo API",
		Long: `Run an in-memory users API that validates submissions and answers
with 422 field errors, for trying upform end to end.

Routes:
  /users        GET, POST
  /users/{id}   GET, PUT, PATCH, DELETE
  /metrics      Prometheus metrics
  /healthz      Liveness probe

Examples:
  upform serve
  upform serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			ln, err := net.Listen("tcp", cfg.Serve.Addr)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			srv := &http.Server{
				Handler:           serveHandler(demoapi.New(demoapi.WithLogger(logger.With("component", "demoapi"))), reg),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(cmd.Context(), cmd.OutOrStdout(), srv, ln)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from upform.yaml)")

	return cmd
}

// serveHandler mounts the demo API next to the operational endpoints.
func serveHandler(api http.Handler, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/", api)
	return r
}

// runServer serves on ln until ctx is cancelled, then shuts down.
func runServer(ctx context.Context, w io.Writer, srv *http.Server, ln net.Listener) error {
	success(w, "Demo API listening on http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		info(w, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
