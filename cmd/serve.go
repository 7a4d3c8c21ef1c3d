package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	apihttp "market-reports/internal/api/http"
	"market-reports/internal/auth"
	"market-reports/internal/observability/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only series API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		rt, err := newServices(cmd.Context(), logger, nil)
		if err != nil {
			return err
		}
		defer rt.Close()
		if rt.cfg.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is required")
		}
		addr := rt.cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		metrics.Init()
		if counter, ok := rt.store.(metrics.EntryCounter); ok {
			metrics.RegisterCacheEntries(counter, logger)
		}
		routes := []struct {
			rule    auth.Rule
			handler http.Handler
		}{
			{auth.Rule{Path: "/api/v1/series", Read: auth.RoleViewer}, apihttp.NewSeriesHandler(rt.assembler, rt.catalog, logger)},
			{auth.Rule{Path: "/api/v1/reports/", Read: auth.RoleViewer, Write: auth.RoleOperator}, apihttp.NewReportsHandler(rt.fetcher, logger)},
			{auth.Rule{Path: "/api/v1/datasets", Read: auth.RoleViewer}, apihttp.NewDatasetsHandler(rt.catalog)},
		}
		mux := http.NewServeMux()
		policy := make(auth.Policy, 0, len(routes))
		for _, route := range routes {
			mux.Handle(route.rule.Path, route.handler)
			policy = append(policy, route.rule)
		}
		authMiddleware, err := auth.NewMiddleware([]byte(rt.cfg.JWTSecret), policy, logger)
		if err != nil {
			return err
		}
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		server := &http.Server{
			Addr:              addr,
			Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Printf("http shutdown error: %v", err)
			}
		}()

		logger.Printf("http listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from HTTP_ADDR or :8080)")
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
