package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vqt123/construction-cost-estimator/internal/pipeline"
	"github.com/vqt123/construction-cost-estimator/internal/store"
	"github.com/vqt123/construction-cost-estimator/pkg/ollama"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the estimation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		llm := newOllamaClient()
		est := pipeline.NewEstimator(st, llm, pipeline.Config{
			RetrievalLimit: cfg.Retrieval.Limit,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(est, st, llm),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(est *pipeline.Estimator, st store.Store, llm ollama.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/api/estimate", handleEstimate(est))
	r.Get("/api/health", handleHealth(st, llm))

	return r
}

// errorResponse is the only shape failures take; no stack traces or
// internal identifiers are exposed to callers.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func handleEstimate(est *pipeline.Estimator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		result, err := est.Estimate(r.Context(), req)
		if err != nil {
			if errors.Is(err, pipeline.ErrMissingQuery) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Query is required"})
				return
			}
			zap.L().Error("estimate request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to generate estimate",
				Details: err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// serviceHealth reports one dependency's reachability.
type serviceHealth struct {
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	ResponseTimeMS int64  `json:"responseTimeMs"`
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Services map[string]serviceHealth `json:"services"`
}

func handleHealth(st store.Store, llm ollama.Client) http.HandlerFunc {
	check := func(ctx context.Context, probe func(context.Context) error) serviceHealth {
		start := time.Now()
		err := probe(ctx)
		h := serviceHealth{
			Status:         "healthy",
			ResponseTimeMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			h.Status = "unhealthy"
			h.Message = err.Error()
		}
		return h
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status: "healthy",
			Services: map[string]serviceHealth{
				"database": check(r.Context(), st.Ping),
				"ollama":   check(r.Context(), llm.Health),
			},
		}

		status := http.StatusOK
		for _, svc := range resp.Services {
			if svc.Status != "healthy" {
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
