package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newsdesk/internal/model"
	"github.com/sells-group/newsdesk/internal/monitoring"
	"github.com/sells-group/newsdesk/internal/pipeline"
)

var servePort int

// newsService is the pipeline surface the HTTP routes use.
type newsService interface {
	Run(ctx context.Context, place model.Place) *model.PipelineResult
	Articles(ctx context.Context, filter model.ArticleFilter) []model.Article
	StartAutomatic(ctx context.Context, place model.Place, interval time.Duration) bool
	StopAutomatic()
	AutomaticRunning() bool
	TransparencyReport() *model.TransparencyReport
	DatabaseStats(ctx context.Context) model.DatabaseStats
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the news API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()
		defer env.Pipeline.StopAutomatic()

		if cfg.Server.APIToken == "" {
			zap.L().Warn("NEWSDESK_SERVER_API_TOKEN not set, agent routes are unauthenticated")
		}

		checker := monitoring.NewChecker(env.Pipeline, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
		go checker.Run(ctx)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(ctx, env.Pipeline, cfg.Server.APIToken, cfg.Pipeline.IntervalMinutes),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the HTTP routes. baseCtx outlives individual requests
// and bounds automatic processing.
func buildRouter(baseCtx context.Context, svc newsService, apiToken string, defaultIntervalMinutes int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/news", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := model.ArticleFilter{Location: q.Get("city")}
		var err error
		if filter.Limit, err = intParam(q.Get("limit")); err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		if filter.MinCredibility, err = intParam(q.Get("credibilityThreshold")); err != nil {
			writeError(w, http.StatusBadRequest, "credibilityThreshold must be an integer")
			return
		}

		articles := svc.Articles(r.Context(), filter)
		place := model.Place{City: q.Get("city"), Country: q.Get("country")}
		if len(articles) == 0 && place.Valid() {
			zap.L().Info("no articles for place, running pipeline", zap.Stringer("place", place))
			svc.Run(r.Context(), place)
			articles = svc.Articles(r.Context(), filter)
		}
		writeJSON(w, http.StatusOK, map[string]any{"articles": articles, "count": len(articles)})
	})

	r.Route("/api/agents", func(r chi.Router) {
		r.Use(bearerAuth(apiToken))

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			req, ok := decodePlace(w, r)
			if !ok {
				return
			}
			result := svc.Run(r.Context(), req.Place())
			status := http.StatusOK
			if !result.Success {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, result)
		})

		r.Post("/start-auto", func(w http.ResponseWriter, r *http.Request) {
			req, ok := decodePlace(w, r)
			if !ok {
				return
			}
			minutes := req.IntervalMinutes
			if minutes <= 0 {
				minutes = defaultIntervalMinutes
			}
			interval := time.Duration(minutes) * time.Minute
			if interval <= 0 {
				interval = pipeline.DefaultInterval
			}
			if !svc.StartAutomatic(baseCtx, req.Place(), interval) {
				writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"status":           "started",
				"interval_minutes": int(interval / time.Minute),
			})
		})

		r.Post("/stop-auto", func(w http.ResponseWriter, r *http.Request) {
			svc.StopAutomatic()
			writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"automatic":      svc.AutomaticRunning(),
				"transparency":   svc.TransparencyReport(),
				"database_stats": svc.DatabaseStats(r.Context()),
			})
		})
	})

	return r
}

type placeRequest struct {
	City            string `json:"city"`
	Country         string `json:"country"`
	IntervalMinutes int    `json:"intervalMinutes"`
}

func (p placeRequest) Place() model.Place {
	return model.Place{City: strings.TrimSpace(p.City), Country: strings.TrimSpace(p.Country)}
}

func decodePlace(w http.ResponseWriter, r *http.Request) (placeRequest, bool) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if !req.Place().Valid() {
		writeError(w, http.StatusBadRequest, "city and country are required")
		return req, false
	}
	return req, true
}

// bearerAuth rejects requests without the configured token. An empty token
// disables the check.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
