package httpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/jw6ventures/calbot/internal/config"
	httperrors "github.com/jw6ventures/calbot/internal/http/errors"
	"github.com/jw6ventures/calbot/internal/http/ratelimit"
	"github.com/jw6ventures/calbot/internal/metrics"
	"github.com/jw6ventures/calbot/internal/store"
)

// statsWindow is the lookback of the /stats interaction count.
const statsWindow = 24 * time.Hour

// Backend is the part of the store the router reads.
type Backend interface {
	HealthCheck(ctx context.Context) error
	InteractionsSince(ctx context.Context, since time.Time) (int64, error)
}

var _ Backend = (*store.Store)(nil)

// NewRouter wires the probe, metrics, stats and webhook routes. updates may
// be nil in polling mode, in which case no webhook route is mounted.
func NewRouter(cfg *config.Config, backend Backend, updates http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := backend.HealthCheck(ctx); err != nil {
			httperrors.LogError(r, "readiness check failed", err)
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		n, err := backend.InteractionsSince(r.Context(), time.Now().Add(-statsWindow))
		if errors.Is(err, store.ErrJournalDisabled) {
			httperrors.NotFound(w, r)
			return
		}
		if err != nil {
			httperrors.InternalError(w, r, err, "count interactions")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"window":       statsWindow.String(),
			"interactions": n,
		})
	})

	if cfg.Telegram.Mode == config.ModeWebhook && updates != nil {
		// Telegram delivers from a small pool of addresses; this only stops
		// floods from anyone else who learns the URL.
		webhookLimiter := ratelimit.New(rate.Limit(50), 100, 5*time.Minute, cfg.TrustedProxies)

		r.With(webhookLimiter.Middleware(), requireSecret(cfg.Webhook.Secret)).
			Post("/telegram/{secret}", updates.ServeHTTP)
	}

	return r
}

// requireSecret hides the webhook from requests that lack the path secret.
func requireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := chi.URLParam(r, "secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				httperrors.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
