package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_http_errors_total",
		Help: "Total number of HTTP requests resulting in server errors.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calbot_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_updates_total",
		Help: "Total number of Telegram updates handled, by kind.",
	}, []string{"kind"})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_renders_total",
		Help: "Total number of calendar renders, by view and transport action.",
	}, []string{"view", "action"})

	tokenRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_token_rejections_total",
		Help: "Total number of button payloads that did not decode to a navigation intent.",
	}, []string{"reason"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calbot_rate_limited_total",
		Help: "Total number of button presses dropped by the per-chat limiter.",
	})

	transportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calbot_transport_errors_total",
		Help: "Total number of failed Bot API calls, by method.",
	}, []string{"method"})

	journalErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calbot_journal_errors_total",
		Help: "Total number of interactions the journal failed to record.",
	})

	dbLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calbot_db_latency_seconds",
		Help:    "Histogram of database operation latencies.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// Middleware records request metrics labelled with the chi route pattern.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// The pattern is only complete once chi has routed the request.
			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			method := r.Method
			statusCode := strconv.Itoa(status)

			httpRequestsTotal.WithLabelValues(method, route).Inc()
			httpRequestDuration.WithLabelValues(method, route, statusCode).Observe(time.Since(start).Seconds())
			if status >= http.StatusInternalServerError {
				httpErrorsTotal.WithLabelValues(method, route, statusCode).Inc()
			}
		})
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpdate counts a handled Telegram update.
func ObserveUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}

// ObserveRender counts a calendar render.
func ObserveRender(view, action string) {
	rendersTotal.WithLabelValues(view, action).Inc()
}

// ObserveTokenRejection counts a payload that decoded to a no-op for reason.
func ObserveTokenRejection(reason string) {
	tokenRejectionsTotal.WithLabelValues(reason).Inc()
}

func ObserveRateLimited() {
	rateLimitedTotal.Inc()
}

// ObserveTransportError counts a failed Bot API call.
func ObserveTransportError(method string) {
	transportErrorsTotal.WithLabelValues(method).Inc()
}

// ObserveJournalError counts an interaction that could not be recorded.
func ObserveJournalError() {
	journalErrorsTotal.Inc()
}

// ObserveDBLatency records database latency for a given operation.
func ObserveDBLatency(operation string, start time.Time) {
	dbLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
