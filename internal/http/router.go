// Package httpapi assembles the service's HTTP surface: the host bridge,
// health and metrics, and the operator chain check.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"audittrail/internal/hostbridge"
	"audittrail/pkg/platform/audit/chain"
	"audittrail/pkg/platform/audit/integrity"
	"audittrail/pkg/platform/httputil"
	"audittrail/pkg/platform/middleware/admin"
	"audittrail/pkg/platform/middleware/auth"
	"audittrail/pkg/platform/middleware/metadata"
	"audittrail/pkg/platform/middleware/requesttime"
	"audittrail/pkg/requestcontext"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the router wires together. Only Units is
// required.
type Deps struct {
	Units      *hostbridge.Handler
	Tokens     auth.TokenValidator
	Records    chain.RecordReader
	AdminToken string
	Gatherer   prometheus.Gatherer
	Checks     map[string]HealthCheck
	Logger     *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", healthHandler(d.Checks))
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(requesttime.Middleware)
		r.Use(auth.OptionalPrincipal(d.Tokens, d.Logger))
		d.Units.Register(r)
	})

	if d.Records != nil {
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
			r.Get("/admin/chain/verify", verifyHandler(d.Records, d.Logger))
		})
	}
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}

type verifyResponse struct {
	chain.Report
	Intact    bool   `json:"intact"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// verifyHandler walks the stored log. A broken chain is a finding, not a
// server error, so it is reported with 200 and intact=false.
func verifyHandler(records chain.RecordReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		pageSize := chain.DefaultPageSize
		if raw := r.URL.Query().Get("page_size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{
					"error":             "bad_request",
					"error_description": "page_size must be a positive integer",
				})
				return
			}
			pageSize = n
		}

		rep, err := chain.Verify(ctx, records, pageSize)
		resp := verifyResponse{Report: rep, Intact: err == nil, RequestID: requestcontext.RequestID(ctx)}
		switch {
		case err == nil:
		case errors.Is(err, integrity.ErrChainBroken):
			logger.WarnContext(ctx, "integrity chain broken",
				"checked", rep.Checked,
				"last_id", rep.LastID,
				"error", err,
			)
			resp.Error = err.Error()
		default:
			logger.ErrorContext(ctx, "chain verification failed", "error", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
