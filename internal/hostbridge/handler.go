package hostbridge

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"audittrail/internal/platform/metrics"
	"audittrail/pkg/platform/httputil"
	"audittrail/pkg/requestcontext"

	"github.com/go-chi/chi/v5"
)

// Handler accepts units of host work over HTTP. Audit failures never turn
// into error responses; the host only learns which signals were recorded.
type Handler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewHandler(dispatcher *Dispatcher, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{dispatcher: dispatcher, logger: logger, metrics: m}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/units", h.HandleUnit)
}

type unitResponse struct {
	Results   []Result `json:"results"`
	RequestID string   `json:"request_id,omitempty"`
}

func (h *Handler) HandleUnit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.metrics.ObserveRequest("/v1/units", start)
	ctx := r.Context()

	unit, ok := httputil.DecodeJSON[Unit](w, r, h.logger)
	if !ok {
		h.metrics.IncUnitsRejected()
		return
	}
	if err := unit.Validate(); err != nil {
		h.metrics.IncUnitsRejected()
		h.logger.WarnContext(ctx, "rejected unit", "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.IncUnitsReceived()

	results := h.dispatcher.Run(ctx, unit)
	recorded := 0
	for _, res := range results {
		h.metrics.ObserveSignal(res.Hook, res.Recorded)
		if res.Recorded {
			recorded++
		}
	}
	h.logger.DebugContext(ctx, "unit dispatched",
		"signals", len(results),
		"recorded", recorded,
	)

	httputil.WriteJSON(w, http.StatusOK, unitResponse{
		Results:   results,
		RequestID: requestcontext.RequestID(ctx),
	})
}
