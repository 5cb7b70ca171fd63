// Package httpapi exposes the four facade operations over a thin JSON
// transport, instrumented with otelhttp so every request carries a
// trace span.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/daqi-oss/intentd/internal/facade"
	"github.com/daqi-oss/intentd/internal/intenterr"
	"github.com/daqi-oss/intentd/internal/obslog"
)

// Handler wires a Facade to net/http.
type Handler struct {
	facade *facade.Facade
	logger obslog.Logger
}

// NewHandler creates a Handler. logger may be nil.
func NewHandler(f *facade.Facade, logger obslog.Logger) *Handler {
	if logger == nil {
		logger = obslog.NoOp{}
	}
	return &Handler{facade: f, logger: logger}
}

// errorResponse is the uniform `{code, message}` shape from spec §6.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Mux builds a *http.ServeMux with every operation registered and
// wrapped in otelhttp instrumentation.
func (h *Handler) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/parse-intent", h.handleParseIntent)
	mux.HandleFunc("/v1/dry-run", h.handleDryRun)
	mux.HandleFunc("/v1/execute-plan", h.handleExecutePlan)
	mux.HandleFunc("/v1/history", h.handleListHistory)
	return otelhttp.NewHandler(mux, "intentd.http")
}

type parseIntentRequestBody struct {
	Input   string `json:"input"`
	Explain bool   `json:"explain"`
}

func (h *Handler) handleParseIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, intenterr.CodeInvalidInput, "method not allowed")
		return
	}

	var body parseIntentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, intenterr.CodeInvalidInput, "invalid request body")
		return
	}

	resp, err := h.facade.ParseIntent(r.Context(), facade.ParseIntentRequest{Input: body.Input, Explain: body.Explain})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type planRequestBody struct {
	Input     *string `json:"input,omitempty"`
	PlanID    *string `json:"planId,omitempty"`
	TimeoutMs int64   `json:"timeoutMs,omitempty"`
}

func (b planRequestBody) toPlanRequest() facade.PlanRequest {
	req := facade.PlanRequest{TimeoutMs: b.TimeoutMs}
	if b.Input != nil {
		req.Input = *b.Input
		req.HasInput = true
	}
	if b.PlanID != nil {
		req.PlanID = *b.PlanID
		req.HasPlanID = true
	}
	return req
}

func (h *Handler) handleDryRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, intenterr.CodeInvalidInput, "method not allowed")
		return
	}

	var body planRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, intenterr.CodeInvalidInput, "invalid request body")
		return
	}

	resp, err := h.facade.DryRun(r.Context(), body.toPlanRequest())
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExecutePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, intenterr.CodeInvalidInput, "method not allowed")
		return
	}

	var body planRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, intenterr.CodeInvalidInput, "invalid request body")
		return
	}

	resp, err := h.facade.ExecutePlan(r.Context(), body.toPlanRequest())
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, intenterr.CodeInvalidInput, "method not allowed")
		return
	}

	req := facade.ListHistoryRequest{}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, intenterr.CodeInvalidInput, "invalid limit")
			return
		}
		req.Limit = n
	}
	if v := q.Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, intenterr.CodeInvalidInput, "invalid after")
			return
		}
		req.After = n
		req.HasAfter = true
	}

	resp, err := h.facade.ListHistory(r.Context(), req)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	code, ok := intenterr.CodeOf(err)
	if !ok {
		h.logger.Error("unmapped pipeline error", map[string]interface{}{"error": err.Error()})
		h.writeError(w, http.StatusInternalServerError, intenterr.Code("INTERNAL"), err.Error())
		return
	}

	status := http.StatusBadRequest
	switch code {
	case intenterr.CodePlanNotFound:
		status = http.StatusNotFound
	case intenterr.CodeLockPoison:
		status = http.StatusInternalServerError
	case intenterr.CodeNotImplemented:
		status = http.StatusNotImplemented
	}
	h.writeError(w, status, code, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code intenterr.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Code: string(code), Message: message})
}
