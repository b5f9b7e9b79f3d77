package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"Windcalc/internal/calc/wind"
	"Windcalc/internal/observability"
)

type Request struct {
	Tab    string            `json:"tab"`
	Mode   wind.Mode         `json:"mode"`
	Inputs map[string]string `json:"inputs"`
}

type Handler struct {
	Calculator *wind.Calculator
	Clock      clockwork.Clock
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Renderer   Renderer
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	now := h.Clock.Now()
	rep := Build(h.Calculator, req.Tab, req.Mode, req.Inputs, now)

	// buffer so a failed render never leaves a truncated attachment behind
	var buf bytes.Buffer
	err := h.Renderer.Render(&buf, rep)
	h.Metrics.Exports.WithLabelValues("pdf", observability.Outcome(err)).Inc()
	if err != nil {
		h.Logger.Error("pdf export failed", zap.String("tab", req.Tab), zap.Error(err))
		http.Error(w, "PDF failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", FileName(now)))
	w.Write(buf.Bytes())
}
