package wind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"Windcalc/internal/observability"
)

const maxUploadSize = 10 << 20 // 10MB

// Request mirrors the calculator form: the active code, the speed mode and the
// raw field values.
type Request struct {
	Code   Code              `json:"code"`
	Mode   Mode              `json:"mode"`
	Inputs map[string]string `json:"inputs"`
}

type CalcResponse struct {
	Result
	Summary string `json:"summary"`
}

type CompareResponse struct {
	Comparison
	Summary string `json:"summary"`
}

type Handler struct {
	Calculator *Calculator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

func (h *Handler) Cities(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(Code(r.URL.Query().Get("code")))
	writeJSON(w, h.Calculator.Tables().Cities(code))
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	res := h.calculate(req)
	writeJSON(w, CalcResponse{Result: res, Summary: res.Summary()})
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	_, _, cmp := h.Calculator.Compare(req.Mode, req.Inputs)
	h.Metrics.Comparisons.Inc()
	writeJSON(w, CompareResponse{Comparison: cmp, Summary: cmp.Summary()})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	res := h.calculate(req)
	var buf bytes.Buffer
	err := WriteCSV(&buf, res.Profile)
	h.Metrics.Exports.WithLabelValues("csv", observability.Outcome(err)).Inc()
	if err != nil {
		h.Logger.Error("csv export failed", zap.Error(err))
		http.Error(w, "Export error", http.StatusInternalServerError)
		return
	}
	attach(w, "text/csv", FileName(res.Code, "csv"), buf.Bytes())
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	res := h.calculate(req)
	var buf bytes.Buffer
	err := WriteXLSX(&buf, res)
	h.Metrics.Exports.WithLabelValues("xlsx", observability.Outcome(err)).Inc()
	if err != nil {
		h.Logger.Error("xlsx export failed", zap.Error(err))
		http.Error(w, "Export error", http.StatusInternalServerError)
		return
	}
	attach(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		FileName(res.Code, "xlsx"), buf.Bytes())
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	out, err := h.Calculator.ImportXLSX(file)
	if err != nil {
		h.Logger.Info("import rejected", zap.Error(err))
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	h.Metrics.Imports.Add(float64(out.Count))
	writeJSON(w, out)
}

func (h *Handler) calculate(req Request) Result {
	res := h.Calculator.Calculate(h.Calculator.ParseInputs(req.Code, req.Mode, req.Inputs))
	h.Metrics.Calculations.WithLabelValues(string(res.Code)).Inc()
	return res
}

func decode(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return Request{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func attach(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(body)
}
