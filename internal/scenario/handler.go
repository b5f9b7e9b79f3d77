package scenario

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	Store  *Store
	Logger *zap.Logger
}

type savedResponse struct {
	Index int `json:"index"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var sc Scenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	idx, err := h.Store.Save(r.Context(), sc)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, savedResponse{Index: idx})
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	sc, err := h.Store.LoadAt(r.Context(), idx)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAt(r.Context(), idx); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.Logger.Error("scenario store failure", zap.Error(err))
		http.Error(w, "Storage error", http.StatusInternalServerError)
	}
}

func index(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
