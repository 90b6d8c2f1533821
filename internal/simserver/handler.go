package simserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/simetry/internal/pkg/metrics"
	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/log"
)

// maxStateSize bounds PUT bodies.
const maxStateSize = 1 << 20

type handler struct {
	store *Store
	log   log.Logger
}

// RegisterRoutes mounts the state endpoint on r.
func RegisterRoutes(r *mux.Router, store *Store, logger log.Logger) {
	h := &handler{store: store, log: logger}

	sub := r.Path("/").Subrouter()
	sub.Use(countRequests)
	sub.Methods(http.MethodGet).HandlerFunc(h.get)
	sub.Methods(http.MethodPut).HandlerFunc(h.put)
	sub.Methods(http.MethodDelete).HandlerFunc(h.clear)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	state, ok := h.store.Get()
	if !ok {
		http.Error(w, "simulation not running", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		h.log.Error(err, "Failed to write state")
	}
}

func (h *handler) put(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxStateSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > maxStateSize {
		http.Error(w, "state too large", http.StatusRequestEntityTooLarge)
		return
	}

	state, err := generichttp.DecodeState(body)
	if err != nil {
		http.Error(w, "invalid state: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.store.Set(state)
	h.log.Debug("State replaced", "session", state.Name)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.log.Debug("State cleared")
	w.WriteHeader(http.StatusNoContent)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ServerRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Inc()
	})
}
