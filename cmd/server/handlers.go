package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/metrics"
	"review-sentiment/internal/models"
	"review-sentiment/internal/pipeline"
	"review-sentiment/internal/store"
	"review-sentiment/pkg/logger"
)

const maxRequestBytes = 1 << 20

type predictReq struct {
	URL string `json:"url"`
}

type analyzeReq struct {
	Text string `json:"text"`
}

type history interface {
	SaveAnalysis(ctx context.Context, url string, res models.PredictResult) (string, error)
	GetAnalysis(ctx context.Context, id string) (models.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]models.AnalysisSummary, error)
	SaveClassification(ctx context.Context, c models.TextClassification) (string, error)
	ListClassifications(ctx context.Context, limit int) ([]models.Classification, error)
}

type server struct {
	pipe       *pipeline.Pipeline
	classifier *classifier.Service
	history    history
	metrics    *metrics.Metrics
	log        *logger.Logger
	corsOrigin string
}

func (s *server) routes(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.health)

	// POST /predict  { "url": "https://..." }
	mux.HandleFunc("/predict", s.predict)

	// POST /analyze  { "text": "..." }
	mux.HandleFunc("/analyze", s.analyze)

	mux.HandleFunc("GET /analyses", s.listAnalyses)
	mux.HandleFunc("GET /analyses/{id}", s.getAnalysis)
	mux.HandleFunc("GET /classifications", s.listClassifications)

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return withCORS(s.corsOrigin, logRequest(s.log, mux))
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	st := s.classifier.Status()
	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:           "ok",
		Backend:          st.Backend,
		ModelLoaded:      st.ModelLoaded,
		VectorizerLoaded: st.VectorizerLoaded,
	})
}

func (s *server) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req predictReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := s.pipe.Run(r.Context(), pipeline.Input{URL: req.URL})
	if err != nil {
		kind := pipeline.KindOf(err)
		s.metrics.RecordFailure(string(kind))
		writeError(w, kind.HTTPStatus(), publicMessage(err))
		return
	}
	s.metrics.RecordSuccess(res)

	if s.history != nil {
		id, err := s.history.SaveAnalysis(r.Context(), req.URL, res)
		if err != nil {
			s.log.Error("saving analysis failed", "url", req.URL, "error", err)
		} else {
			w.Header().Set("X-Analysis-ID", id)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req analyzeReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	out, err := s.pipe.ClassifyText(req.Text)
	if err != nil {
		writeError(w, pipeline.KindOf(err).HTTPStatus(), publicMessage(err))
		return
	}

	if s.history != nil {
		id, err := s.history.SaveClassification(r.Context(), out)
		if err != nil {
			s.log.Error("saving classification failed", "error", err)
		} else {
			w.Header().Set("X-Classification-ID", id)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "analysis history is disabled")
		return
	}
	limit, ok := listLimit(w, r)
	if !ok {
		return
	}
	list, err := s.history.ListAnalyses(r.Context(), limit)
	if err != nil {
		s.log.Error("listing analyses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) listClassifications(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "analysis history is disabled")
		return
	}
	limit, ok := listLimit(w, r)
	if !ok {
		return
	}
	list, err := s.history.ListClassifications(r.Context(), limit)
	if err != nil {
		s.log.Error("listing classifications failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// listLimit reads ?limit (default 20, capped at 100) and writes a 400 when it is malformed.
func listLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 20, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(n, 100), true
}

func (s *server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "analysis history is disabled")
		return
	}
	a, err := s.history.GetAnalysis(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.log.Error("loading analysis failed", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func publicMessage(err error) string {
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "internal server error"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, models.ErrorResponse{Error: msg})
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
