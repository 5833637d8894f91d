// Package server exposes the ranking engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcliao/experience-rank/internal/model"
	"github.com/rcliao/experience-rank/internal/ranking"
)

// Error codes returned in the error envelope.
const (
	ErrCodeValidation = "validation_error"
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeInternal   = "internal_error"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server serves the estimate and feedback operations.
type Server struct {
	engine   *ranking.Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// New creates a Server. gatherer may be nil to disable /metrics.
func New(engine *ranking.Engine, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger, gatherer: gatherer}
}

// EstimateRequest is the body of POST /estimate.
type EstimateRequest struct {
	Text string `json:"text"`
}

// Adjacent holds the nearest easier and harder experiences.
type Adjacent struct {
	Lower  *model.Summary `json:"lower"`
	Higher *model.Summary `json:"higher"`
}

// EstimateResponse is the body returned by POST /estimate.
type EstimateResponse struct {
	Experience *model.Summary `json:"experience"`
	Adjacent   Adjacent       `json:"adjacent"`
	TotalCount int            `json:"total_count"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	ExperienceID              string `json:"experience_id"`
	IsMoreDifficultThanLower  bool   `json:"is_more_difficult_than_lower"`
	IsLessDifficultThanHigher bool   `json:"is_less_difficult_than_higher"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Handler returns the HTTP handler with all routes and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /estimate", s.handleEstimate)
	mux.HandleFunc("POST /feedback", s.handleFeedback)
	mux.HandleFunc("POST /compare", s.handleFeedback)
	mux.HandleFunc("GET /experiences/{id}", s.handleGet)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return Logging(s.logger)(mux)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Estimate(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, standingResponse(&res.Standing))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	updated, err := s.engine.Feedback(r.Context(), ranking.FeedbackParams{
		ExperienceID:              req.ExperienceID,
		IsMoreDifficultThanLower:  req.IsMoreDifficultThanLower,
		IsLessDifficultThanHigher: req.IsLessDifficultThanHigher,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated.Summary())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, standingResponse(st))
}

func standingResponse(st *ranking.Standing) EstimateResponse {
	return EstimateResponse{
		Experience: st.Experience.Summary(),
		Adjacent: Adjacent{
			Lower:  st.Lower.Summary(),
			Higher: st.Higher.Summary(),
		},
		TotalCount: st.Total,
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeErrorCode(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ranking.ErrValidation):
		s.writeErrorCode(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, ranking.ErrNotFound):
		s.writeErrorCode(w, http.StatusNotFound, ErrCodeNotFound, "Experience not found")
	default:
		s.writeErrorCode(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

func (s *Server) writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
