package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/pipeline"
	"github.com/ppiankov/verdict/internal/util"
)

// maxRequestBytes bounds request bodies; inline images make them large
const maxRequestBytes = 20 << 20

const (
	msgInvalidBody   = "Invalid request body"
	msgNoTextOrURL   = "No text or URL provided"
	msgNoImage       = "No image provided"
	msgNoURL         = "No URL provided"
	msgInvalidURL    = "Invalid URL. Only http(s) URLs are supported."
	msgInternalError = "Internal error"
)

type factCheckRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type extractRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req factCheckRequest
	if !s.decode(w, r, &req) {
		return
	}

	var (
		resp *model.FactCheckResponse
		err  error
	)
	switch {
	case req.URL != "":
		resp, err = s.pipeline.CheckURL(r.Context(), req.URL)
	case req.Text != "":
		resp, err = s.pipeline.CheckText(r.Context(), req.Text)
	default:
		err = pipeline.ErrNoInput
	}
	if err != nil {
		s.respondWithPipelineError(w, err, msgNoTextOrURL)
		return
	}
	s.respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFactCheckImage(w http.ResponseWriter, r *http.Request) {
	var req model.ImageRef
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.pipeline.CheckImage(r.Context(), req)
	if err != nil {
		s.respondWithPipelineError(w, err, msgNoImage)
		return
	}
	s.respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.respondWithError(w, http.StatusBadRequest, msgNoURL)
		return
	}

	result, err := s.pipeline.Extract(r.Context(), req.URL)
	if err != nil {
		s.respondWithPipelineError(w, err, msgNoURL)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, model.HealthStatus{
		Status:           "healthy",
		APIKeyConfigured: s.pipeline.Configured(),
		Timestamp:        float64(s.now().UnixNano()) / 1e9,
	})
}

// --- Helper Functions ---

// decode reads a JSON body into v. A missing body is an empty request.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		s.respondWithError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func (s *Server) respondWithPipelineError(w http.ResponseWriter, err error, noInputMsg string) {
	switch {
	case errors.Is(err, pipeline.ErrNoInput):
		s.respondWithError(w, http.StatusBadRequest, noInputMsg)
	case errors.Is(err, util.ErrInvalidURL):
		s.respondWithError(w, http.StatusBadRequest, msgInvalidURL)
	case errors.Is(err, pipeline.ErrNotConfigured):
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.respondWithError(w, http.StatusInternalServerError, msgInternalError)
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode response")
		code = http.StatusInternalServerError
		response = []byte(`{"error":"` + msgInternalError + `"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
