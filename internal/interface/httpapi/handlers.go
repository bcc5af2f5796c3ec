package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/tube-rag/internal/core/ingest"
	"github.com/jinford/tube-rag/internal/core/qa"
	"github.com/jinford/tube-rag/internal/core/search"
	"github.com/jinford/tube-rag/internal/core/transcript"
)

type errorResponse struct {
	Error string `json:"error"`
}

type ingestRequest struct {
	URL    string `json:"url"`
	UserID string `json:"user_id,omitempty"`
}

type analysisResponse struct {
	ID          string    `json:"id"`
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	ChannelName string    `json:"channel_name"`
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ingestResponse struct {
	Analysis   analysisResponse `json:"analysis"`
	ChunkCount int              `json:"chunk_count"`
	DurationMs int64            `json:"duration_ms"`
}

type searchResultResponse struct {
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type askRequest struct {
	Question string `json:"question"`
}

type citationResponse struct {
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

type askResponse struct {
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Citations  []citationResponse `json:"citations"`
	Confidence float64            `json:"confidence"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := s.ingester.Ingest(r.Context(), req.URL, req.UserID)
	if err != nil {
		s.logger.Error("ingest failed", slog.String("url", req.URL), slog.Any("error", err))
		switch {
		case errors.Is(err, transcript.ErrInvalidURL):
			s.writeError(w, http.StatusBadRequest, "invalid youtube url")
		case errors.Is(err, transcript.ErrVideoUnavailable):
			s.writeError(w, http.StatusUnprocessableEntity, "video is unavailable")
		case errors.Is(err, transcript.ErrNoCaptions),
			errors.Is(err, transcript.ErrAudioDownloadFailed),
			errors.Is(err, transcript.ErrTranscriptionFailed),
			errors.Is(err, ingest.ErrEmptyTranscript):
			s.writeError(w, http.StatusUnprocessableEntity, "failed to acquire transcript")
		default:
			s.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, ingestResponse{
		Analysis:   toAnalysisResponse(result.Analysis),
		ChunkCount: result.ChunkCount,
		DurationMs: result.Duration.Milliseconds(),
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.analyses.ListAnalyses(r.Context())
	if err != nil {
		s.logger.Error("failed to list analyses", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		resp = append(resp, toAnalysisResponse(a))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := s.analysisID(w, r)
	if !ok {
		return
	}

	analysisOpt, err := s.analyses.FindAnalysis(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to find analysis", slog.String("analysis_id", id.String()), slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	analysis, exists := analysisOpt.Get()
	if !exists {
		s.writeError(w, http.StatusNotFound, "analysis not found")
		return
	}

	s.writeJSON(w, http.StatusOK, toAnalysisResponse(analysis))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.analysisID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := s.searcher.SemanticSearch(r.Context(), id, query, limit)
	if err != nil {
		if errors.Is(err, search.ErrNoContentIndexed) {
			s.writeError(w, http.StatusUnprocessableEntity, "no content indexed for this analysis")
			return
		}
		s.logger.Error("search failed", slog.String("analysis_id", id.String()), slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, searchResultResponse{
			ChunkIndex: res.Chunk.Index,
			Content:    res.Chunk.Content,
			Score:      res.Score,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, ok := s.analysisID(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.asker.Ask(r.Context(), qa.AskParams{
		AnalysisID: id,
		Question:   req.Question,
	})
	if err != nil {
		if errors.Is(err, search.ErrNoContentIndexed) {
			s.writeError(w, http.StatusUnprocessableEntity, "no content indexed for this analysis")
			return
		}
		s.logger.Error("ask failed", slog.String("analysis_id", id.String()), slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	citations := make([]citationResponse, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		citations = append(citations, citationResponse{
			ChunkIndex: c.ChunkIndex,
			Score:      c.Score,
			Excerpt:    c.Excerpt,
		})
	}
	s.writeJSON(w, http.StatusOK, askResponse{
		Question:   answer.Question,
		Answer:     answer.Answer,
		Citations:  citations,
		Confidence: answer.Confidence,
	})
}

// analysisID はパスパラメータのUUIDを解析する。不正な場合はエラーを書き込み false を返す
func (s *Server) analysisID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid analysis id")
		return uuid.Nil, false
	}
	return id, true
}

func toAnalysisResponse(a *ingest.VideoAnalysis) analysisResponse {
	return analysisResponse{
		ID:          a.ID.String(),
		VideoID:     a.VideoID,
		Title:       a.Title,
		ChannelName: a.ChannelName,
		URL:         a.URL,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
