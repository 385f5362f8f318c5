package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fieldstack/docextract/internal/common"
	"github.com/fieldstack/docextract/internal/pipeline"
	"github.com/fieldstack/docextract/internal/store"
	"github.com/fieldstack/docextract/internal/textextract"
)

type processRequest struct {
	Text        string `json:"text,omitempty"`
	URL         string `json:"url,omitempty"`
	SourceLabel string `json:"source_label"`
	Evaluate    bool   `json:"evaluate,omitempty"`
	Query       string `json:"query,omitempty"`
}

func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" && req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "either text or url is required")
		return
	}
	if req.SourceLabel == "" {
		req.SourceLabel = "api"
	}

	text := req.Text
	if text == "" {
		data, err := textextract.Fetch(r.Context(), req.URL)
		if err != nil {
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		ext := "pdf"
		if !strings.HasSuffix(strings.ToLower(req.URL), ".pdf") {
			ext = "txt"
		}
		text, err = textextract.FromBytes(data, ext)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	res, err := s.pipeline.Run(r.Context(), text, req.SourceLabel, pipeline.Options{
		Evaluate: req.Evaluate,
		Query:    req.Query,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrClassificationFailed),
			errors.Is(err, common.ErrExtractionFailed):
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("server.process.internal_error", "error", err)
			s.respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{Type: r.URL.Query().Get("type")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}

	docs, err := s.documents.Query(r.Context(), f)
	if err != nil {
		s.logger.Error("server.list.failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.documents.Stats(r.Context())
	if err != nil {
		s.logger.Error("server.stats.failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportXLSX(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		s.logger.Error("server.export.failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("server.respond.encode_error", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
