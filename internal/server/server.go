// Package server exposes the processing pipeline over HTTP: screenshot
// upload-and-process plus a leaderboard read, mirroring what the CLI does
// for batch runs.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"scorecard-tracker/internal/middleware"
	"scorecard-tracker/internal/service"
)

const maxUploadBytes = 64 << 20 // multipart memory cap for screenshot uploads

type Server struct {
	processor *service.Processor
	logger    zerolog.Logger
}

func New(processor *service.Processor, logger zerolog.Logger) *Server {
	return &Server{processor: processor, logger: logger}
}

// Handler builds the full route table with CORS and request-ID middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.RequestID(s.logger)(c.Handler(mux))
}

// handleProcess accepts multipart screenshot uploads, runs one full
// processing run against them, and returns the run report.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart upload: %w", err))
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("no images uploaded (field name: images)"))
		return
	}

	tmpDir, err := os.MkdirTemp("", "scorecard-upload-*")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to stage uploads: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	var paths []string
	for _, header := range r.MultipartForm.File["images"] {
		src, err := header.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to open upload %q: %w", header.Filename, err))
			return
		}
		dstPath := filepath.Join(tmpDir, filepath.Base(header.Filename))
		dst, err := os.Create(dstPath)
		if err != nil {
			src.Close()
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to stage upload %q: %w", header.Filename, err))
			return
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to stage upload %q: %w", header.Filename, err))
			return
		}
		paths = append(paths, dstPath)
	}

	opts := service.RunOptions{
		Images:                paths,
		OutputCSV:             filepath.Join(tmpDir, "export.csv"),
		SkipSink:              r.FormValue("no_sheets") == "true",
		DisableDuplicateCheck: r.FormValue("no_duplicates") == "true",
	}

	report, err := s.processor.Run(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNoImages) || errors.Is(err, service.ErrNoResults) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	// The CSV was staged in the temp dir; the report is the API artifact.
	report.CSVPath = ""

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	records, err := s.processor.Leaderboard(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"players": records,
		"count":   len(records),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
