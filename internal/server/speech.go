package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const speechNotConfigured = "Speech service credentials not configured."

// SpeakRequest is the body of POST /api/speak
type SpeakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (s *Server) handleSpeechToken(w http.ResponseWriter, r *http.Request) {
	if s.deps.Speech == nil {
		respondJSON(w, s.logger, http.StatusInternalServerError, ErrorResponse{Error: speechNotConfigured})
		return
	}

	token, err := s.deps.Speech.IssueToken(r.Context())
	if err != nil {
		s.logger.Error("failed to issue speech token", zap.Error(err))
		respondJSON(w, s.logger, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	respondJSON(w, s.logger, http.StatusOK, token)
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if s.deps.Speech == nil {
		respondJSON(w, s.logger, http.StatusInternalServerError, ErrorResponse{Error: speechNotConfigured})
		return
	}

	var req SpeakRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBody))
	if err != nil || json.Unmarshal(body, &req) != nil || strings.TrimSpace(req.Text) == "" {
		respondJSON(w, s.logger, http.StatusBadRequest, ErrorResponse{Error: "No text was provided."})
		return
	}

	audio, err := s.deps.Speech.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		s.logger.Error("speech synthesis failed", zap.String("voice", req.Voice), zap.Error(err))
		respondJSON(w, s.logger, http.StatusInternalServerError, ErrorResponse{Error: "Speech synthesis failed."})
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		s.logger.Warn("failed to write audio", zap.Error(err))
	}
}
