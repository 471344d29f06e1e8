package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aescanero/dago-chat-gateway/internal/events"
	"github.com/aescanero/dago-chat-gateway/internal/router"
	"github.com/aescanero/dago-chat-gateway/internal/session"
	"go.uber.org/zap"
)

// Fixed replies of the chat endpoint
const (
	NotInitializedReply = "Error: AI services are not initialized. Please check the server logs."
	NoMessageError      = "No message was provided."
	ThreadError         = "Could not start a conversation with the agent."
	AgentErrorReply     = "An error occurred while communicating with the agent."
)

const maxChatBody = 1 << 20

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// ChatResponse is the successful reply of POST /chat
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse carries a client-facing error
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.deps.Agent == nil || s.deps.Resolver == nil {
		respondJSON(w, s.logger, http.StatusInternalServerError, ChatResponse{Reply: NotInitializedReply})
		return
	}

	var req ChatRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBody))
	if err != nil || json.Unmarshal(body, &req) != nil || strings.TrimSpace(req.Message) == "" {
		respondJSON(w, s.logger, http.StatusBadRequest, ErrorResponse{Error: NoMessageError})
		return
	}

	sessionID := s.sessionID(w, r)

	threadID, created, err := s.deps.Resolver.ThreadFor(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to resolve conversation thread",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		respondJSON(w, s.logger, http.StatusInternalServerError, ErrorResponse{Error: ThreadError})
		return
	}
	if created {
		s.deps.Metrics.ObserveThreadCreated()
	}

	utterance := router.Utterance{Text: req.Message, Language: req.Language}
	result := s.deps.Router.Route(r.Context(), utterance)
	s.deps.Metrics.ObserveRoute(string(result.Kind), string(result.Outcome))

	s.logger.Info("utterance routed",
		zap.String("session_id", sessionID),
		zap.String("thread_id", threadID),
		zap.String("kind", string(result.Kind)),
		zap.String("outcome", string(result.Outcome)),
		zap.String("reasoning", result.Reasoning),
	)

	runCtx, cancel := context.WithTimeout(r.Context(), s.opts.AgentTimeout)
	defer cancel()

	runStart := time.Now()
	reply := AgentErrorReply
	status := "error"
	run, err := s.deps.Agent.Run(runCtx, threadID, result.Prompt)
	if err != nil {
		s.logger.Error("agent interaction failed",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
	} else {
		reply = run.Text()
		status = run.Status
	}
	s.deps.Metrics.ObserveAgentRun(status, time.Since(runStart))

	event := events.NewTurnEvent()
	event.SessionID = sessionID
	event.ThreadID = threadID
	event.ThreadCreated = created
	event.Language = utterance.Language
	event.RouteKind = string(result.Kind)
	event.LookupOutcome = string(result.Outcome)
	event.AgentStatus = status
	event.DurationMS = time.Since(start).Milliseconds()
	s.publish(r.Context(), event)

	respondJSON(w, s.logger, http.StatusOK, ChatResponse{Reply: reply})
}

// sessionID returns the caller's session id, issuing a cookie for new callers
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.opts.SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := session.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) publish(ctx context.Context, event *events.TurnEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := s.deps.Events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish turn event",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}
