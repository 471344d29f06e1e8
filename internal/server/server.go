package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/dago-chat-gateway/internal/agent"
	"github.com/aescanero/dago-chat-gateway/internal/events"
	"github.com/aescanero/dago-chat-gateway/internal/router"
	"github.com/aescanero/dago-chat-gateway/internal/session"
	"github.com/aescanero/dago-chat-gateway/internal/speech"
	"github.com/aescanero/dago-chat-gateway/internal/telemetry"
	"go.uber.org/zap"
)

// Router turns an utterance into an agent prompt
type Router interface {
	Route(ctx context.Context, u router.Utterance) *router.Result
}

// Speech is the speech service used by the token and speak endpoints
type Speech interface {
	IssueToken(ctx context.Context) (*speech.Token, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Options holds the HTTP settings of the gateway
type Options struct {
	Port          int
	StaticDir     string
	CORSOrigin    string
	SessionCookie string
	SessionTTL    time.Duration
	AgentTimeout  time.Duration
}

// Deps are the collaborators of the gateway. Agent and Speech may be nil when
// their providers are not configured; Resolver is required whenever Agent is set.
type Deps struct {
	Router   Router
	Agent    agent.Agent
	Resolver *session.Resolver
	Speech   Speech
	Events   events.Publisher
	Metrics  *telemetry.Metrics
	Logger   *zap.Logger
}

// Server is the public HTTP endpoint of the chat gateway
type Server struct {
	opts   Options
	deps   Deps
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a new gateway server
func NewServer(opts Options, deps Deps) *Server {
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NewMetrics()
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "chat_session"
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 60 * time.Second
	}

	return &Server{
		opts:   opts,
		deps:   deps,
		logger: deps.Logger,
	}
}

// Handler returns the routed and CORS-wrapped handler
func (s *Server) Handler() http.Handler {
	m := s.deps.Metrics
	mux := http.NewServeMux()

	mux.Handle("/chat", m.Instrument("chat", allowMethod(http.MethodPost, http.HandlerFunc(s.handleChat))))
	mux.Handle("/api/get-speech-token", m.Instrument("speech_token", allowMethod(http.MethodPost, http.HandlerFunc(s.handleSpeechToken))))
	mux.Handle("/api/speak", m.Instrument("speak", allowMethod(http.MethodPost, http.HandlerFunc(s.handleSpeak))))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))))
	mux.HandleFunc("/", s.handleIndex)

	return withCORS(s.opts.CORSOrigin, mux)
}

// Start starts listening in the background
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("starting http server", zap.Int("port", s.opts.Port))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("stopping http server")
	return s.server.Shutdown(ctx)
}
