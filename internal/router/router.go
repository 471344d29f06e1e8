package router

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-chat-gateway/internal/eval/template"
	"github.com/aescanero/dago-chat-gateway/internal/knowledge"
	"go.uber.org/zap"
)

// DefaultLanguage is used when an utterance carries no language tag
const DefaultLanguage = "en-US"

// RouteKind is the classification of an utterance
type RouteKind string

const (
	// KindLookup is an utterance naming a transport number
	KindLookup RouteKind = "lookup"

	// KindFreeform is any other utterance
	KindFreeform RouteKind = "freeform"
)

// LookupOutcome describes what the knowledge lookup produced
type LookupOutcome string

const (
	OutcomeNone         LookupOutcome = "none"
	OutcomeFound        LookupOutcome = "found"
	OutcomeNotFound     LookupOutcome = "not_found"
	OutcomeError        LookupOutcome = "error"
	OutcomeUnconfigured LookupOutcome = "unconfigured"
)

// Utterance is a message typed by the user
type Utterance struct {
	Text     string `json:"message"`
	Language string `json:"language"`
}

// Result is the prompt to send to the agent and how it was produced
type Result struct {
	Prompt    string        `json:"prompt"`
	Kind      RouteKind     `json:"kind"`
	Outcome   LookupOutcome `json:"outcome"`
	Reasoning string        `json:"reasoning"`
}

// Lookup finds knowledge records for a readable key
type Lookup interface {
	Search(ctx context.Context, query string) ([]knowledge.Record, error)
}

// Router shapes user utterances into agent prompts
type Router struct {
	lookup           Lookup
	classifier       Classifier
	templates        *template.Set
	lookupTemplate   string
	freeformTemplate string
	logger           *zap.Logger
}

// Option configures a Router
type Option func(*Router)

// WithClassifier replaces the built-in transport number test
func WithClassifier(c Classifier) Option {
	return func(r *Router) {
		r.classifier = c
	}
}

// WithLookupTemplate overrides the prompt used for lookup queries
func WithLookupTemplate(tmpl string) Option {
	return func(r *Router) {
		if tmpl != "" {
			r.lookupTemplate = tmpl
		}
	}
}

// WithFreeformTemplate overrides the prompt used for free-form queries
func WithFreeformTemplate(tmpl string) Option {
	return func(r *Router) {
		if tmpl != "" {
			r.freeformTemplate = tmpl
		}
	}
}

// NewRouter creates a new router. lookup may be nil when no knowledge base is
// configured; lookup queries then carry NotConfiguredNotice.
func NewRouter(lookup Lookup, logger *zap.Logger, opts ...Option) (*Router, error) {
	r := &Router{
		lookup:           lookup,
		classifier:       DefaultClassifier,
		templates:        template.NewSet(),
		lookupTemplate:   DefaultLookupTemplate,
		freeformTemplate: DefaultFreeformTemplate,
		logger:           logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.templates.Add(string(KindLookup), r.lookupTemplate); err != nil {
		return nil, fmt.Errorf("invalid lookup template: %w", err)
	}
	if err := r.templates.Add(string(KindFreeform), r.freeformTemplate); err != nil {
		return nil, fmt.Errorf("invalid freeform template: %w", err)
	}

	return r, nil
}

// Route builds the agent prompt for an utterance. It never fails: lookup
// problems become notices inside the prompt.
func (r *Router) Route(ctx context.Context, u Utterance) *Result {
	if u.Language == "" {
		u.Language = DefaultLanguage
	}

	if !r.classifier.IsLookup(ctx, u) {
		r.logger.Debug("routing free-form utterance", zap.String("language", u.Language))
		return &Result{
			Prompt:    r.render(KindFreeform, promptData(u, "", OutcomeNone), fallbackFreeformPrompt(u)),
			Kind:      KindFreeform,
			Outcome:   OutcomeNone,
			Reasoning: "utterance is not a transport number",
		}
	}

	knowledgeText, outcome := r.fetchKnowledge(ctx, u.Text)

	r.logger.Info("routing lookup utterance",
		zap.String("key", u.Text),
		zap.String("outcome", string(outcome)),
	)

	return &Result{
		Prompt:    r.render(KindLookup, promptData(u, knowledgeText, outcome), fallbackLookupPrompt(u, knowledgeText)),
		Kind:      KindLookup,
		Outcome:   outcome,
		Reasoning: fmt.Sprintf("transport number lookup: %s", outcome),
	}
}

// fetchKnowledge queries the lookup collaborator and formats the top record
func (r *Router) fetchKnowledge(ctx context.Context, key string) (text string, outcome LookupOutcome) {
	if r.lookup == nil {
		return NotConfiguredNotice, OutcomeUnconfigured
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("knowledge lookup panicked", zap.Any("panic", p))
			text, outcome = UnreachableNotice, OutcomeError
		}
	}()

	records, err := r.lookup.Search(ctx, key)
	if err != nil {
		r.logger.Error("knowledge lookup failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return UnreachableNotice, OutcomeError
	}

	if len(records) == 0 || len(records[0].Fields) == 0 {
		return NotFoundNotice, OutcomeNotFound
	}

	return knowledge.Banner(records[0]), OutcomeFound
}

// render executes a prompt template, using fallback if rendering fails
func (r *Router) render(kind RouteKind, data map[string]interface{}, fallback string) string {
	prompt, err := r.templates.Render(string(kind), data)
	if err != nil {
		r.logger.Warn("failed to render prompt template, using built-in prompt", zap.Error(err))
		return fallback
	}
	return prompt
}
