package router

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aescanero/dago-chat-gateway/internal/eval/cel"
	"go.uber.org/zap"
)

// lookupKeyLength is the length of a transport number as typed
const lookupKeyLength = 8

// Classifier decides whether an utterance is a lookup-key query. It must not
// touch the network.
type Classifier interface {
	IsLookup(ctx context.Context, u Utterance) bool
}

// ClassifierFunc adapts a function to Classifier
type ClassifierFunc func(ctx context.Context, u Utterance) bool

// IsLookup calls f
func (f ClassifierFunc) IsLookup(ctx context.Context, u Utterance) bool {
	return f(ctx, u)
}

// Clean removes every space from the utterance text
func Clean(text string) string {
	return strings.ReplaceAll(text, " ", "")
}

// IsLookupKey reports whether text is a transport number: the text with its
// spaces removed must be all decimal digits while the text as typed is
// exactly eight characters long. "1234 567" therefore qualifies.
func IsLookupKey(text string) bool {
	return isDigits(Clean(text)) && utf8.RuneCountInString(text) == lookupKeyLength
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// DefaultClassifier applies IsLookupKey
var DefaultClassifier Classifier = ClassifierFunc(func(_ context.Context, u Utterance) bool {
	return IsLookupKey(u.Text)
})

// RuleClassifier classifies with an operator supplied CEL rule
type RuleClassifier struct {
	rule   *cel.Rule
	logger *zap.Logger
}

// NewRuleClassifier compiles rule and returns a classifier using it
func NewRuleClassifier(rule string, logger *zap.Logger) (*RuleClassifier, error) {
	compiled, err := cel.Compile(rule)
	if err != nil {
		return nil, err
	}
	return &RuleClassifier{
		rule:   compiled,
		logger: logger,
	}, nil
}

// IsLookup evaluates the rule; an evaluation error classifies as free-form
func (c *RuleClassifier) IsLookup(ctx context.Context, u Utterance) bool {
	matched, err := c.rule.Match(ctx, cel.Input{
		Text:     u.Text,
		Cleaned:  Clean(u.Text),
		Language: u.Language,
	})
	if err != nil {
		c.logger.Warn("lookup rule evaluation error",
			zap.String("rule", c.rule.String()),
			zap.Error(err),
		)
		return false
	}
	return matched
}
