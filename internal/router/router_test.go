package router_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/aescanero/dago-chat-gateway/internal/knowledge"
	"github.com/aescanero/dago-chat-gateway/internal/router"
	"github.com/m-mizutani/gt"
	"go.uber.org/zap"
)

// mockLookup records queries and replays canned results
type mockLookup struct {
	mu      sync.Mutex
	queries []string
	records []knowledge.Record
	err     error
	panics  bool
}

func (m *mockLookup) Search(ctx context.Context, query string) ([]knowledge.Record, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.panics {
		panic("boom")
	}
	return m.records, m.err
}

func (m *mockLookup) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

func newRouter(t *testing.T, lookup router.Lookup, opts ...router.Option) *router.Router {
	t.Helper()
	r, err := router.NewRouter(lookup, zap.NewNop(), opts...)
	gt.NoError(t, err)
	return r
}

func TestEightDigitInputsTriggerLookup(t *testing.T) {
	lookup := &mockLookup{}
	r := newRouter(t, lookup)
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("%08d", rnd.Intn(100000000))
		res := r.Route(context.Background(), router.Utterance{Text: key})
		gt.Equal(t, res.Kind, router.KindLookup)
	}
	gt.A(t, lookup.calls()).Length(200)
}

func TestOtherInputsSkipLookup(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"1234567",
		"123456789",
		"1234a678",
		"12 34 56 78",
		"1234\t567",
		"        ",
		"-1234567",
		"1234567.",
	}

	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			lookup := &mockLookup{}
			r := newRouter(t, lookup)

			res := r.Route(context.Background(), router.Utterance{Text: in, Language: "fr-FR"})
			gt.Equal(t, res.Kind, router.KindFreeform)
			gt.Equal(t, res.Outcome, router.OutcomeNone)
			gt.S(t, res.Prompt).Contains(in)
			gt.S(t, res.Prompt).Contains("fr-FR")
			gt.A(t, lookup.calls()).Length(0)
		})
	}
}

func TestFreeformPrompt(t *testing.T) {
	lookup := &mockLookup{}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "hello", Language: "de-DE"})
	gt.Equal(t, res.Prompt, "hello\n\nInstruction: ALWAYS reply in the language with the code: de-DE.")
	gt.A(t, lookup.calls()).Length(0)
}

func TestFreeformDefaultLanguage(t *testing.T) {
	r := newRouter(t, nil)

	res := r.Route(context.Background(), router.Utterance{Text: "hi"})
	gt.S(t, res.Prompt).Contains("en-US")
}

func TestFreeformDoesNotEscapeText(t *testing.T) {
	r := newRouter(t, nil)

	res := r.Route(context.Background(), router.Utterance{Text: `Is "A & B" <ok>?`, Language: "en-US"})
	gt.S(t, res.Prompt).Contains(`Is "A & B" <ok>?`)
}

func TestLookupFormatsTopRecord(t *testing.T) {
	lookup := &mockLookup{records: []knowledge.Record{
		{Fields: []knowledge.Field{
			{Name: "id", Value: "X"},
			{Name: "elo_transport", Value: knowledge.EncodeKey("12345678")},
			{Name: "@search.score", Value: 0.9},
		}},
		{Fields: []knowledge.Field{
			{Name: "id", Value: "SECOND"},
		}},
	}}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "12345678", Language: "de-AT"})
	gt.Equal(t, res.Kind, router.KindLookup)
	gt.Equal(t, res.Outcome, router.OutcomeFound)
	gt.A(t, lookup.calls()).Length(1)
	gt.Equal(t, lookup.calls()[0], "12345678")

	gt.S(t, res.Prompt).Contains("--- Context from knowledge base")
	gt.S(t, res.Prompt).Contains("Record found: id: X, elo_transport: 12345678")
	gt.S(t, res.Prompt).NotContains("@search.score")
	gt.S(t, res.Prompt).NotContains("SECOND")
	gt.S(t, res.Prompt).Contains("transport number '12345678'")
	gt.S(t, res.Prompt).Contains("Summarize")
}

func TestLookupKeepsMalformedTransport(t *testing.T) {
	lookup := &mockLookup{records: []knowledge.Record{
		{Fields: []knowledge.Field{{Name: "elo_transport", Value: "***"}}},
	}}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "87654321"})
	gt.S(t, res.Prompt).Contains("elo_transport: ***")
}

func TestLookupNotFound(t *testing.T) {
	lookup := &mockLookup{}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "12345678"})
	gt.Equal(t, res.Outcome, router.OutcomeNotFound)
	gt.A(t, lookup.calls()).Length(1)
	gt.S(t, res.Prompt).Contains("no information found")
	gt.S(t, res.Prompt).Contains("12345678")
}

func TestLookupErrorBecomesSentinel(t *testing.T) {
	lookup := &mockLookup{err: errors.New("dial tcp: connection refused")}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "12345678"})
	gt.Equal(t, res.Kind, router.KindLookup)
	gt.Equal(t, res.Outcome, router.OutcomeError)
	gt.S(t, res.Prompt).Contains(router.UnreachableNotice)
	gt.S(t, res.Prompt).NotContains("connection refused")
	gt.S(t, res.Prompt).Contains("12345678")
}

func TestLookupPanicBecomesSentinel(t *testing.T) {
	lookup := &mockLookup{panics: true}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "12345678"})
	gt.Equal(t, res.Outcome, router.OutcomeError)
	gt.S(t, res.Prompt).Contains(router.UnreachableNotice)
}

func TestLookupUnconfigured(t *testing.T) {
	r := newRouter(t, nil)

	res := r.Route(context.Background(), router.Utterance{Text: "12345678"})
	gt.Equal(t, res.Kind, router.KindLookup)
	gt.Equal(t, res.Outcome, router.OutcomeUnconfigured)
	gt.S(t, res.Prompt).Contains(router.NotConfiguredNotice)
}

func TestLookupUsesOriginalText(t *testing.T) {
	lookup := &mockLookup{}
	r := newRouter(t, lookup)

	res := r.Route(context.Background(), router.Utterance{Text: "1234 567"})
	gt.Equal(t, res.Kind, router.KindLookup)
	gt.Equal(t, lookup.calls()[0], "1234 567")
}

func TestCustomTemplates(t *testing.T) {
	lookup := &mockLookup{}
	r := newRouter(t, lookup,
		router.WithFreeformTemplate("[{{language}}] {{{message}}}"),
		router.WithLookupTemplate("{{#if (eq outcome \"not_found\")}}MISSING {{key}}{{else}}{{{knowledge}}}{{/if}}"),
	)

	res := r.Route(context.Background(), router.Utterance{Text: "hi", Language: "it-IT"})
	gt.Equal(t, res.Prompt, "[it-IT] hi")

	res = r.Route(context.Background(), router.Utterance{Text: "00000001"})
	gt.Equal(t, res.Prompt, "MISSING 00000001")
}

func TestInvalidTemplateRejected(t *testing.T) {
	_, err := router.NewRouter(nil, zap.NewNop(), router.WithFreeformTemplate("{{#if x}}"))
	gt.Error(t, err)
}

func TestRuleClassifier(t *testing.T) {
	c, err := router.NewRuleClassifier("size(cleaned) == 10 && cleaned.matches('^[0-9]+$')", zap.NewNop())
	gt.NoError(t, err)

	lookup := &mockLookup{}
	r := newRouter(t, lookup, router.WithClassifier(c))

	res := r.Route(context.Background(), router.Utterance{Text: "12345 67890"})
	gt.Equal(t, res.Kind, router.KindLookup)

	res = r.Route(context.Background(), router.Utterance{Text: "12345678"})
	gt.Equal(t, res.Kind, router.KindFreeform)
	gt.A(t, lookup.calls()).Length(1)
}

func TestRuleClassifierRejectsNonBool(t *testing.T) {
	_, err := router.NewRuleClassifier("size(text)", zap.NewNop())
	gt.Error(t, err)
}

func TestRouteConcurrent(t *testing.T) {
	lookup := &mockLookup{}
	r := newRouter(t, lookup)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("%08d", i)
			if i%2 == 0 {
				text = strings.Repeat("x", i+1)
			}
			_ = r.Route(context.Background(), router.Utterance{Text: text})
		}(i)
	}
	wg.Wait()

	gt.A(t, lookup.calls()).Length(16)
}
