package cel

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Variables available to rules
const (
	VarText     = "text"
	VarCleaned  = "cleaned"
	VarLanguage = "language"
)

// costLimit caps the work a single rule evaluation may do
const costLimit = 10000

// Input is what a rule sees of an utterance
type Input struct {
	Text     string
	Cleaned  string
	Language string
}

// Rule is a compiled boolean classification rule
type Rule struct {
	source  string
	program cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(VarText, cel.StringType),
		cel.Variable(VarCleaned, cel.StringType),
		cel.Variable(VarLanguage, cel.StringType),
		cel.Function("isDigits",
			cel.MemberOverload("string_is_digits", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s, ok := v.(types.String)
					if !ok {
						return types.MaybeNoSuchOverloadErr(v)
					}
					return types.Bool(isDigits(string(s)))
				}),
			),
		),
	)
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

// Compile parses and checks source, which must evaluate to a bool
func Compile(source string) (*Rule, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("rule is empty")
	}

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule: %w", issues.Err())
	}

	if out := ast.OutputType().String(); out != cel.BoolType.String() {
		return nil, fmt.Errorf("rule must return bool, got %s", out)
	}

	program, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	return &Rule{source: source, program: program}, nil
}

// Match evaluates the rule against in
func (r *Rule) Match(ctx context.Context, in Input) (bool, error) {
	out, _, err := r.program.ContextEval(ctx, map[string]interface{}{
		VarText:     in.Text,
		VarCleaned:  in.Cleaned,
		VarLanguage: in.Language,
	})
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule returned %s, not bool", out.Type().TypeName())
	}

	return matched, nil
}

// String returns the rule source
func (r *Rule) String() string {
	return r.source
}
