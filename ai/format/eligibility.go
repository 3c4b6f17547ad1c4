package format

import (
	"log/slog"
	"unicode/utf8"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// CELEligibility evaluates a boolean CEL expression over the content.
// The expression sees:
//
//	content  string  the raw response text
//	length   int     its length in characters
//	scenario bool    a scenario keyword matched
//	hr       bool    an HR keyword matched
//
// Example: "length >= 80 && (scenario || hr)".
type CELEligibility struct {
	expr    string
	program cel.Program
}

// NewCELEligibility compiles expr. The expression must produce a bool.
func NewCELEligibility(expr string) (*CELEligibility, error) {
	env, err := cel.NewEnv(
		cel.Variable("content", cel.StringType),
		cel.Variable("length", cel.IntType),
		cel.Variable("scenario", cel.BoolType),
		cel.Variable("hr", cel.BoolType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid eligibility expression: %s", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("eligibility expression must be bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build CEL program")
	}
	return &CELEligibility{expr: expr, program: program}, nil
}

// Eligible implements Eligibility. Evaluation errors count as not eligible.
func (c *CELEligibility) Eligible(content string) bool {
	out, _, err := c.program.Eval(map[string]any{
		"content":  content,
		"length":   int64(utf8.RuneCountInString(content)),
		"scenario": scenarioKeywords.MatchString(content),
		"hr":       hrKeywords.MatchString(content),
	})
	if err != nil {
		slog.Warn("eligibility expression failed", "expr", c.expr, "error", err)
		return false
	}
	ok, _ := out.Value().(bool)
	return ok
}

// String returns the source expression.
func (c *CELEligibility) String() string {
	return c.expr
}
