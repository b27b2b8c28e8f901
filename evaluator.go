package canopy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// EvalContext is the activation handed to every compiled expression: the
// in-progress carrier value, the resolved choice prefix (if any), and the
// fields already decoded or set so far this call. #self and #prefix (spec
// §4.7) are the reserved identifiers; everything else a carrier's
// expressions reference comes through fields.
type EvalContext struct {
	Self   any
	Prefix any
	Fields map[string]any
}

func (c EvalContext) activation() map[string]any {
	fields := c.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return map[string]any{
		"self":   c.Self,
		"prefix": c.Prefix,
		"fields": fields,
	}
}

// Evaluator implements the sealed §4.7 contract (evaluate, evaluate_bool,
// evaluate_size) on top of a CEL environment. Compiled programs are cached
// by source text, per the "an implementation may cache compiled ASTs"
// leeway the spec grants; the cache is a sync.Map, generalizing
// glint.DecodeInstructionLookup's mutex-guarded per-type cache (decoder.go)
// to a concurrent map keyed by expression source instead of by type.
type Evaluator struct {
	env     *cel.Env
	program sync.Map // string -> cel.Program
}

// NewEvaluator builds an Evaluator with the reserved #self/#prefix
// variables and a general-purpose fields map for cross-field references.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("self", cel.DynType),
		cel.Variable("prefix", cel.DynType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("canopy: building evaluator environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// substituteReserved rewrites the spec's #self/#prefix tokens, which are
// not valid CEL identifiers, to the plain identifiers the environment
// declares.
func substituteReserved(expr string) string {
	expr = strings.ReplaceAll(expr, "#self", "self")
	expr = strings.ReplaceAll(expr, "#prefix", "prefix")
	return expr
}

func (e *Evaluator) compile(expr string) (cel.Program, error) {
	if p, ok := e.program.Load(expr); ok {
		return p.(cel.Program), nil
	}

	ast, iss := e.env.Compile(substituteReserved(expr))
	if iss != nil && iss.Err() != nil {
		return nil, &EvaluationError{Expression: expr, Reason: iss.Err().Error()}
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, &EvaluationError{Expression: expr, Reason: err.Error()}
	}

	actual, _ := e.program.LoadOrStore(expr, prg)
	return actual.(cel.Program), nil
}

// Evaluate runs expr against ctx and returns its raw result.
func (e *Evaluator) Evaluate(expr string, ctx EvalContext) (any, error) {
	prg, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(ctx.activation())
	if err != nil {
		return nil, &EvaluationError{Expression: expr, Reason: err.Error()}
	}
	return out.Value(), nil
}

// EvaluateBool runs expr and requires a boolean result — used for
// condition-gated converters, object-choice alternatives, and post-process
// directives. Per spec §4.7, an
// empty expression means "always" and the literals "true"/"false" are
// short-circuited rather than handed to the underlying engine, so every
// caller gets the same "no condition" convention without having to guard
// for it itself.
func (e *Evaluator) EvaluateBool(expr string, ctx EvalContext) (bool, error) {
	switch expr {
	case "":
		return true, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	v, err := e.Evaluate(expr, ctx)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &EvaluationError{Expression: expr, Reason: fmt.Sprintf("expected bool result, got %T", v)}
	}
	return b, nil
}

// sizeOrLiteral resolves a binding's width/length: expr, when non-empty,
// is evaluated via EvaluateSize; otherwise the literal falls through
// unchanged. This is the one piece of plumbing every size_expr-capable
// binding (Integer, BitSet, StringFixed, Skip) shares; an Array's SizeExpr
// always goes to EvaluateSize directly.
func (e *Evaluator) sizeOrLiteral(expr string, literal int, ctx EvalContext) (int, error) {
	if expr == "" {
		return literal, nil
	}
	return e.EvaluateSize(expr, ctx)
}

// EvaluateSize runs expr and requires an integer result — used for
// size/length expressions (array element counts, and the bit widths and
// string byte lengths sizeOrLiteral resolves).
func (e *Evaluator) EvaluateSize(expr string, ctx EvalContext) (int, error) {
	v, err := e.Evaluate(expr, ctx)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, &EvaluationError{Expression: expr, Reason: fmt.Sprintf("expected integer size, got %T", v)}
	}
}
