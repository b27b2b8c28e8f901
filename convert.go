package canopy

// Converter turns a decoded physical (wire-shaped) value into the logical
// value a carrier field holds, and back again on encode (spec §3, §4.8).
// The shape mirrors buf.build/go/protovalidate's Validate(value) error
// contract (yaninyzwitty-hyperpb-go/example_test.go) one level down: a
// single-value transform rather than a whole-message validation, but the
// same "plug an expression-backed check into the codec path" idea.
type Converter interface {
	Decode(physical any) (logical any, err error)
	Encode(logical any) (physical any, err error)
}

// ConverterFunc adapts a pair of plain functions to the Converter
// interface.
type ConverterFunc struct {
	DecodeFunc func(physical any) (any, error)
	EncodeFunc func(logical any) (any, error)
}

func (f ConverterFunc) Decode(physical any) (any, error) { return f.DecodeFunc(physical) }
func (f ConverterFunc) Encode(logical any) (any, error)  { return f.EncodeFunc(logical) }

// Validator rejects a decoded or about-to-be-encoded value (spec §4.8).
type Validator interface {
	IsValid(value any) bool
}

// ValidatorFunc adapts a plain predicate to the Validator interface.
type ValidatorFunc func(value any) bool

func (f ValidatorFunc) IsValid(value any) bool { return f(value) }

// ConverterChoice is one condition-gated alternative in a converter
// selection list: Converter applies when Condition evaluates true (or
// always, if Condition is empty).
type ConverterChoice struct {
	Condition string
	Converter Converter
}

// ConverterChoices resolves the first alternative whose condition holds,
// first-true-wins (the same rule §4.5 uses for object-choice resolution).
type ConverterChoices []ConverterChoice

// Resolve picks the first matching Converter, or nil if none match and
// there is no unconditional fallback. An empty Condition always matches
// (spec §4.7's "empty string = true"), handled uniformly by EvaluateBool
// rather than special-cased here.
func (cs ConverterChoices) Resolve(eval *Evaluator, ctx EvalContext) (Converter, error) {
	for _, c := range cs {
		ok, err := eval.EvaluateBool(c.Condition, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return c.Converter, nil
		}
	}
	return nil, nil
}
