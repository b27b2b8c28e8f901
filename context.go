package canopy

import (
	"reflect"
	"sync"
)

// DecodeContext threads the pieces a field's codec, converter, or
// expression needs while a single carrier is being decoded: the shared
// evaluator, the bit reader, the in-progress carrier (#self), and the
// fields already decoded this carrier (for cross-field size/condition
// expressions and for the object-choice #prefix).
type DecodeContext struct {
	Eval   *Evaluator
	Reader *BitReader
	Self   any
	Fields map[string]any
	Prefix any
}

func (c *DecodeContext) evalContext() EvalContext {
	return EvalContext{Self: c.Self, Prefix: c.Prefix, Fields: c.Fields}
}

// EncodeContext is DecodeContext's encode-side counterpart.
type EncodeContext struct {
	Eval   *Evaluator
	Writer *BitWriter
	Self   any
	Fields map[string]any
	Prefix any
}

func (c *EncodeContext) evalContext() EvalContext {
	return EvalContext{Self: c.Self, Prefix: c.Prefix, Fields: c.Fields}
}

// compiledTemplate is the type-erased face of Template[T]. A polymorphic
// Object binding only knows the reflect.Type of the alternative it needs to
// decode into (spec §4.5); this lets it hand that type back to the
// per-type template the same way glint keeps exactly one decoder per type
// (decoder.go doc comment on newDecoder) and dispatch into it without
// reflecting over the nested carrier's own fields.
type compiledTemplate interface {
	decodeNested(r *BitReader, eval *Evaluator) (any, error)
	encodeNested(w *BitWriter, value any, eval *Evaluator) error
	CarrierType() reflect.Type
}

var templateRegistry sync.Map // reflect.Type -> compiledTemplate

func registerTemplate(t reflect.Type, tmpl compiledTemplate) {
	templateRegistry.Store(t, tmpl)
}

func lookupTemplate(t reflect.Type) (compiledTemplate, bool) {
	v, ok := templateRegistry.Load(t)
	if !ok {
		return nil, false
	}
	return v.(compiledTemplate), true
}
