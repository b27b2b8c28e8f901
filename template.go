package canopy

import (
	"fmt"
	"reflect"
)

// Template is the compiled, validated field schedule for carrier type T
// (spec §3 "Template", §4.4). It is computed once per carrier type, cached
// by type identity in templateRegistry (context.go), and drives both the
// top-level Parser[T] and any nested decode reached through a polymorphic
// Object binding (spec §3 "Lifecycle").
type Template[T any] struct {
	header      Header
	fields      []*FieldPlan
	evaluated   []int // indices into fields, in declaration order
	postProcess []int
	checksumIdx int // -1 if the template has no checksum field
	carrierType reflect.Type
	registry    *CodecRegistry
}

// CarrierType reports the Go type this template decodes into/encodes from,
// satisfying the compiledTemplate contract (context.go) that ObjectBinding
// resolution uses to find a nested alternative's template.
func (t *Template[T]) CarrierType() reflect.Type { return t.carrierType }

// RegisterCarrier compiles schema() into a Template[T], registers it by
// carrier type identity, and returns it. It is idempotent: calling it again
// for the same T returns the already-compiled template without recompiling
// (spec §3 "Lifecycle", §6 "TemplateCache.get_or_compile"). Every carrier
// type that can appear as an object-choice alternative must be registered
// this way before any field referencing it is decoded or encoded.
func RegisterCarrier[T any](schema func() *SchemaDef[T]) (*Template[T], error) {
	return RegisterCarrierWithRegistry(schema, DefaultRegistry)
}

// RegisterCarrierWithRegistry is RegisterCarrier against a caller-supplied
// CodecRegistry instead of DefaultRegistry (spec §6
// "CodecRegistry.register", for callers who don't want custom codecs
// visible to every Parser in the process).
func RegisterCarrierWithRegistry[T any](schema func() *SchemaDef[T], registry *CodecRegistry) (*Template[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)

	if existing, ok := lookupTemplate(typ); ok {
		tmpl, ok := existing.(*Template[T])
		if !ok {
			return nil, fmt.Errorf("canopy: carrier type %s already registered against a different template instantiation", typ)
		}
		return tmpl, nil
	}

	tmpl, err := compileTemplate[T](schema(), registry, typ)
	if err != nil {
		return nil, err
	}
	registerTemplate(typ, tmpl)
	return tmpl, nil
}

// compileTemplate validates def per spec §4.4 steps 3-6 and builds the
// ordered field schedule, evaluated/post-processed index lists, and
// checksum plan.
func compileTemplate[T any](def *SchemaDef[T], registry *CodecRegistry, typ reflect.Type) (*Template[T], error) {
	carrier := typ.String()

	if len(def.Fields) == 0 {
		return nil, &SchemaError{Carrier: carrier, Class: ErrEmptyFieldSchedule, Reason: "carrier declares no fields"}
	}

	tmpl := &Template[T]{
		header:      def.Header,
		fields:      def.Fields,
		checksumIdx: -1,
		carrierType: typ,
		registry:    registry,
	}

	wireBearing := 0
	for i, fp := range def.Fields {
		if fp.skipAfterPrimary {
			return nil, &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrBadAnnotationOrder,
				Reason: "a skip directive was declared after this field's primary binding"}
		}

		if fp.Primary == nil && fp.Collection == nil {
			return nil, &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrUnresolvedCodec,
				Reason: "field has no primary binding, collection wrapper, evaluated expression, or checksum"}
		}

		kind := fieldKind(fp)

		switch kind {
		case KindEvaluated:
			tmpl.evaluated = append(tmpl.evaluated, i)
		case KindChecksum:
			if tmpl.checksumIdx != -1 {
				return nil, &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrDuplicateChecksum,
					Reason: fmt.Sprintf("a second checksum field cannot follow %q", def.Fields[tmpl.checksumIdx].Name)}
			}
			tmpl.checksumIdx = i
			wireBearing++
		default:
			elementKind := kind
			if fp.Collection != nil {
				elementKind = fp.Collection.Element.Kind()
			}
			if _, ok := registry.Lookup(elementKind); !ok {
				return nil, &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrUnresolvedCodec,
					Reason: fmt.Sprintf("no codec registered for binding kind %s", elementKind)}
			}
			if err := validateCharset(fp); err != nil {
				return nil, &SchemaError{Carrier: carrier, Field: fp.Name, Class: ErrInvalidCharset, Reason: err.Error()}
			}
			wireBearing++
		}

		if fp.PostProcess != nil {
			tmpl.postProcess = append(tmpl.postProcess, i)
		}
	}

	if wireBearing == 0 {
		return nil, &SchemaError{Carrier: carrier, Class: ErrEmptyFieldSchedule, Reason: "carrier has zero wire-bearing fields"}
	}

	return tmpl, nil
}

// fieldKind reports the BindingKind driving a field plan's wire presence:
// the collection wrapper's own kind (Array/List) when present, otherwise
// the primary binding's kind.
func fieldKind(fp *FieldPlan) BindingKind {
	if fp.Collection != nil {
		return fp.Collection.CollectionOf
	}
	return fp.Primary.Kind()
}

func validateCharset(fp *FieldPlan) error {
	switch b := fp.Primary.(type) {
	case StringFixedBinding:
		_, err := charsetEncoding(b.Charset)
		return err
	case StringTerminatedBinding:
		_, err := charsetEncoding(b.Charset)
		return err
	}
	return nil
}
