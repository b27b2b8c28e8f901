package canopy

import "fmt"

// Visitor is implemented by callers that want to walk a compiled Template's
// field schedule for diagnostic or documentation purposes (SPEC_FULL.md
// SUPPLEMENTED FEATURES "Describe debug walker"). Grounded on
// glint.Visitor/glint.Walker (walker.go): the same visit-each-field-in-order
// shape, but walking a Template's static field plan rather than a decoded
// document — canopy has no separate "document" object once decode has run,
// so the schema itself is the thing worth describing.
type Visitor interface {
	VisitHeader(h Header)
	VisitField(name string, kind BindingKind) error
	VisitCollectionStart(name string, of BindingKind) error
	VisitCollectionEnd(name string) error
}

// ErrSkipDescribe, returned by a Visitor method, tells Describe to continue
// with the next field rather than aborting the walk — the describe-side
// counterpart of glint.ErrSkipVisit (walker.go).
var ErrSkipDescribe = fmt.Errorf("canopy: skip describe")

// Describe walks tmpl's compiled field schedule in declaration order,
// calling visitor for the header and then each field (spec §3 "Template").
// It never touches a BitReader/BitWriter or any carrier value — it is a
// read-only inspection of the schema compileTemplate already validated, not
// a decode.
func Describe[T any](tmpl *Template[T], visitor Visitor) error {
	visitor.VisitHeader(tmpl.header)

	for _, fp := range tmpl.fields {
		if fp.Collection != nil {
			if err := visitor.VisitCollectionStart(fp.Name, fp.Collection.CollectionOf); err != nil {
				if err == ErrSkipDescribe {
					continue
				}
				return err
			}
			if err := visitor.VisitField(fp.Name, fp.Collection.Element.Kind()); err != nil && err != ErrSkipDescribe {
				return err
			}
			if err := visitor.VisitCollectionEnd(fp.Name); err != nil && err != ErrSkipDescribe {
				return err
			}
			continue
		}

		if err := visitor.VisitField(fp.Name, fp.Primary.Kind()); err != nil {
			if err == ErrSkipDescribe {
				continue
			}
			return err
		}
	}

	return nil
}

// TextVisitor renders a template as an indented plain-text field listing —
// the minimal "something printable" need glint's printer.go served for
// decoded documents, without reviving the application-layer pretty-printer
// spec.md places out of scope (DESIGN.md "Dropped/adapted teacher modules").
type TextVisitor struct {
	lines []string
}

func (v *TextVisitor) VisitHeader(h Header) {
	if len(h.StartMarkers) == 0 && h.EndMarker == "" {
		return
	}
	v.lines = append(v.lines, fmt.Sprintf("header: start=%v end=%q", h.StartMarkers, h.EndMarker))
}

func (v *TextVisitor) VisitField(name string, kind BindingKind) error {
	v.lines = append(v.lines, fmt.Sprintf("  %s: %s", name, kind))
	return nil
}

func (v *TextVisitor) VisitCollectionStart(name string, of BindingKind) error {
	v.lines = append(v.lines, fmt.Sprintf("  %s: %s[", name, of))
	return nil
}

func (v *TextVisitor) VisitCollectionEnd(string) error {
	v.lines = append(v.lines, "  ]")
	return nil
}

// String renders the accumulated lines, one field per line.
func (v *TextVisitor) String() string {
	out := ""
	for _, l := range v.lines {
		out += l + "\n"
	}
	return out
}
