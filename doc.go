// Package canopy implements the core of a declarative, schema-driven
// binary message codec.
//
// A carrier type (an ordinary Go struct) describes its wire layout through
// a hand-written Schema function rather than reflection or struct tags: a
// Header plus an ordered list of field plans, each combining a physical
// Binding (what bits to read/write) with optional converters, a validator,
// skip/alignment directives, and post-processing. Templates compiled from a
// Schema are cached per carrier type and drive a bidirectional
// Parser[T].Decode/Encode across the whole message, including checksums,
// evaluated (synthetic) fields, and polymorphic object-choice fields.
//
// canopy does not provide command-line entry points, configuration-file
// loading, or reflection-based scanning of carrier types; all of that lives
// outside the core.
package canopy
