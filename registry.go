package canopy

import "sync"

// Codec implements the wire-level decode/encode for one BindingKind. It
// operates on the already-resolved Binding descriptor and the shared
// decode/encode context; converters, validators, and post-processing are
// applied by the Parser around a Codec call, not inside it (spec §4.3,
// §4.6).
type Codec interface {
	Decode(b Binding, dc *DecodeContext) (any, error)
	Encode(b Binding, value any, ec *EncodeContext) error
}

// CodecRegistry maps a BindingKind to the Codec that implements it.
// Read-mostly after the one-time build phase (spec §5), so lookups take a
// read lock and registration — expected to happen at init time, not during
// a decode — takes a write lock, generalizing glint's implicit
// switch-based dispatch (reflectKindToAssigner, glint.go) into an explicit,
// user-extensible table guarded the same way
// glint.DecodeInstructionLookup guards its cache (decoder.go).
type CodecRegistry struct {
	mu     sync.RWMutex
	codecs map[BindingKind]Codec
}

// NewCodecRegistry returns an empty registry.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{codecs: make(map[BindingKind]Codec)}
}

// Register installs codec as the handler for kind, replacing any existing
// one.
func (r *CodecRegistry) Register(kind BindingKind, codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[kind] = codec
}

// Lookup returns the codec registered for kind, if any.
func (r *CodecRegistry) Lookup(kind BindingKind) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[kind]
	return c, ok
}

// DefaultRegistry is pre-populated with canopy's built-in codecs
// (codec_integer.go, codec_bitset.go, codec_string.go, codec_object.go,
// codec_checksum.go, codec_evaluated.go) at package init time. Skips
// (codec_skip.go) and the Array/List wrapper (codec_collection.go) are run
// by the parser directly and have no registry entry. Callers with custom BindingKinds register
// additional codecs into their own CodecRegistry, or into DefaultRegistry
// directly if they want every Parser to see them.
var DefaultRegistry = NewCodecRegistry()
