package canopy

import (
	"sync"
	"testing"
)

type stubCodec struct{}

func (stubCodec) Decode(b Binding, dc *DecodeContext) (any, error) { return nil, nil }
func (stubCodec) Encode(b Binding, value any, ec *EncodeContext) error { return nil }

func TestCodecRegistryRegisterLookup(t *testing.T) {
	r := NewCodecRegistry()
	if _, ok := r.Lookup(KindInteger); ok {
		t.Fatal("expected a fresh registry to have no codecs registered")
	}

	r.Register(KindInteger, stubCodec{})
	c, ok := r.Lookup(KindInteger)
	if !ok {
		t.Fatal("expected KindInteger to be registered")
	}
	if _, ok := c.(stubCodec); !ok {
		t.Fatalf("got %T, want stubCodec", c)
	}
}

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	for _, kind := range []BindingKind{
		KindInteger, KindBitSet, KindStringFixed, KindStringTerminated,
		KindObject, KindChecksum, KindEvaluated,
	} {
		if _, ok := DefaultRegistry.Lookup(kind); !ok {
			t.Errorf("expected a built-in codec registered for %s", kind)
		}
	}
}

func TestCodecRegistryConcurrentLookupRace(t *testing.T) {
	r := NewCodecRegistry()
	r.Register(KindInteger, stubCodec{})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.Lookup(KindInteger)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.Lookup(KindBitSet)
		}
	}()

	wg.Wait()
}
