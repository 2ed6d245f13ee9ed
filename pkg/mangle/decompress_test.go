package mangle_test

import (
	"reflect"
	"testing"

	"go.mangle.dev/v0mangle/pkg/mangle"
)

func TestDecompressRoundTripsEveryFixture(t *testing.T) {
	for name, sym := range fixtures() {
		t.Run(name, func(t *testing.T) {
			compressed := mangle.Compress(sym)
			decompressed, err := mangle.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress(Compress(x)) failed: %v", err)
			}
			if !reflect.DeepEqual(decompressed, sym) {
				t.Fatalf("Decompress(Compress(x)) != x\n got:  %#v\n want: %#v", decompressed, sym)
			}
		})
	}
}

func TestDecompressTypeFallsBackThroughAbsPathAndPathPrefix(t *testing.T) {
	// std::Widget, then a second occurrence of NamedType(std::Widget) used in
	// type position: since that path has no generic args it shares its slot
	// with the path-prefix, so a type-position back-reference resolving the
	// second occurrence must fall back from the (empty) type dictionary
	// through the abs-path dictionary to the path-prefix one, per spec.md §4.4.
	// Compress spells the second occurrence as a path-prefix back-reference
	// inside "N...E", so the type-position form is also built by hand below.
	widget := func() *mangle.NamedType {
		return &mangle.NamedType{Path: &mangle.Path{Prefix: node(stdCrate(), "Widget")}}
	}
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{
		&mangle.TupleType{Elems: []mangle.Type{widget(), widget()}},
	}}}

	compressed := mangle.Compress(sym)
	decompressed, err := mangle.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress(Compress(x)) failed: %v", err)
	}
	if !reflect.DeepEqual(decompressed, sym) {
		t.Fatalf("Decompress(Compress(x)) != x\n got:  %#v\n want: %#v", decompressed, sym)
	}

	// Slot 0 is std, slot 1 is std::Widget; TypeBackref 1 is in type position.
	byHand := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{
		&mangle.TupleType{Elems: []mangle.Type{
			&mangle.NamedType{Path: &mangle.Path{Prefix: node(&mangle.PathBackref{Index: 0}, "Widget")}},
			&mangle.TypeBackref{Index: 1},
		}},
	}}}
	decompressed, err = mangle.Decompress(byHand)
	if err != nil {
		t.Fatalf("Decompress of a type-position back-reference failed: %v", err)
	}
	if !reflect.DeepEqual(decompressed, sym) {
		t.Fatalf("type-position back-reference did not expand to the path-prefix entry\n got:  %#v\n want: %#v", decompressed, sym)
	}
}

func TestDecompressUnresolvedBackrefIsDictionaryError(t *testing.T) {
	cases := []*mangle.Symbol{
		{Path: &mangle.AbsBackref{Index: 0}},
		{Path: &mangle.Path{Prefix: &mangle.PathBackref{Index: 3}}},
		{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{&mangle.TypeBackref{Index: 9}}}},
	}
	for _, sym := range cases {
		_, err := mangle.Decompress(sym)
		if err == nil {
			t.Fatalf("expected a dictionary error for %#v", sym)
		}
		me, ok := err.(*mangle.Error)
		if !ok || me.Kind != mangle.KindDictionary {
			t.Fatalf("expected a KindDictionary *mangle.Error, got %v", err)
		}
	}
}

func TestDecompressRejectsExcessiveNesting(t *testing.T) {
	var t0 mangle.Type = i32()
	for i := 0; i < 5000; i++ {
		t0 = &mangle.RefType{Elem: t0}
	}
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{t0}}}

	_, err := mangle.Decompress(sym)
	if err == nil {
		t.Fatal("expected the expansion-depth guard to reject deeply nested input")
	}
}
