package mangle_test

import (
	"testing"

	"go.mangle.dev/v0mangle/pkg/mangle"
)

func i32() *mangle.BasicType { return &mangle.BasicType{Letter: mangle.BasicLetter('l')} }
func u8() *mangle.BasicType  { return &mangle.BasicType{Letter: mangle.BasicLetter('h')} }

func stdCrate() *mangle.CrateRoot {
	return &mangle.CrateRoot{Name: "std", Disambiguator: "0"}
}

func node(parent mangle.PathPrefix, text string) *mangle.PathNode {
	return &mangle.PathNode{Parent: parent, Ident: mangle.Identifier{Text: text}}
}

// vecOfI32 builds the AST for std::vec::Vec<i32>.
func vecOfI32() *mangle.Symbol {
	prefix := node(node(stdCrate(), "vec"), "Vec")
	return &mangle.Symbol{Path: &mangle.Path{Prefix: prefix, Args: []mangle.Type{i32()}}}
}

func TestMangleMinimalSymbol(t *testing.T) {
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate()}}

	got := mangle.Mangle(sym)
	if got[0] != '_' || got[1] != 'R' {
		t.Fatalf("mangled form must start with the _R marker, got %q", got)
	}

	parsed, err := mangle.Parse(got)
	if err != nil {
		t.Fatalf("Parse(Mangle(x)) failed: %v", err)
	}
	if mangle.PrettyPrint(parsed, false) != "std" {
		t.Fatalf("expected pretty-printed form %q, got %q", "std", mangle.PrettyPrint(parsed, false))
	}
}

func TestMangleNestedGenericPath(t *testing.T) {
	sym := vecOfI32()
	got := mangle.Mangle(sym)

	parsed, err := mangle.Parse(got)
	if err != nil {
		t.Fatalf("Parse(Mangle(x)) failed: %v", err)
	}

	want := "std::vec::Vec<i32>"
	if pp := mangle.PrettyPrint(parsed, false); pp != want {
		t.Fatalf("expected %q, got %q", want, pp)
	}
}

func TestMangleTraitImpl(t *testing.T) {
	// <alloc::Box<T> as core::ops::Drop>::drop
	selfType := &mangle.NamedType{Path: &mangle.Path{
		Prefix: node(&mangle.CrateRoot{Name: "alloc", Disambiguator: "0"}, "Box"),
		Args:   []mangle.Type{&mangle.GenericParamType{Ident: mangle.Identifier{Text: "T"}}},
	}}
	trait := &mangle.Path{Prefix: node(node(&mangle.CrateRoot{Name: "core", Disambiguator: "0"}, "ops"), "Drop")}
	impl := &mangle.TraitImpl{SelfType: selfType, Trait: trait}
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: node(impl, "drop")}}

	got := mangle.Mangle(sym)
	parsed, err := mangle.Parse(got)
	if err != nil {
		t.Fatalf("Parse(Mangle(x)) failed: %v", err)
	}

	want := "<alloc::Box<T> as core::ops::Drop>::drop"
	if pp := mangle.PrettyPrint(parsed, false); pp != want {
		t.Fatalf("expected %q, got %q", want, pp)
	}
}

func TestMangleInherentImpl(t *testing.T) {
	selfType := &mangle.NamedType{Path: &mangle.Path{Prefix: node(stdCrate(), "Widget")}}
	impl := &mangle.InherentImpl{SelfType: selfType}
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: node(impl, "new")}}

	got := mangle.Mangle(sym)
	parsed, err := mangle.Parse(got)
	if err != nil {
		t.Fatalf("Parse(Mangle(x)) failed: %v", err)
	}
	if pp := mangle.PrettyPrint(parsed, false); pp != "<std::Widget>::new" {
		t.Fatalf("expected %q, got %q", "<std::Widget>::new", pp)
	}
}

func TestMangleArrayBoundary(t *testing.T) {
	withLen := &mangle.ArrayType{Elem: i32(), Len: func() *uint64 { n := uint64(4); return &n }()}
	withoutLen := &mangle.ArrayType{Elem: i32()}

	for _, tc := range []struct {
		name string
		t    mangle.Type
		want string
	}{
		{"with length", withLen, "[i32; 4]"},
		{"without length", withoutLen, "[i32]"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sym := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{tc.t}}}
			got := mangle.Mangle(sym)
			parsed, err := mangle.Parse(got)
			if err != nil {
				t.Fatalf("Parse(Mangle(x)) failed: %v", err)
			}
			if pp := mangle.PrettyPrint(parsed, false); pp != "std<"+tc.want+">" {
				t.Fatalf("expected %q, got %q", "std<"+tc.want+">", pp)
			}
		})
	}
}

func TestMangleFunctionNoReturn(t *testing.T) {
	fn := &mangle.FuncType{Params: []mangle.Type{i32(), u8()}}
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{fn}}}

	got := mangle.Mangle(sym)
	parsed, err := mangle.Parse(got)
	if err != nil {
		t.Fatalf("Parse(Mangle(x)) failed: %v", err)
	}
	if pp := mangle.PrettyPrint(parsed, false); pp != "std<fn(i32, u8)>" {
		t.Fatalf("expected %q, got %q", "std<fn(i32, u8)>", pp)
	}
}

func TestMangleUnsafeExternFunction(t *testing.T) {
	ret := i32()
	fn := &mangle.FuncType{Unsafe: true, ABI: mangle.CABI, Params: []mangle.Type{u8()}, Return: ret}
	sym := &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{fn}}}

	got := mangle.Mangle(sym)
	parsed, err := mangle.Parse(got)
	if err != nil {
		t.Fatalf("Parse(Mangle(x)) failed: %v", err)
	}
	want := `std<unsafe extern "C" fn(u8) -> i32>`
	if pp := mangle.PrettyPrint(parsed, false); pp != want {
		t.Fatalf("expected %q, got %q", want, pp)
	}
}
