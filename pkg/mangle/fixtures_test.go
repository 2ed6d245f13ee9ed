package mangle_test

import "go.mangle.dev/v0mangle/pkg/mangle"

// This file collects the AST fixtures shared across parse_test.go,
// compress_test.go, decompress_test.go and demangle_test.go so every test
// file exercises the exact same trees rather than hand-rolling slightly
// different ones per file.

func u64ptr(n uint64) *uint64 { return &n }

func closureNode(parent mangle.PathPrefix, disambiguator uint64) *mangle.PathNode {
	return &mangle.PathNode{Parent: parent, Ident: mangle.Identifier{NS: mangle.NSClosure, Disambiguator: disambiguator}}
}

func traitImplSymbol() *mangle.Symbol {
	selfType := &mangle.NamedType{Path: &mangle.Path{
		Prefix: node(&mangle.CrateRoot{Name: "alloc", Disambiguator: "0"}, "Box"),
		Args:   []mangle.Type{&mangle.GenericParamType{Ident: mangle.Identifier{Text: "T"}}},
	}}
	trait := &mangle.Path{Prefix: node(node(&mangle.CrateRoot{Name: "core", Disambiguator: "0"}, "ops"), "Drop")}
	impl := &mangle.TraitImpl{SelfType: selfType, Trait: trait}
	return &mangle.Symbol{Path: &mangle.Path{Prefix: node(impl, "drop")}}
}

func inherentImplSymbol() *mangle.Symbol {
	selfType := &mangle.NamedType{Path: &mangle.Path{Prefix: node(stdCrate(), "Widget")}}
	impl := &mangle.InherentImpl{SelfType: selfType}
	return &mangle.Symbol{Path: &mangle.Path{Prefix: node(impl, "new")}}
}

// tupleOfRepeatedString builds a tuple containing the same named type twice,
// the back-reference-reuse shape of spec.md §8 scenario 4.
func tupleOfRepeatedString() *mangle.Symbol {
	str := func() *mangle.NamedType {
		return &mangle.NamedType{Path: &mangle.Path{
			Prefix: node(node(stdCrate(), "string"), "String"),
		}}
	}
	tuple := &mangle.TupleType{Elems: []mangle.Type{str(), str()}}
	return &mangle.Symbol{Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{tuple}}}
}

func nonASCIIIdentifierSymbol() *mangle.Symbol {
	return &mangle.Symbol{Path: &mangle.Path{Prefix: node(stdCrate(), "ρυστ")}}
}

func closureSymbol(disambiguator uint64) *mangle.Symbol {
	return &mangle.Symbol{Path: &mangle.Path{Prefix: closureNode(stdCrate(), disambiguator)}}
}

func instantiatingCrateSymbol() *mangle.Symbol {
	return &mangle.Symbol{
		Path:               &mangle.Path{Prefix: node(stdCrate(), "main")},
		InstantiatingCrate: &mangle.CrateRoot{Name: "my_crate", Disambiguator: "abcd1234"},
	}
}

// fixtures returns every named AST this package's tests round-trip through
// Mangle/Parse/Compress/Decompress/DirectDemangle.
func fixtures() map[string]*mangle.Symbol {
	return map[string]*mangle.Symbol{
		"minimal":             {Path: &mangle.Path{Prefix: stdCrate()}},
		"nested_generic_path":  vecOfI32(),
		"trait_impl":          traitImplSymbol(),
		"inherent_impl":       inherentImplSymbol(),
		"array_with_len":      {Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{&mangle.ArrayType{Elem: i32(), Len: u64ptr(4)}}}},
		"array_without_len":   {Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{&mangle.ArrayType{Elem: i32()}}}},
		"tuple":               {Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{&mangle.TupleType{Elems: []mangle.Type{i32(), u8()}}}}},
		"func_no_return":      {Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{&mangle.FuncType{Params: []mangle.Type{i32(), u8()}}}}},
		"func_unsafe_extern":  {Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{&mangle.FuncType{Unsafe: true, ABI: mangle.CABI, Params: []mangle.Type{u8()}, Return: i32()}}}},
		"repeated_string_tuple": tupleOfRepeatedString(),
		"nonascii_identifier":  nonASCIIIdentifierSymbol(),
		"closure_disambig1":    closureSymbol(1),
		"closure_disambig0":    closureSymbol(0),
		"instantiating_crate":  instantiatingCrateSymbol(),
		"refs_and_pointers": {Path: &mangle.Path{Prefix: stdCrate(), Args: []mangle.Type{
			&mangle.RefType{Elem: i32()},
			&mangle.RefMutType{Elem: i32()},
			&mangle.ConstPtrType{Elem: u8()},
			&mangle.MutPtrType{Elem: u8()},
		}}},
	}
}
