// Package mangle implements the encoder/decoder for the v0 symbol mangling
// scheme: a parser from mangled bytes to a structured AST, a mangler back to
// bytes, a back-reference compressor/decompressor pair, a direct demangler
// that fuses parsing and pretty-printing in one pass, and the punycode-style
// identifier transform used for non-ASCII names.
package mangle

// ----------------------------------------------------------------------------
// General information

// This file declares the AST shape shared by every other file in the package:
// mangle.go walks it to produce bytes, parse.go builds it from bytes, compress.go
// and decompress.go build rewritten copies of it (substituting/expanding
// back-references) and print.go renders it as human-readable text.
//
// The tree is immutable once built: no node is ever mutated after construction,
// only replaced wholesale by a new node (e.g. a Type replaced by a *TypeBackref).
// Every variant is implemented on a pointer receiver, so two equal-looking nodes
// built independently are distinct references while two nodes obtained by
// revisiting the very same construction step are "==" as interface values; this
// is exactly the pointer-identity compress.go needs for its required short-circuit
// (spec.md §4.2: "MUST short-circuit when children compressed to the same
// reference as the originals").

// ----------------------------------------------------------------------------
// Identifiers

// NamespaceTag distinguishes the three identifier namespaces the grammar supports.
type NamespaceTag uint8

const (
	NSType    NamespaceTag = iota // the default, no tag letter emitted
	NSValue                       // tag letter 'V'
	NSClosure                     // tag letter 'C', Text is always empty by convention
)

// Identifier is the triple (text, namespace-tag, disambiguator) of spec.md §3.
//
// Closure identifiers carry an empty Text and always render their Disambiguator,
// even when it is 0 (see print.go). Disambiguator 0 means "absent" for every
// other namespace and is never emitted in the mangled form.
type Identifier struct {
	Text          string
	NS            NamespaceTag
	Disambiguator uint64
}

// ----------------------------------------------------------------------------
// Path prefixes

// PathPrefix is the marker interface for the five path-prefix variants of
// spec.md §3: crate root, inherent-impl scope, trait-impl scope, node
// (parent + identifier) and back-reference. Every variant is a pointer type.
type PathPrefix interface{ isPathPrefix() }

// CrateRoot is the outermost path prefix: a crate name plus its disambiguator
// string, jointly mangled as a single length-prefixed identifier "name_disambiguator".
type CrateRoot struct {
	Name          string
	Disambiguator string
}

// InherentImpl wraps the self-type of an `impl Type { ... }` block.
//
// It never allocates its own back-reference slot (invariant 4 in spec.md §3):
// the self-type it wraps already did, and the compressor/decompressor/direct
// demangler must all honor that sharing.
type InherentImpl struct{ SelfType Type }

// TraitImpl is the path-prefix of `impl Trait for Type { ... }`.
//
// Disambiguator is the numeric suffix used to distinguish multiple trait impls
// for the same (Type, Trait) pair in the same crate; 0 means "absent".
type TraitImpl struct {
	SelfType      Type
	Trait         AbsPath // always present; the "X" production requires it (inherent impls use "M" instead, see InherentImpl)
	Disambiguator uint64
}

// PathNode is "parent::ident": a path prefix extended by one more identifier.
type PathNode struct {
	Parent PathPrefix
	Ident  Identifier
}

// PathBackref is a back-reference appearing in path-prefix position.
type PathBackref struct{ Index uint64 }

func (*CrateRoot) isPathPrefix()    {}
func (*InherentImpl) isPathPrefix() {}
func (*TraitImpl) isPathPrefix()    {}
func (*PathNode) isPathPrefix()     {}
func (*PathBackref) isPathPrefix()  {}

// ----------------------------------------------------------------------------
// Absolute paths

// AbsPath is the marker interface for "N prefix args E" and back-reference.
type AbsPath interface{ isAbsPath() }

// Path is a path-prefix plus a possibly-empty ordered list of generic-argument types.
type Path struct {
	Prefix PathPrefix
	Args   []Type
}

// AbsBackref is a back-reference appearing in absolute-path position.
type AbsBackref struct{ Index uint64 }

func (*Path) isAbsPath()       {}
func (*AbsBackref) isAbsPath() {}

// ----------------------------------------------------------------------------
// Types

// Type is the marker interface for the closed sum of type forms in spec.md §3.
type Type interface{ isType() }

// BasicLetter is one of the fixed single-letter basic type tags in spec.md §6.
type BasicLetter byte

// BasicType is one of the built-in primitive types, identified by its mangled letter.
type BasicType struct{ Letter BasicLetter }

// RefType is a shared reference `&T`.
type RefType struct{ Elem Type }

// RefMutType is an exclusive reference `&mut T`.
type RefMutType struct{ Elem Type }

// ConstPtrType is a raw const pointer `*const T`.
type ConstPtrType struct{ Elem Type }

// MutPtrType is a raw mutable pointer `*mut T`.
type MutPtrType struct{ Elem Type }

// ArrayType is `[T; N]`; Len is nil when the length is absent from the mangled form.
type ArrayType struct {
	Elem Type
	Len  *uint64
}

// TupleType is an ordered, possibly-empty list of element types `(T, U, ...)`.
type TupleType struct{ Elems []Type }

// NamedType wraps an absolute path used in type position.
type NamedType struct{ Path AbsPath }

// GenericParamType is a bare generic-parameter reference, identified by name.
//
// Per invariant 3 of spec.md §3 this is never substituted by the compressor:
// it mangles shorter than any back-reference that could replace it.
type GenericParamType struct{ Ident Identifier }

// FuncType is `fn(params...) -> ret`, optionally unsafe and/or tagged with an ABI.
type FuncType struct {
	Unsafe bool
	ABI    ABI
	Params []Type
	Return Type // nil when absent
}

// TypeBackref is a back-reference appearing in type position.
type TypeBackref struct{ Index uint64 }

func (*BasicType) isType()        {}
func (*RefType) isType()          {}
func (*RefMutType) isType()       {}
func (*ConstPtrType) isType()     {}
func (*MutPtrType) isType()       {}
func (*ArrayType) isType()        {}
func (*TupleType) isType()        {}
func (*NamedType) isType()        {}
func (*GenericParamType) isType() {}
func (*FuncType) isType()         {}
func (*TypeBackref) isType()      {}

// ----------------------------------------------------------------------------
// ABI

// ABI is either native (Kind == "") or an explicitly tagged ABI such as "c".
// The grammar permits further kinds; unknown kind letters are a structural error.
type ABI struct{ Kind string }

// NativeABI is the implicit, untagged calling convention.
var NativeABI = ABI{}

// CABI is the explicitly tagged C calling convention ('K' + 'c' in the grammar).
var CABI = ABI{Kind: "c"}

// ----------------------------------------------------------------------------
// Symbols

// Symbol is the top-level mangled entity: an absolute path plus an optional
// instantiating-crate path-prefix rendered as the "@ crate" suffix in verbose mode.
type Symbol struct {
	Path               AbsPath
	InstantiatingCrate PathPrefix // nil when absent
}
