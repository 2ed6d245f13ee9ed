package mangle

import "strings"

// ----------------------------------------------------------------------------
// Compressor

// compressor holds the three logical dictionaries of spec.md §9 — path-prefix,
// absolute-path, and type — behind one shared index counter, so that a single
// "S<i>_" token can address any of the three depending on where it is found.
// Each dictionary is keyed on the node's canonical mangled bytes (the same
// write* helpers mangle.go uses to produce final output), which is exactly
// the "structure, identifiers, flags, and child identities" equality test
// spec.md §4.2 demands: two nodes mangle identically iff they are equal by
// that definition.
type compressor struct {
	pathPrefixDict map[string]uint64
	absPathDict    map[string]uint64
	typeDict       map[string]uint64
	next           uint64
}

func newCompressor() *compressor {
	return &compressor{
		pathPrefixDict: make(map[string]uint64),
		absPathDict:    make(map[string]uint64),
		typeDict:       make(map[string]uint64),
	}
}

// Compress rewrites sym, substituting every eligible repeated subtree with a
// back-reference node. The instantiating-crate suffix is compressed after the
// path so that, per spec.md §8 scenario 2, a crate prefix repeated there can
// resolve against entries the path itself already populated.
func Compress(sym *Symbol) *Symbol {
	c := newCompressor()

	path := c.compressAbsPath(sym.Path)

	var crate PathPrefix
	if sym.InstantiatingCrate != nil {
		crate = c.compressPathPrefix(sym.InstantiatingCrate)
	}

	if path == sym.Path && crate == sym.InstantiatingCrate {
		return sym
	}
	return &Symbol{Path: path, InstantiatingCrate: crate}
}

func (c *compressor) compressPathPrefix(p PathPrefix) PathPrefix {
	switch v := p.(type) {
	case *PathBackref:
		return p

	case *InherentImpl:
		// Rule 4: never allocates its own slot; the self-type already did.
		self := c.compressType(v.SelfType)
		node := v
		if self != v.SelfType {
			node = &InherentImpl{SelfType: self}
		}
		return node
	}

	// Every remaining variant (CrateRoot, TraitImpl, PathNode) is keyed on p
	// exactly as it was handed to us, before any child substitution: keying
	// the substituted node instead would make two occurrences of the same
	// original subtree hash differently once the first one's children have
	// already been rewritten into back-references, so the second occurrence
	// would never be recognized as a repeat.
	if idx, ok := c.pathPrefixDict[pathPrefixKey(p)]; ok {
		return &PathBackref{Index: idx}
	}

	var node PathPrefix
	switch v := p.(type) {
	case *CrateRoot:
		node = v

	case *TraitImpl:
		self := c.compressType(v.SelfType)
		trait := c.compressAbsPath(v.Trait)
		node = v
		if self != v.SelfType || trait != v.Trait {
			node = &TraitImpl{SelfType: self, Trait: trait, Disambiguator: v.Disambiguator}
		}

	case *PathNode:
		parent := c.compressPathPrefix(v.Parent)
		node = v
		if parent != v.Parent {
			node = &PathNode{Parent: parent, Ident: v.Ident}
		}

	default:
		panic("mangle: unknown path-prefix node in compressor")
	}

	c.pathPrefixDict[pathPrefixKey(p)] = c.next
	c.next++
	return node
}

func (c *compressor) compressAbsPath(p AbsPath) AbsPath {
	switch v := p.(type) {
	case *AbsBackref:
		return p

	case *Path:
		// Rule 5: empty generic args share their slot with the path-prefix
		// and never allocate (or look themselves up in) an entry here.
		if len(v.Args) == 0 {
			prefix := c.compressPathPrefix(v.Prefix)
			if prefix == v.Prefix {
				return v
			}
			return &Path{Prefix: prefix}
		}

		// Keyed on p before recursing, for the same reason as path-prefixes.
		if idx, ok := c.absPathDict[absPathKey(p)]; ok {
			return &AbsBackref{Index: idx}
		}

		prefix := c.compressPathPrefix(v.Prefix)
		args, argsChanged := c.compressTypes(v.Args)
		node := v
		if prefix != v.Prefix || argsChanged {
			node = &Path{Prefix: prefix, Args: args}
		}

		c.absPathDict[absPathKey(p)] = c.next
		c.next++
		return node

	default:
		panic("mangle: unknown abs-path node in compressor")
	}
}

func (c *compressor) compressType(t Type) Type {
	switch v := t.(type) {
	case *TypeBackref:
		return t

	case *BasicType, *GenericParamType:
		// Rule 3: never substituted, regardless of repetition.
		return t

	case *NamedType:
		// Shares its slot with the wrapped absolute path (transitively, with
		// that path's own prefix when the path itself has empty arguments);
		// see the decompressor's type -> abs-path -> path-prefix fallback.
		path := c.compressAbsPath(v.Path)
		if path == v.Path {
			return v
		}
		return &NamedType{Path: path}
	}

	// Keyed on t before recursing into children, same reason as above: the
	// second occurrence of a repeated nested subtree must still match the
	// first occurrence's key, which is only true if neither has had its own
	// children substituted yet when the key is computed.
	if idx, ok := c.typeDict[typeKey(t)]; ok {
		return &TypeBackref{Index: idx}
	}

	var node Type
	switch v := t.(type) {
	case *RefType:
		elem := c.compressType(v.Elem)
		node = v
		if elem != v.Elem {
			node = &RefType{Elem: elem}
		}

	case *RefMutType:
		elem := c.compressType(v.Elem)
		node = v
		if elem != v.Elem {
			node = &RefMutType{Elem: elem}
		}

	case *ConstPtrType:
		elem := c.compressType(v.Elem)
		node = v
		if elem != v.Elem {
			node = &ConstPtrType{Elem: elem}
		}

	case *MutPtrType:
		elem := c.compressType(v.Elem)
		node = v
		if elem != v.Elem {
			node = &MutPtrType{Elem: elem}
		}

	case *ArrayType:
		elem := c.compressType(v.Elem)
		node = v
		if elem != v.Elem {
			node = &ArrayType{Elem: elem, Len: v.Len}
		}

	case *TupleType:
		elems, changed := c.compressTypes(v.Elems)
		node = v
		if changed {
			node = &TupleType{Elems: elems}
		}

	case *FuncType:
		params, paramsChanged := c.compressTypes(v.Params)
		var ret Type
		retChanged := false
		if v.Return != nil {
			ret = c.compressType(v.Return)
			retChanged = ret != v.Return
		}
		node = v
		if paramsChanged || retChanged {
			node = &FuncType{Unsafe: v.Unsafe, ABI: v.ABI, Params: params, Return: ret}
		}

	default:
		panic("mangle: unknown type node in compressor")
	}

	c.typeDict[typeKey(t)] = c.next
	c.next++
	return node
}

// compressTypes compresses each element of ts, reusing the original slice
// (pointer-equal) when nothing in it changed.
func (c *compressor) compressTypes(ts []Type) ([]Type, bool) {
	if len(ts) == 0 {
		return ts, false
	}
	out := make([]Type, len(ts))
	changed := false
	for i, t := range ts {
		ct := c.compressType(t)
		out[i] = ct
		if ct != t {
			changed = true
		}
	}
	if !changed {
		return ts, false
	}
	return out, true
}

// ----------------------------------------------------------------------------
// Dictionary keys
//
// Each key is the node's own canonical mangled bytes, produced by the same
// write* helpers mangle.go uses for final output. Keys are computed on nodes
// as they were handed to the compressor, so for a fully explicit input no
// back-reference node reaches these functions and the mangled bytes fully
// capture structure + identifiers + flags + child identity. On input that
// already contains back-references, each one is keyed as its own "S..._"
// token, like any other child.

func pathPrefixKey(p PathPrefix) string {
	var b strings.Builder
	writePathPrefix(&b, p)
	return b.String()
}

func absPathKey(p AbsPath) string {
	var b strings.Builder
	writeAbsPath(&b, p)
	return b.String()
}

func typeKey(t Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}
