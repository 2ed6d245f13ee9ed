package mangle

// ----------------------------------------------------------------------------
// Alternative (string-keyed) compressor
//
// CompressAlt is the "equivalent-behavior reference implementation that keys
// the dictionary on the demangled string (rather than structural equality)"
// spec.md §4.2 requires as the oracle for the alternative-compressor property
// test: CompressAlt and Compress must agree byte-for-byte on every input.
// Its eligibility rules and traversal order are identical to compressor's;
// the only difference is the dictionary key (verbose pretty-printed text
// instead of canonical mangled bytes).

type altCompressor struct {
	pathPrefixDict map[string]uint64
	absPathDict    map[string]uint64
	typeDict       map[string]uint64
	next           uint64
}

func newAltCompressor() *altCompressor {
	return &altCompressor{
		pathPrefixDict: make(map[string]uint64),
		absPathDict:    make(map[string]uint64),
		typeDict:       make(map[string]uint64),
	}
}

// CompressAlt mirrors Compress exactly, node for node, but deduplicates by
// rendering each candidate node through the pretty printer (verbose, so that
// disambiguators and crate-id suffixes are never lost) instead of re-mangling
// it. It exists for the alternative-compressor-agreement property test and is
// not used by the production encode path.
func CompressAlt(sym *Symbol) *Symbol {
	c := newAltCompressor()

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

func (c *altCompressor) compressPathPrefix(p PathPrefix) PathPrefix {
	switch v := p.(type) {
	case *PathBackref:
		return p

	case *InherentImpl:
		self := c.compressType(v.SelfType)
		node := v
		if self != v.SelfType {
			node = &InherentImpl{SelfType: self}
		}
		return node
	}

	// Keyed on p, before recursion: printPathPrefixText panics on a
	// back-reference node, so keying on an already-substituted child (as a
	// post-recursion key would) crashes the moment a repeated subtree's
	// second occurrence is reached instead of just failing to deduplicate.
	if idx, ok := c.pathPrefixDict[printPathPrefixText(p)]; ok {
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
		panic("mangle: unknown path-prefix node in alternative compressor")
	}

	c.pathPrefixDict[printPathPrefixText(p)] = c.next
	c.next++
	return node
}

func (c *altCompressor) compressAbsPath(p AbsPath) AbsPath {
	switch v := p.(type) {
	case *AbsBackref:
		return p

	case *Path:
		if len(v.Args) == 0 {
			prefix := c.compressPathPrefix(v.Prefix)
			if prefix == v.Prefix {
				return v
			}
			return &Path{Prefix: prefix}
		}

		if idx, ok := c.absPathDict[printAbsPathText(p)]; ok {
			return &AbsBackref{Index: idx}
		}

		prefix := c.compressPathPrefix(v.Prefix)
		args, argsChanged := c.compressTypes(v.Args)
		node := v
		if prefix != v.Prefix || argsChanged {
			node = &Path{Prefix: prefix, Args: args}
		}

		c.absPathDict[printAbsPathText(p)] = c.next
		c.next++
		return node

	default:
		panic("mangle: unknown abs-path node in alternative compressor")
	}
}

func (c *altCompressor) compressType(t Type) Type {
	switch v := t.(type) {
	case *TypeBackref:
		return t

	case *BasicType, *GenericParamType:
		return t

	case *NamedType:
		path := c.compressAbsPath(v.Path)
		if path == v.Path {
			return v
		}
		return &NamedType{Path: path}
	}

	// Keyed on t before recursion, same reason as compressPathPrefix: the
	// printer panics on a back-reference node, so a post-recursion key would
	// crash instead of merely failing to dedupe a repeated nested subtree.
	if idx, ok := c.typeDict[printTypeText(t)]; ok {
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
		panic("mangle: unknown type node in alternative compressor")
	}

	c.typeDict[printTypeText(t)] = c.next
	c.next++
	return node
}

func (c *altCompressor) compressTypes(ts []Type) ([]Type, bool) {
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
// Demangled-text keys

func printPathPrefixText(p PathPrefix) string {
	pr := &printer{verbose: true}
	pr.printPathPrefix(p)
	return pr.b.String()
}

func printAbsPathText(p AbsPath) string {
	pr := &printer{verbose: true}
	pr.printAbsPath(p)
	return pr.b.String()
}

func printTypeText(t Type) string {
	pr := &printer{verbose: true}
	pr.printType(t)
	return pr.b.String()
}
