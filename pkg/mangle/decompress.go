package mangle

// ----------------------------------------------------------------------------
// Decompressor

// maxExpansionDepth bounds the recursion the decompressor will follow through
// nested path-prefixes/types. Invariant 2 (a back-reference only ever resolves
// to an earlier index) rules out cycles for output this package's own
// Compress produced, but Decompress also has to run over bytes that arrived
// over the wire via Parse, and nothing stops a hand-crafted input from
// nesting composite types far deeper than any real symbol would. This is the
// recursion/size guard SPEC_FULL.md's component-design section calls for.
const maxExpansionDepth = 4096

// decompressor maintains the three dictionaries of spec.md §4.4, indexed by
// back-reference number rather than keyed by structural content: the same
// index space the compressor assigned from, replayed in the same post-order
// so that by the time a Back-reference node for index i is reached, index i
// has already been populated in whichever of the three maps originally
// claimed it.
type decompressor struct {
	pathPrefixDict map[uint64]PathPrefix
	absPathDict    map[uint64]AbsPath
	typeDict       map[uint64]Type
	next           uint64
	depth          int
}

func newDecompressor() *decompressor {
	return &decompressor{
		pathPrefixDict: make(map[uint64]PathPrefix),
		absPathDict:    make(map[uint64]AbsPath),
		typeDict:       make(map[uint64]Type),
	}
}

// Decompress expands every back-reference in sym into a fully explicit AST.
// decompress(compress(x)) == x for every valid AST x (spec.md §4.4).
func Decompress(sym *Symbol) (*Symbol, error) {
	d := newDecompressor()

	path, err := d.decompressAbsPath(sym.Path)
	if err != nil {
		return nil, err
	}

	var crate PathPrefix
	if sym.InstantiatingCrate != nil {
		crate, err = d.decompressPathPrefix(sym.InstantiatingCrate)
		if err != nil {
			return nil, err
		}
	}

	if path == sym.Path && crate == sym.InstantiatingCrate {
		return sym, nil
	}
	return &Symbol{Path: path, InstantiatingCrate: crate}, nil
}

func (d *decompressor) enter() error {
	d.depth++
	if d.depth > maxExpansionDepth {
		return newError(KindStructural, -1, "expansion", "a symbol within the supported nesting depth", "deeper nesting")
	}
	return nil
}

func (d *decompressor) leave() { d.depth-- }

func (d *decompressor) decompressPathPrefix(p PathPrefix) (PathPrefix, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	switch v := p.(type) {
	case *PathBackref:
		return d.resolvePathPrefix(v.Index)

	case *CrateRoot:
		return d.addPathPrefix(v), nil

	case *InherentImpl:
		self, err := d.decompressType(v.SelfType)
		if err != nil {
			return nil, err
		}
		return &InherentImpl{SelfType: self}, nil

	case *TraitImpl:
		self, err := d.decompressType(v.SelfType)
		if err != nil {
			return nil, err
		}
		trait, err := d.decompressAbsPath(v.Trait)
		if err != nil {
			return nil, err
		}
		node := &TraitImpl{SelfType: self, Trait: trait, Disambiguator: v.Disambiguator}
		return d.addPathPrefix(node), nil

	case *PathNode:
		parent, err := d.decompressPathPrefix(v.Parent)
		if err != nil {
			return nil, err
		}
		node := &PathNode{Parent: parent, Ident: v.Ident}
		return d.addPathPrefix(node), nil

	default:
		panic("mangle: unknown path-prefix node in decompressor")
	}
}

func (d *decompressor) addPathPrefix(node PathPrefix) PathPrefix {
	d.pathPrefixDict[d.next] = node
	d.next++
	return node
}

func (d *decompressor) resolvePathPrefix(idx uint64) (PathPrefix, error) {
	if node, ok := d.pathPrefixDict[idx]; ok {
		return node, nil
	}
	return nil, newError(KindDictionary, -1, "path-prefix back-reference", "a previously defined index", backrefDiagnostic(idx))
}

func (d *decompressor) decompressAbsPath(p AbsPath) (AbsPath, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	switch v := p.(type) {
	case *AbsBackref:
		return d.resolveAbsPath(v.Index)

	case *Path:
		prefix, err := d.decompressPathPrefix(v.Prefix)
		if err != nil {
			return nil, err
		}
		args, err := d.decompressTypes(v.Args)
		if err != nil {
			return nil, err
		}
		node := &Path{Prefix: prefix, Args: args}
		if len(node.Args) == 0 {
			// Rule 5: never allocated its own slot; the prefix's entry serves it.
			return node, nil
		}
		return d.addAbsPath(node), nil

	default:
		panic("mangle: unknown abs-path node in decompressor")
	}
}

func (d *decompressor) addAbsPath(node *Path) AbsPath {
	d.absPathDict[d.next] = node
	d.next++
	return node
}

// resolveAbsPath implements the absolute-path → path-prefix fallback of
// spec.md §4.4: an index claimed while building the path-prefix dictionary
// (because an empty-argument Path shared its slot) must be wrapped back into
// a Path with no arguments.
func (d *decompressor) resolveAbsPath(idx uint64) (AbsPath, error) {
	if node, ok := d.absPathDict[idx]; ok {
		return node, nil
	}
	if prefix, ok := d.pathPrefixDict[idx]; ok {
		return &Path{Prefix: prefix, Args: nil}, nil
	}
	return nil, newError(KindDictionary, -1, "abs-path back-reference", "a previously defined index", backrefDiagnostic(idx))
}

func (d *decompressor) decompressType(t Type) (Type, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	switch v := t.(type) {
	case *TypeBackref:
		return d.resolveType(v.Index)

	case *BasicType, *GenericParamType:
		return t, nil

	case *RefType:
		elem, err := d.decompressType(v.Elem)
		if err != nil {
			return nil, err
		}
		return d.addType(&RefType{Elem: elem}), nil

	case *RefMutType:
		elem, err := d.decompressType(v.Elem)
		if err != nil {
			return nil, err
		}
		return d.addType(&RefMutType{Elem: elem}), nil

	case *ConstPtrType:
		elem, err := d.decompressType(v.Elem)
		if err != nil {
			return nil, err
		}
		return d.addType(&ConstPtrType{Elem: elem}), nil

	case *MutPtrType:
		elem, err := d.decompressType(v.Elem)
		if err != nil {
			return nil, err
		}
		return d.addType(&MutPtrType{Elem: elem}), nil

	case *ArrayType:
		elem, err := d.decompressType(v.Elem)
		if err != nil {
			return nil, err
		}
		return d.addType(&ArrayType{Elem: elem, Len: v.Len}), nil

	case *TupleType:
		elems, err := d.decompressTypes(v.Elems)
		if err != nil {
			return nil, err
		}
		return d.addType(&TupleType{Elems: elems}), nil

	case *NamedType:
		path, err := d.decompressAbsPath(v.Path)
		if err != nil {
			return nil, err
		}
		return &NamedType{Path: path}, nil

	case *FuncType:
		params, err := d.decompressTypes(v.Params)
		if err != nil {
			return nil, err
		}
		var ret Type
		if v.Return != nil {
			ret, err = d.decompressType(v.Return)
			if err != nil {
				return nil, err
			}
		}
		return d.addType(&FuncType{Unsafe: v.Unsafe, ABI: v.ABI, Params: params, Return: ret}), nil

	default:
		panic("mangle: unknown type node in decompressor")
	}
}

func (d *decompressor) addType(node Type) Type {
	d.typeDict[d.next] = node
	d.next++
	return node
}

// resolveType implements the type → absolute-path → path-prefix fallback of
// spec.md §4.4.
func (d *decompressor) resolveType(idx uint64) (Type, error) {
	if node, ok := d.typeDict[idx]; ok {
		return node, nil
	}
	if path, ok := d.absPathDict[idx]; ok {
		return &NamedType{Path: path}, nil
	}
	if prefix, ok := d.pathPrefixDict[idx]; ok {
		return &NamedType{Path: &Path{Prefix: prefix, Args: nil}}, nil
	}
	return nil, newError(KindDictionary, -1, "type back-reference", "a previously defined index", backrefDiagnostic(idx))
}

func (d *decompressor) decompressTypes(ts []Type) ([]Type, error) {
	if len(ts) == 0 {
		return ts, nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		dt, err := d.decompressType(t)
		if err != nil {
			return nil, err
		}
		out[i] = dt
	}
	return out, nil
}

func backrefDiagnostic(idx uint64) string {
	return encodeBackref(idx) + " (not yet defined)"
}
