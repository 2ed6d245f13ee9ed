package mangle

import (
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Mangler

// Mangle renders sym as its mangled byte form, prefixed with the "_R" marker
// of spec.md §6. It walks the AST in depth-first order emitting the token for
// each node per the contracts of spec.md §4.1.
//
// Mangle accepts both fully-explicit ASTs and ASTs already rewritten by
// Compress: back-reference nodes (PathBackref, AbsBackref, TypeBackref) are
// themselves one of the token contracts below, so the same function serves
// both "AST -> canonical uncompressed bytes" and "compressed AST -> bytes" —
// the two stages the package overview (SPEC_FULL.md §2) names as distinct
// only because the compression decision happens earlier, in Compress.
func Mangle(sym *Symbol) []byte {
	var b strings.Builder
	b.WriteString("_R")
	writeAbsPath(&b, sym.Path)
	if sym.InstantiatingCrate != nil {
		writePathPrefix(&b, sym.InstantiatingCrate)
	}
	return []byte(b.String())
}

func writeIdentifier(b *strings.Builder, id Identifier) {
	text := id.Text
	ascii := isASCII(text)
	encoded := text
	if !ascii {
		var err error
		encoded, err = encodeIdentifier(text)
		if err != nil {
			// Mangle operates on a validated AST; a non-ASCII identifier the
			// codec cannot round-trip is an internal-consistency violation.
			panic(fmt.Sprintf("mangle: cannot encode identifier %q: %v", text, err))
		}
	}

	fmt.Fprintf(b, "%d", len(encoded))
	if !ascii {
		b.WriteByte('u')
	}
	b.WriteString(encoded)

	switch id.NS {
	case NSValue:
		b.WriteByte('V')
	case NSClosure:
		b.WriteByte('C')
	}
	b.WriteString(encodeDisambiguator(id.Disambiguator))
}

func writePathPrefix(b *strings.Builder, p PathPrefix) {
	switch v := p.(type) {
	case *PathBackref:
		b.WriteString(encodeBackref(v.Index))
	case *CrateRoot:
		combined := v.Name + "_" + v.Disambiguator
		ascii := isASCII(combined)
		encoded := combined
		if !ascii {
			var err error
			encoded, err = encodeIdentifier(combined)
			if err != nil {
				panic(fmt.Sprintf("mangle: cannot encode crate id %q: %v", combined, err))
			}
		}
		fmt.Fprintf(b, "%d", len(encoded))
		if !ascii {
			b.WriteByte('u')
		}
		b.WriteString(encoded)
	case *InherentImpl:
		b.WriteByte('M')
		writeType(b, v.SelfType)
	case *TraitImpl:
		b.WriteByte('X')
		writeType(b, v.SelfType)
		writeAbsPath(b, v.Trait)
		if v.Disambiguator != 0 {
			b.WriteByte('s')
			if v.Disambiguator > 1 {
				b.WriteString(encodeBase62(v.Disambiguator - 2))
			}
			b.WriteByte('_')
		}
	case *PathNode:
		writePathPrefix(b, v.Parent)
		writeIdentifier(b, v.Ident)
	default:
		panic(fmt.Sprintf("mangle: unknown path-prefix node %T", p))
	}
}

func writeAbsPath(b *strings.Builder, p AbsPath) {
	switch v := p.(type) {
	case *AbsBackref:
		b.WriteString(encodeBackref(v.Index))
	case *Path:
		b.WriteByte('N')
		writePathPrefix(b, v.Prefix)
		writeGenericArgs(b, v.Args)
		b.WriteByte('E')
	default:
		panic(fmt.Sprintf("mangle: unknown abs-path node %T", p))
	}
}

func writeGenericArgs(b *strings.Builder, args []Type) {
	if len(args) == 0 {
		return
	}
	b.WriteByte('I')
	for _, t := range args {
		writeType(b, t)
	}
	b.WriteByte('E')
}

func writeType(b *strings.Builder, t Type) {
	switch v := t.(type) {
	case *TypeBackref:
		b.WriteString(encodeBackref(v.Index))
	case *BasicType:
		b.WriteByte(byte(v.Letter))
	case *RefType:
		b.WriteByte('R')
		writeType(b, v.Elem)
	case *RefMutType:
		b.WriteByte('Q')
		writeType(b, v.Elem)
	case *ConstPtrType:
		b.WriteByte('P')
		writeType(b, v.Elem)
	case *MutPtrType:
		b.WriteByte('O')
		writeType(b, v.Elem)
	case *ArrayType:
		b.WriteByte('A')
		if v.Len != nil {
			b.WriteString(strconv.FormatUint(*v.Len, 10))
		}
		writeType(b, v.Elem)
	case *TupleType:
		b.WriteByte('T')
		for _, elem := range v.Elems {
			writeType(b, elem)
		}
		b.WriteByte('E')
	case *NamedType:
		writeAbsPath(b, v.Path)
	case *GenericParamType:
		b.WriteByte('G')
		writeIdentifier(b, v.Ident)
		b.WriteByte('E')
	case *FuncType:
		b.WriteByte('F')
		if v.Unsafe {
			b.WriteByte('U')
		}
		writeABI(b, v.ABI)
		for _, param := range v.Params {
			writeType(b, param)
		}
		if v.Return != nil {
			b.WriteByte('J')
			writeType(b, v.Return)
		}
		b.WriteByte('E')
	default:
		panic(fmt.Sprintf("mangle: unknown type node %T", t))
	}
}

func writeABI(b *strings.Builder, abi ABI) {
	if abi.Kind == "" {
		return
	}
	b.WriteByte('K')
	b.WriteString(abi.Kind)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
