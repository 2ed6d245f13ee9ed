package mangle

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Pretty printer

// printer renders a fully-decompressed AST as human-readable text. Every
// emitter is a method on printer rather than a free function taking a bool
// parameter, so verbose is threaded through the struct once (spec.md §9:
// "parameterize every emitter by a single verbose: bool and not branch at
// call sites") instead of being re-decided at each call site.
type printer struct {
	b       strings.Builder
	verbose bool
}

// PrettyPrint renders sym in its surface-syntax form. verbose emits numeric
// disambiguators, crate-id disambiguator brackets and the instantiating-crate
// "@ crate" suffix; plain suppresses all three, except that closure
// identifiers render their disambiguator in both modes. PrettyPrint expects a fully
// decompressed AST — a Back-reference node reaching it is a programming error
// (see Decompress) and causes a panic rather than a reported error, matching
// the "internal inconsistency... may abort the process" contract of spec.md §7.
func PrettyPrint(sym *Symbol, verbose bool) string {
	p := &printer{verbose: verbose}
	p.printAbsPath(sym.Path)
	if sym.InstantiatingCrate != nil && p.verbose {
		p.b.WriteString(" @ ")
		p.printPathPrefix(sym.InstantiatingCrate)
	}
	return p.b.String()
}

func (p *printer) printPathPrefix(prefix PathPrefix) {
	switch v := prefix.(type) {
	case *PathBackref:
		panic("mangle: pretty printer encountered an unresolved path-prefix back-reference")
	case *CrateRoot:
		p.b.WriteString(v.Name)
		if p.verbose {
			p.b.WriteByte('[')
			p.b.WriteString(v.Disambiguator)
			p.b.WriteByte(']')
		}
	case *InherentImpl:
		p.b.WriteByte('<')
		p.printType(v.SelfType)
		p.b.WriteByte('>')
	case *TraitImpl:
		p.b.WriteByte('<')
		p.printType(v.SelfType)
		p.b.WriteString(" as ")
		p.printAbsPath(v.Trait)
		p.b.WriteByte('>')
		if p.verbose && v.Disambiguator != 0 {
			fmt.Fprintf(&p.b, "[%d]", v.Disambiguator)
		}
	case *PathNode:
		p.printPathPrefix(v.Parent)
		p.b.WriteString("::")
		p.printIdentifier(v.Ident)
	default:
		panic(fmt.Sprintf("mangle: unknown path-prefix node %T", prefix))
	}
}

func (p *printer) printAbsPath(path AbsPath) {
	switch v := path.(type) {
	case *AbsBackref:
		panic("mangle: pretty printer encountered an unresolved abs-path back-reference")
	case *Path:
		p.printPathPrefix(v.Prefix)
		if len(v.Args) > 0 {
			p.b.WriteByte('<')
			for i, arg := range v.Args {
				if i > 0 {
					p.b.WriteString(", ")
				}
				p.printType(arg)
			}
			p.b.WriteByte('>')
		}
	default:
		panic(fmt.Sprintf("mangle: unknown abs-path node %T", path))
	}
}

func (p *printer) printIdentifier(id Identifier) {
	writeIdentifierText(&p.b, p.verbose, id)
}

// writeIdentifierText renders id's surface form. The direct demangler does not
// call it; demangle.go's appendIdentifierText renders the same text into a
// []byte.
func writeIdentifierText(b *strings.Builder, verbose bool, id Identifier) {
	if id.NS == NSClosure {
		b.WriteString("{closure}")
		fmt.Fprintf(b, "[%d]", id.Disambiguator)
		return
	}
	b.WriteString(id.Text)
	if verbose && id.Disambiguator != 0 {
		fmt.Fprintf(b, "[%d]", id.Disambiguator)
	}
}

func (p *printer) printType(t Type) {
	switch v := t.(type) {
	case *TypeBackref:
		panic("mangle: pretty printer encountered an unresolved type back-reference")
	case *BasicType:
		p.b.WriteString(basicTypeName(v.Letter))
	case *RefType:
		p.b.WriteByte('&')
		p.printType(v.Elem)
	case *RefMutType:
		p.b.WriteString("&mut ")
		p.printType(v.Elem)
	case *ConstPtrType:
		p.b.WriteString("*const ")
		p.printType(v.Elem)
	case *MutPtrType:
		p.b.WriteString("*mut ")
		p.printType(v.Elem)
	case *ArrayType:
		p.b.WriteByte('[')
		p.printType(v.Elem)
		if v.Len != nil {
			fmt.Fprintf(&p.b, "; %d", *v.Len)
		}
		p.b.WriteByte(']')
	case *TupleType:
		p.b.WriteByte('(')
		for i, elem := range v.Elems {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.printType(elem)
		}
		p.b.WriteByte(')')
	case *NamedType:
		p.printAbsPath(v.Path)
	case *GenericParamType:
		p.b.WriteString(v.Ident.Text)
	case *FuncType:
		if v.Unsafe {
			p.b.WriteString("unsafe ")
		}
		switch v.ABI.Kind {
		case "":
		case "c":
			p.b.WriteString(`extern "C" `)
		default:
			fmt.Fprintf(&p.b, "extern %q ", v.ABI.Kind)
		}
		p.b.WriteString("fn(")
		for i, param := range v.Params {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.printType(param)
		}
		p.b.WriteByte(')')
		if v.Return != nil {
			p.b.WriteString(" -> ")
			p.printType(v.Return)
		}
	default:
		panic(fmt.Sprintf("mangle: unknown type node %T", t))
	}
}
