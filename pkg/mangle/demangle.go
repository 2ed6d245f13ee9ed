package mangle

import (
	"fmt"
	"strconv"

	"go.mangle.dev/v0mangle/pkg/utils"
)

// ----------------------------------------------------------------------------
// Direct demangler

// This file fuses Parse + Decompress + PrettyPrint into the single pass
// spec.md §4.5 describes: it walks the mangled bytes once, writing
// pretty-printed text straight into an output buffer, and maintains the same
// three logical dictionaries the compressor/decompressor use — except keyed
// by back-reference index and storing a byte range into the output buffer
// rather than an AST node. A back-reference token is served by copying the
// referenced range to the current end of the buffer, never by re-parsing or
// re-printing anything.
//
// DirectDemangle(mangle(compress(x)), verbose) must equal
// PrettyPrint(x, verbose) for every AST x (spec.md §8, "direct-demangler
// equivalence"); the eligibility and cross-dictionary fallback rules below
// mirror compress.go/decompress.go node for node so that invariant holds.

// byteRange is a half-open [start, end) slice of the demangler's output buffer.
type byteRange struct{ start, end int }

type demangler struct {
	p       *Parser
	buf     []byte
	verbose bool
	depth   int
	next    uint64

	pathPrefixRanges utils.OrderedMap[uint64, byteRange]
	absPathRanges    utils.OrderedMap[uint64, byteRange]
	typeRanges       utils.OrderedMap[uint64, byteRange]

	// commas tracks, per currently-open comma-separated list (generic-args,
	// tuple elements, fn params), whether a separator is due before the next
	// item. Pushed on entry to a list, popped on exit.
	commas utils.Stack[bool]
}

// DirectDemangle parses and renders input in a single pass. verbose selects
// the same two output modes PrettyPrint supports: numeric disambiguators,
// crate-id brackets and the "@ instantiating-crate" suffix are emitted only
// when verbose is true, except that closure identifiers carry their
// disambiguator in both modes.
func DirectDemangle(input []byte, verbose bool) (string, error) {
	d := &demangler{p: NewParser(input), verbose: verbose}

	if err := d.demangleSymbol(); err != nil {
		return "", err
	}
	if !d.p.atEnd() {
		return "", d.p.errorf(KindStructural, "symbol", "end of input", d.p.foundDesc())
	}
	return string(d.buf), nil
}

func (d *demangler) enter() error {
	d.depth++
	if d.depth > maxExpansionDepth {
		return newError(KindStructural, d.p.pos, "expansion", "a symbol within the supported nesting depth", "deeper nesting")
	}
	return nil
}

func (d *demangler) leave() { d.depth-- }

func (d *demangler) demangleSymbol() error {
	if err := d.p.expect("symbol", '_'); err != nil {
		return err
	}
	if err := d.p.expect("symbol", 'R'); err != nil {
		return err
	}
	if err := d.p.checkNoVersion(); err != nil {
		return err
	}

	if err := d.demangleAbsPath(); err != nil {
		return err
	}

	if !d.p.atEnd() {
		preLen := len(d.buf)
		if d.verbose {
			d.buf = append(d.buf, " @ "...)
		}
		if err := d.demanglePathPrefix(); err != nil {
			return err
		}
		if !d.verbose {
			d.buf = d.buf[:preLen]
		}
	}
	return nil
}

// demanglePathPrefix renders a path-prefix production and, per the
// eligibility rules of spec.md §4.2 mirrored here, records a dictionary
// entry for every variant except InherentImpl (rule 4) and the back-reference
// case itself (a reference never allocates a new slot).
func (d *demangler) demanglePathPrefix() error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	start := len(d.buf)

	switch {
	case d.p.cur() == 'S':
		d.p.pos++
		idx, err := d.p.parseBackrefIndex("path-prefix")
		if err != nil {
			return err
		}
		rng, ok := d.pathPrefixRanges.Get(idx)
		if !ok {
			return newError(KindDictionary, d.p.pos, "path-prefix back-reference", "a previously defined index", backrefDiagnostic(idx))
		}
		d.buf = append(d.buf, d.buf[rng.start:rng.end]...)

	case d.p.cur() == 'X':
		d.p.pos++
		d.buf = append(d.buf, '<')
		if err := d.demangleType(); err != nil {
			return err
		}
		d.buf = append(d.buf, " as "...)
		if err := d.demangleAbsPath(); err != nil {
			return err
		}
		d.buf = append(d.buf, '>')
		dis, err := d.p.parseDisambiguator()
		if err != nil {
			return err
		}
		if d.verbose && dis != 0 {
			d.buf = fmt.Appendf(d.buf, "[%d]", dis)
		}
		d.pathPrefixRanges.Set(d.next, byteRange{start, len(d.buf)})
		d.next++

	case d.p.cur() == 'M':
		d.p.pos++
		d.buf = append(d.buf, '<')
		if err := d.demangleType(); err != nil {
			return err
		}
		d.buf = append(d.buf, '>')
		// Rule 4: no entry of its own; the self-type already claimed one
		// (or, if the self-type was itself ineligible, claimed none).

	case isDigit(d.p.cur()):
		crate, err := d.p.parseCrateRoot()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, crate.Name...)
		if d.verbose {
			d.buf = append(d.buf, '[')
			d.buf = append(d.buf, crate.Disambiguator...)
			d.buf = append(d.buf, ']')
		}
		d.pathPrefixRanges.Set(d.next, byteRange{start, len(d.buf)})
		d.next++

	default:
		return d.p.errorf(KindStructural, "path-prefix", "'S', 'X', 'M' or a crate-id length", d.p.foundDesc())
	}

	for isDigit(d.p.cur()) {
		ident, err := d.p.parseIdentifier()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, "::"...)
		appendIdentifierText(&d.buf, d.verbose, ident)
		d.pathPrefixRanges.Set(d.next, byteRange{start, len(d.buf)})
		d.next++
	}
	return nil
}

// demangleAbsPath renders an absolute-path production. Per rule 5, an
// absolute path with an empty generic-argument list shares its dictionary
// slot with its path-prefix rather than allocating one of its own.
func (d *demangler) demangleAbsPath() error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	if d.p.cur() == 'S' {
		d.p.pos++
		idx, err := d.p.parseBackrefIndex("abs-path")
		if err != nil {
			return err
		}
		rng, ok := d.absPathRanges.Get(idx)
		if !ok {
			rng, ok = d.pathPrefixRanges.Get(idx)
		}
		if !ok {
			return newError(KindDictionary, d.p.pos, "abs-path back-reference", "a previously defined index", backrefDiagnostic(idx))
		}
		d.buf = append(d.buf, d.buf[rng.start:rng.end]...)
		return nil
	}

	if err := d.p.expect("abs-path", 'N'); err != nil {
		return err
	}

	start := len(d.buf)
	if err := d.demanglePathPrefix(); err != nil {
		return err
	}

	argCount, err := d.demangleGenericArgs()
	if err != nil {
		return err
	}
	if err := d.p.expect("abs-path", 'E'); err != nil {
		return err
	}

	if argCount > 0 {
		d.absPathRanges.Set(d.next, byteRange{start, len(d.buf)})
		d.next++
	}
	return nil
}

// demangleGenericArgs renders "<T, U, ...>" and returns how many types it
// wrote; per spec.md §8 an absent (or explicitly empty) "I...E" clause emits
// nothing and reports a count of 0.
func (d *demangler) demangleGenericArgs() (int, error) {
	if d.p.cur() != 'I' {
		return 0, nil
	}
	d.p.pos++

	openAt := len(d.buf)
	d.buf = append(d.buf, '<')
	d.commas.Push(false)
	count := 0
	for d.p.cur() != 'E' {
		if d.p.atEnd() {
			return 0, newError(KindTruncation, d.p.pos, "generic-args", "'E'", "end of input")
		}
		d.beforeListItem()
		if err := d.demangleType(); err != nil {
			return 0, err
		}
		count++
	}
	d.p.pos++
	d.commas.Pop()
	d.buf = append(d.buf, '>')

	if count == 0 {
		// An explicit but empty "IE" clause is, per the AST it would parse
		// to, indistinguishable from an absent one: nothing is rendered.
		d.buf = d.buf[:openAt]
	}
	return count, nil
}

func (d *demangler) beforeListItem() {
	needsComma, _ := d.commas.Top()
	if needsComma {
		d.buf = append(d.buf, ", "...)
	}
	d.commas.Pop()
	d.commas.Push(true)
}

// demangleType renders a type production, recording a dictionary entry for
// every composite variant except NamedType (transparent: it shares its
// wrapped absolute path's slot) and the excluded basic/generic-parameter/
// back-reference cases (rule 3).
func (d *demangler) demangleType() error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	start := len(d.buf)

	switch {
	case d.p.cur() == 'S':
		d.p.pos++
		idx, err := d.p.parseBackrefIndex("type")
		if err != nil {
			return err
		}
		rng, ok := d.typeRanges.Get(idx)
		if !ok {
			rng, ok = d.absPathRanges.Get(idx)
		}
		if !ok {
			rng, ok = d.pathPrefixRanges.Get(idx)
		}
		if !ok {
			return newError(KindDictionary, d.p.pos, "type back-reference", "a previously defined index", backrefDiagnostic(idx))
		}
		d.buf = append(d.buf, d.buf[rng.start:rng.end]...)
		return nil

	case isBasicLetter(d.p.cur()):
		letter := d.p.bump()
		d.buf = append(d.buf, basicTypeName(BasicLetter(letter))...)
		return nil

	case d.p.cur() == 'R':
		d.p.pos++
		d.buf = append(d.buf, '&')
		if err := d.demangleType(); err != nil {
			return err
		}

	case d.p.cur() == 'Q':
		d.p.pos++
		d.buf = append(d.buf, "&mut "...)
		if err := d.demangleType(); err != nil {
			return err
		}

	case d.p.cur() == 'P':
		d.p.pos++
		d.buf = append(d.buf, "*const "...)
		if err := d.demangleType(); err != nil {
			return err
		}

	case d.p.cur() == 'O':
		d.p.pos++
		d.buf = append(d.buf, "*mut "...)
		if err := d.demangleType(); err != nil {
			return err
		}

	case d.p.cur() == 'A':
		d.p.pos++
		hasLen := false
		var length uint64
		if isDigit(d.p.cur()) {
			lenStart := d.p.pos
			for isDigit(d.p.cur()) {
				d.p.pos++
			}
			n, err := strconv.ParseUint(string(d.p.input[lenStart:d.p.pos]), 10, 64)
			if err != nil {
				return newError(KindStructural, lenStart, "array-length", "a decimal length", string(d.p.input[lenStart:d.p.pos]))
			}
			length, hasLen = n, true
		}

		d.buf = append(d.buf, '[')
		if err := d.demangleType(); err != nil {
			return err
		}
		if hasLen {
			d.buf = fmt.Appendf(d.buf, "; %d", length)
		}
		d.buf = append(d.buf, ']')

	case d.p.cur() == 'T':
		d.p.pos++
		d.buf = append(d.buf, '(')
		d.commas.Push(false)
		for d.p.cur() != 'E' {
			if d.p.atEnd() {
				return newError(KindTruncation, d.p.pos, "tuple", "'E'", "end of input")
			}
			d.beforeListItem()
			if err := d.demangleType(); err != nil {
				return err
			}
		}
		d.p.pos++
		d.commas.Pop()
		d.buf = append(d.buf, ')')

	case d.p.cur() == 'G':
		d.p.pos++
		ident, err := d.p.parseIdentifier()
		if err != nil {
			return err
		}
		if err := d.p.expect("generic-param", 'E'); err != nil {
			return err
		}
		d.buf = append(d.buf, ident.Text...)
		return nil // rule 3: never substituted

	case d.p.cur() == 'F':
		d.p.pos++
		unsafe := false
		if d.p.cur() == 'U' {
			unsafe = true
			d.p.pos++
		}
		abi, err := d.p.parseABI()
		if err != nil {
			return err
		}
		if unsafe {
			d.buf = append(d.buf, "unsafe "...)
		}
		appendABI(&d.buf, abi)
		d.buf = append(d.buf, "fn("...)
		d.commas.Push(false)
		for d.p.cur() != 'E' && d.p.cur() != 'J' {
			if d.p.atEnd() {
				return newError(KindTruncation, d.p.pos, "fn-type", "'J' or 'E'", "end of input")
			}
			d.beforeListItem()
			if err := d.demangleType(); err != nil {
				return err
			}
		}
		d.commas.Pop()
		d.buf = append(d.buf, ')')
		if d.p.cur() == 'J' {
			d.p.pos++
			d.buf = append(d.buf, " -> "...)
			if err := d.demangleType(); err != nil {
				return err
			}
		}
		if err := d.p.expect("fn-type", 'E'); err != nil {
			return err
		}

	case d.p.cur() == 'N':
		// NamedType is transparent: it never claims its own slot, only the
		// absolute path it wraps does (or, if that path has empty generic
		// arguments, the prefix underneath it).
		return d.demangleAbsPath()

	default:
		return d.p.errorf(KindStructural, "type", "a basic-type letter, 'R','Q','P','O','A','T','G','F','N' or 'S'", d.p.foundDesc())
	}

	d.typeRanges.Set(d.next, byteRange{start, len(d.buf)})
	d.next++
	return nil
}

// appendIdentifierText is writeIdentifierText's []byte counterpart, used by
// the direct demangler so it never has to round-trip through a strings.Builder.
func appendIdentifierText(buf *[]byte, verbose bool, id Identifier) {
	if id.NS == NSClosure {
		*buf = append(*buf, "{closure}"...)
		*buf = fmt.Appendf(*buf, "[%d]", id.Disambiguator)
		return
	}
	*buf = append(*buf, id.Text...)
	if verbose && id.Disambiguator != 0 {
		*buf = fmt.Appendf(*buf, "[%d]", id.Disambiguator)
	}
}

func appendABI(buf *[]byte, abi ABI) {
	switch abi.Kind {
	case "":
	case "c":
		*buf = append(*buf, `extern "C" `...)
	default:
		*buf = fmt.Appendf(*buf, "extern %q ", abi.Kind)
	}
}
