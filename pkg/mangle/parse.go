package mangle

import (
	"strconv"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Tag-dispatch combinators
//
// The teacher's three parsers (pkg/asm/parsing.go, pkg/jack/parsing.go,
// pkg/vm/parsing.go) all build a package-level *pc.AST once and drive every
// grammar choice through it via ast.OrdChoice/pc.Atom/pc.Token, then lower
// the resulting pc.Queryable tree in a second FromAST pass. This grammar's
// choices follow the same shape (a fixed tag byte or short literal selects
// the production), so they go through the identical combinators here.
//
// What does NOT fit that model is this grammar's length-prefixed payload:
// "decimal digits, then exactly that many raw bytes" has no regex-expressible
// token boundary (the payload bytes themselves may contain digit characters,
// so a pattern can never know where to stop without already having read the
// length) -- none of the teacher's three grammars face a field like this
// either. Those reads stay on the hand-advanced byte cursor below, exactly as
// before; everything that reduces to "which fixed token comes next" is
// dispatched through goparsec.
var tagAST = pc.NewAST("mangle_tags", 0)

var (
	pPathPrefixTag = tagAST.OrdChoice("path-prefix-tag", nil,
		pc.Atom("S", "BACKREF"), pc.Atom("X", "TRAIT_IMPL"), pc.Atom("M", "INHERENT_IMPL"),
	)
	// 'N' (NamedType) is deliberately not part of this set: parseAbsPath
	// consumes its own leading 'N', so pre-consuming it here would desync
	// the cursor from what parseAbsPath expects to see.
	pTypeTag = tagAST.OrdChoice("type-tag", nil,
		pc.Atom("S", "BACKREF"), pc.Atom("R", "REF"), pc.Atom("Q", "REF_MUT"),
		pc.Atom("P", "CONST_PTR"), pc.Atom("O", "MUT_PTR"), pc.Atom("A", "ARRAY"),
		pc.Atom("T", "TUPLE"), pc.Atom("G", "GENERIC_PARAM"), pc.Atom("F", "FUNC"),
	)
	pABIKind = tagAST.OrdChoice("abi-kind", nil, pc.Atom("c", "C_ABI"))
	pNSTag   = tagAST.OrdChoice("ns-tag", nil, pc.Atom("V", "VALUE"), pc.Atom("C", "CLOSURE"))
)

// matchAtom runs a one-off literal-byte combinator against whatever remains
// at the cursor, advancing past it on a match. lit never appears in the
// grammar duplicated with different meanings at the same decision point, so
// a throwaway combinator built per call (rather than a predeclared package
// var) keeps every call site self-describing.
func (p *Parser) matchAtom(production string, lit byte) bool {
	node, _ := tagAST.Parsewith(pc.Atom(string(lit), production), pc.NewScanner(p.input[p.pos:]))
	if node == nil || node.GetValue() == "" {
		return false
	}
	p.pos += len(node.GetValue())
	return true
}

// matchChoice runs a predeclared OrdChoice combinator and reports which
// named alternative matched (its pc.Atom's own name), advancing the cursor
// past the matched text. ok is false, cursor untouched, on no match.
func (p *Parser) matchChoice(combinator pc.Parser) (name string, ok bool) {
	node, _ := tagAST.Parsewith(combinator, pc.NewScanner(p.input[p.pos:]))
	if node == nil || node.GetValue() == "" {
		return "", false
	}
	p.pos += len(node.GetValue())
	return node.GetName(), true
}

// matchToken runs a regex-backed pc.Token combinator, returning its matched
// text. Only used where the token's extent is self-delimiting (a digit run
// terminated by the first non-digit/non-base62 byte) -- never for a
// length-prefixed payload, see the package comment above.
func (p *Parser) matchToken(pattern, name string) (string, bool) {
	node, _ := tagAST.Parsewith(pc.Token(pattern, name), pc.NewScanner(p.input[p.pos:]))
	if node == nil || node.GetValue() == "" {
		return "", false
	}
	p.pos += len(node.GetValue())
	return node.GetValue(), true
}

// Parser drives the grammar of spec.md §6 over a []byte cursor, consulting
// the combinators above at every fixed-token decision point and advancing
// the cursor by hand only across length-prefixed payloads. cur() always
// returns a defined byte because the cursor is clamped to a synthetic
// end-of-input sentinel once it runs past the input, so every production can
// test "cur() == 'E'" without a separate bounds check.
//
// Back-references are never expanded here: each is parsed into its own
// PathBackref/AbsBackref/TypeBackref node (spec.md §4.3) and left for
// Decompress to resolve.
type Parser struct {
	input []byte
	pos   int
}

const sentinel = byte(0)

// NewParser returns a Parser over input. input is not copied or mutated.
func NewParser(input []byte) *Parser {
	return &Parser{input: input}
}

func (p *Parser) cur() byte {
	if p.pos >= len(p.input) {
		return sentinel
	}
	return p.input[p.pos]
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.input) }

func (p *Parser) bump() byte {
	c := p.cur()
	if p.pos < len(p.input) {
		p.pos++
	}
	return c
}

func (p *Parser) expect(production string, want byte) error {
	if !p.matchAtom(production, want) {
		return p.errorf(KindStructural, production, quoteByte(want), p.foundDesc())
	}
	return nil
}

func (p *Parser) foundDesc() string {
	if p.atEnd() {
		return "end of input"
	}
	return quoteByte(p.cur())
}

func (p *Parser) errorf(kind Kind, production, expected, found string) error {
	return newError(kind, p.pos, production, expected, found)
}

func quoteByte(b byte) string {
	if b == sentinel {
		return "end of input"
	}
	return "'" + string(rune(b)) + "'"
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Parse reads a full "_R [version] abs-path [path-prefix]" symbol.
func Parse(input []byte) (*Symbol, error) {
	p := NewParser(input)
	sym, err := p.parseSymbol()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf(KindStructural, "symbol", "end of input", p.foundDesc())
	}
	return sym, nil
}

func (p *Parser) parseSymbol() (*Symbol, error) {
	if err := p.expect("symbol", '_'); err != nil {
		return nil, err
	}
	if err := p.expect("symbol", 'R'); err != nil {
		return nil, err
	}

	if err := p.checkNoVersion(); err != nil {
		return nil, err
	}

	path, err := p.parseAbsPath()
	if err != nil {
		return nil, err
	}

	sym := &Symbol{Path: path}
	if !p.atEnd() {
		crate, err := p.parsePathPrefix()
		if err != nil {
			return nil, err
		}
		sym.InstantiatingCrate = crate
	}
	return sym, nil
}

// checkNoVersion consumes a digit run after "_R", if any, and rejects it:
// this spec recognizes only the no-digit (version 0) encoding (spec.md §4.3,
// §9). The run is self-delimiting (it always ends at 'S' or 'N', the two
// possible abs-path leads, neither of which is a digit), so a regex token is
// safe here unlike the length-prefixed payloads below.
func (p *Parser) checkNoVersion() error {
	start := p.pos
	version, ok := p.matchToken(`[0-9]+`, "VERSION")
	if !ok {
		return nil
	}
	return newError(KindVersion, start, "version", "no version digit (only version 0 is supported)", version)
}

// parseBackrefIndex parses the shared "S_" | "S" base62 "_" token body
// (the leading 'S' must already have been consumed by the caller).
func (p *Parser) parseBackrefIndex(production string) (uint64, error) {
	if p.matchAtom(production, '_') {
		return 0, nil
	}

	start := p.pos
	digits, ok := p.matchToken(`[0-9A-Za-z]+`, "BASE62")
	if !ok {
		return 0, p.errorf(KindStructural, production, "a base-62 digit run", p.foundDesc())
	}
	if err := p.expect(production, '_'); err != nil {
		return 0, err
	}

	n, ok := decodeBase62(digits)
	if !ok {
		return 0, newError(KindStructural, start, production, "a base-62 digit run", digits)
	}
	return n + 1, nil
}

// parseDisambiguator parses an optional "s_" | "s" base62 "_" suffix,
// returning 0 when the suffix is entirely absent.
func (p *Parser) parseDisambiguator() (uint64, error) {
	if !p.matchAtom("disambiguator", 's') {
		return 0, nil
	}

	if p.matchAtom("disambiguator", '_') {
		return 1, nil
	}

	start := p.pos
	digits, ok := p.matchToken(`[0-9A-Za-z]+`, "BASE62")
	if !ok {
		return 0, p.errorf(KindStructural, "disambiguator", "a base-62 digit run", p.foundDesc())
	}
	if err := p.expect("disambiguator", '_'); err != nil {
		return 0, err
	}

	n, ok := decodeBase62(digits)
	if !ok {
		return 0, newError(KindStructural, start, "disambiguator", "a base-62 digit run", digits)
	}
	return n + 2, nil
}

func (p *Parser) parseDecimalLength(production string) (int, error) {
	start := p.pos
	digits, ok := p.matchToken(`[0-9]+`, "LENGTH")
	if !ok {
		return 0, p.errorf(KindStructural, production, "a decimal length", p.foundDesc())
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, newError(KindStructural, start, production, "a decimal length", digits)
	}
	return n, nil
}

func (p *Parser) parseIdentifier() (Identifier, error) {
	n, err := p.parseDecimalLength("identifier")
	if err != nil {
		return Identifier{}, err
	}

	encoded := p.matchAtom("identifier", 'u')

	if p.pos+n > len(p.input) {
		return Identifier{}, newError(KindTruncation, p.pos, "identifier", "identifier payload", "end of input")
	}
	payload := string(p.input[p.pos : p.pos+n])
	p.pos += n

	text := payload
	if encoded {
		text, err = decodeIdentifier(payload)
		if err != nil {
			return Identifier{}, err
		}
	} else if !isASCII(payload) {
		return Identifier{}, newError(KindEncoding, p.pos-n, "identifier", "ASCII payload (or a 'u'-tagged encoded one)", fastQuote(payload))
	}

	ns := NSType
	if tag, ok := p.matchChoice(pNSTag); ok {
		switch tag {
		case "VALUE":
			ns = NSValue
		case "CLOSURE":
			ns = NSClosure
		}
	}

	dis, err := p.parseDisambiguator()
	if err != nil {
		return Identifier{}, err
	}

	return Identifier{Text: text, NS: ns, Disambiguator: dis}, nil
}

func (p *Parser) parseCrateRoot() (*CrateRoot, error) {
	n, err := p.parseDecimalLength("crate-id")
	if err != nil {
		return nil, err
	}

	encoded := p.matchAtom("crate-id", 'u')

	if p.pos+n > len(p.input) {
		return nil, newError(KindTruncation, p.pos, "crate-id", "crate-id payload", "end of input")
	}
	payload := string(p.input[p.pos : p.pos+n])
	p.pos += n

	combined := payload
	if encoded {
		combined, err = decodeIdentifier(payload)
		if err != nil {
			return nil, err
		}
	} else if !isASCII(payload) {
		return nil, newError(KindEncoding, p.pos-n, "crate-id", "ASCII payload (or a 'u'-tagged encoded one)", fastQuote(payload))
	}

	idx := lastIndexByte(combined, '_')
	if idx < 0 {
		return nil, newError(KindStructural, p.pos-n, "crate-id", "\"name_disambiguator\"", fastQuote(combined))
	}
	return &CrateRoot{Name: combined[:idx], Disambiguator: combined[idx+1:]}, nil
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func (p *Parser) parsePathPrefix() (PathPrefix, error) {
	var base PathPrefix

	if isDigit(p.cur()) {
		crate, err := p.parseCrateRoot()
		if err != nil {
			return nil, err
		}
		base = crate
	} else {
		tag, ok := p.matchChoice(pPathPrefixTag)
		if !ok {
			return nil, p.errorf(KindStructural, "path-prefix", "'S', 'X', 'M' or a crate-id length", p.foundDesc())
		}

		switch tag {
		case "BACKREF":
			idx, err := p.parseBackrefIndex("path-prefix")
			if err != nil {
				return nil, err
			}
			base = &PathBackref{Index: idx}

		case "TRAIT_IMPL":
			selfType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			trait, err := p.parseAbsPath()
			if err != nil {
				return nil, err
			}
			dis, err := p.parseDisambiguator()
			if err != nil {
				return nil, err
			}
			base = &TraitImpl{SelfType: selfType, Trait: trait, Disambiguator: dis}

		case "INHERENT_IMPL":
			selfType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			base = &InherentImpl{SelfType: selfType}
		}
	}

	for isDigit(p.cur()) {
		ident, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		base = &PathNode{Parent: base, Ident: ident}
	}
	return base, nil
}

func (p *Parser) parseGenericArgs() ([]Type, error) {
	if !p.matchAtom("generic-args", 'I') {
		return nil, nil
	}

	var args []Type
	for p.cur() != 'E' {
		if p.atEnd() {
			return nil, newError(KindTruncation, p.pos, "generic-args", "'E'", "end of input")
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	if err := p.expect("generic-args", 'E'); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseAbsPath() (AbsPath, error) {
	if p.matchAtom("abs-path", 'S') {
		idx, err := p.parseBackrefIndex("abs-path")
		if err != nil {
			return nil, err
		}
		return &AbsBackref{Index: idx}, nil
	}

	if err := p.expect("abs-path", 'N'); err != nil {
		return nil, err
	}
	prefix, err := p.parsePathPrefix()
	if err != nil {
		return nil, err
	}
	args, err := p.parseGenericArgs()
	if err != nil {
		return nil, err
	}
	if err := p.expect("abs-path", 'E'); err != nil {
		return nil, err
	}
	return &Path{Prefix: prefix, Args: args}, nil
}

func (p *Parser) parseABI() (ABI, error) {
	if !p.matchAtom("abi", 'K') {
		return NativeABI, nil
	}

	tag, ok := p.matchChoice(pABIKind)
	if !ok {
		return ABI{}, p.errorf(KindStructural, "abi", "a known ABI-kind letter", p.foundDesc())
	}
	switch tag {
	case "C_ABI":
		return CABI, nil
	default:
		return ABI{}, p.errorf(KindStructural, "abi", "a known ABI-kind letter", p.foundDesc())
	}
}

func (p *Parser) parseType() (Type, error) {
	if isBasicLetter(p.cur()) {
		letter := BasicLetter(p.bump())
		return &BasicType{Letter: letter}, nil
	}

	// parseAbsPath consumes its own leading 'N', so this must stay a peek.
	if p.cur() == 'N' {
		path, err := p.parseAbsPath()
		if err != nil {
			return nil, err
		}
		return &NamedType{Path: path}, nil
	}

	tag, ok := p.matchChoice(pTypeTag)
	if !ok {
		return nil, p.errorf(KindStructural, "type", "a basic-type letter, 'R','Q','P','O','A','T','G','F','N' or 'S'", p.foundDesc())
	}

	switch tag {
	case "BACKREF":
		idx, err := p.parseBackrefIndex("type")
		if err != nil {
			return nil, err
		}
		return &TypeBackref{Index: idx}, nil

	case "REF":
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &RefType{Elem: elem}, nil

	case "REF_MUT":
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &RefMutType{Elem: elem}, nil

	case "CONST_PTR":
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ConstPtrType{Elem: elem}, nil

	case "MUT_PTR":
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &MutPtrType{Elem: elem}, nil

	case "ARRAY":
		var length *uint64
		if digits, ok := p.matchToken(`[0-9]+`, "LENGTH"); ok {
			n, err := strconv.ParseUint(digits, 10, 64)
			if err != nil {
				return nil, newError(KindStructural, p.pos-len(digits), "array-length", "a decimal length", digits)
			}
			length = &n
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem, Len: length}, nil

	case "TUPLE":
		var elems []Type
		for p.cur() != 'E' {
			if p.atEnd() {
				return nil, newError(KindTruncation, p.pos, "tuple", "'E'", "end of input")
			}
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elems = append(elems, t)
		}
		if err := p.expect("tuple", 'E'); err != nil {
			return nil, err
		}
		return &TupleType{Elems: elems}, nil

	case "GENERIC_PARAM":
		ident, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect("generic-param", 'E'); err != nil {
			return nil, err
		}
		return &GenericParamType{Ident: ident}, nil

	case "FUNC":
		unsafe := p.matchAtom("fn-type", 'U')
		abi, err := p.parseABI()
		if err != nil {
			return nil, err
		}
		var params []Type
		for p.cur() != 'E' && p.cur() != 'J' {
			if p.atEnd() {
				return nil, newError(KindTruncation, p.pos, "fn-type", "'J' or 'E'", "end of input")
			}
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			params = append(params, t)
		}
		var ret Type
		if p.matchAtom("fn-type", 'J') {
			ret, err = p.parseType()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect("fn-type", 'E'); err != nil {
			return nil, err
		}
		return &FuncType{Unsafe: unsafe, ABI: abi, Params: params, Return: ret}, nil

	default:
		return nil, p.errorf(KindStructural, "type", "a basic-type letter, 'R','Q','P','O','A','T','G','F','N' or 'S'", p.foundDesc())
	}
}
