package mangle

// ----------------------------------------------------------------------------
// Basic type alphabet

// basicTypeNames is the fixed letter-to-surface-name map of spec.md §6. It is
// the single source of truth consulted by the mangler (to validate a letter),
// the parser (to recognize one) and the pretty printer (to render one).
var basicTypeNames = map[BasicLetter]string{
	'a': "i8",
	'b': "bool",
	'c': "char",
	'd': "f64",
	'e': "str",
	'f': "f32",
	'h': "u8",
	'i': "isize",
	'j': "usize",
	'l': "i32",
	'm': "u32",
	'n': "i128",
	'o': "u128",
	's': "i16",
	't': "u16",
	'u': "()",
	'v': "...",
	'x': "i64",
	'y': "u64",
	'z': "!",
}

func isBasicLetter(b byte) bool {
	_, ok := basicTypeNames[BasicLetter(b)]
	return ok
}

func basicTypeName(l BasicLetter) string {
	name, ok := basicTypeNames[l]
	if !ok {
		return "?"
	}
	return name
}
