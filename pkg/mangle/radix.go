package mangle

import "strings"

// ----------------------------------------------------------------------------
// Base-62 integer codec

// This file is the one place that encodes the "Dual radices" design note of
// spec.md §9: the corpus contains both radix-16 and radix-62 dialects for
// back-reference indices and numeric disambiguators, and an implementation
// must pick one and use it everywhere. This implementation picks radix 62
// and every other file that needs digits (mangle.go, parse.go, decompress.go) goes
// through the helpers below rather than rolling its own digit math.

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// encodeBase62 renders n in base 62 using base62Alphabet, most significant
// digit first, with no leading zero digits (except the single digit "0" for n == 0).
func encodeBase62(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [16]byte // 62^11 already exceeds 2^64, 16 digits is ample headroom
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

// decodeBase62 parses a base-62 digit run (as produced by encodeBase62) back
// to its numeric value. An empty string or any byte outside base62Alphabet is
// rejected with ok == false so callers can surface a structural error.
func decodeBase62(digits string) (n uint64, ok bool) {
	if digits == "" {
		return 0, false
	}

	for i := 0; i < len(digits); i++ {
		idx := strings.IndexByte(base62Alphabet, digits[i])
		if idx < 0 {
			return 0, false
		}
		n = n*62 + uint64(idx)
	}
	return n, true
}

// encodeDisambiguator renders a disambiguator value per spec.md §4.1: absent
// (empty string) for 0, the short form "s_" for 1, else "s" + base62(value-2) + "_".
func encodeDisambiguator(value uint64) string {
	switch value {
	case 0:
		return ""
	case 1:
		return "s_"
	default:
		return "s" + encodeBase62(value-2) + "_"
	}
}

// encodeBackref renders a back-reference index per spec.md §4.1: "S_" for
// index 0, else "S" + base62(index-1) + "_".
func encodeBackref(index uint64) string {
	if index == 0 {
		return "S_"
	}
	return "S" + encodeBase62(index-1) + "_"
}
