package mangle

import (
	"strings"
)

// ----------------------------------------------------------------------------
// Identifier codec (punycode-style, spec.md §6)

// This file implements the bounded ASCII identifier transform spec.md §1 treats
// as "the identifier-encoding library" when describing the out-of-scope CLI
// wrapper's dependencies, but narrows it to an opaque (encode, decode) pair this
// package owns outright: no library in the retrieval pack reproduces the exact
// variant spec.md §6 describes (hyphen remapped to underscore, trailing digit
// alphabet shifted to A-J so the grammar's own '_' terminator and decimal
// lengths are never ambiguous with the payload). It is a standard RFC 3492
// Bootstring/Punycode codec (the same algorithm IDNA uses) with that one
// additional remapping pass on the way out and its inverse on the way in.

const (
	puncBase        = 36
	puncTMin        = 1
	puncTMax        = 26
	puncSkew        = 38
	puncDamp        = 700
	puncInitialBias = 72
	puncInitialN    = 128
	puncDelimiter   = '-'
)

const puncDigits = "abcdefghijklmnopqrstuvwxyz0123456789"

func puncDigitValue(b byte) (int, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return int(b - 'a'), true
	case b >= '0' && b <= '9':
		return 26 + int(b-'0'), true
	default:
		return 0, false
	}
}

func puncAdapt(delta, numPoints int, firstTime bool) int {
	if firstTime {
		delta /= puncDamp
	} else {
		delta /= 2
	}
	delta += delta / numPoints

	k := 0
	for delta > ((puncBase-puncTMin)*puncTMax)/2 {
		delta /= puncBase - puncTMin
		k += puncBase
	}
	return k + (((puncBase-puncTMin+1)*delta)/(delta+puncSkew))
}

// punycodeEncode implements RFC 3492 Bootstring encoding, producing the basic
// (ASCII) code points of s verbatim followed by a '-' delimiter and the
// delta-encoded remainder, or just the delta-encoded remainder when s has no
// basic code points at all.
func punycodeEncode(s string) string {
	runes := []rune(s)

	var out strings.Builder
	basicCount := 0
	for _, r := range runes {
		if r < puncInitialN {
			out.WriteRune(r)
			basicCount++
		}
	}
	if basicCount > 0 {
		out.WriteByte(puncDelimiter)
	}

	n, delta, bias := puncInitialN, 0, puncInitialBias
	handled := basicCount
	total := len(runes)

	for handled < total {
		minRune := rune(0x10FFFF + 1)
		for _, r := range runes {
			if int(r) >= n && r < minRune {
				minRune = r
			}
		}
		delta += (int(minRune) - n) * (handled + 1)
		n = int(minRune)

		for _, r := range runes {
			if int(r) < n {
				delta++
			}
			if int(r) == n {
				q := delta
				for k := puncBase; ; k += puncBase {
					t := k - bias
					switch {
					case t < puncTMin:
						t = puncTMin
					case t > puncTMax:
						t = puncTMax
					}
					if q < t {
						out.WriteByte(puncDigits[q])
						break
					}
					out.WriteByte(puncDigits[t+(q-t)%(puncBase-t)])
					q = (q - t) / (puncBase - t)
				}
				bias = puncAdapt(delta, handled+1, handled == basicCount)
				delta = 0
				handled++
			}
		}
		delta++
		n++
	}

	return out.String()
}

// punycodeDecode is the inverse of punycodeEncode.
func punycodeDecode(s string) (string, bool) {
	basic := ""
	rest := s
	if idx := strings.LastIndexByte(s, puncDelimiter); idx >= 0 {
		basic = s[:idx]
		rest = s[idx+1:]
	} else if s != "" {
		// No delimiter: per RFC 3492 this means no basic code points at all,
		// so the entire string is the delta-encoded remainder.
		rest = s
	}

	output := []rune(basic)

	n, i, bias := puncInitialN, 0, puncInitialBias
	pos := 0
	for pos < len(rest) {
		oldI := i
		w := 1
		for k := puncBase; ; k += puncBase {
			if pos >= len(rest) {
				return "", false
			}
			digit, ok := puncDigitValue(rest[pos])
			pos++
			if !ok {
				return "", false
			}
			i += digit * w

			t := k - bias
			switch {
			case t < puncTMin:
				t = puncTMin
			case t > puncTMax:
				t = puncTMax
			}
			if digit < t {
				break
			}
			w *= puncBase - t
		}

		bias = puncAdapt(i-oldI, len(output)+1, oldI == 0)
		n += i / (len(output) + 1)
		i = i % (len(output) + 1)

		// Insert codepoint n at position i.
		output = append(output, 0)
		copy(output[i+1:], output[i:])
		output[i] = rune(n)
		i++
	}

	return string(output), true
}

// encodeIdentifier applies the full transform of spec.md §6 to a non-ASCII
// identifier: punycode-encode, fold the '-' separator into '_', and shift the
// suffix's own digit alphabet to A-J so the encoded suffix carries neither.
// The basic (ASCII) code points before the separator are copied unchanged,
// including any '-' or digits among them.
func encodeIdentifier(s string) (string, error) {
	encoded := punycodeEncode(s)

	basic, suffix := "", encoded
	if idx := strings.LastIndexByte(encoded, puncDelimiter); idx >= 0 {
		basic, suffix = encoded[:idx], encoded[idx+1:]
	}

	shifted := make([]byte, len(suffix))
	for i := 0; i < len(suffix); i++ {
		c := suffix[i]
		if c >= '0' && c <= '9' {
			shifted[i] = 'A' + (c - '0')
		} else {
			shifted[i] = c
		}
	}

	if basic == "" {
		return string(shifted), nil
	}
	return basic + "_" + string(shifted), nil
}

// decodeIdentifier inverts encodeIdentifier, reporting an encoding error if
// the payload is not a well-formed shifted-punycode string.
func decodeIdentifier(s string) (string, error) {
	basic, suffix := "", s
	if idx := strings.LastIndexByte(s, '_'); idx >= 0 {
		basic, suffix = s[:idx], s[idx+1:]
	}

	unshifted := make([]byte, len(suffix))
	for i := 0; i < len(suffix); i++ {
		c := suffix[i]
		if c >= 'A' && c <= 'J' {
			unshifted[i] = '0' + (c - 'A')
		} else {
			unshifted[i] = c
		}
	}

	standard := string(unshifted)
	if basic != "" {
		standard = basic + string(rune(puncDelimiter)) + standard
	}

	text, ok := punycodeDecode(standard)
	if !ok {
		return "", newError(KindEncoding, -1, "identifier", "well-formed punycode payload", fastQuote(s))
	}
	return text, nil
}

func fastQuote(s string) string {
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return "\"" + s + "\""
}
