package mangle_test

import (
	"testing"

	"go.mangle.dev/v0mangle/pkg/mangle"
)

// TestDirectDemangleMatchesPrettyPrint is the "direct-demangler equivalence"
// property of spec.md §8: DirectDemangle(Mangle(Compress(x)), verbose) must
// equal PrettyPrint(x, verbose) for every AST x, in both output modes.
func TestDirectDemangleMatchesPrettyPrint(t *testing.T) {
	for name, sym := range fixtures() {
		t.Run(name, func(t *testing.T) {
			mangled := mangle.Mangle(mangle.Compress(sym))

			for _, verbose := range []bool{false, true} {
				want := mangle.PrettyPrint(sym, verbose)
				got, err := mangle.DirectDemangle(mangled, verbose)
				if err != nil {
					t.Fatalf("DirectDemangle failed (verbose=%v): %v", verbose, err)
				}
				if got != want {
					t.Fatalf("DirectDemangle/PrettyPrint disagree (verbose=%v):\n got:  %q\n want: %q", verbose, got, want)
				}
			}
		})
	}
}

// TestDirectDemangleMatchesUncompressedForm exercises the same equivalence
// against the uncompressed mangled bytes, so the direct demangler is proven
// correct independent of whatever the compressor happens to decide.
func TestDirectDemangleMatchesUncompressedForm(t *testing.T) {
	for name, sym := range fixtures() {
		t.Run(name, func(t *testing.T) {
			mangled := mangle.Mangle(sym)
			want := mangle.PrettyPrint(sym, false)
			got, err := mangle.DirectDemangle(mangled, false)
			if err != nil {
				t.Fatalf("DirectDemangle failed: %v", err)
			}
			if got != want {
				t.Fatalf("DirectDemangle/PrettyPrint disagree:\n got:  %q\n want: %q", got, want)
			}
		})
	}
}

func TestDirectDemangleArrayLengthNormalizesDigits(t *testing.T) {
	// std<[i32; 7]> with its array length written as "007": the leading
	// zeros must not survive into the demangled text.
	mangled := []byte("_RN5std_0IA007lEE")
	got, err := mangle.DirectDemangle(mangled, false)
	if err != nil {
		t.Fatalf("DirectDemangle failed: %v", err)
	}
	want := "std<[i32; 7]>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDirectDemanglePropagatesStructuralErrors(t *testing.T) {
	cases := []string{"Xgarbage", "_RZ", "_RN5std_0Il", "_R1N5std_0E"}
	for _, in := range cases {
		if _, err := mangle.DirectDemangle([]byte(in), false); err == nil {
			t.Fatalf("expected an error for input %q, got none", in)
		}
	}
}
