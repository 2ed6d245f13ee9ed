package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"go.mangle.dev/v0mangle/pkg/mangle"
)

var Description = strings.ReplaceAll(`
The demangle tool takes a single v0-mangled symbol name and prints its
human-readable form to standard output. It decodes both the compressed and
the uncompressed forms of the mangling scheme in a single pass, without
building an intermediate structured representation.
`, "\n", " ")

var Demangle = cli.New(Description).
	WithArg(cli.NewArg("symbol", "The mangled symbol to demangle")).
	WithOption(cli.NewOption("verbose", "Emit numeric disambiguators and the instantiating-crate suffix").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: missing required argument: symbol\n")
		return -1
	}

	_, verbose := options["verbose"]

	demangled, err := mangle.DirectDemangle([]byte(args[0]), verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to demangle symbol: %s\n", err)
		return -1
	}

	fmt.Println(demangled)
	return 0
}

func main() { os.Exit(Demangle.Run(os.Args, os.Stdout)) }
