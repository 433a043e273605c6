// Package main provides the CLI entrypoint for mapcheck.
//
// mapcheck is a static checker for object-mapping profiles written in C#:
//   - Parses C# sources and finds CreateMap registrations with their call chains
//   - Classifies every member of both mapped types, in both directions
//   - Reports findings under stable rule identifiers
//   - Applies fixes one at a time, re-analysing after each edit
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if errors.Is(err, errFindings) {
			os.Exit(1)
		}

		os.Exit(2)
	}
}
