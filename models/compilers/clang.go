package compilers

import (
	"strings"

	"tcbench/core/model"
)

// Clang is the LLVM toolchain with flang as its Fortran driver.
type Clang struct{ driver }

func NewClang() *Clang {
	return &Clang{driver{
		name:  "clang",
		cc:    "clang",
		cxx:   "clang++",
		fc:    "flang",
		flags: model.Flags{Compile: "-O3 -ffast-math -ffp-contract=on"},
	}}
}

var clangTranslations = map[string]string{
	"-fopenmp": "-fopenmp=libomp",
}

// ValidateFlags rewrites GNU spellings clang does not accept as is. Tokens
// are replaced in place; unknown tokens keep their position.
func (c *Clang) ValidateFlags(f model.Flags) model.Flags {
	return model.Flags{Compile: translate(f.Compile), Link: translate(f.Link)}
}

func translate(flags string) string {
	tokens := strings.Fields(flags)
	for i, tok := range tokens {
		if repl, ok := clangTranslations[tok]; ok {
			tokens[i] = repl
		}
	}
	return strings.Join(tokens, " ")
}
