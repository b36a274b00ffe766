// Package parse turns textual benchmark output into named fields.
package parse

import (
	"regexp"
	"strings"
)

// Field is one named value to extract. The first capture group of Pattern
// is the value.
type Field struct {
	Name    string
	Pattern *regexp.Regexp
}

// Filter is a literal replacement applied to every captured value.
type Filter struct {
	Find    string
	Replace string
}

// DefaultFilters strips thousands separators, which appear mid-number
// depending on locale.
var DefaultFilters = []Filter{{Find: ",", Replace: ""}}

// OutputParser extracts a fixed set of fields from raw output.
type OutputParser struct {
	Fields  []Field
	Filters []Filter
}

// New builds a parser from alternating name/pattern pairs. Patterns must
// compile; this is meant for package-level parser tables.
func New(pairs ...string) *OutputParser {
	if len(pairs)%2 != 0 {
		panic("parse: odd number of name/pattern arguments")
	}
	p := &OutputParser{Filters: DefaultFilters}
	for i := 0; i < len(pairs); i += 2 {
		p.Fields = append(p.Fields, Field{Name: pairs[i], Pattern: regexp.MustCompile(pairs[i+1])})
	}
	return p
}

// Parse returns the matched fields. Missing fields are absent from the
// result; an empty output yields an empty, non-nil mapping.
func (p *OutputParser) Parse(output string) map[string]string {
	data := map[string]string{}
	if output == "" {
		return data
	}
	for _, field := range p.Fields {
		match := field.Pattern.FindStringSubmatch(output)
		if len(match) < 2 {
			continue
		}
		data[field.Name] = p.sanitise(match[1])
	}
	return data
}

// Names lists the field names in declaration order.
func (p *OutputParser) Names() []string {
	out := make([]string, 0, len(p.Fields))
	for _, field := range p.Fields {
		out = append(out, field.Name)
	}
	return out
}

func (p *OutputParser) sanitise(value string) string {
	for _, f := range p.Filters {
		value = strings.ReplaceAll(value, f.Find, f.Replace)
	}
	return value
}

// PerfStat parses the summary `perf stat` writes to stderr.
func PerfStat() *OutputParser {
	return New(
		"task_clock_msec", `([\d,]+\.?\d*)\s+msec\s+task-clock`,
		"cycles", `([\d,]+)\s+cycles`,
		"instructions", `([\d,]+)\s+instructions`,
		"branch_misses", `([\d,]+)\s+branch-misses`,
		"elapsed_seconds", `([\d.]+)\s+seconds time elapsed`,
	)
}
