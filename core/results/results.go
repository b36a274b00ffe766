// Package results collects subprocess outcomes per pipeline stage and
// reduces repeated runs to per-metric statistics.
package results

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMixedOutput is returned when a result, or a set, mixes parsed and raw
// output streams.
var ErrMixedOutput = errors.New("stdout and stderr must both be parsed or both be raw")

// Output is one captured stream. Fields is non-nil when a parser ran.
type Output struct {
	Text   string            `yaml:"text,omitempty"`
	Fields map[string]string `yaml:"fields,omitempty"`
}

// Parsed reports whether the stream went through a parser.
func (o Output) Parsed() bool { return o.Fields != nil }

// Resources is the per-invocation usage reported by the backend.
type Resources struct {
	CPUTimeMs int64 `yaml:"cpu_time_ms,omitempty"`
	MaxRSSKB  int64 `yaml:"max_rss_kb,omitempty"`
	Execs     int   `yaml:"execs,omitempty"`
}

// ExecutionResult is the outcome of one subprocess.
type ExecutionResult struct {
	Args       []string  `yaml:"args"`
	ReturnCode int       `yaml:"returncode"`
	Stdout     Output    `yaml:"stdout"`
	Stderr     Output    `yaml:"stderr"`
	Resources  Resources `yaml:"resources,omitempty"`
}

// Validate checks that both streams share the same parser configuration.
func (r ExecutionResult) Validate() error {
	if r.Stdout.Parsed() != r.Stderr.Parsed() {
		return fmt.Errorf("%s: %w", strings.Join(r.Args, " "), ErrMixedOutput)
	}
	return nil
}

// ResultSet accumulates the results of one pipeline stage in execution
// order.
type ResultSet struct {
	Stage      string
	results    []ExecutionResult
	returnCode int
}

func NewResultSet(stage string) *ResultSet {
	return &ResultSet{Stage: stage}
}

// Append adds r and folds its return code into the aggregate.
func (s *ResultSet) Append(r ExecutionResult) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if len(s.results) > 0 && s.results[0].Stdout.Parsed() != r.Stdout.Parsed() {
		return fmt.Errorf("stage %s: %w", s.Stage, ErrMixedOutput)
	}
	s.results = append(s.results, r)
	s.returnCode += r.ReturnCode
	return nil
}

// ReturnCode is the sum of every appended return code. Non-zero signals
// stage failure.
func (s *ResultSet) ReturnCode() int { return s.returnCode }

func (s *ResultSet) Len() int { return len(s.results) }

// Results returns a copy of the accumulated results.
func (s *ResultSet) Results() []ExecutionResult {
	return append([]ExecutionResult(nil), s.results...)
}

// Structured reports whether any result produced parsed stdout fields.
func (s *ResultSet) Structured() bool {
	for _, r := range s.results {
		if len(r.Stdout.Fields) > 0 {
			return true
		}
	}
	return false
}

// Stdout serializes every non-empty stdout: a YAML list of field mappings
// when parsed, the concatenated text otherwise.
func (s *ResultSet) Stdout() (string, error) {
	return s.render(func(r ExecutionResult) Output { return r.Stdout })
}

// Stderr is the stderr counterpart of Stdout.
func (s *ResultSet) Stderr() (string, error) {
	return s.render(func(r ExecutionResult) Output { return r.Stderr })
}

func (s *ResultSet) render(pick func(ExecutionResult) Output) (string, error) {
	if len(s.results) == 0 {
		return "", nil
	}
	if pick(s.results[0]).Parsed() {
		fields := []map[string]string{}
		for _, r := range s.results {
			if out := pick(r); len(out.Fields) > 0 {
				fields = append(fields, out.Fields)
			}
		}
		data, err := yaml.Marshal(fields)
		if err != nil {
			return "", fmt.Errorf("marshal %s output: %w", s.Stage, err)
		}
		return string(data), nil
	}
	var b strings.Builder
	for _, r := range s.results {
		b.WriteString(pick(r).Text)
	}
	return b.String(), nil
}
