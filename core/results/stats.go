package results

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// MetricSeries maps a metric name to its samples across repeated runs of
// the same binary.
type MetricSeries map[string][]float64

// Stat summarizes one metric. Noise is the coefficient of variation in
// percent, rounded to two decimals.
type Stat struct {
	Average   float64 `yaml:"average"`
	Deviation float64 `yaml:"deviation"`
	Noise     float64 `yaml:"noise"`
}

// StatSummary maps metric names to their statistics.
type StatSummary map[string]Stat

// Metrics returns the metric names in lexical order.
func (s StatSummary) Metrics() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractNumericSeries collects every numeric parsed field of stdout, then
// stderr. Non-numeric values are skipped per field.
func ExtractNumericSeries(results []ExecutionResult) MetricSeries {
	series := MetricSeries{}
	add := func(fields map[string]string) {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, ok := numeric(fields[k])
			if !ok {
				continue
			}
			series[k] = append(series[k], v)
		}
	}
	for _, r := range results {
		add(r.Stdout.Fields)
		add(r.Stderr.Fields)
	}
	return series
}

// Summarize computes the mean, sample standard deviation and noise of
// every metric. A single sample has zero deviation; a zero mean has zero
// noise.
func Summarize(series MetricSeries) StatSummary {
	out := StatSummary{}
	for name, samples := range series {
		if len(samples) == 0 {
			continue
		}
		avg := stat.Mean(samples, nil)
		dev := 0.0
		if len(samples) > 1 {
			dev = stat.StdDev(samples, nil)
		}
		noise := 0.0
		if avg != 0 {
			noise = round2(100 * dev / avg)
		}
		out[name] = Stat{Average: avg, Deviation: dev, Noise: noise}
	}
	return out
}

// SummarizeClusters summarizes each cluster independently.
func SummarizeClusters(clusters []Cluster) map[string]StatSummary {
	out := make(map[string]StatSummary, len(clusters))
	for _, c := range clusters {
		out[c.Name] = Summarize(ExtractNumericSeries(c.Results))
	}
	return out
}

func numeric(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
