package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"tcbench/core/results"
)

// WriteMetrics exports summaries as gauges labelled by binary and metric,
// in the node-exporter textfile format.
func WriteMetrics(path string, summaries map[string]results.StatSummary) error {
	reg := prometheus.NewRegistry()
	labels := []string{"binary", "metric"}
	average := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tcbench",
		Name:      "metric_average",
		Help:      "Mean of a benchmark metric across iterations",
	}, labels)
	deviation := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tcbench",
		Name:      "metric_deviation",
		Help:      "Sample standard deviation of a benchmark metric",
	}, labels)
	noise := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tcbench",
		Name:      "metric_noise",
		Help:      "Coefficient of variation of a benchmark metric, in percent",
	}, labels)
	reg.MustRegister(average, deviation, noise)

	for binary, summary := range summaries {
		for metric, stat := range summary {
			average.WithLabelValues(binary, metric).Set(stat.Average)
			deviation.WithLabelValues(binary, metric).Set(stat.Deviation)
			noise.WithLabelValues(binary, metric).Set(stat.Noise)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
