package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orchestrator"

var (
	descRequests = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "handler", "requests_total"),
		"Prompts submitted to a handler.",
		[]string{"handler"}, nil,
	)
	descOutcomes = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "handler", "outcomes_total"),
		"Executions by outcome.",
		[]string{"handler", "outcome"}, nil,
	)
	descActions = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "handler", "user_actions_total"),
		"User reactions to handler output.",
		[]string{"handler", "action"}, nil,
	)
	descTokens = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "handler", "tokens_total"),
		"Tokens produced by a handler.",
		[]string{"handler"}, nil,
	)
	descAvgResponse = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "handler", "average_response_milliseconds"),
		"Mean response time over all successful executions.",
		[]string{"handler"}, nil,
	)
	descSignal = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "handler", "quality_signal"),
		"Derived quality signals; rates are percentages.",
		[]string{"handler", "signal"}, nil,
	)
)

// Collector exports a Tracker's state to Prometheus at scrape time.
type Collector struct {
	tracker *Tracker
}

func NewCollector(t *Tracker) *Collector {
	return &Collector{tracker: t}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRequests
	ch <- descOutcomes
	ch <- descActions
	ch <- descTokens
	ch <- descAvgResponse
	ch <- descSignal
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, h := range c.tracker.Handlers() {
		m := c.tracker.Snapshot(h)
		s := Signals(m)
		name := string(h)

		ch <- prometheus.MustNewConstMetric(descRequests, prometheus.CounterValue, float64(m.RequestCount), name)
		ch <- prometheus.MustNewConstMetric(descOutcomes, prometheus.CounterValue, float64(m.SuccessCount), name, "success")
		ch <- prometheus.MustNewConstMetric(descOutcomes, prometheus.CounterValue, float64(m.ErrorCount), name, "error")
		ch <- prometheus.MustNewConstMetric(descTokens, prometheus.CounterValue, float64(m.TokenCount), name)
		ch <- prometheus.MustNewConstMetric(descAvgResponse, prometheus.GaugeValue, m.AverageResponseTime, name)

		for action, n := range map[string]int{
			"retry":    m.RetryCount,
			"copy":     m.CopyActions,
			"expand":   m.ExpandActions,
			"download": m.DownloadActions,
			"edit":     m.ManualEdits,
		} {
			ch <- prometheus.MustNewConstMetric(descActions, prometheus.CounterValue, float64(n), name, action)
		}

		for signal, v := range map[string]float64{
			"retry_rate":      s.RetryRate,
			"download_rate":   s.DownloadRate,
			"copy_rate":       s.CopyRate,
			"edit_rate":       s.EditRate,
			"success_rate":    s.SuccessRate,
			"avg_code_length": s.AvgCodeLength,
		} {
			ch <- prometheus.MustNewConstMetric(descSignal, prometheus.GaugeValue, v, name, signal)
		}
	}
}
