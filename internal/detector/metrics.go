package detector

import "github.com/prometheus/client_golang/prometheus"

var (
	roundDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ringkv_detector_report_round_duration_seconds",
		Help:    "Time taken to complete one gossip report round.",
		Buckets: prometheus.DefBuckets,
	})

	aliveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ringkv_detector_alive_servers",
		Help: "Number of servers currently believed alive.",
	})

	suspectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ringkv_detector_suspected_servers",
		Help: "Number of servers currently under suspicion.",
	})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ringkv_detector_evictions_total",
		Help: "Total number of servers evicted after exceeding their grace period.",
	})

	suspicionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ringkv_detector_suspicions_total",
		Help: "Total number of servers placed under suspicion after an unresponsive report.",
	})
)

func init() {
	prometheus.MustRegister(roundDuration, aliveGauge, suspectedGauge, evictionsTotal, suspicionsTotal)
}
