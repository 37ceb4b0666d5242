package kvstore

import "github.com/prometheus/client_golang/prometheus"

var (
	opsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ringkv_kvstore_ops_total",
		Help: "Total number of Put/Get/Remove operations handled, by op and outcome.",
	}, []string{"op", "outcome"})

	bucketKeys = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ringkv_kvstore_bucket_keys",
		Help: "Number of keys currently held in an owned bucket.",
	}, []string{"bucket"})
)

func init() {
	prometheus.MustRegister(opsTotal, bucketKeys)
}
