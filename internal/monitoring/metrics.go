package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	QuotesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotes_created_total",
		Help: "Total number of quotes created",
	})
	QuotesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotes_accepted_total",
		Help: "Total number of quotes accepted by customers",
	})
	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total outbound emails by kind and outcome",
	}, []string{"kind", "status"})
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration by path",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)

// InitMetrics registers all collectors. Registration errors are logged and
// otherwise ignored so a double Init in tests is harmless.
func InitMetrics() {
	for _, c := range []prometheus.Collector{QuotesCreated, QuotesAccepted, EmailsSent, RequestDuration} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				log.Error().Err(err).Msg("failed to register metric")
			}
		}
	}
}
