package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoflow_mutations_total",
		Help: "Committed mutations by entity and action.",
	}, []string{"entity", "action"})

	auditRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoflow_audit_records_total",
		Help: "Audit records appended by table.",
	}, []string{"table"})

	auditSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoflow_audit_suppressed_total",
		Help: "Updates whose audit record was suppressed because only ignored columns changed.",
	})

	authzDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoflow_authz_denials_total",
		Help: "Authorization denials by requested capability.",
	}, []string{"capability"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoflow_http_request_duration_seconds",
		Help:    "HTTP request duration by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// CountMutation records one committed mutation.
func CountMutation(entity, action string) {
	mutationsTotal.WithLabelValues(entity, action).Inc()
}

// CountAuditRecord records one appended audit record.
func CountAuditRecord(table string) {
	auditRecordsTotal.WithLabelValues(table).Inc()
}

// CountAuditSuppressed records one suppressed audit record.
func CountAuditSuppressed() {
	auditSuppressedTotal.Inc()
}

// CountAuthzDenial records one authorization denial.
func CountAuthzDenial(capability string) {
	authzDenialsTotal.WithLabelValues(capability).Inc()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method string, status int, duration time.Duration) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
