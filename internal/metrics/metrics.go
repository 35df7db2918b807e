package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcome labels.
const (
	OutcomeApplied      = "applied"
	OutcomeInvalid      = "invalid"
	OutcomeBadSignature = "bad_signature"
	OutcomeNotFound     = "not_found"
	OutcomeStorageError = "storage_error"
)

// Checkout result labels.
const (
	ResultCreated      = "created"
	ResultGatewayError = "gateway_error"
	ResultStorageError = "storage_error"
)

type Set struct {
	WebhookOutcomes *prometheus.CounterVec
	CheckoutResults *prometheus.CounterVec
}

// New registers the service collectors. Tests pass their own registry; nil
// means the default one.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &Set{
		WebhookOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastevision",
			Subsystem: "ordering",
			Name:      "webhook_notifications_total",
			Help:      "Payment webhook notifications by outcome.",
		}, []string{"outcome"}),
		CheckoutResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastevision",
			Subsystem: "ordering",
			Name:      "checkout_requests_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(s.WebhookOutcomes, s.CheckoutResults)
	return s
}

// Webhook records one webhook outcome. Safe on a nil Set so services can run
// without metrics in tests.
func (s *Set) Webhook(outcome string) {
	if s == nil {
		return
	}
	s.WebhookOutcomes.WithLabelValues(outcome).Inc()
}

func (s *Set) Checkout(result string) {
	if s == nil {
		return
	}
	s.CheckoutResults.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
