package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records counters for the order and verification pipelines.
type CommerceMetrics struct {
	ordersCreated   *prometheus.CounterVec
	otpIssued       *prometheus.CounterVec
	otpVerified     *prometheus.CounterVec
	sequenceRetries *prometheus.CounterVec
	payments        *prometheus.CounterVec
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labeled by payment outcome.",
	}, []string{"status"})
	otpIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_issued_total",
		Help: "One-time codes issued, labeled by purpose.",
	}, []string{"purpose"})
	otpVerified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_verified_total",
		Help: "One-time code verification attempts, labeled by purpose and result.",
	}, []string{"purpose", "result"})
	sequenceRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_number_retries_total",
		Help: "Document number allocations retried after a uniqueness collision.",
	}, []string{"entity"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment gateway charges, labeled by outcome.",
	}, []string{"status"})
	reg.MustRegister(ordersCreated, otpIssued, otpVerified, sequenceRetries, payments)
	return &CommerceMetrics{
		ordersCreated:   ordersCreated,
		otpIssued:       otpIssued,
		otpVerified:     otpVerified,
		sequenceRetries: sequenceRetries,
		payments:        payments,
	}
}

// IncOrderCreated increments the orders counter for the given outcome.
func (m *CommerceMetrics) IncOrderCreated(status string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncOTPIssued increments the issued-code counter for the purpose.
func (m *CommerceMetrics) IncOTPIssued(purpose string) {
	if m == nil || m.otpIssued == nil {
		return
	}
	m.otpIssued.WithLabelValues(normalizeLabel(purpose)).Inc()
}

// IncOTPVerified increments the verification counter for the purpose and result.
func (m *CommerceMetrics) IncOTPVerified(purpose, result string) {
	if m == nil || m.otpVerified == nil {
		return
	}
	m.otpVerified.WithLabelValues(normalizeLabel(purpose), normalizeLabel(result)).Inc()
}

// IncSequenceRetry increments the retry counter for the entity sequence.
func (m *CommerceMetrics) IncSequenceRetry(entity string) {
	if m == nil || m.sequenceRetries == nil {
		return
	}
	m.sequenceRetries.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncPayment increments the payment counter for the given outcome.
func (m *CommerceMetrics) IncPayment(status string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
