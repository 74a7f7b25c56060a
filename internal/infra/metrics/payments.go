package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		reconciliationsTotal,
		ticketsDeliveredTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by resulting status (pending/approved/rejected/...).",
		},
		[]string{"status"},
	)

	reconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Notification reconciliations by outcome.",
		},
		[]string{"outcome"},
	)

	ticketsDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_delivered_total",
			Help: "Tickets mailed to payers after payment approval.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncReconciliation(outcome string) {
	reconciliationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncTicketDelivered() {
	ticketsDeliveredTotal.Inc()
}
