package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exposed on the Prometheus endpoint. Registered against the
// default registry, same one the prometheus exporter reads from.
var (
	OrdersSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bistro",
		Name:      "orders_settled_total",
		Help:      "Orders that completed the settlement transaction.",
	}, []string{"method"})

	CashHandovers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bistro",
		Name:      "cash_handovers_total",
		Help:      "Driver cash handovers processed.",
	})

	BillsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bistro",
		Name:      "bills_reconciled_total",
		Help:      "Bills marked settled through the reconciliation ledger.",
	})
)
