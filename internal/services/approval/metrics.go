package approval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "approval_decisions_total",
	Help: "Resolved inquiries by kind and decision.",
}, []string{"kind", "decision"})
