package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AdoptionMetrics expone contadores Prometheus del flujo de adopción.
type AdoptionMetrics struct {
	TransitionsTotal *prometheus.CounterVec
}

// NewAdoptionMetrics registra las métricas en el registry por defecto.
func NewAdoptionMetrics() *AdoptionMetrics {
	return &AdoptionMetrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "engine",
			Name:      "transitions_total",
			Help:      "Adoption workflow transitions by type and outcome.",
		}, []string{"transition", "outcome"}), // outcome: applied, noop, conflict, not_found, invalid, error
	}
}

// Observe incrementa el contador de una transición.
// Tolera receptor nil para que los services no dependan de métricas en tests.
func (m *AdoptionMetrics) Observe(transition, outcome string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(transition, outcome).Inc()
}
