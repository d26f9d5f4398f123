package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/systmms/securecell/pkg/cell"
)

// Outcome label values for transitions.
const (
	OutcomeOK        = "ok"
	OutcomeLocked    = "locked"
	OutcomeDestroyed = "destroyed"
	OutcomeSeal      = "seal_error"
	OutcomeError     = "error"
)

// CellMetrics records cell lifecycle events as Prometheus metrics.
// It implements cell.Observer.
type CellMetrics struct {
	created     *prometheus.CounterVec
	destroyed   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	live        *prometheus.GaugeVec
}

var _ cell.Observer = (*CellMetrics)(nil)

// NewCellMetrics registers the cell metrics on reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewCellMetrics(reg prometheus.Registerer) *CellMetrics {
	factory := promauto.With(reg)

	return &CellMetrics{
		created: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securecell_cells_created_total",
				Help: "Total number of cells created",
			},
			[]string{"policy"},
		),
		destroyed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securecell_cells_destroyed_total",
				Help: "Total number of cells destroyed by Reset or cleanup",
			},
			[]string{"policy"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "securecell_transitions_total",
				Help: "Total number of cell operations by outcome",
			},
			[]string{"policy", "op", "outcome"},
		),
		live: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "securecell_cells_live",
				Help: "Number of cells created and not yet destroyed",
			},
			[]string{"policy"},
		),
	}
}

// CellCreated records a new cell.
func (m *CellMetrics) CellCreated(policy cell.Policy) {
	m.created.WithLabelValues(policy.String()).Inc()
	m.live.WithLabelValues(policy.String()).Inc()
}

// CellTransition records an Allocate, Lock, Unlock or Reset call.
func (m *CellMetrics) CellTransition(policy cell.Policy, op cell.Op, err error) {
	m.transitions.WithLabelValues(policy.String(), string(op), Outcome(err)).Inc()
}

// CellDestroyed records a destroyed cell.
func (m *CellMetrics) CellDestroyed(policy cell.Policy) {
	m.destroyed.WithLabelValues(policy.String()).Inc()
	m.live.WithLabelValues(policy.String()).Dec()
}

// Outcome maps an operation error to its label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, cell.ErrLocked):
		return OutcomeLocked
	case errors.Is(err, cell.ErrDestroyed):
		return OutcomeDestroyed
	case errors.Is(err, cell.ErrSeal):
		return OutcomeSeal
	default:
		return OutcomeError
	}
}

// Created returns the created counter for testing.
func (m *CellMetrics) Created() *prometheus.CounterVec {
	return m.created
}

// Destroyed returns the destroyed counter for testing.
func (m *CellMetrics) Destroyed() *prometheus.CounterVec {
	return m.destroyed
}

// Transitions returns the transition counter for testing.
func (m *CellMetrics) Transitions() *prometheus.CounterVec {
	return m.transitions
}

// Live returns the live cell gauge for testing.
func (m *CellMetrics) Live() *prometheus.GaugeVec {
	return m.live
}
