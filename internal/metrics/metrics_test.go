package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/securecell/pkg/cell"
)

func TestNewCellMetrics(t *testing.T) {
	t.Parallel()

	m := NewCellMetrics(prometheus.NewRegistry())

	assert.NotNil(t, m.Created())
	assert.NotNil(t, m.Destroyed())
	assert.NotNil(t, m.Transitions())
	assert.NotNil(t, m.Live())
}

func TestNewCellMetrics_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewCellMetrics(reg)
	assert.Panics(t, func() { NewCellMetrics(reg) })
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeOK},
		{"locked", cell.ErrLocked, OutcomeLocked},
		{"destroyed", cell.ErrDestroyed, OutcomeDestroyed},
		{"wrapped seal", fmt.Errorf("%w: decode: boom", cell.ErrSeal), OutcomeSeal},
		{"other", errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestCellMetrics_Lifecycle(t *testing.T) {
	t.Parallel()

	m := NewCellMetrics(prometheus.NewRegistry())

	c := cell.FromValue(42, cell.WithPolicy(cell.PolicySwap), cell.WithObserver(m))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Created().WithLabelValues("swap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Live().WithLabelValues("swap")))

	require.NoError(t, c.Lock())
	assert.ErrorIs(t, c.Allocate(7), cell.ErrLocked)
	require.NoError(t, c.Unlock())
	require.NoError(t, c.Allocate(7))

	c.Reset()
	c.Reset() // second reset is not counted
	assert.ErrorIs(t, c.Lock(), cell.ErrDestroyed)

	transitions := m.Transitions()
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("swap", "lock", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("swap", "unlock", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("swap", "allocate", OutcomeLocked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("swap", "allocate", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("swap", "reset", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("swap", "lock", OutcomeDestroyed)))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Destroyed().WithLabelValues("swap")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Live().WithLabelValues("swap")))
}

func TestCellMetrics_MoveKeepsLiveCountBalanced(t *testing.T) {
	t.Parallel()

	m := NewCellMetrics(prometheus.NewRegistry())

	x := cell.FromValue("secret", cell.WithObserver(m))
	y := x.Move()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Live().WithLabelValues("flag")))

	x.Reset()
	y.Reset()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Live().WithLabelValues("flag")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Destroyed().WithLabelValues("flag")))
}
