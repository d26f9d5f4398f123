package cell_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/securecell/pkg/cell"
)

func TestNewBytes(t *testing.T) {
	t.Parallel()

	for _, policy := range cell.Policies() {
		t.Run(policy.String(), func(t *testing.T) {
			t.Parallel()

			src := []byte("hunter2")
			c := cell.NewBytes(src, cell.WithPolicy(policy))
			defer c.Reset()

			assert.Equal(t, policy, c.Policy(), "byte cells support every policy")

			src[0] = 'X'
			assert.Equal(t, []byte("hunter2"), c.Snapshot().Value, "cell holds its own copy")

			require.NoError(t, c.Lock())
			assert.True(t, c.Snapshot().Null)
			require.NoError(t, c.Unlock())
			assert.Equal(t, []byte("hunter2"), c.Snapshot().Value)
		})
	}
}

func TestNewBytes_SnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()

	c := cell.NewBytes([]byte("secret"))
	defer c.Reset()

	snap := c.Snapshot()
	snap.Value[0] = 'X'
	assert.Equal(t, []byte("secret"), c.Snapshot().Value)
}

func TestNewBytes_ResetWipesStorage(t *testing.T) {
	t.Parallel()

	c := cell.NewBytes([]byte("secret"))
	held := *c.Pointer()

	c.Reset()
	assert.True(t, bytes.Equal(held, make([]byte, len(held))), "backing array wiped, got %q", held)
}

func TestNewBytes_AllocateWipesOldValue(t *testing.T) {
	t.Parallel()

	c := cell.NewBytes([]byte("first"))
	defer c.Reset()
	old := *c.Pointer()

	require.NoError(t, c.Allocate([]byte("second")))
	assert.Equal(t, make([]byte, 5), old)
	assert.Equal(t, []byte("second"), c.Snapshot().Value)
}

func TestNewBytes_SwapWipesReleasedPrimary(t *testing.T) {
	t.Parallel()

	c := cell.NewBytes([]byte("secret"), cell.WithPolicy(cell.PolicySwap))
	defer c.Reset()
	held := *c.Pointer()

	require.NoError(t, c.Lock())
	assert.Equal(t, make([]byte, 6), held)
	require.NoError(t, c.Unlock())
	assert.Equal(t, []byte("secret"), c.Snapshot().Value)
}

func TestNewBytesOwned(t *testing.T) {
	t.Parallel()

	src := []byte("adopted")
	c := cell.NewBytesOwned(src)
	assert.Equal(t, []byte("adopted"), c.Snapshot().Value)

	c.Reset()
	assert.Equal(t, make([]byte, 7), src, "adopted buffer is wiped on reset")
}
