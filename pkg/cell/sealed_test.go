package cell_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/securecell/pkg/cell"
)

// flakyCodec fails encoding or decoding on demand.
type flakyCodec struct {
	failEncode atomic.Bool
	failDecode atomic.Bool
}

var errCodec = errors.New("codec failure")

func (c *flakyCodec) Encode(v string) ([]byte, error) {
	if c.failEncode.Load() {
		return nil, errCodec
	}
	return []byte(v), nil
}

func (c *flakyCodec) Decode(b []byte) (string, error) {
	if c.failDecode.Load() {
		return "", errCodec
	}
	return string(b), nil
}

func TestSealed_RoundTripStruct(t *testing.T) {
	t.Parallel()

	type dbCreds struct {
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Port     int    `yaml:"port"`
	}
	want := dbCreds{User: "app", Password: "pa55word", Port: 5432}

	c := cell.FromValue(want,
		cell.WithPolicy(cell.PolicySealed),
		cell.WithCodec[dbCreds](cell.YAMLCodec[dbCreds]{}),
	)
	defer c.Reset()

	require.NoError(t, c.Lock())
	shadow := c.Pointer()
	require.NotNil(t, shadow)
	assert.Equal(t, dbCreds{}, *shadow, "only a zero placeholder is visible while sealed")

	require.NoError(t, c.Unlock())
	assert.Equal(t, want, c.Snapshot().Value)
}

func TestSealed_StringCodec(t *testing.T) {
	t.Parallel()

	c := cell.FromValue("token-abc",
		cell.WithPolicy(cell.PolicySealed),
		cell.WithCodec[string](cell.StringCodec{}),
	)
	defer c.Reset()

	require.NoError(t, c.Lock())
	require.NoError(t, c.Unlock())
	assert.Equal(t, "token-abc", c.Snapshot().Value)
}

func TestSealed_EmptyValue(t *testing.T) {
	t.Parallel()

	c := cell.FromValue("",
		cell.WithPolicy(cell.PolicySealed),
		cell.WithCodec[string](cell.StringCodec{}),
	)
	defer c.Reset()

	require.NoError(t, c.Lock())
	require.NoError(t, c.Unlock())
	snap := c.Snapshot()
	assert.False(t, snap.Null)
	assert.Equal(t, "", snap.Value)
}

func TestSealed_EncodeFailureKeepsAccessDenied(t *testing.T) {
	t.Parallel()

	codec := &flakyCodec{}
	codec.failEncode.Store(true)

	c := cell.FromValue("secret", cell.WithPolicy(cell.PolicySealed), cell.WithCodec[string](codec))
	defer c.Reset()

	err := c.Lock()
	require.ErrorIs(t, err, cell.ErrSeal)
	assert.True(t, c.IsLocked(), "lock must hold even when sealing fails")
	assert.True(t, c.Snapshot().Null)

	require.NoError(t, c.Unlock())
	assert.Equal(t, "secret", c.Snapshot().Value)
}

func TestSealed_DecodeFailureStaysLocked(t *testing.T) {
	t.Parallel()

	codec := &flakyCodec{}
	c := cell.FromValue("secret", cell.WithPolicy(cell.PolicySealed), cell.WithCodec[string](codec))
	defer c.Reset()

	require.NoError(t, c.Lock())

	codec.failDecode.Store(true)
	err := c.Unlock()
	require.ErrorIs(t, err, cell.ErrSeal)
	assert.True(t, c.IsLocked())
	assert.False(t, c.IsEmpty(), "sealed value is kept for a later unlock")
	assert.True(t, c.Snapshot().Null)

	codec.failDecode.Store(false)
	require.NoError(t, c.Unlock())
	assert.Equal(t, "secret", c.Snapshot().Value)
}

func TestSealed_ResetWhileSealed(t *testing.T) {
	t.Parallel()

	c := cell.FromValue("secret", cell.WithPolicy(cell.PolicySealed), cell.WithCodec[string](cell.StringCodec{}))
	require.NoError(t, c.Lock())

	c.Reset()
	assert.True(t, c.IsEmpty())
	assert.ErrorIs(t, c.Unlock(), cell.ErrDestroyed)
	assert.True(t, c.Snapshot().Null)
}
