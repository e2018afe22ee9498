package answerlock

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeriver(t *testing.T) {
	d, err := NewDeriver()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, DefaultTargetDuration, d.target)
	assert.Equal(t, DefaultMaxIterations, d.maxIterations)
}

func TestNewDeriver_BadOptions(t *testing.T) {
	_, err := NewDeriver(SetTargetDuration(0))
	assert.Error(t, err)
	_, err = NewDeriver(SetMaxIterations(0))
	assert.Error(t, err)
	_, err = NewDeriver(SetRandSource(nil))
	assert.Error(t, err)
	_, err = NewDeriver(SetStretchFunc(nil))
	assert.Error(t, err)
}

func TestDeriver_CalibrateReplayRoundTrip(t *testing.T) {
	d, err := NewDeriver(SetTargetDuration(20 * time.Millisecond))
	require.NoError(t, err)

	iterations, salt, key, err := d.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, iterations, uint64(1))
	assert.Len(t, salt, SaltSize)
	assert.Len(t, key, KeySize)

	replayed, err := d.Replay(context.Background(), iterations, salt, "blue horse")
	require.NoError(t, err)
	assert.Equal(t, key, replayed)
}

func TestDeriver_ReplayDeterminism(t *testing.T) {
	d, err := NewDeriver()
	require.NoError(t, err)
	salt := Salt(bytes.Repeat([]byte{0xab}, SaltSize))

	first, err := d.Replay(context.Background(), 1000, salt, "blue horse")
	require.NoError(t, err)
	second, err := d.Replay(context.Background(), 1000, salt, "blue horse")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	differentSecret, err := d.Replay(context.Background(), 1000, salt, "red horse")
	require.NoError(t, err)
	assert.NotEqual(t, first, differentSecret)

	differentCount, err := d.Replay(context.Background(), 1001, salt, "blue horse")
	require.NoError(t, err)
	assert.NotEqual(t, first, differentCount)
}

func TestDeriver_CalibrateMonotonicity(t *testing.T) {
	short, err := NewDeriver(SetTargetDuration(10 * time.Millisecond))
	require.NoError(t, err)
	long, err := NewDeriver(SetTargetDuration(200 * time.Millisecond))
	require.NoError(t, err)

	shortCount, _, _, err := short.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	longCount, _, _, err := long.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	assert.LessOrEqual(t, shortCount, longCount)
}

func TestDeriver_SaltUniqueness(t *testing.T) {
	d, err := NewDeriver(SetTargetDuration(time.Millisecond))
	require.NoError(t, err)

	_, first, _, err := d.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	_, second, _, err := d.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDeriver_ReplayClampsIterations(t *testing.T) {
	d, err := NewDeriver(SetMaxIterations(1000))
	require.NoError(t, err)
	salt := make(Salt, SaltSize)

	_, err = d.Replay(context.Background(), 1001, salt, "blue horse")
	assert.ErrorIs(t, err, ErrIterationCount)
	_, err = d.Replay(context.Background(), 0, salt, "blue horse")
	assert.ErrorIs(t, err, ErrIterationCount)

	_, err = d.Replay(context.Background(), 1000, salt, "blue horse")
	assert.NoError(t, err)
}

func TestDeriver_CalibrateHonorsMaxIterations(t *testing.T) {
	d, err := NewDeriver(SetTargetDuration(time.Minute), SetMaxIterations(500))
	require.NoError(t, err)

	iterations, _, _, err := d.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), iterations)
}

func TestDeriver_EmptySecret(t *testing.T) {
	d, err := NewDeriver()
	require.NoError(t, err)

	_, _, _, err = d.Calibrate(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySecret)
	_, err = d.Replay(context.Background(), 1, make(Salt, SaltSize), "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestDeriver_BadSalt(t *testing.T) {
	d, err := NewDeriver()
	require.NoError(t, err)

	_, err = d.Replay(context.Background(), 1, make(Salt, SaltSize-1), "blue horse")
	assert.ErrorIs(t, err, ErrSaltSize)
}

func TestDeriver_Cancellation(t *testing.T) {
	d, err := NewDeriver()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err = d.Calibrate(ctx, "blue horse")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = d.Replay(ctx, 100_000, make(Salt, SaltSize), "blue horse")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetRandSource(t *testing.T) {
	fixed := bytes.Repeat([]byte{0x42}, SaltSize)
	d, err := NewDeriver(
		SetTargetDuration(time.Millisecond),
		SetRandSource(bytes.NewReader(fixed)),
	)
	require.NoError(t, err)

	_, salt, _, err := d.Calibrate(context.Background(), "blue horse")
	require.NoError(t, err)
	assert.Equal(t, Salt(fixed), salt)
}
