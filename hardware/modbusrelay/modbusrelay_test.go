package modbusrelay

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	Coil  uint16
	Value bool
}

type fakeClient struct {
	coils    map[uint16]bool
	writes   []write
	readErr  error
	writeErr error
	// failed counts writes rejected with writeErr.
	failed int
}

func (f *fakeClient) WriteCoil(coil uint16, value bool) error {
	if f.writeErr != nil {
		f.failed++
		return f.writeErr
	}
	f.writes = append(f.writes, write{coil, value})
	f.coils[coil] = value
	return nil
}

func (f *fakeClient) ReadCoil(coil uint16) (bool, error) {
	return f.coils[coil], f.readErr
}

func TestRelays(t *testing.T) {
	c := &fakeClient{coils: map[uint16]bool{}}
	b := New(c, map[string]Coils{"azimuth": {Positive: 0, Negative: 1}}, false)
	pos, neg, err := b.Relays("azimuth")
	require.NoError(t, err)
	require.NoError(t, pos.Set(true))
	require.NoError(t, neg.Set(false))
	if diff := cmp.Diff(c.writes, []write{{0, true}, {1, false}}); diff != "" {
		t.Errorf("unexpected writes: got(-)/want(+):\n%s", diff)
	}

	_, _, err = b.Relays("elevation")
	assert.Error(t, err)
}

func TestActiveLow(t *testing.T) {
	c := &fakeClient{coils: map[uint16]bool{}}
	b := New(c, map[string]Coils{"elevation": {Positive: 4, Negative: 5}}, true)
	pos, _, err := b.Relays("elevation")
	require.NoError(t, err)
	require.NoError(t, pos.Set(true))
	assert.False(t, c.coils[4])
}

func TestPollRestoresCoils(t *testing.T) {
	c := &fakeClient{coils: map[uint16]bool{}}
	b := New(c, map[string]Coils{"azimuth": {Positive: 0, Negative: 1}}, false)
	pos, _, err := b.Relays("azimuth")
	require.NoError(t, err)
	require.NoError(t, pos.Set(true))

	// Board power cycled.
	c.coils[0] = false
	c.writes = nil
	require.NoError(t, b.Poll())
	if diff := cmp.Diff(c.writes, []write{{0, true}}); diff != "" {
		t.Errorf("unexpected writes: got(-)/want(+):\n%s", diff)
	}

	c.writes = nil
	require.NoError(t, b.Poll())
	assert.Empty(t, c.writes)

	c.readErr = errors.New("timeout")
	assert.Error(t, b.Poll())
}

func TestClose(t *testing.T) {
	c := &fakeClient{coils: map[uint16]bool{0: true, 1: true}}
	b := New(c, map[string]Coils{"azimuth": {Positive: 0, Negative: 1}}, false)
	require.NoError(t, b.Close())
	assert.False(t, c.coils[0])
	assert.False(t, c.coils[1])
}

func TestOfflineBoardHoldsWrites(t *testing.T) {
	c := &fakeClient{coils: map[uint16]bool{}, writeErr: errors.New("timeout")}
	b := New(c, map[string]Coils{"azimuth": {Positive: 0, Negative: 1}}, false)
	pos, _, err := b.Relays("azimuth")
	require.NoError(t, err)

	assert.Error(t, pos.Set(true))
	assert.True(t, b.Offline())
	// Further writes only update the desired state.
	require.NoError(t, pos.Set(false))
	require.NoError(t, pos.Set(true))
	assert.Equal(t, 1, c.failed)
	assert.Empty(t, c.writes)

	// Still unreachable: Poll fails and the board stays offline.
	c.readErr = errors.New("timeout")
	assert.Error(t, b.Poll())
	assert.True(t, b.Offline())

	c.readErr = nil
	c.writeErr = nil
	require.NoError(t, b.Poll())
	assert.False(t, b.Offline())
	if diff := cmp.Diff(c.writes, []write{{0, true}}); diff != "" {
		t.Errorf("unexpected writes: got(-)/want(+):\n%s", diff)
	}

	require.NoError(t, pos.Set(false))
	if diff := cmp.Diff(c.writes, []write{{0, true}, {0, false}}); diff != "" {
		t.Errorf("unexpected writes: got(-)/want(+):\n%s", diff)
	}
}

func TestCloseWritesWhileOffline(t *testing.T) {
	c := &fakeClient{coils: map[uint16]bool{0: true}, writeErr: errors.New("timeout")}
	b := New(c, map[string]Coils{"azimuth": {Positive: 0, Negative: 1}}, true)
	pos, _, err := b.Relays("azimuth")
	require.NoError(t, err)
	assert.Error(t, pos.Set(true))

	c.writeErr = nil
	require.NoError(t, b.Close())
	// Active low: de-energized coils are written high.
	assert.True(t, c.coils[0])
	assert.True(t, c.coils[1])
}
