package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animal-catalog/internal/domain/scanner"
)

func TestDevices_LeaseIsExclusivePerOwner(t *testing.T) {
	d := NewDevices()
	ctx := context.Background()
	cfg := scanner.Constraints{Facing: scanner.FacingEnvironment}

	s1, err := d.Camera("a").Open(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s1.ActiveTracks())
	assert.True(t, d.Held("a"))

	_, err = d.Camera("a").Open(ctx, cfg)
	require.ErrorIs(t, err, scanner.ErrDeviceBusy)

	other, err := d.Camera("b").Open(ctx, cfg)
	require.NoError(t, err)
	other.Stop()

	s1.Stop()
	s1.Stop()
	assert.Equal(t, 0, s1.ActiveTracks())
	assert.False(t, d.Held("a"))

	_, err = d.Camera("a").Open(ctx, cfg)
	require.NoError(t, err)
}

func TestDevices_SecondFlowGetsDeviceError(t *testing.T) {
	d := NewDevices()
	reg := scanner.NewRegistry(scanner.RegistryOptions{Camera: d.Camera})

	f1 := reg.Open("tab-owner")
	snap, err := f1.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, scanner.StateStreaming, snap.State)

	f2 := reg.Open("tab-owner")
	snap, err = f2.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scanner.StateDeviceError, snap.State)

	reg.Close(f1.ID(), "tab-owner")
	require.NoError(t, f2.Retry())
	snap, err = f2.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scanner.StateStreaming, snap.State)
}
