package cli

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("signal context not cancelled")
	}
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewSignalContext(parent, nil)
	defer sc.Cancel()

	cancel()
	waitDone(t, sc)
	assert.Nil(t, sc.Signal())
	assert.False(t, sc.Interrupted())
}

func TestSignalContext_Cancel(t *testing.T) {
	sc := NewSignalContext(context.Background(), nil)
	sc.Cancel()
	waitDone(t, sc)
	assert.ErrorIs(t, sc.Err(), context.Canceled)
	assert.False(t, sc.Interrupted())
}

func TestSignalContext_Interrupt(t *testing.T) {
	sc := NewSignalContext(context.Background(), nil)
	defer sc.Cancel()

	self, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, self.Signal(os.Interrupt))

	waitDone(t, sc)
	assert.True(t, sc.Interrupted())
	assert.Equal(t, os.Interrupt, sc.Signal())
	assert.ErrorIs(t, context.Cause(sc), ErrInterrupted)
}
