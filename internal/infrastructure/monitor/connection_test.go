package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizer struct {
	n   int
	err error
}

func (s sizer) Size() (int, error) { return s.n, s.err }

func failing(name string) Probe {
	return Probe{Name: name, Check: func(context.Context) error { return errors.New("unreachable") }}
}

func TestMonitor_RefreshAggregatesProbes(t *testing.T) {
	m := New([]Probe{MemoryProbe(), failing("redis")}, sizer{n: 4}, time.Minute, nil)

	status := m.Refresh(context.Background())

	assert.Equal(t, map[string]bool{"memory": true, "redis": false}, status.Components)
	assert.True(t, status.Buffer)
	assert.Equal(t, 4, status.BufferSize)
	assert.False(t, m.IsOnline())
}

func TestMonitor_OnlineWhenAllProbesPass(t *testing.T) {
	m := New([]Probe{MemoryProbe()}, sizer{err: errors.New("closed")}, time.Minute, nil)
	assert.False(t, m.IsOnline(), "no check has run yet")

	status := m.Refresh(context.Background())
	assert.True(t, m.IsOnline())
	assert.False(t, status.Buffer)
}

func TestMonitor_GetStatusIsACopy(t *testing.T) {
	m := New([]Probe{MemoryProbe()}, nil, time.Minute, nil)
	m.Refresh(context.Background())

	s := m.GetStatus()
	s.Components["memory"] = false
	assert.True(t, m.GetStatus().Components["memory"])
}

func TestMonitor_StartStop(t *testing.T) {
	m := New([]Probe{MemoryProbe()}, nil, time.Hour, nil)
	m.Start()
	m.Stop()
	m.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	assert.True(t, m.IsOnline())
}
