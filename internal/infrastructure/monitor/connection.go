package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BufferSizer reports how many events are parked.
type BufferSizer interface {
	Size() (int, error)
}

type Monitor struct {
	probes []Probe
	buffer BufferSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	logger   *zap.Logger
}

func New(probes []Probe, buf BufferSizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		buffer:   buf,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Wait blocks until the loop has exited or ctx is done.
func (m *Monitor) Wait(ctx context.Context) error {
	select {
	case <-m.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Components = make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	components := make(map[string]bool, len(m.probes))
	for _, p := range m.probes {
		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := p.Check(probeCtx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("component", p.Name), zap.Error(err))
		}
		components[p.Name] = err == nil
	}

	bufferOK, bufferSize := m.checkBuffer()
	status := Status{
		Components: components,
		Buffer:     bufferOK,
		BufferSize: bufferSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) loop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) checkBuffer() (bool, int) {
	if m.buffer == nil {
		return false, 0
	}
	size, err := m.buffer.Size()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
