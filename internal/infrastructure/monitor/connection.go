package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errNotConfigured = errors.New("probe not configured")

// Probe checks a single dependency; a nil error means healthy.
type Probe func(ctx context.Context) error

// SizeProbe reports the number of operations waiting in the offline buffer.
type SizeProbe func() (int, error)

// Probes lists the dependencies watched by the Monitor. A nil probe is reported unhealthy.
type Probes struct {
	Driver   string
	Database Probe
	Redis    Probe
	Buffer   SizeProbe
}

type Monitor struct {
	probes Probes

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(probes Probes, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the primary store and Redis answered the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh() {
	pending, bufferErr := m.checkBuffer()
	status := Status{
		Driver:    m.probes.Driver,
		Database:  dependency(m.check("database", m.probes.Database, 3*time.Second)),
		Redis:     dependency(m.check("redis", m.probes.Redis, 2*time.Second)),
		Buffer:    dependency(bufferErr),
		Pending:   pending,
		LastCheck: time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	switch {
	case previous.LastCheck.IsZero():
	case previous.Healthy() && !status.Healthy():
		m.logger.Warn("dependencies went offline",
			zap.Bool("database", status.Database.Online),
			zap.Bool("redis", status.Redis.Online))
	case !previous.Healthy() && status.Healthy():
		m.logger.Info("dependencies back online", zap.Int("pending", status.Pending))
	}
}

func (m *Monitor) check(name string, probe Probe, timeout time.Duration) error {
	if probe == nil {
		return errNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := probe(ctx); err != nil {
		m.logger.Debug("dependency check failed", zap.String("dependency", name), zap.Error(err))
		return err
	}
	return nil
}

func (m *Monitor) checkBuffer() (int, error) {
	if m.probes.Buffer == nil {
		return 0, errNotConfigured
	}
	size, err := m.probes.Buffer()
	if err != nil {
		m.logger.Warn("buffer size check failed", zap.Error(err))
		return size, err
	}
	return size, nil
}
