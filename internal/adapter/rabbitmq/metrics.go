package rabbitmq

import (
	"sync"
	"time"
)

// connMetrics counts publish outcomes and recovery attempts for one
// Connection. The totals go on the disconnect log line when the connection
// closes.
type connMetrics struct {
	mu                sync.Mutex
	published         int64
	failed            int64
	reconnectAttempts int64
	connectedSince    time.Time
}

func newConnMetrics() *connMetrics {
	return &connMetrics{connectedSince: time.Now()}
}

func (m *connMetrics) publishSucceeded() {
	m.mu.Lock()
	m.published++
	m.mu.Unlock()
}

func (m *connMetrics) publishFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *connMetrics) reconnectAttempted() {
	m.mu.Lock()
	m.reconnectAttempts++
	m.mu.Unlock()
}

func (m *connMetrics) connectionEstablished() {
	m.mu.Lock()
	m.connectedSince = time.Now()
	m.mu.Unlock()
}

// totals returns the counters and the uptime of the current connection.
func (m *connMetrics) totals() (published, failed, reconnects int64, uptime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published, m.failed, m.reconnectAttempts, time.Since(m.connectedSince)
}
