package session

import (
	"context"
	"log"
	"time"

	"github.com/rsslry1/WhoU/internal/metrics"
)

// DefaultReapInterval is how often the inactivity sweep runs.
const DefaultReapInterval = time.Minute

// Closer force-closes a single connection. Closing must trigger the same
// disconnect path as a client-initiated close, so reaped users go through
// the normal teardown. Implemented by the ws server.
type Closer interface {
	CloseConnection(connID string) bool
}

// StartReaper runs a background loop that disconnects users idle longer than
// the manager's configured timeout. It returns immediately; the goroutine
// exits when ctx is cancelled.
//
// The sweep snapshots idle ids under the manager's lock, then closes the
// connections outside it: each close re-enters the manager through the
// disconnect handler, which serializes with every other state mutation.
// Teardown is idempotent, so racing with a concurrent client disconnect is
// safe.
func StartReaper(ctx context.Context, m *Manager, closer Closer, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReapInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[reaper] stopped")
				return
			case <-ticker.C:
				sweep(m, closer)
			}
		}
	}()
}

func sweep(m *Manager, closer Closer) {
	ids := m.IdleUsers()
	for _, id := range ids {
		if closer.CloseConnection(id) {
			metrics.ReapedTotal.Inc()
			log.Printf("[reaper] disconnected idle user %s", id)
		}
	}
}
