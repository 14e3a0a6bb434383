package ws

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter throttles WebSocket upgrade attempts per client IP using token
// buckets. It exists to blunt reconnect storms and connection-churn abuse
// before a connection ever reaches the session layer.
type IPLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
	r      rate.Limit // allowed upgrades per second per IP
	b      int        // burst size
	done   chan struct{}
}

// NewIPLimiter creates an IPLimiter allowing r upgrades per second with the
// given burst per IP, and starts a background goroutine that evicts idle
// entries so the map does not grow with every IP ever seen.
func NewIPLimiter(r rate.Limit, b int) *IPLimiter {
	l := &IPLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		done:   make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// Allow reports whether a new connection from remoteAddr may proceed.
func (l *IPLimiter) Allow(remoteAddr string) bool {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}
	return l.limiter(ip).Allow()
}

// limiter returns the per-IP token bucket, creating it on first sight.
func (l *IPLimiter) limiter(ip string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limits[ip]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limits[ip]; !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.limits[ip] = lim
	}
	return lim
}

// cleanup periodically removes entries whose bucket has refilled completely,
// meaning the IP has been quiet long enough to forget.
func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip, lim := range l.limits {
				if lim.TokensAt(time.Now()) >= float64(lim.Burst()) {
					delete(l.limits, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *IPLimiter) Stop() {
	close(l.done)
}
