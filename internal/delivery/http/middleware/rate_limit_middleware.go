package middleware

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"wellness-appointments/pkg/response"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix timestamp
}

// RateLimitMiddleware applies a token bucket per client IP
type RateLimitMiddleware struct {
	rps   rate.Limit
	burst int

	clients sync.Map // map[string]*clientLimiter

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// NewRateLimitMiddleware starts the idle limiter cleanup. Call Stop() during graceful shutdown.
func NewRateLimitMiddleware(requestsPerSecond float64, burst int) *RateLimitMiddleware {
	if burst <= 0 {
		burst = 1
	}
	m := &RateLimitMiddleware{
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		stopChan: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

func (m *RateLimitMiddleware) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
		m.wg.Wait()
	}
}

func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiterFor(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			response.TooManyRequests(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) limiterFor(ip string) *rate.Limiter {
	value, _ := m.clients.LoadOrStore(ip, &clientLimiter{limiter: rate.NewLimiter(m.rps, m.burst)})
	client := value.(*clientLimiter)
	client.lastSeen.Store(time.Now().Unix())
	return client.limiter
}

func (m *RateLimitMiddleware) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleTTL).Unix()
			m.clients.Range(func(key, value any) bool {
				if client, ok := value.(*clientLimiter); ok && client.lastSeen.Load() < cutoff {
					m.clients.Delete(key)
				}
				return true
			})
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
