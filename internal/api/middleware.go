package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loggingMiddleware logs one line per request with method, path, status and
// duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// rateLimitMiddleware applies a per-client token bucket keyed by remote IP.
// Stale buckets are swept periodically.
type rateLimitMiddleware struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimit(perSecond float64, burst int) *rateLimitMiddleware {
	m := &rateLimitMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
	go m.sweep()
	return m
}

func (m *rateLimitMiddleware) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !m.allow(host) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *rateLimitMiddleware) allow(host string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cl, ok := m.clients[host]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[host] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (m *rateLimitMiddleware) sweep() {
	for range time.Tick(5 * time.Minute) {
		m.mu.Lock()
		for host, cl := range m.clients {
			if time.Since(cl.lastSeen) > 10*time.Minute {
				delete(m.clients, host)
			}
		}
		m.mu.Unlock()
	}
}
