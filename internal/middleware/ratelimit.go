package middleware

import (
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-auth-service/internal/model"
)

const (
	defaultAuthRPM   = 10
	limiterIdleAfter = 10 * time.Minute
	limiterGCAt      = 1000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware is the admission check in front of register and login:
// one token bucket per client ip, refilled at rpm per minute with a burst of rpm.
type RateLimitMiddleware struct {
	rpm     int
	trusted []netip.Prefix
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimitMiddleware keys buckets on the socket peer. Forwarding headers
// are only honoured when the peer falls inside trustedProxies.
func NewRateLimitMiddleware(rpm int, trustedProxies []netip.Prefix) *RateLimitMiddleware {
	if rpm <= 0 {
		rpm = defaultAuthRPM
	}

	return &RateLimitMiddleware{
		rpm:     rpm,
		trusted: trustedProxies,
		clients: map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(extractClientIP(r, m.trusted)) {
			retryAfter := int((time.Minute / time.Duration(m.rpm)).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, model.ErrorResponse{
				Success: false,
				Code:    "RATE_LIMITED",
				Message: "Too many requests, please try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(clientIP string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	client, exists := m.clients[clientIP]
	if !exists {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.rpm)), m.rpm),
		}
		m.clients[clientIP] = client
		m.gcLocked(now)
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

func (m *RateLimitMiddleware) gcLocked(now time.Time) {
	if len(m.clients) < limiterGCAt {
		return
	}

	cutoff := now.Add(-limiterIdleAfter)
	for ip, client := range m.clients {
		if client.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// extractClientIP returns the address the limiter keys on. It is the socket
// peer unless that peer is a trusted proxy, in which case the forwarding
// headers are walked right to left and the first untrusted hop wins.
func extractClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := remoteAddr(r)
	if !ok {
		if raw := strings.TrimSpace(r.RemoteAddr); raw != "" {
			return raw
		}
		return "unknown"
	}

	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			hop = hop.Unmap()
			if !isTrusted(hop, trusted) {
				return hop.String()
			}
		}
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}

	return peer.String()
}

func remoteAddr(r *http.Request) (netip.Addr, bool) {
	raw := strings.TrimSpace(r.RemoteAddr)
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
