package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterStore tracks one token bucket per client IP, dropping entries for
// clients not seen recently.
type limiterStore struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	s := &limiterStore{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
	}
	go s.evictStale()
	return s
}

func (s *limiterStore) evictStale() {
	for {
		time.Sleep(time.Minute)
		s.mu.Lock()
		for ip, c := range s.clients {
			if time.Since(c.lastSeen) > 3*time.Minute {
				delete(s.clients, ip)
			}
		}
		s.mu.Unlock()
	}
}

func (s *limiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, exists := s.clients[ip]
	if !exists {
		limiter := rate.NewLimiter(s.limit, s.burst)
		s.clients[ip] = &clientLimiter{limiter, time.Now()}
		return limiter
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// RateLimit throttles each client IP. Tuned for a document portal: page
// loads fetch several inline previews at once, so the burst is generous.
func RateLimit() gin.HandlerFunc {
	store := newLimiterStore(rate.Every(500*time.Millisecond), 10)

	return func(c *gin.Context) {
		if !store.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
