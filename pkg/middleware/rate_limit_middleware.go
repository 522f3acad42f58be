package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"clarita-backend/utilities"
)

// GenerationRateLimiter throttles the quiz-generation endpoints per user.
// The generator call is expensive and slow, so a small steady rate with a
// short burst is enough for interactive use.
func GenerationRateLimiter(perMinute float64, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 5
	}
	if burst <= 0 {
		burst = 2
	}

	var (
		mu       sync.Mutex
		limiters = make(map[uint]*rate.Limiter)
	)

	limiterFor := func(userID uint) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[userID]
		if !ok {
			l = rate.NewLimiter(rate.Limit(perMinute/60.0), burst)
			limiters[userID] = l
		}
		return l
	}

	return func(c *gin.Context) {
		userID, ok := utilities.CurrentUserID(c)
		if !ok {
			// AuthMiddleware rejects unauthenticated requests first.
			c.Next()
			return
		}
		if !limiterFor(userID).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many generation requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
