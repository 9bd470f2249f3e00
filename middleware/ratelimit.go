package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ReportRateLimit throttles report submissions per client IP with a token
// bucket. Entries idle for more than ten minutes are dropped once the map
// grows past a thousand clients.
func ReportRateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		now := time.Now()
		if len(clients) > 1000 {
			for addr, cl := range clients {
				if now.Sub(cl.lastSeen) > 10*time.Minute {
					delete(clients, addr)
				}
			}
		}
		cl, ok := clients[ip]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(limit, burst)}
			clients[ip] = cl
		}
		cl.lastSeen = now
		allowed := cl.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many reports submitted, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
