package middleware

import (
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/httperr"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/ratelimit"
	"github.com/gin-gonic/gin"
)

// NewRateLimitPerIP ограничивает RPS для Gin-ручек по IP клиента.
// Запись, не использованная дольше idleTTL, начинает с полного бакета.
func NewRateLimitPerIP(limit float64, burst, cacheSize int, idleTTL time.Duration) gin.HandlerFunc {
	visitors := ratelimit.NewPerKey(limit, burst, cacheSize, idleTTL)

	return func(c *gin.Context) {
		if !visitors.Allow(c.ClientIP()) {
			httperr.Abort(c, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		c.Next()
	}
}
