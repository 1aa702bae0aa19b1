package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	fulfillmentdomain "github.com/northcove/fulfillment/internal/fulfillment/domain"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
)

// HandleWebhook serves the marketplace notification POST for one mode.
func (s *Server) HandleWebhook(svc fulfillmentdomain.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var notification webhookdomain.Notification
		if err := c.ShouldBindJSON(&notification); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		outcome := svc.HandleNotification(c.Request.Context(), notification)
		s.writeOutcome(c, outcome)
	}
}

func (s *Server) webhookRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := s.limiter.AllowWebhook(c.Request.Context(), c.ClientIP())
		if !decision.Allowed {
			if decision.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func (s *Server) landingRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := s.limiter.AllowLanding(c.Request.Context(), c.ClientIP())
		if !decision.Allowed {
			if decision.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
