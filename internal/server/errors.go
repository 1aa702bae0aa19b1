package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/northcove/fulfillment/internal/event/domain"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	"github.com/northcove/fulfillment/internal/operation"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrInternal        = errors.New("internal_error")
	ErrNotFound        = errors.New("not_found")
	ErrTooManyRequests = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, webhookdomain.ErrInvalidNotification):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, marketplacedomain.ErrSubscriptionNotFound),
		errors.Is(err, marketplacedomain.ErrOperationNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, webhookdomain.ErrInvalidNotification),
		errors.Is(err, ErrInvalidRequest):
		return "validation", "invalid_request"
	case errors.Is(err, marketplacedomain.ErrTokenUnresolvable):
		return "resolution", "token_unresolvable"
	case errors.Is(err, marketplacedomain.ErrSubscriptionNotFound):
		return "resolution", "subscription_not_found"
	case errors.Is(err, marketplacedomain.ErrOperationNotFound):
		return "verification", "operation_not_found"
	case errors.Is(err, webhookdomain.ErrVerificationFailed):
		return "verification", "verification_failed"
	case errors.Is(err, operation.ErrUnknownActionType):
		return "mapping", "unknown_action_type"
	case errors.Is(err, eventdomain.ErrPublishFailed):
		return "publish", "publish_failed"
	case errors.Is(err, ErrTooManyRequests):
		return "rate_limit", "too_many_requests"
	default:
		return "internal", "internal_error"
	}
}
