package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	fulfillmentdomain "github.com/northcove/fulfillment/internal/fulfillment/domain"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
)

type subscriptionView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OfferID     string `json:"offerId"`
	PlanID      string `json:"planId"`
	Quantity    *int64 `json:"quantity,omitempty"`
	Status      string `json:"status"`
	IsFreeTrial bool   `json:"isFreeTrial"`
}

type landingPageResponse struct {
	Page         string            `json:"page"`
	ErrorCode    string            `json:"errorCode,omitempty"`
	Subscription *subscriptionView `json:"subscription,omitempty"`
}

type confirmRequestBody struct {
	SubscriptionID string `json:"subscriptionId"`
}

// HandleLanding serves the post-purchase landing GET for one mode.
func (s *Server) HandleLanding(svc fulfillmentdomain.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := fulfillmentdomain.LandingRequest{
			Token:         strings.TrimSpace(c.Query("token")),
			Authenticated: s.authenticator.Authenticated(c.Request),
			Overrides:     queryOverrides(c),
		}

		outcome := svc.Landing(c.Request.Context(), req)
		s.writeOutcome(c, outcome)
	}
}

// HandleConfirm serves the purchase confirmation POST for one mode.
func (s *Server) HandleConfirm(svc fulfillmentdomain.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body confirmRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		if strings.TrimSpace(body.SubscriptionID) == "" {
			AbortWithError(c, invalidRequestError())
			return
		}

		outcome := svc.ConfirmPurchase(c.Request.Context(), fulfillmentdomain.ConfirmRequest{
			SubscriptionID: strings.TrimSpace(body.SubscriptionID),
		})
		s.writeOutcome(c, outcome)
	}
}

// writeOutcome translates an orchestrator outcome into the HTTP
// response. This is the only place outcome kinds meet status codes.
func (s *Server) writeOutcome(c *gin.Context, outcome fulfillmentdomain.Outcome) {
	switch outcome.Kind {
	case fulfillmentdomain.OutcomeRedirectToSetup,
		fulfillmentdomain.OutcomeRedirectToMarketing,
		fulfillmentdomain.OutcomeRedirectToConfiguration:
		c.Redirect(http.StatusFound, outcome.RedirectURL)
	case fulfillmentdomain.OutcomeRedirectToConfirmation:
		c.Redirect(http.StatusSeeOther, outcome.RedirectURL)
	case fulfillmentdomain.OutcomePurchasePage:
		c.JSON(http.StatusOK, landingPageResponse{
			Page:         "purchase",
			Subscription: viewOf(outcome.Subscription),
		})
	case fulfillmentdomain.OutcomeErrorPage:
		c.JSON(http.StatusOK, landingPageResponse{
			Page:      "error",
			ErrorCode: string(outcome.ErrorCode),
		})
	case fulfillmentdomain.OutcomeChallenge:
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case fulfillmentdomain.OutcomeBadRequest:
		AbortWithError(c, invalidRequestError())
	case fulfillmentdomain.OutcomeNotFound:
		AbortWithError(c, ErrNotFound)
	case fulfillmentdomain.OutcomeAccepted:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	default:
		AbortWithError(c, ErrInternal)
	}
}

func viewOf(sub *marketplacedomain.Subscription) *subscriptionView {
	if sub == nil {
		return nil
	}
	return &subscriptionView{
		ID:          sub.ID,
		Name:        sub.Name,
		OfferID:     sub.OfferID,
		PlanID:      sub.PlanID,
		Quantity:    sub.Quantity,
		Status:      string(sub.Status),
		IsFreeTrial: sub.IsFreeTrial,
	}
}

func queryOverrides(c *gin.Context) subscriptiondomain.Overrides {
	values := c.Request.URL.Query()
	if len(values) == 0 {
		return nil
	}
	overrides := make(subscriptiondomain.Overrides, len(values))
	for key, vals := range values {
		if key == "token" || len(vals) == 0 {
			continue
		}
		overrides[key] = vals[0]
	}
	return overrides
}
