// Package domain defines the orchestrator contract: the two entry
// flows, their request shapes, and the closed set of terminal outcomes.
package domain

import (
	"context"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
)

// Mode fixes a service instance to either live marketplace traffic or
// the cache-backed test flow at construction time.
type Mode string

const (
	ModeLive Mode = "live"
	ModeTest Mode = "test"
)

// OutcomeKind enumerates the terminal states of a request.
type OutcomeKind string

const (
	OutcomeRedirectToSetup         OutcomeKind = "redirect_to_setup"
	OutcomeRedirectToMarketing     OutcomeKind = "redirect_to_marketing"
	OutcomeRedirectToConfiguration OutcomeKind = "redirect_to_configuration"
	OutcomeRedirectToConfirmation  OutcomeKind = "redirect_to_confirmation"
	OutcomePurchasePage            OutcomeKind = "purchase_page"
	OutcomeErrorPage               OutcomeKind = "error_page"
	OutcomeChallenge               OutcomeKind = "challenge"
	OutcomeBadRequest              OutcomeKind = "bad_request"
	OutcomeNotFound                OutcomeKind = "not_found"
	OutcomeAccepted                OutcomeKind = "accepted"
	OutcomeInternalError           OutcomeKind = "internal_error"
)

// ErrorCode distinguishes rendered error pages so the presentation
// layer can show differentiated guidance.
type ErrorCode string

const (
	ErrorUnableToResolveMarketplaceToken ErrorCode = "UnableToResolveMarketplaceToken"
	ErrorSubscriptionNotFound            ErrorCode = "SubscriptionNotFound"
	ErrorSubscriptionActivationFailed    ErrorCode = "SubscriptionActivationFailed"
)

// Outcome is the orchestrator's decision for one request. Nothing below
// the orchestrator decides final response shape.
type Outcome struct {
	Kind         OutcomeKind
	RedirectURL  string
	ErrorCode    ErrorCode
	Subscription *marketplacedomain.Subscription
}

// LandingRequest is a landing-page GET.
type LandingRequest struct {
	Token         string
	Authenticated bool
	Overrides     subscriptiondomain.Overrides
}

// ConfirmRequest is the post-landing purchase confirmation POST.
type ConfirmRequest struct {
	SubscriptionID string
}

// Service sequences resolution, verification, dispatch and persistence
// for one operating mode.
type Service interface {
	Landing(ctx context.Context, req LandingRequest) Outcome
	ConfirmPurchase(ctx context.Context, req ConfirmRequest) Outcome
	HandleNotification(ctx context.Context, notification webhookdomain.Notification) Outcome
}
