// Package domain contains the marketplace-facing data model shared by
// the live client and the test-mode resolver.
package domain

import (
	"errors"
	"time"

	"github.com/northcove/fulfillment/internal/operation"
)

// SubscriptionStatus represents marketplace lifecycle states for a subscription.
type SubscriptionStatus string

const (
	StatusNotStarted        SubscriptionStatus = "NotStarted"
	StatusPendingActivation SubscriptionStatus = "PendingActivation"
	StatusActive            SubscriptionStatus = "Active"
	StatusSuspended         SubscriptionStatus = "Suspended"
	StatusCancelled         SubscriptionStatus = "Cancelled"
	StatusUnknown           SubscriptionStatus = "Unknown"
)

// ParseSubscriptionStatus decodes a wire status. Unrecognized values
// map to StatusUnknown rather than failing resolution; status only
// gates the landing branch.
func ParseSubscriptionStatus(raw string) SubscriptionStatus {
	switch SubscriptionStatus(raw) {
	case StatusNotStarted, StatusPendingActivation, StatusActive, StatusSuspended, StatusCancelled:
		return SubscriptionStatus(raw)
	default:
		return StatusUnknown
	}
}

// User identifies a marketplace user attached to a subscription.
type User struct {
	ObjectID string `json:"objectId"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	UserID   string `json:"userId"`
}

// Term describes the current billing term of a subscription.
type Term struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	// TermUnit is a duration code, e.g. "P1M" for a one-month term.
	TermUnit string `json:"termUnit"`
}

// Subscription is the canonical record of a marketplace purchase.
type Subscription struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	OfferID     string             `json:"offerId"`
	PlanID      string             `json:"planId"`
	Quantity    *int64             `json:"quantity,omitempty"`
	Term        Term               `json:"term"`
	Beneficiary User               `json:"beneficiary"`
	Purchaser   User               `json:"purchaser"`
	IsTest      bool               `json:"isTest"`
	IsFreeTrial bool               `json:"isFreeTrial"`
	Status      SubscriptionStatus `json:"status"`
}

// Operation is the platform's own record of a subscription operation,
// used as the verification oracle for inbound webhook notifications.
type Operation struct {
	ID             string
	SubscriptionID string
	Type           operation.Type
	Status         string
}

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrOperationNotFound    = errors.New("operation not found")
	ErrTokenUnresolvable    = errors.New("marketplace token unresolvable")
)
