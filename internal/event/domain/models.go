// Package domain defines the canonical subscription lifecycle events
// emitted to the downstream event bus.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
)

// Type tags a lifecycle event variant.
type Type string

const (
	TypeSubscriptionPurchased           Type = "SubscriptionPurchased"
	TypeSubscriptionCancelled           Type = "SubscriptionCancelled"
	TypeSubscriptionPlanChanged         Type = "SubscriptionPlanChanged"
	TypeSubscriptionSeatQuantityChanged Type = "SubscriptionSeatQuantityChanged"
	TypeSubscriptionReinstated          Type = "SubscriptionReinstated"
	TypeSubscriptionSuspended           Type = "SubscriptionSuspended"
)

// SchemaVersion is the envelope data version stamped on every event.
const SchemaVersion = "1.0"

// Payload carries the subject subscription and the operation-specific
// fields of a lifecycle event.
type Payload struct {
	Subscription marketplacedomain.Subscription `json:"subscription"`
	// OperationID is the originating marketplace operation, empty for
	// purchase events which originate from the landing flow.
	OperationID string `json:"operationId,omitempty"`
	// NewPlanID is set only on plan-change events.
	NewPlanID string `json:"newPlanId,omitempty"`
	// NewQuantity is set only on seat-quantity-change events.
	NewQuantity *int64 `json:"newQuantity,omitempty"`
}

// Envelope is the published form of a lifecycle event. The id is
// freshly generated per publish and independent of the operation id;
// the timestamp is assigned at publish time, UTC.
type Envelope struct {
	ID            string    `json:"id"`
	Type          Type      `json:"eventType"`
	SchemaVersion string    `json:"dataVersion"`
	Subject       string    `json:"subject"`
	Time          time.Time `json:"eventTime"`
	Data          Payload   `json:"data"`
}

// SubjectFor derives the envelope subject path from a subscription id.
func SubjectFor(subscriptionID string) string {
	return fmt.Sprintf("subscriptions/%s", subscriptionID)
}

// ErrPublishFailed indicates the event could not be durably handed to
// the transport. Fatal for the request; there is no local queuing.
var ErrPublishFailed = errors.New("event publish failed")

// Publisher durably hands an envelope to the downstream transport.
// At-least-once delivery is the transport's property, not the caller's.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
}
