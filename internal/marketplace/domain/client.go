package domain

import "context"

// SubscriptionService exposes the marketplace fulfillment API calls
// used to resolve subscriptions. Implementations may return transport
// errors; callers decide whether those degrade to not-found.
type SubscriptionService interface {
	// GetSubscription fetches a subscription by id. Returns
	// ErrSubscriptionNotFound when the platform has no such record.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ResolveSubscriptionToken exchanges an opaque purchase token for
	// the subscription it references. Returns ErrTokenUnresolvable when
	// the platform rejects the token.
	ResolveSubscriptionToken(ctx context.Context, token string) (*Subscription, error)
}

// OperationService fetches the platform's operation records.
type OperationService interface {
	// GetSubscriptionOperation returns ErrOperationNotFound when the
	// platform has no record for the (subscription, operation) pair.
	GetSubscriptionOperation(ctx context.Context, subscriptionID, operationID string) (*Operation, error)
}
