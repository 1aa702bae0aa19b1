// Package resolver provides the live and test subscription resolvers.
package resolver

import (
	"context"
	"errors"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	"go.uber.org/zap"
)

type liveResolver struct {
	subscriptions marketplacedomain.SubscriptionService
	log           *zap.Logger
}

// NewLive builds the resolver backing production traffic: every lookup
// goes to the marketplace API and never to the local cache.
func NewLive(subscriptions marketplacedomain.SubscriptionService, log *zap.Logger) subscriptiondomain.Resolver {
	return &liveResolver{
		subscriptions: subscriptions,
		log:           log.Named("subscription.resolver.live"),
	}
}

func (r *liveResolver) GetByID(ctx context.Context, subscriptionID string) (*marketplacedomain.Subscription, error) {
	sub, err := r.subscriptions.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if !errors.Is(err, marketplacedomain.ErrSubscriptionNotFound) {
			r.log.Error("marketplace subscription lookup failed",
				zap.String("subscription_id", subscriptionID),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return sub, nil
}

func (r *liveResolver) ResolveToken(ctx context.Context, token string, _ subscriptiondomain.Overrides) (*marketplacedomain.Subscription, error) {
	sub, err := r.subscriptions.ResolveSubscriptionToken(ctx, token)
	if err != nil {
		// Deliberate trust boundary: a garbage or expired token is
		// expected adversarial input. Any failure here degrades to
		// unresolvable instead of crashing the landing flow.
		if !errors.Is(err, marketplacedomain.ErrTokenUnresolvable) {
			r.log.Warn("token resolution failed, treating as unresolvable", zap.Error(err))
		}
		return nil, marketplacedomain.ErrTokenUnresolvable
	}
	return sub, nil
}
