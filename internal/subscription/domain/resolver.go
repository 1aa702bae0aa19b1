// Package domain defines the subscription resolution capability. A
// resolver is mode-fixed at construction: the live resolver fronts the
// marketplace API, the test resolver fronts the local cache. Callers
// depend on the capability, never on a mode flag.
package domain

import (
	"context"
	"strconv"
	"strings"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
)

// Overrides carries query-style key/value overrides applied during
// test-mode subscription synthesis. Unknown keys are ignored.
type Overrides map[string]string

func (o Overrides) Get(key string) (string, bool) {
	if o == nil {
		return "", false
	}
	v, ok := o[key]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (o Overrides) GetInt64(key string) (int64, bool) {
	raw, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func (o Overrides) GetBool(key string) (bool, bool) {
	raw, ok := o.Get(key)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// Resolver decides what the true current state of a subscription is.
type Resolver interface {
	// GetByID returns marketplacedomain.ErrSubscriptionNotFound when no
	// record exists; transport failures propagate to the caller.
	GetByID(ctx context.Context, subscriptionID string) (*marketplacedomain.Subscription, error)

	// ResolveToken exchanges a purchase token for a subscription. In
	// test mode the token is ignored and a subscription is synthesized
	// from the overrides. Returns marketplacedomain.ErrTokenUnresolvable
	// for any token the mode cannot resolve; never surfaces transport
	// errors (an unresolvable token is expected adversarial input).
	ResolveToken(ctx context.Context, token string, overrides Overrides) (*marketplacedomain.Subscription, error)
}

// Repository is the test-mode subscription cache. Live subscriptions
// must never be written here, and test subscriptions never anywhere
// else.
type Repository interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*marketplacedomain.Subscription, error)
	PutSubscription(ctx context.Context, subscription *marketplacedomain.Subscription) error
}
