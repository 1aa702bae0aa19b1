// Package repository stores test-mode subscriptions in redis so that
// repeated test lookups stay self-consistent without touching the live
// marketplace.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "fulfillment:subscription:"

type redisRepository struct {
	client *redis.Client
}

func New(client *redis.Client) subscriptiondomain.Repository {
	return &redisRepository{client: client}
}

func (r *redisRepository) GetSubscription(ctx context.Context, subscriptionID string) (*marketplacedomain.Subscription, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return nil, marketplacedomain.ErrSubscriptionNotFound
	}

	raw, err := r.client.Get(ctx, keyPrefix+subscriptionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, marketplacedomain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription %s from cache: %w", subscriptionID, err)
	}

	var sub marketplacedomain.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode cached subscription %s: %w", subscriptionID, err)
	}
	return &sub, nil
}

func (r *redisRepository) PutSubscription(ctx context.Context, subscription *marketplacedomain.Subscription) error {
	if subscription == nil || strings.TrimSpace(subscription.ID) == "" {
		return errors.New("subscription id is required")
	}
	if !subscription.IsTest {
		// Live subscriptions belong to the marketplace, never the cache.
		return fmt.Errorf("refusing to cache non-test subscription %s", subscription.ID)
	}

	raw, err := json.Marshal(subscription)
	if err != nil {
		return fmt.Errorf("encode subscription %s: %w", subscription.ID, err)
	}

	// No TTL: test subscriptions persist for the length of a validation
	// session; last write wins per key.
	if err := r.client.Set(ctx, keyPrefix+subscription.ID, raw, 0).Err(); err != nil {
		return fmt.Errorf("put subscription %s to cache: %w", subscription.ID, err)
	}
	return nil
}
