package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/northcove/fulfillment/internal/config"
	obsmetrics "github.com/northcove/fulfillment/internal/observability/metrics"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyWebhook = "fulfillment:ratelimit:webhook:%s"
	keyLanding = "fulfillment:ratelimit:landing:%s"
)

// EndpointLimiter throttles the externally reachable endpoints per
// client address. A limiter that cannot reach Redis degrades open so a
// cache outage never drops vendor webhooks.
type EndpointLimiter struct {
	enabled bool

	bucket  *TokenBucket
	metrics *obsmetrics.Metrics
	log     *zap.Logger

	webhookRate  float64
	webhookBurst int
	landingRate  float64
	landingBurst int
}

func NewEndpointLimiter(cfg config.Config, client *redis.Client, metrics *obsmetrics.Metrics, log *zap.Logger) *EndpointLimiter {
	if !cfg.RateLimitEnabled {
		return &EndpointLimiter{enabled: false}
	}
	return &EndpointLimiter{
		enabled:      true,
		bucket:       NewTokenBucket(client),
		metrics:      metrics,
		log:          log.Named("ratelimit"),
		webhookRate:  cfg.WebhookRatePerSecond,
		webhookBurst: cfg.WebhookBurst,
		landingRate:  cfg.LandingRatePerSecond,
		landingBurst: cfg.LandingBurst,
	}
}

func (l *EndpointLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowWebhook reports whether a webhook request from clientAddr may
// proceed. Limiter errors allow the request through.
func (l *EndpointLimiter) AllowWebhook(ctx context.Context, clientAddr string) RateDecision {
	if !l.Enabled() {
		return RateDecision{Allowed: true}
	}
	return l.allow(ctx, "webhook", fmt.Sprintf(keyWebhook, strings.TrimSpace(clientAddr)), l.webhookRate, l.webhookBurst)
}

// AllowLanding reports whether a landing request from clientAddr may
// proceed. Limiter errors allow the request through.
func (l *EndpointLimiter) AllowLanding(ctx context.Context, clientAddr string) RateDecision {
	if !l.Enabled() {
		return RateDecision{Allowed: true}
	}
	return l.allow(ctx, "landing", fmt.Sprintf(keyLanding, strings.TrimSpace(clientAddr)), l.landingRate, l.landingBurst)
}

// RateDecision is the outcome of one limiter check.
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

func (l *EndpointLimiter) allow(ctx context.Context, endpoint, key string, rate float64, burst int) RateDecision {
	if !l.Enabled() {
		return RateDecision{Allowed: true}
	}

	res, err := l.bucket.Allow(ctx, key, rate, burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
		return RateDecision{Allowed: true}
	}

	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, endpoint, "bucket_empty")
		return RateDecision{Allowed: false, RetryAfter: res.RetryAfter}
	}

	l.metrics.RecordRateLimitAllowed(ctx, endpoint)
	return RateDecision{Allowed: true}
}
