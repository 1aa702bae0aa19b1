// Package verifier cross-checks inbound notifications against the
// marketplace's own operation records.
package verifier

import (
	"context"
	"errors"
	"fmt"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	obsmetrics "github.com/northcove/fulfillment/internal/observability/metrics"
	"github.com/northcove/fulfillment/internal/operation"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
	"go.uber.org/zap"
)

// Verifier decides whether an inbound notification is authentic. The
// operation type is the already-mapped canonical kind of the
// notification's action.
type Verifier interface {
	Verify(ctx context.Context, notification webhookdomain.Notification, operationType operation.Type) error
}

type liveVerifier struct {
	operations marketplacedomain.OperationService
	metrics    *obsmetrics.Metrics
	log        *zap.Logger
}

// NewLive builds the production verifier: the platform's operation
// record is the oracle, and any mismatch is fatal for the request.
func NewLive(operations marketplacedomain.OperationService, metrics *obsmetrics.Metrics, log *zap.Logger) Verifier {
	return &liveVerifier{
		operations: operations,
		metrics:    metrics,
		log:        log.Named("webhook.verifier.live"),
	}
}

func (v *liveVerifier) Verify(ctx context.Context, n webhookdomain.Notification, operationType operation.Type) error {
	record, err := v.operations.GetSubscriptionOperation(ctx, n.SubscriptionID, n.OperationID)
	if err != nil {
		if errors.Is(err, marketplacedomain.ErrOperationNotFound) {
			return v.fail(ctx, n, "operation_record_missing")
		}
		v.log.Error("operation record lookup failed",
			zap.String("subscription_id", n.SubscriptionID),
			zap.String("operation_id", n.OperationID),
			zap.Error(err),
		)
		return fmt.Errorf("fetch operation record: %w", err)
	}

	if record.ID != n.OperationID {
		return v.fail(ctx, n, "operation_id_mismatch")
	}
	if record.SubscriptionID != n.SubscriptionID {
		return v.fail(ctx, n, "subscription_id_mismatch")
	}
	if record.Type != operationType {
		return v.fail(ctx, n, "operation_type_mismatch")
	}
	return nil
}

func (v *liveVerifier) fail(ctx context.Context, n webhookdomain.Notification, reason string) error {
	v.metrics.RecordVerificationFailure(ctx, reason)
	v.log.Warn("webhook verification failed",
		zap.String("subscription_id", n.SubscriptionID),
		zap.String("operation_id", n.OperationID),
		zap.String("reason", reason),
	)
	return fmt.Errorf("%w: %s", webhookdomain.ErrVerificationFailed, reason)
}

type testVerifier struct {
	metrics *obsmetrics.Metrics
	log     *zap.Logger
}

// NewTest builds the test-endpoint verifier, which always succeeds.
// Bypassing verification is a documented trade-off for test flows and
// is never wired to production vendor traffic.
func NewTest(metrics *obsmetrics.Metrics, log *zap.Logger) Verifier {
	return &testVerifier{
		metrics: metrics,
		log:     log.Named("webhook.verifier.test"),
	}
}

func (v *testVerifier) Verify(ctx context.Context, n webhookdomain.Notification, _ operation.Type) error {
	v.metrics.RecordVerificationBypassed(ctx)
	v.log.Warn("webhook verification bypassed for test notification",
		zap.String("subscription_id", n.SubscriptionID),
		zap.String("operation_id", n.OperationID),
	)
	return nil
}
