// Package event maps verified operations onto canonical lifecycle
// events and publishes them.
package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/northcove/fulfillment/internal/clock"
	eventdomain "github.com/northcove/fulfillment/internal/event/domain"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	obsmetrics "github.com/northcove/fulfillment/internal/observability/metrics"
	"github.com/northcove/fulfillment/internal/operation"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Dispatcher constructs exactly one event per operation and hands it to
// the publisher. No retry or buffering happens here.
type Dispatcher struct {
	publisher eventdomain.Publisher
	clock     clock.Clock
	metrics   *obsmetrics.Metrics
	log       *zap.Logger
}

type DispatcherParam struct {
	fx.In

	Publisher eventdomain.Publisher
	Clock     clock.Clock
	Metrics   *obsmetrics.Metrics
	Log       *zap.Logger
}

func NewDispatcher(p DispatcherParam) *Dispatcher {
	return &Dispatcher{
		publisher: p.Publisher,
		clock:     p.Clock,
		metrics:   p.Metrics,
		log:       p.Log.Named("event.dispatcher"),
	}
}

// Dispatch publishes the lifecycle event matching a verified webhook
// operation.
func (d *Dispatcher) Dispatch(ctx context.Context, operationType operation.Type, subscription marketplacedomain.Subscription, notification webhookdomain.Notification) error {
	payload := eventdomain.Payload{
		Subscription: subscription,
		OperationID:  notification.OperationID,
	}

	var eventType eventdomain.Type
	switch operationType {
	case operation.TypeCancel:
		eventType = eventdomain.TypeSubscriptionCancelled
	case operation.TypeChangePlan:
		eventType = eventdomain.TypeSubscriptionPlanChanged
		payload.NewPlanID = notification.PlanID
	case operation.TypeChangeSeatQuantity:
		eventType = eventdomain.TypeSubscriptionSeatQuantityChanged
		payload.NewQuantity = notification.Quantity
	case operation.TypeReinstate:
		eventType = eventdomain.TypeSubscriptionReinstated
	case operation.TypeSuspend:
		eventType = eventdomain.TypeSubscriptionSuspended
	default:
		return fmt.Errorf("%w: %q", operation.ErrUnknownActionType, operationType)
	}

	return d.publish(ctx, eventType, payload)
}

// DispatchPurchased publishes the purchase event emitted by the landing
// confirmation flow; it does not pass through the operation switch.
func (d *Dispatcher) DispatchPurchased(ctx context.Context, subscription marketplacedomain.Subscription) error {
	return d.publish(ctx, eventdomain.TypeSubscriptionPurchased, eventdomain.Payload{
		Subscription: subscription,
	})
}

func (d *Dispatcher) publish(ctx context.Context, eventType eventdomain.Type, payload eventdomain.Payload) error {
	envelope := eventdomain.Envelope{
		ID:            uuid.NewString(),
		Type:          eventType,
		SchemaVersion: eventdomain.SchemaVersion,
		Subject:       eventdomain.SubjectFor(payload.Subscription.ID),
		Time:          d.clock.Now(),
		Data:          payload,
	}

	if err := d.publisher.Publish(ctx, envelope); err != nil {
		return err
	}
	d.metrics.RecordEventPublished(ctx, string(eventType))
	return nil
}
