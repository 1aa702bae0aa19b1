// Package service implements the landing and webhook orchestration for
// one operating mode.
package service

import (
	"context"
	"errors"

	eventpkg "github.com/northcove/fulfillment/internal/event"
	fulfillmentdomain "github.com/northcove/fulfillment/internal/fulfillment/domain"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	obsmetrics "github.com/northcove/fulfillment/internal/observability/metrics"
	"github.com/northcove/fulfillment/internal/operation"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
	"github.com/northcove/fulfillment/internal/webhook/verifier"
	"go.uber.org/zap"
)

// Persister stores the mutated subscription after an operation is
// processed. Only the test mode persists anything.
type Persister interface {
	PutSubscription(ctx context.Context, subscription *marketplacedomain.Subscription) error
}

// NoopPersister backs the live mode, where the marketplace owns all
// subscription state.
type NoopPersister struct{}

func (NoopPersister) PutSubscription(context.Context, *marketplacedomain.Subscription) error {
	return nil
}

// URLs carries the immutable page targets the orchestrator redirects to.
type URLs struct {
	Setup         string
	Marketing     string
	Configuration string
	Confirmation  string
}

type Service struct {
	mode       fulfillmentdomain.Mode
	urls       URLs
	setupDone  bool
	resolver   subscriptiondomain.Resolver
	verifier   verifier.Verifier
	dispatcher *eventpkg.Dispatcher
	persister  Persister
	metrics    *obsmetrics.Metrics
	log        *zap.Logger
}

func New(
	mode fulfillmentdomain.Mode,
	urls URLs,
	setupDone bool,
	resolver subscriptiondomain.Resolver,
	wv verifier.Verifier,
	dispatcher *eventpkg.Dispatcher,
	persister Persister,
	metrics *obsmetrics.Metrics,
	log *zap.Logger,
) fulfillmentdomain.Service {
	return &Service{
		mode:       mode,
		urls:       urls,
		setupDone:  setupDone,
		resolver:   resolver,
		verifier:   wv,
		dispatcher: dispatcher,
		persister:  persister,
		metrics:    metrics,
		log:        log.Named("fulfillment.service." + string(mode)),
	}
}

// Landing handles the post-purchase landing GET.
func (s *Service) Landing(ctx context.Context, req fulfillmentdomain.LandingRequest) fulfillmentdomain.Outcome {
	if !s.setupDone {
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeRedirectToSetup, RedirectURL: s.urls.Setup}
	}

	if req.Token == "" && s.mode != fulfillmentdomain.ModeTest {
		if s.urls.Marketing == "" {
			return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeNotFound}
		}
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeRedirectToMarketing, RedirectURL: s.urls.Marketing}
	}

	if req.Token != "" && !req.Authenticated {
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeChallenge}
	}

	sub, err := s.resolver.ResolveToken(ctx, req.Token, req.Overrides)
	if err != nil {
		s.metrics.RecordTokenResolved(ctx, "unresolvable")
		s.log.Info("marketplace token could not be resolved", zap.Error(err))
		return fulfillmentdomain.Outcome{
			Kind:      fulfillmentdomain.OutcomeErrorPage,
			ErrorCode: fulfillmentdomain.ErrorUnableToResolveMarketplaceToken,
		}
	}
	s.metrics.RecordTokenResolved(ctx, "resolved")

	if sub.Status == marketplacedomain.StatusPendingActivation {
		if err := s.persister.PutSubscription(ctx, sub); err != nil {
			s.log.Error("persisting subscription failed",
				zap.String("subscription_id", sub.ID),
				zap.Error(err),
			)
			return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeInternalError}
		}
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomePurchasePage, Subscription: sub}
	}

	return fulfillmentdomain.Outcome{
		Kind:         fulfillmentdomain.OutcomeRedirectToConfiguration,
		RedirectURL:  s.urls.Configuration,
		Subscription: sub,
	}
}

// ConfirmPurchase handles the post-landing confirmation POST and emits
// the purchase event.
func (s *Service) ConfirmPurchase(ctx context.Context, req fulfillmentdomain.ConfirmRequest) fulfillmentdomain.Outcome {
	sub, err := s.resolver.GetByID(ctx, req.SubscriptionID)
	if err != nil {
		if errors.Is(err, marketplacedomain.ErrSubscriptionNotFound) {
			// Log the requested id: there is no subscription to read it from.
			s.log.Warn("subscription to confirm not found", zap.String("subscription_id", req.SubscriptionID))
			return fulfillmentdomain.Outcome{
				Kind:      fulfillmentdomain.OutcomeErrorPage,
				ErrorCode: fulfillmentdomain.ErrorSubscriptionNotFound,
			}
		}
		s.log.Error("confirm resolution failed",
			zap.String("subscription_id", req.SubscriptionID),
			zap.Error(err),
		)
		return fulfillmentdomain.Outcome{
			Kind:      fulfillmentdomain.OutcomeErrorPage,
			ErrorCode: fulfillmentdomain.ErrorSubscriptionActivationFailed,
		}
	}

	if err := s.dispatcher.DispatchPurchased(ctx, *sub); err != nil {
		s.log.Error("publishing purchase event failed",
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
		return fulfillmentdomain.Outcome{
			Kind:      fulfillmentdomain.OutcomeErrorPage,
			ErrorCode: fulfillmentdomain.ErrorSubscriptionActivationFailed,
		}
	}

	return fulfillmentdomain.Outcome{
		Kind:         fulfillmentdomain.OutcomeRedirectToConfirmation,
		RedirectURL:  s.urls.Confirmation,
		Subscription: sub,
	}
}

// HandleNotification processes one webhook notification end to end.
func (s *Service) HandleNotification(ctx context.Context, n webhookdomain.Notification) fulfillmentdomain.Outcome {
	if err := n.Validate(); err != nil {
		s.log.Warn("rejected malformed notification", zap.Error(err))
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeBadRequest}
	}

	sub, err := s.resolver.GetByID(ctx, n.SubscriptionID)
	if err != nil {
		if errors.Is(err, marketplacedomain.ErrSubscriptionNotFound) {
			s.log.Warn("notification for unknown subscription", zap.String("subscription_id", n.SubscriptionID))
			return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeNotFound}
		}
		s.log.Error("notification resolution failed",
			zap.String("subscription_id", n.SubscriptionID),
			zap.Error(err),
		)
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeInternalError}
	}

	opType, err := operation.MapActionType(n.ActionType)
	if err != nil {
		s.log.Error("notification carries unknown action type",
			zap.String("subscription_id", n.SubscriptionID),
			zap.String("action", n.ActionType),
		)
		s.metrics.RecordWebhookProcessed(ctx, n.ActionType, "unknown_action")
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeInternalError}
	}

	if err := s.verifier.Verify(ctx, n, opType); err != nil {
		s.metrics.RecordWebhookProcessed(ctx, opType.String(), "verification_failed")
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeInternalError}
	}

	if err := s.dispatcher.Dispatch(ctx, opType, *sub, n); err != nil {
		s.log.Error("dispatching lifecycle event failed",
			zap.String("subscription_id", sub.ID),
			zap.String("operation_type", opType.String()),
			zap.Error(err),
		)
		s.metrics.RecordWebhookProcessed(ctx, opType.String(), "publish_failed")
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeInternalError}
	}

	applyOperation(sub, opType, n)
	if err := s.persister.PutSubscription(ctx, sub); err != nil {
		s.log.Error("persisting mutated subscription failed",
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
		s.metrics.RecordWebhookProcessed(ctx, opType.String(), "persist_failed")
		return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeInternalError}
	}

	s.metrics.RecordWebhookProcessed(ctx, opType.String(), "accepted")
	return fulfillmentdomain.Outcome{Kind: fulfillmentdomain.OutcomeAccepted}
}

// applyOperation mutates the in-memory subscription the way the
// marketplace would, keeping the test-mode cache copy consistent with
// the operation just processed.
func applyOperation(sub *marketplacedomain.Subscription, opType operation.Type, n webhookdomain.Notification) {
	switch opType {
	case operation.TypeCancel:
		sub.Status = marketplacedomain.StatusCancelled
	case operation.TypeSuspend:
		sub.Status = marketplacedomain.StatusSuspended
	case operation.TypeReinstate:
		sub.Status = marketplacedomain.StatusActive
	case operation.TypeChangePlan:
		if n.PlanID != "" {
			sub.PlanID = n.PlanID
		}
	case operation.TypeChangeSeatQuantity:
		if n.Quantity != nil {
			sub.Quantity = n.Quantity
		}
	}
}
