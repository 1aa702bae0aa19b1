package resolver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/northcove/fulfillment/internal/clock"
	"github.com/northcove/fulfillment/internal/config"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	"go.uber.org/zap"
)

// Override keys accepted by test-mode synthesis.
const (
	OverrideSubscriptionID   = "subscriptionId"
	OverrideSubscriptionName = "subscriptionName"
	OverrideOfferID          = "offerId"
	OverridePlanID           = "planId"
	OverrideSeatQuantity     = "seatQuantity"
	OverrideIsFreeTrial      = "isFreeTrial"
	OverrideBeneficiaryEmail = "beneficiaryEmail"
	OverridePurchaserEmail   = "purchaserEmail"
)

type testResolver struct {
	repo  subscriptiondomain.Repository
	offer *config.OfferConfigHolder
	clock clock.Clock
	log   *zap.Logger
}

// NewTest builds the resolver backing the test endpoints: lookups go to
// the local cache only and token resolution synthesizes a fresh mock
// subscription from the request overrides.
func NewTest(repo subscriptiondomain.Repository, offer *config.OfferConfigHolder, clk clock.Clock, log *zap.Logger) subscriptiondomain.Resolver {
	return &testResolver{
		repo:  repo,
		offer: offer,
		clock: clk,
		log:   log.Named("subscription.resolver.test"),
	}
}

func (r *testResolver) GetByID(ctx context.Context, subscriptionID string) (*marketplacedomain.Subscription, error) {
	return r.repo.GetSubscription(ctx, subscriptionID)
}

func (r *testResolver) ResolveToken(_ context.Context, _ string, overrides subscriptiondomain.Overrides) (*marketplacedomain.Subscription, error) {
	offer := r.offer.Current()
	now := r.clock.Now()

	sub := &marketplacedomain.Subscription{
		ID:      uuid.NewString(),
		OfferID: offer.OfferID,
		PlanID:  offer.PlanID,
		Term: marketplacedomain.Term{
			StartDate: now,
			EndDate:   now.AddDate(0, 1, 0),
			TermUnit:  offer.TermUnit,
		},
		Beneficiary: marketplacedomain.User{
			ObjectID: uuid.NewString(),
			TenantID: uuid.NewString(),
			Email:    offer.BeneficiaryEmail,
			UserID:   uuid.NewString(),
		},
		Purchaser: marketplacedomain.User{
			ObjectID: uuid.NewString(),
			TenantID: uuid.NewString(),
			Email:    offer.PurchaserEmail,
			UserID:   uuid.NewString(),
		},
		IsTest: true,
		Status: marketplacedomain.StatusPendingActivation,
	}

	if v, ok := overrides.Get(OverrideSubscriptionID); ok {
		sub.ID = v
	}
	if v, ok := overrides.Get(OverrideSubscriptionName); ok {
		sub.Name = v
	}
	if v, ok := overrides.Get(OverrideOfferID); ok {
		sub.OfferID = v
	}
	if v, ok := overrides.Get(OverridePlanID); ok {
		sub.PlanID = v
	}
	if v, ok := overrides.GetInt64(OverrideSeatQuantity); ok {
		sub.Quantity = &v
	}
	if v, ok := overrides.GetBool(OverrideIsFreeTrial); ok {
		sub.IsFreeTrial = v
	}
	if v, ok := overrides.Get(OverrideBeneficiaryEmail); ok {
		sub.Beneficiary.Email = v
	}
	if v, ok := overrides.Get(OverridePurchaserEmail); ok {
		sub.Purchaser.Email = v
	}
	if sub.Name == "" {
		sub.Name = fmt.Sprintf("Test subscription %s", sub.ID)
	}

	r.log.Info("synthesized test subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("plan_id", sub.PlanID),
	)
	return sub, nil
}
