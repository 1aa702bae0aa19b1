package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/northcove/fulfillment/internal/clock"
	eventpkg "github.com/northcove/fulfillment/internal/event"
	eventdomain "github.com/northcove/fulfillment/internal/event/domain"
	fulfillmentdomain "github.com/northcove/fulfillment/internal/fulfillment/domain"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	"github.com/northcove/fulfillment/internal/operation"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	"github.com/northcove/fulfillment/internal/subscription/resolver"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
	"github.com/northcove/fulfillment/internal/webhook/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -- Fakes --

type capturingPublisher struct {
	envelopes []eventdomain.Envelope
	err       error
}

func (p *capturingPublisher) Publish(_ context.Context, envelope eventdomain.Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.envelopes = append(p.envelopes, envelope)
	return nil
}

type fakeResolver struct {
	byID       map[string]*marketplacedomain.Subscription
	byIDErr    error
	resolved   *marketplacedomain.Subscription
	resolveErr error
}

func (f *fakeResolver) GetByID(_ context.Context, subscriptionID string) (*marketplacedomain.Subscription, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	sub, ok := f.byID[subscriptionID]
	if !ok {
		return nil, marketplacedomain.ErrSubscriptionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeResolver) ResolveToken(_ context.Context, _ string, _ subscriptiondomain.Overrides) (*marketplacedomain.Subscription, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	copied := *f.resolved
	return &copied, nil
}

type fakeVerifier struct {
	err   error
	calls int
}

func (f *fakeVerifier) Verify(context.Context, webhookdomain.Notification, operation.Type) error {
	f.calls++
	return f.err
}

type memoryRepository struct {
	subs   map[string]*marketplacedomain.Subscription
	putErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{subs: map[string]*marketplacedomain.Subscription{}}
}

func (m *memoryRepository) GetSubscription(_ context.Context, subscriptionID string) (*marketplacedomain.Subscription, error) {
	sub, ok := m.subs[subscriptionID]
	if !ok {
		return nil, marketplacedomain.ErrSubscriptionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (m *memoryRepository) PutSubscription(_ context.Context, subscription *marketplacedomain.Subscription) error {
	if m.putErr != nil {
		return m.putErr
	}
	copied := *subscription
	m.subs[subscription.ID] = &copied
	return nil
}

// -- Helpers --

var testURLs = URLs{
	Setup:         "https://vendor.example/setup",
	Marketing:     "https://vendor.example/welcome",
	Configuration: "https://vendor.example/account/plans",
	Confirmation:  "https://vendor.example/account/confirmed",
}

func newDispatcher(pub eventdomain.Publisher) *eventpkg.Dispatcher {
	return eventpkg.NewDispatcher(eventpkg.DispatcherParam{
		Publisher: pub,
		Clock:     clock.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Log:       zap.NewNop(),
	})
}

func activeSubscription(id string) *marketplacedomain.Subscription {
	return &marketplacedomain.Subscription{
		ID:      id,
		Name:    "Contoso plan",
		OfferID: "flat-rate-offer",
		PlanID:  "base-plan",
		Status:  marketplacedomain.StatusActive,
	}
}

func notification(action, subscriptionID string) webhookdomain.Notification {
	return webhookdomain.Notification{
		OperationID:    "op-1",
		SubscriptionID: subscriptionID,
		ActionType:     action,
	}
}

// -- Webhook flow --

func TestHandleNotification_UnsubscribePublishesCancelled(t *testing.T) {
	pub := &capturingPublisher{}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}
	ver := &fakeVerifier{}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, ver, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), notification("Unsubscribe", "sub-1"))

	assert.Equal(t, fulfillmentdomain.OutcomeAccepted, outcome.Kind)
	require.Len(t, pub.envelopes, 1)
	env := pub.envelopes[0]
	assert.Equal(t, eventdomain.TypeSubscriptionCancelled, env.Type)
	assert.Equal(t, "subscriptions/sub-1", env.Subject)
	assert.Equal(t, "op-1", env.Data.OperationID)
	assert.Equal(t, 1, ver.calls)
}

func TestHandleNotification_ChangeQuantityCarriesNewQuantity(t *testing.T) {
	pub := &capturingPublisher{}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	n := notification("ChangeQuantity", "sub-1")
	qty := int64(25)
	n.Quantity = &qty

	outcome := svc.HandleNotification(context.Background(), n)

	assert.Equal(t, fulfillmentdomain.OutcomeAccepted, outcome.Kind)
	require.Len(t, pub.envelopes, 1)
	env := pub.envelopes[0]
	assert.Equal(t, eventdomain.TypeSubscriptionSeatQuantityChanged, env.Type)
	require.NotNil(t, env.Data.NewQuantity)
	assert.Equal(t, int64(25), *env.Data.NewQuantity)
}

func TestHandleNotification_VerificationFailurePublishesNothing(t *testing.T) {
	pub := &capturingPublisher{}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}
	ver := &fakeVerifier{err: webhookdomain.ErrVerificationFailed}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, ver, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), notification("Unsubscribe", "sub-1"))

	assert.Equal(t, fulfillmentdomain.OutcomeInternalError, outcome.Kind)
	assert.Empty(t, pub.envelopes)
}

func TestHandleNotification_MalformedNotification(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, true, &fakeResolver{}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), webhookdomain.Notification{
		SubscriptionID: "sub-1",
		ActionType:     "Unsubscribe",
	})

	assert.Equal(t, fulfillmentdomain.OutcomeBadRequest, outcome.Kind)
}

func TestHandleNotification_UnknownSubscription(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, true, &fakeResolver{byID: map[string]*marketplacedomain.Subscription{}}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), notification("Unsubscribe", "ghost"))

	assert.Equal(t, fulfillmentdomain.OutcomeNotFound, outcome.Kind)
}

func TestHandleNotification_UnknownActionType(t *testing.T) {
	pub := &capturingPublisher{}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}
	ver := &fakeVerifier{}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, ver, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), notification("Renew", "sub-1"))

	assert.Equal(t, fulfillmentdomain.OutcomeInternalError, outcome.Kind)
	assert.Empty(t, pub.envelopes)
	assert.Equal(t, 0, ver.calls)
}

func TestHandleNotification_PublishFailure(t *testing.T) {
	pub := &capturingPublisher{err: eventdomain.ErrPublishFailed}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), notification("Suspend", "sub-1"))

	assert.Equal(t, fulfillmentdomain.OutcomeInternalError, outcome.Kind)
}

func TestHandleNotification_TestModePersistsMutation(t *testing.T) {
	repo := newMemoryRepository()
	cached := activeSubscription("sub-9")
	cached.IsTest = true
	require.NoError(t, repo.PutSubscription(context.Background(), cached))

	res := resolver.NewTest(repo, nil, clock.NewFakeClock(time.Now()), zap.NewNop())
	svc := New(fulfillmentdomain.ModeTest, testURLs, true, res, verifier.NewTest(nil, zap.NewNop()), newDispatcher(&capturingPublisher{}), repo, nil, zap.NewNop())

	outcome := svc.HandleNotification(context.Background(), notification("Unsubscribe", "sub-9"))

	assert.Equal(t, fulfillmentdomain.OutcomeAccepted, outcome.Kind)
	stored, err := repo.GetSubscription(context.Background(), "sub-9")
	require.NoError(t, err)
	assert.Equal(t, marketplacedomain.StatusCancelled, stored.Status)
}

func TestHandleNotification_TestModePlanChangeUpdatesCache(t *testing.T) {
	repo := newMemoryRepository()
	cached := activeSubscription("sub-9")
	cached.IsTest = true
	require.NoError(t, repo.PutSubscription(context.Background(), cached))

	res := resolver.NewTest(repo, nil, clock.NewFakeClock(time.Now()), zap.NewNop())
	svc := New(fulfillmentdomain.ModeTest, testURLs, true, res, verifier.NewTest(nil, zap.NewNop()), newDispatcher(&capturingPublisher{}), repo, nil, zap.NewNop())

	n := notification("ChangePlan", "sub-9")
	n.PlanID = "premium-plan"

	outcome := svc.HandleNotification(context.Background(), n)

	assert.Equal(t, fulfillmentdomain.OutcomeAccepted, outcome.Kind)
	stored, err := repo.GetSubscription(context.Background(), "sub-9")
	require.NoError(t, err)
	assert.Equal(t, "premium-plan", stored.PlanID)
}

// -- Landing flow --

func TestLanding_UnresolvableTokenRendersErrorPage(t *testing.T) {
	res := &fakeResolver{resolveErr: marketplacedomain.ErrTokenUnresolvable}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{
		Token:         "garbage",
		Authenticated: true,
	})

	assert.Equal(t, fulfillmentdomain.OutcomeErrorPage, outcome.Kind)
	assert.Equal(t, fulfillmentdomain.ErrorUnableToResolveMarketplaceToken, outcome.ErrorCode)
}

func TestLanding_TestModeSynthesizesAndPersists(t *testing.T) {
	repo := newMemoryRepository()
	res := resolver.NewTest(repo, nil, clock.NewFakeClock(time.Now()), zap.NewNop())

	svc := New(fulfillmentdomain.ModeTest, testURLs, true, res, verifier.NewTest(nil, zap.NewNop()), newDispatcher(&capturingPublisher{}), repo, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{
		Authenticated: true,
		Overrides: subscriptiondomain.Overrides{
			"subscriptionId": "abc",
			"seatQuantity":   "10",
		},
	})

	assert.Equal(t, fulfillmentdomain.OutcomePurchasePage, outcome.Kind)
	require.NotNil(t, outcome.Subscription)
	assert.Equal(t, "abc", outcome.Subscription.ID)

	stored, err := repo.GetSubscription(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, marketplacedomain.StatusPendingActivation, stored.Status)
	require.NotNil(t, stored.Quantity)
	assert.Equal(t, int64(10), *stored.Quantity)
	assert.True(t, stored.IsTest)
}

func TestLanding_PendingActivationRendersPurchasePage(t *testing.T) {
	pending := activeSubscription("sub-2")
	pending.Status = marketplacedomain.StatusPendingActivation
	res := &fakeResolver{resolved: pending}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{
		Token:         "valid",
		Authenticated: true,
	})

	assert.Equal(t, fulfillmentdomain.OutcomePurchasePage, outcome.Kind)
	require.NotNil(t, outcome.Subscription)
	assert.Equal(t, "sub-2", outcome.Subscription.ID)
}

func TestLanding_ActiveSubscriptionRedirectsToConfiguration(t *testing.T) {
	res := &fakeResolver{resolved: activeSubscription("sub-3")}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{
		Token:         "valid",
		Authenticated: true,
	})

	assert.Equal(t, fulfillmentdomain.OutcomeRedirectToConfiguration, outcome.Kind)
	assert.Equal(t, testURLs.Configuration, outcome.RedirectURL)
}

func TestLanding_NoTokenRedirectsToMarketing(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, true, &fakeResolver{}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{})

	assert.Equal(t, fulfillmentdomain.OutcomeRedirectToMarketing, outcome.Kind)
	assert.Equal(t, testURLs.Marketing, outcome.RedirectURL)
}

func TestLanding_NoTokenWithoutMarketingPageIsNotFound(t *testing.T) {
	urls := testURLs
	urls.Marketing = ""

	svc := New(fulfillmentdomain.ModeLive, urls, true, &fakeResolver{}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{})

	assert.Equal(t, fulfillmentdomain.OutcomeNotFound, outcome.Kind)
}

func TestLanding_UnauthenticatedTokenChallenges(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, true, &fakeResolver{}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{Token: "tok"})

	assert.Equal(t, fulfillmentdomain.OutcomeChallenge, outcome.Kind)
}

func TestLanding_IncompleteSetupRedirects(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, false, &fakeResolver{}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.Landing(context.Background(), fulfillmentdomain.LandingRequest{Token: "tok", Authenticated: true})

	assert.Equal(t, fulfillmentdomain.OutcomeRedirectToSetup, outcome.Kind)
	assert.Equal(t, testURLs.Setup, outcome.RedirectURL)
}

// -- Confirm flow --

func TestConfirmPurchase_PublishesPurchasedAndRedirects(t *testing.T) {
	pub := &capturingPublisher{}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.ConfirmPurchase(context.Background(), fulfillmentdomain.ConfirmRequest{SubscriptionID: "sub-1"})

	assert.Equal(t, fulfillmentdomain.OutcomeRedirectToConfirmation, outcome.Kind)
	assert.Equal(t, testURLs.Confirmation, outcome.RedirectURL)
	require.Len(t, pub.envelopes, 1)
	assert.Equal(t, eventdomain.TypeSubscriptionPurchased, pub.envelopes[0].Type)
	assert.Empty(t, pub.envelopes[0].Data.OperationID)
}

func TestConfirmPurchase_UnknownSubscription(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, true, &fakeResolver{byID: map[string]*marketplacedomain.Subscription{}}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.ConfirmPurchase(context.Background(), fulfillmentdomain.ConfirmRequest{SubscriptionID: "ghost"})

	assert.Equal(t, fulfillmentdomain.OutcomeErrorPage, outcome.Kind)
	assert.Equal(t, fulfillmentdomain.ErrorSubscriptionNotFound, outcome.ErrorCode)
}

func TestConfirmPurchase_ResolutionFailure(t *testing.T) {
	svc := New(fulfillmentdomain.ModeLive, testURLs, true, &fakeResolver{byIDErr: errors.New("marketplace api: 502")}, &fakeVerifier{}, newDispatcher(&capturingPublisher{}), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.ConfirmPurchase(context.Background(), fulfillmentdomain.ConfirmRequest{SubscriptionID: "sub-1"})

	assert.Equal(t, fulfillmentdomain.OutcomeErrorPage, outcome.Kind)
	assert.Equal(t, fulfillmentdomain.ErrorSubscriptionActivationFailed, outcome.ErrorCode)
}

func TestConfirmPurchase_PublishFailure(t *testing.T) {
	pub := &capturingPublisher{err: eventdomain.ErrPublishFailed}
	res := &fakeResolver{byID: map[string]*marketplacedomain.Subscription{
		"sub-1": activeSubscription("sub-1"),
	}}

	svc := New(fulfillmentdomain.ModeLive, testURLs, true, res, &fakeVerifier{}, newDispatcher(pub), NoopPersister{}, nil, zap.NewNop())

	outcome := svc.ConfirmPurchase(context.Background(), fulfillmentdomain.ConfirmRequest{SubscriptionID: "sub-1"})

	assert.Equal(t, fulfillmentdomain.OutcomeErrorPage, outcome.Kind)
	assert.Equal(t, fulfillmentdomain.ErrorSubscriptionActivationFailed, outcome.ErrorCode)
}
