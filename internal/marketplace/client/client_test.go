package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/northcove/fulfillment/internal/config"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	"github.com/northcove/fulfillment/internal/operation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.Config{
		MarketplaceAPIBaseURL: srv.URL,
		MarketplaceAPIToken:   "secret",
	}, zap.NewNop())
}

func TestGetSubscription(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscriptions/sub-1", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "sub-1",
			"name": "Contoso Team",
			"offerId": "flat-rate-offer",
			"planId": "silver",
			"quantity": 5,
			"saasSubscriptionStatus": "Subscribed"
		}`))
	}))

	sub, err := c.GetSubscription(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, "sub-1", sub.ID)
	require.Equal(t, "silver", sub.PlanID)
	require.NotNil(t, sub.Quantity)
	require.EqualValues(t, 5, *sub.Quantity)
	// Unrecognized wire status decodes to Unknown, never an error.
	require.Equal(t, marketplacedomain.StatusUnknown, sub.Status)
}

func TestGetSubscriptionNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetSubscription(context.Background(), "missing")
	require.ErrorIs(t, err, marketplacedomain.ErrSubscriptionNotFound)
}

func TestResolveSubscriptionToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/subscriptions/resolve", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "sub-2", "planId": "gold", "saasSubscriptionStatus": "PendingActivation"}`))
	}))

	sub, err := c.ResolveSubscriptionToken(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.Equal(t, "sub-2", sub.ID)
	require.Equal(t, marketplacedomain.StatusPendingActivation, sub.Status)
}

func TestResolveSubscriptionTokenRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.ResolveSubscriptionToken(context.Background(), "garbage")
	require.ErrorIs(t, err, marketplacedomain.ErrTokenUnresolvable)
}

func TestGetSubscriptionOperation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscriptions/sub-1/operations/op-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "op-1", "subscriptionId": "sub-1", "action": "Unsubscribe", "status": "InProgress"}`))
	}))

	op, err := c.GetSubscriptionOperation(context.Background(), "sub-1", "op-1")
	require.NoError(t, err)
	require.Equal(t, operation.TypeCancel, op.Type)
	require.Equal(t, "sub-1", op.SubscriptionID)
}

func TestGetSubscriptionOperationUnknownAction(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "op-1", "subscriptionId": "sub-1", "action": "Renew"}`))
	}))

	_, err := c.GetSubscriptionOperation(context.Background(), "sub-1", "op-1")
	require.True(t, errors.Is(err, operation.ErrUnknownActionType))
}

func TestTransportFailureSurfaces(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.GetSubscription(context.Background(), "sub-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, marketplacedomain.ErrSubscriptionNotFound)
}
