package verifier

import (
	"context"
	"errors"
	"testing"

	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	"github.com/northcove/fulfillment/internal/operation"
	webhookdomain "github.com/northcove/fulfillment/internal/webhook/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type operationsMock struct {
	record *marketplacedomain.Operation
	err    error
}

func (m *operationsMock) GetSubscriptionOperation(context.Context, string, string) (*marketplacedomain.Operation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func matchingRecord() *marketplacedomain.Operation {
	return &marketplacedomain.Operation{
		ID:             "op-1",
		SubscriptionID: "sub-1",
		Type:           operation.TypeCancel,
	}
}

func cancelNotification() webhookdomain.Notification {
	return webhookdomain.Notification{
		OperationID:    "op-1",
		SubscriptionID: "sub-1",
		ActionType:     "Unsubscribe",
	}
}

func TestLiveVerify_MatchingRecordSucceeds(t *testing.T) {
	v := NewLive(&operationsMock{record: matchingRecord()}, nil, zap.NewNop())

	err := v.Verify(context.Background(), cancelNotification(), operation.TypeCancel)

	assert.NoError(t, err)
}

func TestLiveVerify_MissingRecordFails(t *testing.T) {
	v := NewLive(&operationsMock{err: marketplacedomain.ErrOperationNotFound}, nil, zap.NewNop())

	err := v.Verify(context.Background(), cancelNotification(), operation.TypeCancel)

	assert.True(t, errors.Is(err, webhookdomain.ErrVerificationFailed))
}

func TestLiveVerify_TransportFailureIsNotVerificationFailure(t *testing.T) {
	transportErr := errors.New("marketplace api: 502")
	v := NewLive(&operationsMock{err: transportErr}, nil, zap.NewNop())

	err := v.Verify(context.Background(), cancelNotification(), operation.TypeCancel)

	require.Error(t, err)
	assert.True(t, errors.Is(err, transportErr))
	assert.False(t, errors.Is(err, webhookdomain.ErrVerificationFailed))
}

func TestLiveVerify_Mismatches(t *testing.T) {
	cases := []struct {
		name   string
		record *marketplacedomain.Operation
		opType operation.Type
	}{
		{
			name: "operation id",
			record: &marketplacedomain.Operation{
				ID:             "op-other",
				SubscriptionID: "sub-1",
				Type:           operation.TypeCancel,
			},
			opType: operation.TypeCancel,
		},
		{
			name: "subscription id",
			record: &marketplacedomain.Operation{
				ID:             "op-1",
				SubscriptionID: "sub-other",
				Type:           operation.TypeCancel,
			},
			opType: operation.TypeCancel,
		},
		{
			name:   "operation type",
			record: matchingRecord(),
			opType: operation.TypeSuspend,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewLive(&operationsMock{record: tc.record}, nil, zap.NewNop())

			err := v.Verify(context.Background(), cancelNotification(), tc.opType)

			assert.True(t, errors.Is(err, webhookdomain.ErrVerificationFailed))
		})
	}
}

func TestTestVerify_AlwaysSucceeds(t *testing.T) {
	v := NewTest(nil, zap.NewNop())

	err := v.Verify(context.Background(), cancelNotification(), operation.TypeCancel)

	assert.NoError(t, err)
}
