package operation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapActionType(t *testing.T) {
	cases := map[string]Type{
		"ChangePlan":     TypeChangePlan,
		"ChangeQuantity": TypeChangeSeatQuantity,
		"Reinstate":      TypeReinstate,
		"Suspend":        TypeSuspend,
		"Unsubscribe":    TypeCancel,
	}

	for raw, want := range cases {
		got, err := MapActionType(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)

		// Stable across calls.
		again, err := MapActionType(raw)
		require.NoError(t, err)
		require.Equal(t, got, again)
	}
}

func TestMapActionTypeUnknown(t *testing.T) {
	for _, raw := range []string{"", "unsubscribe", "Renew", "ChangeSeatQuantity", "Delete"} {
		got, err := MapActionType(raw)
		require.True(t, errors.Is(err, ErrUnknownActionType), raw)
		require.Empty(t, got)
	}
}
