// Package operation defines the closed set of canonical subscription
// operation kinds and the mapping from the marketplace's raw action
// vocabulary onto it.
package operation

import (
	"errors"
	"fmt"
)

// Type is a canonical subscription operation kind.
type Type string

const (
	TypeChangePlan         Type = "ChangePlan"
	TypeChangeSeatQuantity Type = "ChangeSeatQuantity"
	TypeReinstate          Type = "Reinstate"
	TypeSuspend            Type = "Suspend"
	TypeCancel             Type = "Cancel"
)

// ErrUnknownActionType indicates the marketplace sent an action outside
// the known vocabulary. This is fatal for the request: an unmapped
// action means the platform contract changed underneath us.
var ErrUnknownActionType = errors.New("unknown action type")

var actionTypes = map[string]Type{
	"ChangePlan":     TypeChangePlan,
	"ChangeQuantity": TypeChangeSeatQuantity,
	"Reinstate":      TypeReinstate,
	"Suspend":        TypeSuspend,
	"Unsubscribe":    TypeCancel,
}

// MapActionType translates a raw marketplace action type into its
// canonical operation kind. The mapping is total over the known
// vocabulary and never falls back to a default.
func MapActionType(rawActionType string) (Type, error) {
	t, ok := actionTypes[rawActionType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownActionType, rawActionType)
	}
	return t, nil
}

func (t Type) String() string {
	return string(t)
}
