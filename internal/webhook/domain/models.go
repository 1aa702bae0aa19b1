// Package domain defines inbound webhook notifications and their
// verification contract.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Notification is an inbound claim from the marketplace that a
// subscription changed. It is untrusted until verified against the
// platform's own operation record.
type Notification struct {
	OperationID    string `json:"id"`
	SubscriptionID string `json:"subscriptionId"`
	ActionType     string `json:"action"`
	PlanID         string `json:"planId,omitempty"`
	Quantity       *int64 `json:"quantity,omitempty"`
}

var (
	ErrInvalidNotification = errors.New("invalid notification")
	ErrVerificationFailed  = errors.New("webhook verification failed")
)

// Validate rejects structurally incomplete notifications before any
// resolution work happens.
func (n Notification) Validate() error {
	if strings.TrimSpace(n.SubscriptionID) == "" {
		return fmt.Errorf("%w: subscriptionId is required", ErrInvalidNotification)
	}
	if strings.TrimSpace(n.OperationID) == "" {
		return fmt.Errorf("%w: operation id is required", ErrInvalidNotification)
	}
	if strings.TrimSpace(n.ActionType) == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidNotification)
	}
	return nil
}
