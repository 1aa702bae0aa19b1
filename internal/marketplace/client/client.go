// Package client implements the marketplace fulfillment REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/northcove/fulfillment/internal/config"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	"github.com/northcove/fulfillment/internal/operation"
	"go.uber.org/zap"
)

const apiVersion = "2022-10-01"

// Client talks to the marketplace fulfillment API. It implements both
// domain.SubscriptionService and domain.OperationService.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.MarketplaceAPIBaseURL,
		token:   cfg.MarketplaceAPIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Named("marketplace.client"),
	}
}

type subscriptionDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	OfferID     string  `json:"offerId"`
	PlanID      string  `json:"planId"`
	Quantity    *int64  `json:"quantity"`
	SaaSStatus  string  `json:"saasSubscriptionStatus"`
	IsTest      bool    `json:"isTest"`
	IsFreeTrial bool    `json:"isFreeTrial"`
	Term        termDTO `json:"term"`
	Beneficiary userDTO `json:"beneficiary"`
	Purchaser   userDTO `json:"purchaser"`
}

type termDTO struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	TermUnit  string    `json:"termUnit"`
}

type userDTO struct {
	ObjectID string `json:"objectId"`
	TenantID string `json:"tenantId"`
	Email    string `json:"emailId"`
	UserID   string `json:"puid"`
}

type operationDTO struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscriptionId"`
	Action         string `json:"action"`
	Status         string `json:"status"`
}

type resolveRequest struct {
	Token string `json:"token"`
}

// GetSubscription implements domain.SubscriptionService.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*marketplacedomain.Subscription, error) {
	var dto subscriptionDTO
	url := fmt.Sprintf("%s/subscriptions/%s?api-version=%s", c.baseURL, subscriptionID, apiVersion)
	if err := c.do(ctx, http.MethodGet, url, nil, &dto); err != nil {
		if err == errNotFound {
			return nil, marketplacedomain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription %s: %w", subscriptionID, err)
	}
	return dtoToSubscription(dto), nil
}

// ResolveSubscriptionToken implements domain.SubscriptionService.
func (c *Client) ResolveSubscriptionToken(ctx context.Context, token string) (*marketplacedomain.Subscription, error) {
	var dto subscriptionDTO
	url := fmt.Sprintf("%s/subscriptions/resolve?api-version=%s", c.baseURL, apiVersion)
	body, err := json.Marshal(resolveRequest{Token: token})
	if err != nil {
		return nil, err
	}
	if err := c.do(ctx, http.MethodPost, url, body, &dto); err != nil {
		if err == errNotFound {
			return nil, marketplacedomain.ErrTokenUnresolvable
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return dtoToSubscription(dto), nil
}

// GetSubscriptionOperation implements domain.OperationService.
func (c *Client) GetSubscriptionOperation(ctx context.Context, subscriptionID, operationID string) (*marketplacedomain.Operation, error) {
	var dto operationDTO
	url := fmt.Sprintf("%s/subscriptions/%s/operations/%s?api-version=%s", c.baseURL, subscriptionID, operationID, apiVersion)
	if err := c.do(ctx, http.MethodGet, url, nil, &dto); err != nil {
		if err == errNotFound {
			return nil, marketplacedomain.ErrOperationNotFound
		}
		return nil, fmt.Errorf("get operation %s for subscription %s: %w", operationID, subscriptionID, err)
	}

	opType, err := operation.MapActionType(dto.Action)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", operationID, err)
	}

	return &marketplacedomain.Operation{
		ID:             dto.ID,
		SubscriptionID: dto.SubscriptionID,
		Type:           opType,
		Status:         dto.Status,
	}, nil
}

var errNotFound = fmt.Errorf("marketplace: not found")

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("marketplace api error",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("marketplace api status %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func dtoToSubscription(dto subscriptionDTO) *marketplacedomain.Subscription {
	return &marketplacedomain.Subscription{
		ID:       dto.ID,
		Name:     dto.Name,
		OfferID:  dto.OfferID,
		PlanID:   dto.PlanID,
		Quantity: dto.Quantity,
		Term: marketplacedomain.Term{
			StartDate: dto.Term.StartDate,
			EndDate:   dto.Term.EndDate,
			TermUnit:  dto.Term.TermUnit,
		},
		Beneficiary: marketplacedomain.User(dto.Beneficiary),
		Purchaser:   marketplacedomain.User(dto.Purchaser),
		IsTest:      dto.IsTest,
		IsFreeTrial: dto.IsFreeTrial,
		Status:      marketplacedomain.ParseSubscriptionStatus(dto.SaaSStatus),
	}
}
