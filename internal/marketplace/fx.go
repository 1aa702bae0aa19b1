package marketplace

import (
	"github.com/northcove/fulfillment/internal/marketplace/client"
	"github.com/northcove/fulfillment/internal/marketplace/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("marketplace.client",
	fx.Provide(
		client.New,
		func(c *client.Client) domain.SubscriptionService { return c },
		func(c *client.Client) domain.OperationService { return c },
	),
)
