package fulfillment

import (
	"github.com/northcove/fulfillment/internal/clock"
	"github.com/northcove/fulfillment/internal/config"
	eventpkg "github.com/northcove/fulfillment/internal/event"
	fulfillmentdomain "github.com/northcove/fulfillment/internal/fulfillment/domain"
	"github.com/northcove/fulfillment/internal/fulfillment/service"
	marketplacedomain "github.com/northcove/fulfillment/internal/marketplace/domain"
	obsmetrics "github.com/northcove/fulfillment/internal/observability/metrics"
	subscriptiondomain "github.com/northcove/fulfillment/internal/subscription/domain"
	"github.com/northcove/fulfillment/internal/subscription/resolver"
	"github.com/northcove/fulfillment/internal/webhook/verifier"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Services holds one fully wired orchestrator per operating mode. The
// test service is present even when test mode is disabled; the HTTP
// layer decides whether its routes are mounted.
type Services struct {
	Live fulfillmentdomain.Service
	Test fulfillmentdomain.Service
}

type servicesParam struct {
	fx.In

	Config        config.Config
	Offer         *config.OfferConfigHolder
	Clock         clock.Clock
	Subscriptions marketplacedomain.SubscriptionService
	Operations    marketplacedomain.OperationService
	Repository    subscriptiondomain.Repository
	Dispatcher    *eventpkg.Dispatcher
	Metrics       *obsmetrics.Metrics
	Logger        *zap.Logger
}

func newServices(p servicesParam) Services {
	urls := service.URLs{
		Setup:         p.Config.SetupURL,
		Marketing:     p.Config.MarketingPageURL,
		Configuration: p.Config.SubscriptionConfigurationURL,
		Confirmation:  p.Config.PurchaseConfirmationURL,
	}
	setupDone := p.Config.SetupComplete()

	live := service.New(
		fulfillmentdomain.ModeLive,
		urls,
		setupDone,
		resolver.NewLive(p.Subscriptions, p.Logger),
		verifier.NewLive(p.Operations, p.Metrics, p.Logger),
		p.Dispatcher,
		service.NoopPersister{},
		p.Metrics,
		p.Logger,
	)

	test := service.New(
		fulfillmentdomain.ModeTest,
		urls,
		true,
		resolver.NewTest(p.Repository, p.Offer, p.Clock, p.Logger),
		verifier.NewTest(p.Metrics, p.Logger),
		p.Dispatcher,
		p.Repository,
		p.Metrics,
		p.Logger,
	)

	return Services{Live: live, Test: test}
}

var Module = fx.Module("fulfillment",
	fx.Provide(newServices),
)
