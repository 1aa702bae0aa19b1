package event

import (
	"github.com/northcove/fulfillment/internal/event/publisher"
	"go.uber.org/fx"
)

var Module = fx.Module("event.dispatcher",
	fx.Provide(
		publisher.NewOutbox,
		NewDispatcher,
	),
)
