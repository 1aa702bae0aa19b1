package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/northcove/fulfillment/internal/clock"
	"github.com/northcove/fulfillment/internal/config"
	"github.com/northcove/fulfillment/internal/event"
	"github.com/northcove/fulfillment/internal/fulfillment"
	"github.com/northcove/fulfillment/internal/marketplace"
	"github.com/northcove/fulfillment/internal/migration"
	"github.com/northcove/fulfillment/internal/observability"
	"github.com/northcove/fulfillment/internal/ratelimit"
	"github.com/northcove/fulfillment/internal/server"
	"github.com/northcove/fulfillment/internal/subscription"
	"github.com/northcove/fulfillment/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		marketplace.Module,
		subscription.Module,
		event.Module,
		fulfillment.Module,
		ratelimit.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
