package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rollcallhq/rollcall/internal/clock"
	"github.com/rollcallhq/rollcall/internal/config"
	"github.com/rollcallhq/rollcall/internal/ingest"
	"github.com/rollcallhq/rollcall/internal/insights"
	"github.com/rollcallhq/rollcall/internal/migration"
	"github.com/rollcallhq/rollcall/internal/observability"
	"github.com/rollcallhq/rollcall/internal/pushmetrics"
	"github.com/rollcallhq/rollcall/internal/record"
	"github.com/rollcallhq/rollcall/internal/scheduler"
	"github.com/rollcallhq/rollcall/internal/search"
	"github.com/rollcallhq/rollcall/internal/server"
	"github.com/rollcallhq/rollcall/internal/store"
	"github.com/rollcallhq/rollcall/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		store.Module,

		// Functional domains
		record.Module,
		ingest.Module,
		search.Module,
		insights.Module,

		// Background work and push telemetry
		pushmetrics.Module,
		scheduler.Module,

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
