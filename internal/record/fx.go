package record

import (
	"github.com/rollcallhq/rollcall/internal/record/repository"
	"github.com/rollcallhq/rollcall/internal/record/service"
	"go.uber.org/fx"
)

var Module = fx.Module("record.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
