package insights

import (
	"github.com/rollcallhq/rollcall/internal/insights/service"
	"github.com/rollcallhq/rollcall/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("insights.service",
	fx.Provide(pdf.New),
	fx.Provide(service.New),
)
