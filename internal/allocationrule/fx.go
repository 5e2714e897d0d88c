package allocationrule

import (
	"github.com/smallbiznis/salesdesk/internal/allocationrule/repository"
	"github.com/smallbiznis/salesdesk/internal/allocationrule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocationrule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
