package salesemployee

import (
	"github.com/smallbiznis/salesdesk/internal/salesemployee/repository"
	"github.com/smallbiznis/salesdesk/internal/salesemployee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salesemployee.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
