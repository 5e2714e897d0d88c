package specialization

import (
	"github.com/smallbiznis/salesdesk/internal/specialization/repository"
	"github.com/smallbiznis/salesdesk/internal/specialization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("specialization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
