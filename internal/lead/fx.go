package lead

import (
	"github.com/smallbiznis/salesdesk/internal/lead/repository"
	"github.com/smallbiznis/salesdesk/internal/lead/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lead.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
