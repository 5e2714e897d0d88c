package productgroup

import (
	"github.com/smallbiznis/salesdesk/internal/productgroup/repository"
	"github.com/smallbiznis/salesdesk/internal/productgroup/service"
	"go.uber.org/fx"
)

var Module = fx.Module("productgroup.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
