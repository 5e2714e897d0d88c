package allocation

import (
	"github.com/smallbiznis/salesdesk/internal/allocation/counter"
	"github.com/smallbiznis/salesdesk/internal/allocation/domain"
	"github.com/smallbiznis/salesdesk/internal/allocation/repository"
	"github.com/smallbiznis/salesdesk/internal/allocation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocation.service",
	fx.Provide(repository.ProvideEvents),
	fx.Provide(
		fx.Annotate(counter.NewGormStore, fx.As(new(domain.CounterStore))),
	),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) domain.Assigner { return svc }),
)
