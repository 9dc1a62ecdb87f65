package requests

import (
	"github.com/bankhub/testcard-portal/modules/requests/infrastructure/persistence"
	"github.com/bankhub/testcard-portal/modules/requests/presentation/controllers"
	"github.com/bankhub/testcard-portal/modules/requests/services"
	"github.com/bankhub/testcard-portal/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewCardRequestService(persistence.NewCardRequestRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewCardRequestsController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "requests"
}
