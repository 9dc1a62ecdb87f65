package directory

import (
	"github.com/bankhub/testcard-portal/modules/directory/infrastructure/persistence"
	"github.com/bankhub/testcard-portal/modules/directory/presentation/controllers"
	"github.com/bankhub/testcard-portal/modules/directory/services"
	"github.com/bankhub/testcard-portal/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewIssuerService(persistence.NewIssuerRepository(), app.EventPublisher()),
		services.NewPartnerService(persistence.NewPartnerRepository(), app.EventPublisher()),
		services.NewSystemDefaultService(persistence.NewSystemDefaultRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewIssuersController(app),
		controllers.NewPartnersController(app),
		controllers.NewSystemDefaultsController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "directory"
}
