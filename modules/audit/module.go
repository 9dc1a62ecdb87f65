package audit

import (
	"github.com/bankhub/testcard-portal/modules/audit/handlers"
	"github.com/bankhub/testcard-portal/modules/audit/infrastructure/persistence"
	"github.com/bankhub/testcard-portal/modules/audit/presentation/controllers"
	"github.com/bankhub/testcard-portal/modules/audit/services"
	"github.com/bankhub/testcard-portal/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewAuditService(persistence.NewAuditTrailRepository()),
	)

	app.RegisterControllers(
		controllers.NewAuditTrailsController(app),
	)

	handlers.Register(app)

	return nil
}

func (m *Module) Name() string {
	return "audit"
}
