package notifications

import (
	"github.com/bankhub/testcard-portal/modules/notifications/infrastructure/persistence"
	"github.com/bankhub/testcard-portal/modules/notifications/presentation/controllers"
	"github.com/bankhub/testcard-portal/modules/notifications/services"
	"github.com/bankhub/testcard-portal/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewNotificationService(persistence.NewNotificationRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewNotificationsController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "notifications"
}
