package core

import (
	"github.com/bankhub/testcard-portal/modules/core/infrastructure/delivery"
	"github.com/bankhub/testcard-portal/modules/core/infrastructure/persistence"
	"github.com/bankhub/testcard-portal/modules/core/presentation/controllers"
	"github.com/bankhub/testcard-portal/modules/core/services"
	"github.com/bankhub/testcard-portal/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	userRepo := persistence.NewUserRepository()
	sessionRepo := persistence.NewSessionRepository()
	otpRepo := persistence.NewOTPRepository()

	app.RegisterServices(
		services.NewAuthService(
			userRepo,
			sessionRepo,
			otpRepo,
			delivery.NewLogSender(app.Logger()),
			app.EventPublisher(),
		),
		services.NewUserService(userRepo, app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewUsersController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "core"
}
