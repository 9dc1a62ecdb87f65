package modules

import (
	"github.com/bankhub/testcard-portal/modules/audit"
	"github.com/bankhub/testcard-portal/modules/core"
	"github.com/bankhub/testcard-portal/modules/directory"
	"github.com/bankhub/testcard-portal/modules/notifications"
	"github.com/bankhub/testcard-portal/modules/requests"
	"github.com/bankhub/testcard-portal/pkg/application"
)

// BuiltInModules registers in order: audit subscribes to the event bus, so it
// comes after every module that publishes.
var BuiltInModules = []application.Module{
	core.NewModule(),
	requests.NewModule(),
	directory.NewModule(),
	notifications.NewModule(),
	audit.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
