package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/bankhub/testcard-portal/internal/server"
	"github.com/bankhub/testcard-portal/modules"
	notificationservices "github.com/bankhub/testcard-portal/modules/notifications/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/authz"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		panic(err)
	}

	if conf.Authz.Mode != authz.ModeDisabled {
		authzService, err := authz.NewService(authz.Config{
			ModelPath:  conf.Authz.ModelPath,
			PolicyPath: conf.Authz.PolicyPath,
			Mode:       conf.Authz.Mode,
			Logger:     logger,
		})
		if err != nil {
			log.Fatalf("failed to initialize authz: %v", err)
		}
		authz.SetDefault(authzService)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	startSweeper(conf, pool, logger, app)

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func startSweeper(
	conf *configuration.Configuration,
	pool *pgxpool.Pool,
	logger *logrus.Logger,
	app application.Application,
) {
	if !conf.Notifications.SweepEnabled {
		return
	}
	notices := app.Service(notificationservices.NotificationService{}).(*notificationservices.NotificationService)
	sweeper := notificationservices.NewSweeper(notices, pool, conf.Notifications.SweepInterval, logger)
	go func() {
		if err := sweeper.Run(context.Background()); err != nil && err != context.Canceled {
			logger.WithError(err).Error("notifications: sweeper stopped")
		}
	}()
}
