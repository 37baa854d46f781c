package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	echoweb "github.com/edubanco/recursos/apps/web/echo"
	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/activity"
	"github.com/edubanco/recursos/core/material"
	"github.com/edubanco/recursos/core/session"
	"github.com/edubanco/recursos/core/upload"
	"github.com/edubanco/recursos/services/bancoapi"
	emailsvc "github.com/edubanco/recursos/services/email"
	logsvc "github.com/edubanco/recursos/services/logger"
	inmemcache "github.com/edubanco/recursos/storage/cache/inmem"
	rediscache "github.com/edubanco/recursos/storage/cache/redis"
	inmemstore "github.com/edubanco/recursos/storage/session/inmem"
	redisstore "github.com/edubanco/recursos/storage/session/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig(core.Getwd())

	std := log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
		logger.Enable(!conf.Debug)
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	// stores: redis when configured, process-local otherwise
	var store session.Store
	var cache core.ViewCache
	if conf.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer rdb.Close()
		store = redisstore.NewStore(rdb)
		cache = rediscache.NewCache(rdb)
	} else {
		store = inmemstore.NewStore()
		cache = inmemcache.NewCache()
	}

	var mailSvc core.EmailService
	if conf.SendgridApiKey != "" {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf)
	}

	// set up services
	api := bancoapi.NewClient(conf.BancoAPI)
	sessionSvc := session.NewService(api, store, cache, conf.Server.SessionTTL)
	sessionSvc.Subscribe(func(evt session.Event) {
		switch evt.Kind {
		case session.EventLogin:
			logger.Info(fmt.Sprintf("session opened: user %s", evt.User.ID))
		case session.EventLogout:
			logger.Info(fmt.Sprintf("session closed: user %s", evt.User.ID))
		}
	})
	materialSvc := material.NewService(api, cache, mailSvc, conf)
	uploadSvc := upload.NewService(api, upload.NewTracker(), cache)
	activitySvc := activity.NewService(api, cache)

	validate, translator := core.NewValidator()

	// =========================================================================
	// Start Web Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoweb.NewServer(&echoweb.Options{
		Conf:        conf,
		Logger:      logger,
		SessionSvc:  sessionSvc,
		MaterialSvc: materialSvc,
		UploadSvc:   uploadSvc,
		ActivitySvc: activitySvc,
		Validate:    validate,
		Translator:  translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-server.Shutdown():
		logger.Error("integrity error: Start shutdown...")
	case sig := <-quit:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
