package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"writing-challenge-api/app"
	"writing-challenge-api/config"
	"writing-challenge-api/controllers"
	"writing-challenge-api/middleware"
	"writing-challenge-api/monitor"
	"writing-challenge-api/realtime"
	"writing-challenge-api/routes"
	"writing-challenge-api/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	settings, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, _ := config.InitLogging(settings.LogFile, settings.LogLevel)
	if logFile != nil {
		defer logFile.Close()
	}

	db, err := config.InitDB(settings)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatalf("Failed to access database handle: %v", err)
	}

	redisClient, err := config.InitRedis(settings)
	if err != nil {
		logrus.Fatalf("Failed to connect to redis: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	var publisher services.Publisher = hub
	if redisClient != nil {
		defer redisClient.Close()
		bridge := realtime.NewRedisBridge(redisClient, settings.RedisChannel, hub)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logrus.Errorf("realtime: redis bridge stopped: %v", err)
			}
		}()
	}

	var mailer services.Mailer
	if m := config.NewMailer(settings); m != nil {
		mailer = m
	}

	svc := app.New(settings, db, publisher, mailer)
	svc.Sweep.Start(ctx)
	defer svc.Sweep.Stop()

	if settings.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(config.LogWriter))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(settings.CORSAllowedOrigins))

	monitor.RegisterMonitor(router, sqlDB)
	routes.SetupRoutes(router, routes.Handlers{
		Challenges:    controllers.NewChallengeController(svc.Challenges),
		Notifications: controllers.NewNotificationController(svc.Notifications),
		Stream:        controllers.NewStreamController(hub),
	}, settings.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + settings.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        settings.ServerPort,
			"environment": settings.Environment,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown: %v", err)
	}
}
