package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"
	"uk.co.dudmesh.bulksms/internal/boot"
	"uk.co.dudmesh.bulksms/internal/handlers"
	"uk.co.dudmesh.bulksms/internal/service/sms"
)

type SMSService interface {
	handlers.SMSService
}

type config struct {
	boot.Config
	smsService SMSService
}

func newConfig(bootConfig *boot.Config) *config {
	smsService, err := sms.New(bootConfig)
	if err != nil {
		log.Fatalf("creating sms service: %+v", err)
	}

	return &config{*bootConfig, smsService}
}

func main() {
	bootConfig, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}
	log.SetLevel(bootConfig.Level())

	config := newConfig(bootConfig)

	server := echo.New()
	server.HideBanner = true
	server.Debug = config.IsDevelopment()
	server.Validator = handlers.NewValidator()
	server.HTTPErrorHandler = handlers.ErrorHandler
	server.Use(middleware.BodyLimit("2M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("bulksms"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(bootConfig.Level())

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.AllowedOrigins(),
		AllowHeaders: headers,
	}))

	handlers.Register(server, config.smsService)

	metrics := echo.New()
	metrics.HideBanner = true
	metrics.GET("/metrics", echoprometheus.NewHandler())
	go func() {
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// batches already in flight finish dispatching before the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
	if err := metrics.Shutdown(ctx); err != nil {
		server.Logger.Error(err)
	}
}
