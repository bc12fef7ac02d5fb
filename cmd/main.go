package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"ichi-go/config"
	"ichi-go/internal/applications/notifbroker"
	"ichi-go/internal/applications/notifbroker/controller"
	"ichi-go/internal/infra"
	"ichi-go/pkg/logger"
)

func main() {
	injector := do.New()
	e := echo.New()

	cfg := config.LoadConfig(e)
	logger.Init(cfg.App.Debug, cfg.App.Debug)
	logger.Debugf("initialized configuration %+v", *cfg)

	infra.Setup(injector, cfg)
	notifbroker.RegisterProviders(injector)

	ctrl := do.MustInvoke[*controller.Controller](injector)
	ctrl.RegisterRoutes(e, cfg.NotifBroker.HTTPBasePath)

	// Log all routes
	for _, route := range e.Routes() {
		if route.Method == "" && route.Path == "" {
			continue
		}
		logger.Debugf("Routes Mapped: %s %s", route.Method, route.Path)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Start the server
	go func() {
		address := fmt.Sprintf(":%d", cfg.Http.Port)
		logger.Infof("starting http server at %s", address)
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	// Graceful shutdown
	logger.Infof("received shutdown signal...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("error during server shutdown: %v", err)
	}

	// Shutdown all services in reverse dependency order
	logger.Infof("shutting down services...")
	injector.Shutdown()
	logger.Infof("goodbye!")
}
