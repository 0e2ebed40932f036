package httpservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pooldraw-network/pooldraw/internal/config"
	"github.com/pooldraw-network/pooldraw/internal/interface/http/handlers"
	"github.com/pooldraw-network/pooldraw/internal/interface/http/middleware"
	log "github.com/sirupsen/logrus"

	interfaces "github.com/pooldraw-network/pooldraw/internal/interface"
)

type Config struct {
	Port uint32
}

func (c Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("port not set")
	}
	return nil
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

type service struct {
	config    Config
	appConfig *config.Config
	server    *http.Server
}

func NewService(
	svcConfig Config, appConfig *config.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}
	return &service{svcConfig, appConfig, nil}, nil
}

func (s *service) Start() error {
	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return err
	}
	if err := appSvc.Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)
	handlers.NewAuctionHandler(appSvc).RegisterRoutes(router)

	s.server = &http.Server{
		Addr:         s.config.address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server exited")
		}
	}()
	log.Infof("started listening at %s", s.config.address())
	return nil
}

func (s *service) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// nolint:errcheck
		s.server.Shutdown(ctx)
		log.Info("stopped http server")
	}
	if appSvc, _ := s.appConfig.AppService(); appSvc != nil {
		appSvc.Stop()
		log.Info("stopped app service")
	}
}
