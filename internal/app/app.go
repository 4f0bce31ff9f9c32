package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadside/internal/config"
	"roadside/internal/controller"
	"roadside/internal/events"
	"roadside/internal/logger"
	"roadside/internal/middleware"
	"roadside/internal/repository"
	"roadside/internal/router"
	"roadside/internal/service"

	"github.com/redis/go-redis/v9"
)

type publisher interface {
	service.Publisher
	Close() error
}

type App struct {
	repo       *repository.Repository
	service    *service.Service
	controller *controller.Controller
	publisher  publisher
	rdb        *redis.Client
	log        *logger.Logger
	stopSig    chan os.Signal
	cfg        *config.Config

	Done chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		stopSig: make(chan os.Signal, 2),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}
	app.log = logger.New(app.cfg.LogLevel)

	app.repo, err = repository.NewRepository(nil, &app.cfg.PostgresConfig)
	if err != nil {
		return nil, err
	}
	if version, err := app.repo.SchemaVersion(); err != nil {
		app.log.Errorf("app.NewApp: %s", err)
	} else {
		app.log.Infof("Database schema version %d", version)
	}

	app.publisher = events.NopPublisher{}
	if app.cfg.AMQPURL != "" {
		p, err := events.NewPublisher(app.cfg.AMQPURL, app.cfg.AMQPQueue)
		if err != nil {
			app.log.Errorf("app.NewApp: cancellation events disabled: %s", err)
		} else {
			app.publisher = p
		}
	}

	app.rdb = middleware.NewRedisClient(app.cfg.RedisConfig, app.log)

	app.service = service.NewService(app.repo,
		service.WithLogger(app.log),
		service.WithPublisher(app.publisher),
		service.WithCancellationFee(app.cfg.CancellationFee),
	)
	app.controller = controller.NewController(app.service,
		controller.WithPinger(app.repo),
		controller.WithSignInURL(app.cfg.SignInURL),
	)

	return app, nil
}

func (app *App) Handler() http.Handler {
	return router.NewRouter(app.controller, router.Options{
		JWTSecret:      app.cfg.JWTSecret,
		SignInURL:      app.cfg.SignInURL,
		AllowedOrigins: app.cfg.CORSAllowedOrigins,
		RateLimit:      middleware.RateLimit(app.cfg.RateLimitConfig, app.rdb, app.log),
		Log:            app.log,
	})
}

func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		sig := <-app.stopSig
		log.Printf("Received signal: %s\n", sig)
		cancel()
	}()

	server := http.Server{
		Addr:         app.cfg.ServerAddress,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Println("Http server error:", err)
		}
	}()

	log.Printf("Server started at %s, listening for connections...\n", app.cfg.ServerAddress)
	<-ctx.Done()

	timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
	defer tcancel()
	log.Println("Shutting down http server...")
	server.Shutdown(timeout)

	err := app.close()
	if err != nil {
		log.Println("Closing error:", err)
	}

	close(app.Done)
	log.Println("Exiting app.")
}

func (app *App) close() error {
	log.Println("Closing repository...")
	errs := []error{app.repo.Close(), app.publisher.Close()}
	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
	}
	return errors.Join(errs...)
}
