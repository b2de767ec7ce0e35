package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/template"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/appetiteclub/pantry/internal/pantry"
	"github.com/appetiteclub/pantry/internal/sqlite"
	"github.com/appetiteclub/pantry/internal/storage"
	"github.com/appetiteclub/pantry/pkg"
)

const (
	appNamespace = "PANTRY"
	appName      = "pantry"
	appVersion   = "0.1.0"
)

//go:embed assets
var assetsFS embed.FS

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := sqlite.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	repos := pantry.Repos{
		EstablishmentRepo: sqlite.NewEstablishmentRepo(db),
		UserRepo:          sqlite.NewUserRepo(db),
		LocationRepo:      sqlite.NewLocationRepo(db),
		MeasurementRepo:   sqlite.NewMeasurementRepo(db),
		SupplierRepo:      sqlite.NewSupplierRepo(db),
		ProductRepo:       sqlite.NewProductRepo(db),
		DishRepo:          sqlite.NewDishRepo(db),
		AssignmentRepo:    sqlite.NewAssignmentRepo(db),
	}

	media, err := storage.FromProperties(config)
	if err != nil {
		log.Fatalf("%s(%s) cannot configure storage backend: %v", appName, appVersion, err)
	}

	var pub interface {
		events.Publisher
		Close() error
	} = pkg.NoopPublisher{}
	if natsURL, ok := config.GetString("nats.url"); ok && natsURL != "" {
		natsPub, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}
		pub = natsPub
	} else {
		logger.Info("NATS url not configured, events disabled")
	}

	staticFS, err := fs.Sub(assetsFS, "assets/static")
	if err != nil {
		log.Fatalf("%s(%s) cannot open static assets: %v", appName, appVersion, err)
	}

	tmplMgr := template.NewManager(assetsFS, template.WithLogger(logger))

	hd := pantry.HandlerDeps{
		Repos:     repos,
		Templates: tmplMgr,
		Media:     media,
		Publisher: pub,
		Assets:    staticFS,
	}

	handler := pantry.NewHandler(hd, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})
	stack = append(stack, chimw.NoCache)

	lifecycles := []interface{}{
		tmplMgr,
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		apt.LifecycleHooks{
			OnStop: func(context.Context) error {
				return pub.Close()
			},
		},
		apt.LifecycleHooks{
			OnStop: func(context.Context) error {
				handler.Close()
				return nil
			},
		},
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithRouterConfigurator(func(mux *chi.Mux) {
			mux.NotFound(handler.NotFound)
		}),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
