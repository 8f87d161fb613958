// Package server wires configuration, storage, services and routes into a
// running HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studio-go/app/billing"
	"studio-go/app/config"
	"studio-go/app/controllers"
	"studio-go/app/routes"
	"studio-go/app/services"
	"studio-go/app/session"
	"studio-go/app/store"
)

const shutdownTimeout = 10 * time.Second

// Server is the assembled application.
type Server struct {
	http   *http.Server
	store  store.Store
	logger *zap.Logger
}

// OpenStore connects the backend selected by the store settings.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return store.OpenSQLite(ctx, cfg.SQLite.Path)
	case config.DriverNeo4j:
		driver, err := config.InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		s := store.NewNeo4jStore(driver)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// New builds the server on an already opened store. The server owns the
// store from here on and closes it on shutdown.
func New(cfg *config.Config, s store.Store, logger *zap.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	issuer, err := session.NewIssuer(cfg.Auth)
	if err != nil {
		return nil, err
	}
	catalog, err := billing.NewCatalog(cfg.Billing)
	if err != nil {
		return nil, err
	}

	// Initialize the service layer
	taskService := services.NewTaskService(s, cfg.Templates, logger.Named("tasks"))
	attendanceService := services.NewAttendanceService(s, loc, logger.Named("attendance"))

	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Tasks:      controllers.NewTaskController(taskService, logger),
		Attendance: controllers.NewAttendanceController(attendanceService, logger),
		Billing:    controllers.NewBillingController(catalog, logger),
	}, issuer, logger.Named("http"))

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:  s,
		logger: logger,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully and closes
// the store.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server is running", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down")
		err := s.http.Shutdown(shutdownCtx)
		if cerr := s.store.Close(shutdownCtx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
		return err
	})

	return g.Wait()
}
