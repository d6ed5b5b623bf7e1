package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kubev2v/stock-importer/internal/config"
	"github.com/kubev2v/stock-importer/internal/events"
	handlers "github.com/kubev2v/stock-importer/internal/handlers/v1alpha1"
	"github.com/kubev2v/stock-importer/internal/jobs"
	"github.com/kubev2v/stock-importer/internal/service"
	"github.com/kubev2v/stock-importer/internal/staging"
	"github.com/kubev2v/stock-importer/internal/store"
	"github.com/kubev2v/stock-importer/pkg/metrics"
	"github.com/kubev2v/stock-importer/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	poolDrainTimeout        = 30 * time.Second
	defaultStatusRetention  = 24 * time.Hour
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of a stock-importer server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	logger := zap.S().Named("api_server")
	logger.Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	stagingStore, err := newStagingStore(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to create staging store: %w", err)
	}

	statuses := jobs.NewStatusStore()

	pool := jobs.NewPool(s.cfg.Service.ImportWorkers, s.cfg.Service.ImportQueueSize)
	pool.Start(ctx)

	retention, err := time.ParseDuration(s.cfg.Service.StatusRetention)
	if err != nil {
		logger.Warnf("invalid status retention %q, using default", s.cfg.Service.StatusRetention)
		retention = defaultStatusRetention
	}
	go jobs.NewRetentionSweeper(statuses, retention).Run(ctx)

	producer := events.NewEventProducer(&events.StdoutWriter{})
	defer func() {
		_ = producer.Close()
	}()

	importService := service.NewImportService(
		s.store,
		stagingStore,
		statuses,
		pool,
		service.WithChunkSize(s.cfg.Service.ChunkSize),
		service.WithReportDir(s.cfg.Service.ErrorReportDir),
		service.WithEventProducer(producer),
	)

	h := handlers.NewServiceHandler(importService)
	h.RegisterRoutes(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		logger.Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		logger.Info("api server terminated")
	}()

	logger.Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	// let running imports finish before tearing down the process
	drainCtx, cancel := context.WithTimeout(context.Background(), poolDrainTimeout)
	defer cancel()
	if err := pool.Shutdown(drainCtx); err != nil {
		logger.Warnf("worker pool did not drain in time: %s", err)
	}

	return nil
}

func newStagingStore(cfg *config.Config) (staging.Store, error) {
	if cfg.Service.StagingBackend == "minio" {
		return staging.NewMinioStore(
			staging.WithEndpoint(cfg.Service.Minio.Endpoint),
			staging.WithBucket(cfg.Service.Minio.Bucket),
			staging.WithAccessKey(cfg.Service.Minio.AccessKey),
			staging.WithSecretKey(cfg.Service.Minio.SecretAccessKey),
			staging.WithSSL(cfg.Service.Minio.UseSSL),
		)
	}
	return staging.NewLocalStore(cfg.Service.StagingDir)
}
