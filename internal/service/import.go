package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/google/uuid"
	api "github.com/kubev2v/stock-importer/api/v1alpha1"
	"github.com/kubev2v/stock-importer/internal/events"
	"github.com/kubev2v/stock-importer/internal/ingest"
	"github.com/kubev2v/stock-importer/internal/jobs"
	"github.com/kubev2v/stock-importer/internal/service/mappers"
	"github.com/kubev2v/stock-importer/internal/staging"
	"github.com/kubev2v/stock-importer/internal/store"
	"go.uber.org/zap"
)

type ImportServiceOption func(s *ImportService)

func WithChunkSize(size int) ImportServiceOption {
	return func(s *ImportService) {
		s.chunkSize = size
	}
}

func WithReportDir(dir string) ImportServiceOption {
	return func(s *ImportService) {
		s.reportDir = dir
	}
}

func WithEventProducer(producer *events.EventProducer) ImportServiceOption {
	return func(s *ImportService) {
		s.producer = producer
	}
}

// ImportService owns the accept path of an import: it stages the upload,
// mints the job id, records the initial status and hands the heavy work to
// the worker pool. Status queries read the same status store the pipeline
// writes.
type ImportService struct {
	store    store.Store
	staging  staging.Store
	statuses *jobs.StatusStore
	pool     *jobs.Pool
	producer *events.EventProducer

	chunkSize int
	reportDir string
	pipeline  *ingest.Pipeline
}

func NewImportService(st store.Store, stg staging.Store, statuses *jobs.StatusStore, pool *jobs.Pool, opts ...ImportServiceOption) *ImportService {
	s := &ImportService{
		store:     st,
		staging:   stg,
		statuses:  statuses,
		pool:      pool,
		chunkSize: ingest.DefaultChunkSize,
	}

	for _, o := range opts {
		o(s)
	}

	s.pipeline = ingest.NewPipeline(
		stg,
		statuses,
		st.Item().FetchAllExternalIDs,
		s.persistRecords,
		ingest.WithChunkSize(s.chunkSize),
		ingest.WithReportDir(s.reportDir),
		ingest.WithFinishedFunc(s.emitFinished),
	)

	return s
}

// CreateImport stages the uploaded stream and schedules the background pass.
// It returns the job id as soon as staging is done; its latency does not
// depend on row count or validation work.
func (s *ImportService) CreateImport(ctx context.Context, file io.Reader, mode api.ImportMode) (string, error) {
	logger := zap.S().Named("import_service")

	handle, size, err := s.staging.Stage(ctx, file)
	if err != nil {
		logger.Errorf("failed to stage upload: %s", err)
		return "", err
	}

	if size == 0 {
		_ = s.staging.Delete(ctx, handle)
		return "", NewErrEmptyFile()
	}

	jobID := uuid.NewString()
	s.statuses.Set(jobID, jobs.Status{Step: jobs.StepInit, Message: "import accepted"})

	_, err = s.pool.Submit(func(ctx context.Context) {
		_ = s.pipeline.Run(ctx, jobID, handle, ingest.Mode(mode))
	})
	if err != nil {
		s.statuses.Delete(jobID)
		_ = s.staging.Delete(ctx, handle)
		if errors.Is(err, jobs.ErrQueueFull) {
			return "", NewErrTooManyImports()
		}
		return "", err
	}

	logger.Infof("import job %s accepted (mode %s, %d staged bytes)", jobID, mode, size)
	return jobID, nil
}

// GetImport returns the current lifecycle snapshot for a job id.
func (s *ImportService) GetImport(_ context.Context, id string) (*jobs.Status, error) {
	status, found := s.statuses.Get(id)
	if !found {
		return nil, NewErrJobNotFound(id)
	}
	return &status, nil
}

// persistRecords writes one batch inside its own transaction, so each
// atomic or chunked commit succeeds or fails as a unit.
func (s *ImportService) persistRecords(ctx context.Context, records []ingest.Record) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if err := s.store.Item().Persist(ctx, mappers.ItemsFromRecords(records)); err != nil {
		if _, rerr := store.Rollback(ctx); rerr != nil {
			zap.S().Named("import_service").Errorf("failed to rollback batch: %s", rerr)
		}
		return err
	}

	_, err = store.Commit(ctx)
	return err
}

func (s *ImportService) emitFinished(jobID string, mode ingest.Mode, status jobs.Status) {
	if s.producer == nil {
		return
	}

	event := events.ImportEvent{
		JobID:     jobID,
		Mode:      string(mode),
		Step:      string(status.Step),
		Message:   status.Message,
		Processed: status.RowsProcessed,
	}
	if status.Result != nil {
		event.Processed = status.Result.Processed
		event.Inserted = status.Result.Inserted
		event.Failed = status.Result.Failed
		event.Summary = status.Result.Summary
	}

	data, err := json.Marshal(event)
	if err != nil {
		zap.S().Named("import_service").Errorf("failed to marshal import event: %s", err)
		return
	}

	if err := s.producer.Write(context.Background(), events.ImportMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("import_service").Errorf("failed to emit import event: %s", err)
	}
}
