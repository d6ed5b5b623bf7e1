package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kubev2v/stock-importer/internal/jobs"
	"github.com/kubev2v/stock-importer/internal/staging"
	"github.com/kubev2v/stock-importer/pkg/metrics"
	"go.uber.org/zap"
)

// Mode selects the commit strategy for one job.
type Mode string

const (
	ModeAtomic  Mode = "ATOMIC"
	ModeChunked Mode = "CHUNKED"
)

// statusCadence bounds status-store write volume on large files.
const statusCadence = 5000

// FetchIDsFunc is the one-time bulk fetch of every externally known id,
// used to seed the duplicate index.
type FetchIDsFunc func(ctx context.Context) ([]string, error)

// FinishedFunc observes a job reaching a terminal status.
type FinishedFunc func(jobID string, mode Mode, status jobs.Status)

type PipelineOption func(p *Pipeline)

func WithChunkSize(size int) PipelineOption {
	return func(p *Pipeline) {
		p.chunkSize = size
	}
}

func WithReportDir(dir string) PipelineOption {
	return func(p *Pipeline) {
		p.reportDir = dir
	}
}

func WithFinishedFunc(fn FinishedFunc) PipelineOption {
	return func(p *Pipeline) {
		p.onFinished = fn
	}
}

// Pipeline wires reader, validator, duplicate index, commit strategy and
// error sink into the background half of an import job. The accept path
// stages the file and records INIT; Run does everything after that.
//
// The state machine is strictly forward:
// INIT -> PREFETCH -> PROCESSING -> COMMIT -> COMPLETE | FAILED.
type Pipeline struct {
	staging  staging.Store
	statuses *jobs.StatusStore
	fetchIDs FetchIDsFunc
	persist  PersistFunc

	chunkSize  int
	reportDir  string
	onFinished FinishedFunc
}

func NewPipeline(stg staging.Store, statuses *jobs.StatusStore, fetchIDs FetchIDsFunc, persist PersistFunc, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		staging:   stg,
		statuses:  statuses,
		fetchIDs:  fetchIDs,
		persist:   persist,
		chunkSize: DefaultChunkSize,
	}

	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes the background pass for one staged upload. The staged file is
// deleted on every exit path. Failures are recorded in the job status; the
// returned error exists for the caller's logging only.
func (p *Pipeline) Run(ctx context.Context, jobID string, handle string, mode Mode) error {
	logger := zap.S().Named("pipeline").With("job_id", jobID)

	defer func() {
		if err := p.staging.Delete(ctx, handle); err != nil {
			logger.Warnf("failed to delete staged file %q: %s", handle, err)
		}
	}()

	p.statuses.Set(jobID, jobs.Status{Step: jobs.StepPrefetch, Message: "fetching existing external ids"})

	ids, err := p.fetchIDs(ctx)
	if err != nil {
		p.fail(jobID, mode, 0, fmt.Sprintf("prefetching external ids failed: %s", err))
		return err
	}
	index := NewDuplicateIndex(ids)
	logger.Infof("duplicate index seeded with %d ids", index.Len())

	sink, err := NewErrorSink(p.reportDir)
	if err != nil {
		p.fail(jobID, mode, 0, fmt.Sprintf("creating error report failed: %s", err))
		return err
	}
	defer sink.Close()

	src, err := p.staging.Open(ctx, handle)
	if err != nil {
		p.fail(jobID, mode, 0, fmt.Sprintf("opening staged file failed: %s", err))
		return err
	}
	defer src.Close()

	reader, err := NewTabularReader(src)
	if err != nil {
		p.fail(jobID, mode, 0, fmt.Sprintf("reading input failed: %s", err))
		return err
	}

	committer := p.newCommitter(mode)
	p.statuses.Set(jobID, jobs.Status{Step: jobs.StepProcessing, Message: "validating rows"})

	var processed int64
	for {
		fields, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.fail(jobID, mode, processed, fmt.Sprintf("decoding input failed: %s", err))
			return err
		}

		processed++

		outcome := ValidateRow(fields, index)
		if outcome.Valid() {
			if err := committer.Add(ctx, outcome.Record); err != nil {
				p.fail(jobID, mode, processed, fmt.Sprintf("commit failed after %d inserted rows: %s", committer.Inserted(), err))
				return err
			}
		} else {
			if err := sink.Append(fields, outcome.Reason); err != nil {
				p.fail(jobID, mode, processed, fmt.Sprintf("writing error report failed: %s", err))
				return err
			}
			metrics.IncreaseRowsRejectedMetric(outcome.Reason)
		}

		if processed%statusCadence == 0 {
			p.statuses.Set(jobID, jobs.Status{
				Step:          jobs.StepProcessing,
				Message:       fmt.Sprintf("processing rows... %d processed", processed),
				RowsProcessed: processed,
			})
		}
	}

	p.statuses.Set(jobID, jobs.Status{
		Step:          jobs.StepCommit,
		Message:       "committing validated records",
		RowsProcessed: processed,
	})

	if err := committer.Flush(ctx); err != nil {
		p.fail(jobID, mode, processed, fmt.Sprintf("commit failed after %d inserted rows: %s", committer.Inserted(), err))
		return err
	}

	if err := sink.Close(); err != nil {
		p.fail(jobID, mode, processed, fmt.Sprintf("finalizing error report failed: %s", err))
		return err
	}

	result := &jobs.Result{
		Processed:   processed,
		Inserted:    committer.Inserted(),
		Failed:      sink.Failed(),
		ErrorReport: sink.Path(),
		Summary:     sink.Counts(),
	}

	status := jobs.Status{
		Step:          jobs.StepComplete,
		Message:       fmt.Sprintf("finished. inserted: %d, failed: %d", result.Inserted, result.Failed),
		RowsProcessed: processed,
		RowsTotal:     processed,
		Result:        result,
	}
	p.statuses.Set(jobID, status)

	metrics.AddRowsProcessedMetric(processed)
	metrics.IncreaseImportsTotalMetric(string(mode), string(jobs.StepComplete))
	logger.Infof("import complete: processed %d, inserted %d, failed %d", result.Processed, result.Inserted, result.Failed)

	if p.onFinished != nil {
		p.onFinished(jobID, mode, status)
	}
	return nil
}

func (p *Pipeline) newCommitter(mode Mode) Committer {
	if mode == ModeAtomic {
		return NewAtomicCommitter(p.persist)
	}
	return NewChunkedCommitter(p.persist, p.chunkSize)
}

func (p *Pipeline) fail(jobID string, mode Mode, processed int64, message string) {
	status := jobs.Status{
		Step:          jobs.StepFailed,
		Message:       message,
		RowsProcessed: processed,
	}
	p.statuses.Set(jobID, status)

	metrics.AddRowsProcessedMetric(processed)
	metrics.IncreaseImportsTotalMetric(string(mode), string(jobs.StepFailed))
	zap.S().Named("pipeline").With("job_id", jobID).Errorf("import failed: %s", message)

	if p.onFinished != nil {
		p.onFinished(jobID, mode, status)
	}
}
