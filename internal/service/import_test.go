package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/kubev2v/stock-importer/api/v1alpha1"
	"github.com/kubev2v/stock-importer/internal/config"
	"github.com/kubev2v/stock-importer/internal/ingest"
	"github.com/kubev2v/stock-importer/internal/jobs"
	"github.com/kubev2v/stock-importer/internal/service"
	"github.com/kubev2v/stock-importer/internal/staging"
	"github.com/kubev2v/stock-importer/internal/store"
)

type importFixture struct {
	service *service.ImportService
	store   store.Store
	pool    *jobs.Pool
}

func newImportFixture(t *testing.T, startPool bool) *importFixture {
	t.Helper()

	db, err := store.InitDB(config.NewDefault())
	require.NoError(t, err)

	s := store.NewStore(db)
	require.NoError(t, s.InitialMigration())
	t.Cleanup(func() { _ = s.Close() })

	stg, err := staging.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	pool := jobs.NewPool(1, 1)
	if startPool {
		pool.Start(context.Background())
		t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	}

	svc := service.NewImportService(s, stg, jobs.NewStatusStore(), pool,
		service.WithChunkSize(2),
		service.WithReportDir(t.TempDir()),
	)

	return &importFixture{service: svc, store: s, pool: pool}
}

func (f *importFixture) waitForTerminal(t *testing.T, jobID string) *jobs.Status {
	t.Helper()

	var status *jobs.Status
	require.Eventually(t, func() bool {
		var err error
		status, err = f.service.GetImport(context.TODO(), jobID)
		return err == nil && status.Step.Terminal()
	}, 10*time.Second, 20*time.Millisecond)
	return status
}

func TestCreateImportChunkedCompletes(t *testing.T) {
	fixture := newImportFixture(t, true)

	file := "externalId,name,quantity,expiryDate\n" +
		"sku-1,widget,1,2027-01-31\n" +
		"sku-2,gadget,,\n" +
		"sku-3,gizmo,3,\n" +
		",nameless,1,\n"

	jobID, err := fixture.service.CreateImport(context.TODO(), strings.NewReader(file), api.ImportModeChunked)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	status := fixture.waitForTerminal(t, jobID)
	require.Equal(t, jobs.StepComplete, status.Step)
	require.NotNil(t, status.Result)

	assert.Equal(t, int64(4), status.Result.Processed)
	assert.Equal(t, int64(3), status.Result.Inserted)
	assert.Equal(t, int64(1), status.Result.Failed)
	assert.Equal(t, map[string]int64{ingest.ReasonExternalIDEmpty: 1}, status.Result.Summary)

	count, err := fixture.store.Item().Count(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCreateImportRejectsDuplicatesAgainstStore(t *testing.T) {
	fixture := newImportFixture(t, true)

	seed := "externalId,name,quantity,expiryDate\nsku-1,widget,1,\n"
	jobID, err := fixture.service.CreateImport(context.TODO(), strings.NewReader(seed), api.ImportModeChunked)
	require.NoError(t, err)
	require.Equal(t, jobs.StepComplete, fixture.waitForTerminal(t, jobID).Step)

	file := "externalId,name,quantity,expiryDate\nsku-1,copycat,1,\nsku-2,gadget,1,\n"
	jobID, err = fixture.service.CreateImport(context.TODO(), strings.NewReader(file), api.ImportModeChunked)
	require.NoError(t, err)

	status := fixture.waitForTerminal(t, jobID)
	require.Equal(t, jobs.StepComplete, status.Step)
	require.NotNil(t, status.Result)

	assert.Equal(t, int64(1), status.Result.Inserted)
	assert.Equal(t, int64(1), status.Result.Failed)
	assert.Equal(t, map[string]int64{ingest.ReasonDuplicateExternalID: 1}, status.Result.Summary)

	count, err := fixture.store.Item().Count(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCreateImportAtomicCompletes(t *testing.T) {
	fixture := newImportFixture(t, true)

	var rows []string
	for i := 0; i < 10; i++ {
		rows = append(rows, fmt.Sprintf("sku-%d,widget,1,", i))
	}
	file := "externalId,name,quantity,expiryDate\n" + strings.Join(rows, "\n") + "\n"

	jobID, err := fixture.service.CreateImport(context.TODO(), strings.NewReader(file), api.ImportModeAtomic)
	require.NoError(t, err)

	status := fixture.waitForTerminal(t, jobID)
	require.Equal(t, jobs.StepComplete, status.Step)
	assert.Equal(t, int64(10), status.Result.Inserted)

	count, err := fixture.store.Item().Count(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestCreateImportEmptyFile(t *testing.T) {
	fixture := newImportFixture(t, true)

	_, err := fixture.service.CreateImport(context.TODO(), strings.NewReader(""), api.ImportModeChunked)
	require.Error(t, err)
	assert.IsType(t, &service.ErrEmptyFile{}, err)
}

func TestCreateImportQueueFull(t *testing.T) {
	// the pool is never started, so the first submission fills the queue
	// and the second one is turned away
	fixture := newImportFixture(t, false)

	file := "externalId,name,quantity,expiryDate\nsku-1,widget,1,\n"

	_, err := fixture.service.CreateImport(context.TODO(), strings.NewReader(file), api.ImportModeChunked)
	require.NoError(t, err)

	_, err = fixture.service.CreateImport(context.TODO(), strings.NewReader(file), api.ImportModeChunked)
	require.Error(t, err)
	assert.IsType(t, &service.ErrTooManyImports{}, err)
}

func TestGetImportUnknownJob(t *testing.T) {
	fixture := newImportFixture(t, true)

	_, err := fixture.service.GetImport(context.TODO(), "no-such-job")
	require.Error(t, err)
	assert.IsType(t, &service.ErrJobNotFound{}, err)
}
