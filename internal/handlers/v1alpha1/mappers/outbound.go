package mappers

import (
	api "github.com/kubev2v/stock-importer/api/v1alpha1"
	"github.com/kubev2v/stock-importer/internal/jobs"
)

func ImportJobToApi(id string, status jobs.Status) api.ImportJob {
	job := api.ImportJob{
		Id:            id,
		Step:          string(status.Step),
		Message:       status.Message,
		RowsProcessed: status.RowsProcessed,
		RowsTotal:     status.RowsTotal,
	}

	if status.Result != nil {
		job.Result = &api.ImportResult{
			Processed:   status.Result.Processed,
			Inserted:    status.Result.Inserted,
			Failed:      status.Result.Failed,
			ErrorReport: status.Result.ErrorReport,
			Summary:     status.Result.Summary,
		}
	}

	return job
}
