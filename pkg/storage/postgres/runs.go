package postgres

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
)

// RecordRun appends one audit row for a pipeline invocation. Rows are
// write-once: nothing in this codebase updates an etl_runs row after insert.
func (p *PostgresClient) RecordRun(ctx context.Context, pipeline string, status RunStatus,
	rowsProcessed int, errText string, started, ended time.Time) (uint64, error) {

	run := ETLRun{
		PipelineName:  pipeline,
		Status:        status,
		RowsProcessed: rowsProcessed,
		StartedAt:     started,
		EndedAt:       ended,
	}
	if errText != "" {
		run.ErrorMessage = null.StringFrom(errText)
	}

	if err := p.DB.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, err
	}
	return run.ID, nil
}
