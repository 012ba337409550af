package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
)

const defaultDLQReportLimit = 50

type deadLetterLister interface {
	List(ctx context.Context, since time.Time, limit int) ([]models.OutboxDLQ, error)
}

// DLQReportParams wire the dead letter report.
type DLQReportParams struct {
	Logger      *logger.Logger
	DeadLetters deadLetterLister
	Limit       int
}

type dlqReportJob struct {
	logg     *logger.Logger
	letters  deadLetterLister
	limit    int
	lastSeen time.Time
}

// NewDLQReportJob logs dead letters recorded since the previous cycle. The
// first cycle of a process reports the newest Limit entries.
func NewDLQReportJob(params DLQReportParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DeadLetters == nil {
		return nil, fmt.Errorf("dead letter reader required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultDLQReportLimit
	}
	return &dlqReportJob{logg: params.Logger, letters: params.DeadLetters, limit: limit}, nil
}

func (j *dlqReportJob) Name() string { return "dlq-report" }

func (j *dlqReportJob) Run(ctx context.Context) error {
	rows, err := j.letters.List(ctx, j.lastSeen, j.limit)
	if err != nil {
		return fmt.Errorf("list dead letters: %w", err)
	}
	for _, row := range rows {
		fields := map[string]any{
			"event_id":      row.EventID.String(),
			"event_type":    string(row.EventType),
			"aggregate_id":  row.AggregateID.String(),
			"error_reason":  string(row.ErrorReason),
			"attempt_count": row.AttemptCount,
			"failed_at":     row.FailedAt.Format(time.RFC3339),
		}
		if row.ErrorMessage != nil {
			fields["error"] = *row.ErrorMessage
		}
		j.logg.Warn(j.logg.WithFields(ctx, fields), "outbox dead letter")
		if row.FailedAt.After(j.lastSeen) {
			j.lastSeen = row.FailedAt
		}
	}
	j.logg.Info(j.logg.WithField(ctx, "dead_letters", len(rows)), "dlq report complete")
	return nil
}
