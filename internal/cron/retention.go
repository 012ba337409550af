package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
)

const (
	defaultOutboxRetentionDays = 30
	defaultDLQRetentionDays    = 90
)

// PurgeFunc adapts a repository delete method to a retention target.
type PurgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RetentionJobParams describe one table to prune.
type RetentionJobParams struct {
	Name          string
	Table         string
	Logger        *logger.Logger
	DB            txRunner
	Target        PurgeFunc
	RetentionDays int
	Metrics       *metrics.MaintenanceMetrics
}

type retentionJob struct {
	name      string
	table     string
	logg      *logger.Logger
	db        txRunner
	target    PurgeFunc
	retention int
	metrics   *metrics.MaintenanceMetrics
	now       func() time.Time
}

// NewOutboxRetentionJob prunes delivered outbox events.
func NewOutboxRetentionJob(params RetentionJobParams) (Job, error) {
	params.Name = "outbox-retention"
	params.Table = "outbox_events"
	if params.RetentionDays <= 0 {
		params.RetentionDays = defaultOutboxRetentionDays
	}
	return newRetentionJob(params)
}

// NewDLQRetentionJob prunes old dead letters once they have been triaged.
func NewDLQRetentionJob(params RetentionJobParams) (Job, error) {
	params.Name = "dlq-retention"
	params.Table = "outbox_dlq"
	if params.RetentionDays <= 0 {
		params.RetentionDays = defaultDLQRetentionDays
	}
	return newRetentionJob(params)
}

func newRetentionJob(params RetentionJobParams) (*retentionJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Target == nil {
		return nil, fmt.Errorf("%s target required", params.Name)
	}
	return &retentionJob{
		name:      params.Name,
		table:     params.Table,
		logg:      params.Logger,
		db:        params.DB,
		target:    params.Target,
		retention: params.RetentionDays,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.target(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.metrics.AddPurged(j.table, deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"table":          j.table,
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "retention cleanup complete")
	return nil
}
