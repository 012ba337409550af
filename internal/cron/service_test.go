package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/packfinderz-settlement/pkg/logger"
	"github.com/angelmondragon/packfinderz-settlement/pkg/metrics"
)

type fakeLock struct {
	held     bool
	deny     bool
	released int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.deny || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.released++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:  logger.Nop(),
		Jobs:    []Job{failing, ok},
		Lock:    lock,
		Metrics: metrics.NewMaintenanceMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	leader, err := service.RunOnce(context.Background())
	if err != nil || !leader {
		t.Fatalf("expected leader run, got leader=%v err=%v", leader, err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs once, got ok=%d fail=%d", ok.runs, failing.runs)
	}
	if lock.held || lock.released != 1 {
		t.Fatalf("expected lock released after the cycle")
	}

	expected := `
		# HELP maintenance_job_runs_total Maintenance job executions by result.
		# TYPE maintenance_job_runs_total counter
		maintenance_job_runs_total{job="fail",result="failure"} 1
		maintenance_job_runs_total{job="success",result="success"} 1
	`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "maintenance_job_runs_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestRunOnceSkipsWithoutLease(t *testing.T) {
	job := &testJob{name: "audit"}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Jobs: []Job{job}, Lock: &fakeLock{deny: true}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	leader, err := service.RunOnce(context.Background())
	if err != nil || leader {
		t.Fatalf("expected follower skip, got leader=%v err=%v", leader, err)
	}
	if job.runs != 0 {
		t.Fatalf("follower ran job %d times", job.runs)
	}
}

func TestNewServiceRejectsDuplicateNames(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Jobs:   []Job{&testJob{name: "x"}, &testJob{name: "x"}},
		Lock:   &fakeLock{},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate job") {
		t.Fatalf("expected duplicate job error, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "audit"}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Jobs: []Job{job}, Lock: &fakeLock{}})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("canceled run should not execute jobs, ran %d", job.runs)
	}
}
