package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"tech-pulse/models"
)

func TestSchedulerIsDue(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewScheduler(db, zap.NewNop())

	job := Job{Name: "update_model", Interval: 24 * time.Hour}

	// Nie gelaufen: fällig.
	if !s.isDue(job) {
		t.Fatal("job without bookkeeping must be due")
	}

	if err := s.recordRun(job.Name, time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("record stale run: %v", err)
	}
	if !s.isDue(job) {
		t.Fatal("job with stale last run must be due")
	}

	if err := s.recordRun(job.Name, time.Now()); err != nil {
		t.Fatalf("record fresh run: %v", err)
	}
	if s.isDue(job) {
		t.Fatal("freshly run job must not be due")
	}

	// Upsert: genau eine Bookkeeping-Zeile pro Job.
	var count int64
	db.Model(&models.JobRun{}).Where("job_name = ?", job.Name).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 bookkeeping row, got %d", count)
	}
}

// Stop darf erst zurückkehren, wenn der Nachhol-Lauf fertig ist.
func TestStopWaitsForCatchUp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewScheduler(db, zap.NewNop())

	started := make(chan struct{})
	finished := false
	job := Job{
		Name:     "update_model",
		Spec:     "0 0 1 1 *", // feuert im Test nie über den Cron-Plan
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			finished = true
			return nil
		},
	}
	if err := s.Register(job); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.recordRun(job.Name, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("seed stale run: %v", err)
	}

	s.Start()
	<-started
	s.Stop()

	if !finished {
		t.Fatal("Stop returned while the catch-up job was still running")
	}
}

func TestRunJobRecordsOnlySuccess(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewScheduler(db, zap.NewNop())

	failing := Job{
		Name:     "ingest_data",
		Interval: time.Hour,
		Run:      func(ctx context.Context) error { return ErrTrainingInProgress },
	}
	s.runJob(failing)

	var count int64
	db.Model(&models.JobRun{}).Count(&count)
	if count != 0 {
		t.Fatal("failed job must not record a run")
	}

	ran := false
	ok := Job{
		Name:     "ingest_data",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			ran = true
			return nil
		},
	}
	s.runJob(ok)
	if !ran {
		t.Fatal("job body did not run")
	}

	db.Model(&models.JobRun{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 bookkeeping row, got %d", count)
	}
	if s.isDue(ok) {
		t.Fatal("job must not be due right after a successful run")
	}
}
