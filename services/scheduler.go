package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tech-pulse/models"
)

// Job ist ein periodischer Auftrag mit Cron-Plan und Nachhol-Intervall.
type Job struct {
	Name     string
	Spec     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler führt die periodischen Jobs aus und persistiert pro Job den
// letzten erfolgreichen Lauf. Beim Start werden Jobs, deren Zeitfenster
// während einer Downtime verpasst wurde, sofort nachgeholt. Doppel-Starts
// einer Training-Operation verhindert der Pipeline-Guard, nicht der Scheduler.
type Scheduler struct {
	DB     *gorm.DB
	Logger *zap.Logger

	cron    *cron.Cron
	jobs    []Job
	catchUp sync.WaitGroup
}

// NewScheduler erstellt einen Scheduler auf der gegebenen Datenbank.
func NewScheduler(db *gorm.DB, logger *zap.Logger) *Scheduler {
	return &Scheduler{DB: db, Logger: logger, cron: cron.New()}
}

// Register nimmt einen Job in den Plan auf.
func (s *Scheduler) Register(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, func() { s.runJob(job) }); err != nil {
		return err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start holt verpasste Läufe nach (in Registrierungs-Reihenfolge, damit
// Ingestion vor dem Modell-Update läuft) und startet dann den Cron-Plan.
func (s *Scheduler) Start() {
	s.catchUp.Add(1)
	go func() {
		defer s.catchUp.Done()
		for _, job := range s.jobs {
			if s.isDue(job) {
				s.Logger.Info("Verpasstes Zeitfenster, Job wird nachgeholt",
					zap.String("job", job.Name))
				s.runJob(job)
			}
		}
	}()
	s.cron.Start()
	s.Logger.Info("Scheduler gestartet", zap.Int("jobs", len(s.jobs)))
}

// Stop hält den Cron-Plan an und wartet, bis ein laufender Nachhol-Lauf
// abgeschlossen ist.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.catchUp.Wait()
}

// isDue prüft, ob der letzte erfolgreiche Lauf länger als ein Intervall her ist.
func (s *Scheduler) isDue(job Job) bool {
	if job.Interval <= 0 {
		return false
	}
	var run models.JobRun
	err := s.DB.Where("job_name = ?", job.Name).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	if err != nil {
		s.Logger.Error("Job-Bookkeeping nicht lesbar", zap.String("job", job.Name), zap.Error(err))
		return false
	}
	return time.Since(run.LastRunAt) > job.Interval
}

func (s *Scheduler) runJob(job Job) {
	log := s.Logger.With(zap.String("job", job.Name))
	log.Info("Starte geplanten Job.")

	if err := job.Run(context.Background()); err != nil {
		if errors.Is(err, ErrTrainingInProgress) {
			log.Warn("Job übersprungen, Training läuft noch.")
		} else {
			log.Error("Job fehlgeschlagen", zap.Error(err))
		}
		return
	}

	if err := s.recordRun(job.Name, time.Now().UTC()); err != nil {
		log.Error("Job-Bookkeeping nicht schreibbar", zap.Error(err))
		return
	}
	log.Info("Job abgeschlossen.")
}

// recordRun schreibt den Zeitstempel des letzten erfolgreichen Laufs (Upsert).
func (s *Scheduler) recordRun(name string, at time.Time) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_run_at"}),
	}).Create(&models.JobRun{JobName: name, LastRunAt: at}).Error
}
