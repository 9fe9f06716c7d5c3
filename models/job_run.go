package models

import "time"

// JobRun merkt sich pro Scheduler-Job den letzten erfolgreichen Lauf, damit
// verpasste Zeitfenster (Service war down) beim Neustart nachgeholt werden.
type JobRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobName   string    `json:"job_name" gorm:"uniqueIndex;not null"`
	LastRunAt time.Time `json:"last_run_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (JobRun) TableName() string {
	return "job_runs"
}
