package models

import "time"

// TemporalFrequency speichert die Dokument-Häufigkeit eines Topics in einem
// Zeit-Bucket. Die Zeilen sind rein abgeleitete Daten: sie werden bei jedem
// vollen Retrain gelöscht und neu erzeugt.
type TemporalFrequency struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TopicID   int       `json:"topic_id" gorm:"index"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
	Frequency int       `json:"frequency"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (TemporalFrequency) TableName() string {
	return "temporal_frequencies"
}
