package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tech-pulse/models"
	"tech-pulse/topicmodel"
)

// TemporalAggregator berechnet die Topic-Häufigkeit über der Zeit: die
// Zeitstempel des Korpus werden in eine feste Anzahl Buckets über den
// Datumsbereich geteilt und pro Topic und Bucket gezählt.
type TemporalAggregator struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Bins   int
}

// NewTemporalAggregator erstellt einen Aggregator mit fester Bucket-Anzahl.
func NewTemporalAggregator(db *gorm.DB, logger *zap.Logger, bins int) *TemporalAggregator {
	if bins <= 0 {
		bins = 20
	}
	return &TemporalAggregator{DB: db, Logger: logger, Bins: bins}
}

// Compute bildet (Topic, Bucket, Häufigkeit)-Tripel über den trainierten Batch.
// Outlier-Dokumente zählen nicht.
func (a *TemporalAggregator) Compute(timestamps []time.Time, labels []int) ([]models.TemporalFrequency, error) {
	if len(timestamps) != len(labels) {
		return nil, fmt.Errorf("timestamps and labels differ in length: %d vs %d", len(timestamps), len(labels))
	}
	if len(timestamps) < 2 {
		return nil, fmt.Errorf("not enough timestamps to bin: %d", len(timestamps))
	}

	minTS, maxTS := timestamps[0], timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts.Before(minTS) {
			minTS = ts
		}
		if ts.After(maxTS) {
			maxTS = ts
		}
	}
	span := maxTS.Sub(minTS)
	if span <= 0 {
		return nil, fmt.Errorf("all timestamps identical, nothing to bin")
	}
	width := span / time.Duration(a.Bins)
	if width <= 0 {
		width = 1
	}

	// counts[bin][topic] -> Häufigkeit
	counts := make([]map[int]int, a.Bins)
	for i, ts := range timestamps {
		if labels[i] == topicmodel.OutlierLabel {
			continue
		}
		bin := int(ts.Sub(minTS) / width)
		if bin >= a.Bins {
			bin = a.Bins - 1
		}
		if counts[bin] == nil {
			counts[bin] = make(map[int]int)
		}
		counts[bin][labels[i]]++
	}

	var rows []models.TemporalFrequency
	for bin, topicCounts := range counts {
		bucket := minTS.Add(time.Duration(bin) * width)
		for topicID, freq := range topicCounts {
			rows = append(rows, models.TemporalFrequency{
				TopicID:   topicID,
				Timestamp: bucket,
				Frequency: freq,
			})
		}
	}
	return rows, nil
}

// Run berechnet die Tripel und schreibt sie in die Datenbank. Der Schritt ist
// best-effort: Fehler werden geloggt und verschluckt, die bereits committeten
// Topic- und Dokument-Updates bleiben davon unberührt.
func (a *TemporalAggregator) Run(ctx context.Context, timestamps []time.Time, labels []int) {
	rows, err := a.Compute(timestamps, labels)
	if err != nil {
		a.Logger.Warn("Temporale Analyse fehlgeschlagen, wird übersprungen", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}
	if err := a.DB.WithContext(ctx).CreateInBatches(rows, 200).Error; err != nil {
		a.Logger.Warn("Temporale Daten konnten nicht gespeichert werden", zap.Error(err))
		return
	}
	a.Logger.Info("Temporale Analyse abgeschlossen", zap.Int("rows", len(rows)))
}
