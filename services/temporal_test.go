package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"tech-pulse/models"
	"tech-pulse/topicmodel"
)

func TestTemporalComputeBinsAndCounts(t *testing.T) {
	t.Parallel()

	a := NewTemporalAggregator(nil, zap.NewNop(), 4)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{
		base,
		base.AddDate(0, 0, 1),
		base.AddDate(0, 0, 10),
		base.AddDate(0, 0, 20),
		base.AddDate(0, 0, 20),
	}
	labels := []int{0, 0, 1, 1, topicmodel.OutlierLabel}

	rows, err := a.Compute(timestamps, labels)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	sums := make(map[int]int)
	for _, row := range rows {
		sums[row.TopicID] += row.Frequency
		if row.Timestamp.Before(base) || row.Timestamp.After(timestamps[3]) {
			t.Fatalf("bucket %v outside the corpus date range", row.Timestamp)
		}
	}
	if sums[0] != 2 || sums[1] != 2 {
		t.Fatalf("unexpected per-topic sums: %v", sums)
	}
	if sums[topicmodel.OutlierLabel] != 0 {
		t.Fatal("outlier documents must not be counted")
	}
}

func TestTemporalComputeRejectsDegenerateInput(t *testing.T) {
	t.Parallel()

	a := NewTemporalAggregator(nil, zap.NewNop(), 4)
	same := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, err := a.Compute([]time.Time{same}, []int{0}); err == nil {
		t.Fatal("expected error for a single timestamp")
	}
	if _, err := a.Compute([]time.Time{same, same}, []int{0, 0}); err == nil {
		t.Fatal("expected error for identical timestamps")
	}
	if _, err := a.Compute([]time.Time{same}, []int{0, 1}); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

// Run ist best-effort: ein Fehler in der Aggregation erreicht den Aufrufer nie
// und hinterlässt keine Zeilen.
func TestTemporalRunSwallowsFailures(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	a := NewTemporalAggregator(db, zap.NewNop(), 4)

	same := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a.Run(context.Background(), []time.Time{same, same}, []int{0, 0})

	var count int64
	db.Model(&models.TemporalFrequency{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no temporal rows, got %d", count)
	}
}
