package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"tech-pulse/models"
	"tech-pulse/topicmodel"
)

func TestAppendAssignmentsSkipsUnknownLabels(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewReconciler(db, zap.NewNop())

	if err := db.Create(&models.Topic{ID: 0, Name: "0_chips", Count: 0}).Error; err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	var ids []uint
	for i := 0; i < 3; i++ {
		doc := models.Document{
			URL:         "https://example.in/append-" + string(rune('a'+i)),
			PublishedAt: time.Now(),
			FullContent: "text",
			SourceType:  models.SourceTypeArticle,
		}
		if err := db.Create(&doc).Error; err != nil {
			t.Fatalf("seed document %d: %v", i, err)
		}
		ids = append(ids, doc.ID)
	}

	// Gültiges Label, unbekanntes Label, Outlier.
	labels := []int{0, 7, topicmodel.OutlierLabel}
	if err := r.AppendAssignments(context.Background(), ids, labels); err != nil {
		t.Fatalf("append: %v", err)
	}

	var docs []models.Document
	db.Order("id").Find(&docs)
	if docs[0].TopicID == nil || *docs[0].TopicID != 0 {
		t.Fatalf("valid label not written: %+v", docs[0])
	}
	if docs[1].TopicID != nil {
		t.Fatalf("unknown label written as dangling reference: %+v", docs[1])
	}
	if docs[2].TopicID != nil {
		t.Fatalf("outlier was assigned: %+v", docs[2])
	}
}

func TestAppendAssignmentsNeverReassigns(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewReconciler(db, zap.NewNop())

	for _, id := range []int{0, 1} {
		if err := db.Create(&models.Topic{ID: id, Name: "t", Count: 0}).Error; err != nil {
			t.Fatalf("seed topic %d: %v", id, err)
		}
	}
	doc := models.Document{
		URL:         "https://example.in/assigned",
		PublishedAt: time.Now(),
		FullContent: "text",
		SourceType:  models.SourceTypeArticle,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
	if err := db.Model(&doc).Update("topic_id", 0).Error; err != nil {
		t.Fatalf("preassign: %v", err)
	}

	if err := r.AppendAssignments(context.Background(), []uint{doc.ID}, []int{1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var reloaded models.Document
	db.First(&reloaded, doc.ID)
	if reloaded.TopicID == nil || *reloaded.TopicID != 0 {
		t.Fatalf("append mode reassigned an already-assigned document: %+v", reloaded)
	}
}

func TestReplaceAllRejectsMismatchedInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewReconciler(db, zap.NewNop())

	err := r.ReplaceAll(context.Background(), nil, []uint{1, 2}, []int{0})
	if err == nil {
		t.Fatal("expected error for mismatched ids and labels")
	}
}
