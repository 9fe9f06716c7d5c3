package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"tech-pulse/models"
	"tech-pulse/providers"
)

func TestBulkCreateDeduplicatesByURL(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop(), nil)

	first := models.Document{
		URL:         "https://example.in/launch",
		Title:       "Launch",
		PublishedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		FullContent: "satellite launch rocket",
		SourceType:  models.SourceTypeArticle,
	}
	created, err := svc.BulkCreate(context.Background(), []models.Document{first})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 created, got %d", created)
	}

	// Dieselbe URL nochmal plus eine neue: nur die neue darf durchkommen.
	batch := []models.Document{
		{URL: first.URL, Title: "Launch again", PublishedAt: first.PublishedAt, FullContent: "duplicate", SourceType: models.SourceTypeVideo},
		{URL: "https://example.in/chips", Title: "Chips", PublishedAt: first.PublishedAt, FullContent: "semiconductor foundry", SourceType: models.SourceTypeArticle},
	}
	created, err = svc.BulkCreate(context.Background(), batch)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 created, got %d", created)
	}

	var count int64
	db.Model(&models.Document{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 documents, got %d", count)
	}

	// Das Original bleibt unangetastet.
	var stored models.Document
	if err := db.Where("url = ?", first.URL).First(&stored).Error; err != nil {
		t.Fatalf("reload original: %v", err)
	}
	if stored.Title != "Launch" || stored.SourceType != models.SourceTypeArticle {
		t.Fatalf("duplicate overwrote the original: %+v", stored)
	}
}

func TestBulkCreateDeduplicatesWithinBatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewIngestService(db, zap.NewNop(), nil)

	batch := []models.Document{
		{URL: "https://example.in/x", PublishedAt: time.Now(), FullContent: "a", SourceType: models.SourceTypeArticle},
		{URL: "https://example.in/x", PublishedAt: time.Now(), FullContent: "b", SourceType: models.SourceTypeArticle},
		{URL: "", PublishedAt: time.Now(), FullContent: "no url", SourceType: models.SourceTypeArticle},
	}
	created, err := svc.BulkCreate(context.Background(), batch)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 created, got %d", created)
	}
}

type stubSource struct {
	name string
	docs []models.Document
	err  error
}

func (s *stubSource) Fetch() ([]models.Document, error) { return s.docs, s.err }
func (s *stubSource) Name() string                      { return s.name }

func TestIngestRunCollectsAllSources(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Now()
	sources := []providers.Source{
		&stubSource{name: "articles", docs: []models.Document{
			{URL: "https://example.in/a", PublishedAt: now, FullContent: "a", SourceType: models.SourceTypeArticle},
		}},
		&stubSource{name: "broken", err: context.DeadlineExceeded},
		&stubSource{name: "videos", docs: []models.Document{
			{URL: "https://example.in/v", PublishedAt: now, FullContent: "v", SourceType: models.SourceTypeVideo},
		}},
	}
	svc := NewIngestService(db, zap.NewNop(), sources)

	// Eine kaputte Quelle stoppt die anderen nicht.
	created, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}
}
