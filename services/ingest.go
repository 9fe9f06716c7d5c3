package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tech-pulse/models"
	"tech-pulse/providers"
)

// IngestService sammelt Dokument-Batches aus allen Quellen und schreibt sie
// in den Korpus. Die URL ist der einzige Dedup-Schlüssel: Records mit bereits
// bekannter URL werden ignoriert.
type IngestService struct {
	DB      *gorm.DB
	Logger  *zap.Logger
	Sources []providers.Source
}

// NewIngestService erstellt einen IngestService mit den gegebenen Quellen.
func NewIngestService(db *gorm.DB, logger *zap.Logger, sources []providers.Source) *IngestService {
	return &IngestService{DB: db, Logger: logger, Sources: sources}
}

// Run holt alle Quellen ab und gibt die Anzahl neu angelegter Dokumente zurück.
func (s *IngestService) Run(ctx context.Context) (int, error) {
	var batch []models.Document
	for _, src := range s.Sources {
		docs, err := src.Fetch()
		if err != nil {
			s.Logger.Error("Quelle konnte nicht gelesen werden",
				zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		s.Logger.Info("Quelle geliefert",
			zap.String("source", src.Name()), zap.Int("records", len(docs)))
		batch = append(batch, docs...)
	}

	return s.BulkCreate(ctx, batch)
}

// BulkCreate legt mehrere Dokumente an und überspringt Duplikate anhand der
// URL (sowohl gegen die Datenbank als auch innerhalb des Batches).
func (s *IngestService) BulkCreate(ctx context.Context, docs []models.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var existingURLs []string
	if err := s.DB.WithContext(ctx).Model(&models.Document{}).
		Pluck("url", &existingURLs).Error; err != nil {
		return 0, fmt.Errorf("load existing urls: %w", err)
	}
	seen := make(map[string]struct{}, len(existingURLs))
	for _, u := range existingURLs {
		seen[u] = struct{}{}
	}

	var fresh []models.Document
	for _, doc := range docs {
		if doc.URL == "" {
			continue
		}
		if _, dup := seen[doc.URL]; dup {
			continue
		}
		seen[doc.URL] = struct{}{}
		doc.ID = 0
		doc.TopicID = nil
		fresh = append(fresh, doc)
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if err := s.DB.WithContext(ctx).CreateInBatches(fresh, 200).Error; err != nil {
		return 0, fmt.Errorf("bulk insert documents: %w", err)
	}
	s.Logger.Info("Neue Dokumente gespeichert", zap.Int("count", len(fresh)))
	return len(fresh), nil
}
