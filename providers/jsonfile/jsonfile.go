package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"tech-pulse/models"
	"tech-pulse/providers"
)

// Source liest vorgescrapte Dokument-Batches aus einer JSON-Datei
// (indian_tech_articles.json bzw. indian_tech_videos.json).
type Source struct {
	name       string
	path       string
	sourceType string
	logger     *zap.Logger
}

var _ providers.Source = (*Source)(nil)

// NewSource erstellt eine Datei-Quelle für den gegebenen SourceType.
func NewSource(name, path, sourceType string, logger *zap.Logger) *Source {
	return &Source{name: name, path: path, sourceType: sourceType, logger: logger}
}

// Name gibt den eindeutigen Namen der Quelle zurück.
func (s *Source) Name() string {
	return s.name
}

// record ist das Rohformat der Scraper-Ausgabe. Felder, die das Dokumentmodell
// nicht kennt (source_name, video_id, ...), werden beim Dekodieren ignoriert.
type record struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	FullContent string `json:"full_content"`
}

// Fetch liest die Datei und gibt die Records als Dokumente zurück. Eine
// fehlende Datei ist kein Fehler, sondern ein leerer Batch (die Scraper
// laufen unabhängig und liefern irgendwann nach).
func (s *Source) Fetch() ([]models.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Quelldatei nicht gefunden, Batch wird übersprungen", zap.String("path", s.path))
			return nil, nil
		}
		return nil, fmt.Errorf("read source file %s: %w", s.path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse source file %s: %w", s.path, err)
	}

	docs := make([]models.Document, 0, len(records))
	for _, r := range records {
		if r.URL == "" || r.FullContent == "" {
			continue
		}
		publishedAt, err := parseTimestamp(r.PublishedAt)
		if err != nil {
			s.logger.Warn("Record mit unlesbarem Zeitstempel übersprungen",
				zap.String("url", r.URL), zap.Error(err))
			continue
		}
		docs = append(docs, models.Document{
			URL:         r.URL,
			Title:       r.Title,
			PublishedAt: publishedAt,
			FullContent: r.FullContent,
			SourceType:  s.sourceType,
		})
	}
	return docs, nil
}

// parseTimestamp akzeptiert RFC3339 inklusive des "Z"-Suffix der Scraper.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", raw)
}
