package models

import (
	"time"
)

// SourceType values for Document.SourceType.
const (
	SourceTypeArticle = "article"
	SourceTypeVideo   = "video"
)

// Document ist ein ingestierter Artikel oder ein Video-Transkript mit Metadaten.
// Die URL ist der natürliche Dedup-Schlüssel der Ingestion.
type Document struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string    `json:"title" gorm:"index"`
	URL         string    `json:"url" gorm:"uniqueIndex;not null"`
	PublishedAt time.Time `json:"published_at" gorm:"index"`
	FullContent string    `json:"full_content" gorm:"type:text"`
	SourceType  string    `json:"source_type"` // "article" oder "video"

	// Null solange das Dokument noch keinem Topic zugeordnet wurde
	// (oder vom Clustering als Outlier markiert ist).
	TopicID *int `json:"topic_id,omitempty" gorm:"index"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Document) TableName() string {
	return "documents"
}
