package providers

import "tech-pulse/models"

// Source ist das Interface, das jede Ingestion-Quelle (z.B. vorgescrapte
// Artikel- oder Transkript-Dateien) implementieren muss.
type Source interface {
	// Fetch liefert einen Batch standardisierter Dokument-Records.
	Fetch() ([]models.Document, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "articles-file").
	Name() string
}
