package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tech-pulse/models"
	"tech-pulse/topicmodel"
)

// Reconciler ist die einzige Komponente, die Topic- und TemporalFrequency-
// Zeilen sowie Document.TopicID verändern darf.
type Reconciler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewReconciler erstellt einen Reconciler auf der gegebenen Datenbank.
func NewReconciler(db *gorm.DB, logger *zap.Logger) *Reconciler {
	return &Reconciler{DB: db, Logger: logger}
}

// ReplaceAll ersetzt die komplette Taxonomie nach einem vollen Retrain in
// einer Transaktion. Reihenfolge ist entscheidend: erst alle TopicID-Referenzen
// nullen und die alte Generation löschen, dann die neuen Topics anlegen, dann
// die Zuordnungen schreiben. Leser sehen nie einen Zwischenzustand mit
// hängenden Fremdschlüsseln.
func (r *Reconciler) ReplaceAll(ctx context.Context, topics []topicmodel.TopicSummary, docIDs []uint, labels []int) error {
	if len(docIDs) != len(labels) {
		return fmt.Errorf("document ids and labels differ in length: %d vs %d", len(docIDs), len(labels))
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Document{}).Where("topic_id IS NOT NULL").
			Update("topic_id", nil).Error; err != nil {
			return fmt.Errorf("reset document assignments: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.TemporalFrequency{}).Error; err != nil {
			return fmt.Errorf("delete temporal data: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.Topic{}).Error; err != nil {
			return fmt.Errorf("delete topics: %w", err)
		}

		valid := make(map[int]struct{}, len(topics))
		for _, t := range topics {
			if t.Label == topicmodel.OutlierLabel {
				continue
			}
			row := models.Topic{
				ID:       t.Label,
				Name:     t.Name,
				Count:    t.Count,
				Keywords: strings.Join(t.Keywords, ", "),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert topic %d: %w", t.Label, err)
			}
			valid[t.Label] = struct{}{}
		}

		return r.assignLabels(tx, valid, docIDs, labels, false)
	})
}

// AppendAssignments schreibt nur die Zuordnungen neu klassifizierter Dokumente.
// Bestehende Topic- und TemporalFrequency-Zeilen werden nie angefasst, und
// bereits zugeordnete Dokumente behalten ihre Zuordnung.
func (r *Reconciler) AppendAssignments(ctx context.Context, docIDs []uint, labels []int) error {
	if len(docIDs) != len(labels) {
		return fmt.Errorf("document ids and labels differ in length: %d vs %d", len(docIDs), len(labels))
	}

	var existing []models.Topic
	if err := r.DB.WithContext(ctx).Find(&existing).Error; err != nil {
		return fmt.Errorf("load topics: %w", err)
	}
	valid := make(map[int]struct{}, len(existing))
	for _, t := range existing {
		valid[t.ID] = struct{}{}
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.assignLabels(tx, valid, docIDs, labels, true)
	})
}

// assignLabels setzt Document.TopicID für alle Paare (docID, label). Das
// Outlier-Label wird übersprungen, die Dokumente bleiben unzugeordnet. Labels
// ohne zugehörige Topic-Zeile werden geloggt und übersprungen statt einen
// hängenden Fremdschlüssel zu schreiben.
func (r *Reconciler) assignLabels(tx *gorm.DB, valid map[int]struct{}, docIDs []uint, labels []int, onlyUnassigned bool) error {
	for i, docID := range docIDs {
		label := labels[i]
		if label == topicmodel.OutlierLabel {
			continue
		}
		if _, ok := valid[label]; !ok {
			r.Logger.Warn("Label ohne Topic-Zeile, Zuordnung wird übersprungen",
				zap.Uint("document_id", docID), zap.Int("label", label))
			continue
		}

		q := tx.Model(&models.Document{}).Where("id = ?", docID)
		if onlyUnassigned {
			q = q.Where("topic_id IS NULL")
		}
		if err := q.Update("topic_id", label).Error; err != nil {
			return fmt.Errorf("assign document %d to topic %d: %w", docID, label, err)
		}
	}
	return nil
}
