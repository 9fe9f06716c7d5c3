package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tech-pulse/config"
	"tech-pulse/models"
	"tech-pulse/topicmodel"
)

// BlobUploader sichert den Modell-Blob zusätzlich extern (S3). Best-effort.
type BlobUploader interface {
	Upload(ctx context.Context, data []byte) error
}

// RunResult fasst das Ergebnis eines Trainingslaufs zusammen.
type RunResult struct {
	Mode         string `json:"mode"` // "train" oder "update"
	NoOp         bool   `json:"no_op"`
	Bootstrapped bool   `json:"bootstrapped,omitempty"`
	Documents    int    `json:"documents"`
	Topics       int    `json:"topics"`
}

// Pipeline orchestriert den Topic-Lebenszyklus: volles Retrain, inkrementelles
// Update, Modell-Persistenz und das Zurückschreiben in die Datenbank.
// Prozessweit darf höchstens ein Lauf gleichzeitig aktiv sein.
type Pipeline struct {
	Config     *config.Config
	DB         *gorm.DB
	Logger     *zap.Logger
	Embedder   topicmodel.Embedder
	Reconciler *Reconciler
	Temporal   *TemporalAggregator
	Backup     BlobUploader // optional

	guard runGuard
}

// NewPipeline erstellt eine neue Pipeline-Instanz.
func NewPipeline(cfg *config.Config, db *gorm.DB, logger *zap.Logger, emb topicmodel.Embedder, backup BlobUploader) *Pipeline {
	return &Pipeline{
		Config:     cfg,
		DB:         db,
		Logger:     logger,
		Embedder:   emb,
		Reconciler: NewReconciler(db, logger),
		Temporal:   NewTemporalAggregator(db, logger, cfg.TemporalBins),
		Backup:     backup,
	}
}

func (p *Pipeline) params() topicmodel.Params {
	return topicmodel.Params{
		Seed:           p.Config.Seed,
		ProjectionDim:  p.Config.ProjectionDim,
		NumTopics:      p.Config.NumTopics,
		MinTopicSize:   p.Config.MinTopicSize,
		TopicKeywords:  p.Config.TopicKeywords,
		ExtraStopWords: p.Config.ExtraStopWords,
	}
}

// RunBatchTrain trainiert ein komplett neues Modell über den gesamten Korpus
// und ersetzt die Taxonomie vollständig. Läuft bereits ein Training, wird
// sofort mit ErrTrainingInProgress abgewiesen.
func (p *Pipeline) RunBatchTrain(ctx context.Context) (*RunResult, error) {
	if !p.guard.tryAcquire() {
		return nil, ErrTrainingInProgress
	}
	defer p.guard.release()

	return p.batchTrainLocked(ctx)
}

// batchTrainLocked setzt einen bereits übernommenen Guard voraus.
func (p *Pipeline) batchTrainLocked(ctx context.Context) (*RunResult, error) {
	log := p.Logger.With(zap.String("mode", "train"))
	log.Info("Starte volles Retrain.")

	var docs []models.Document
	if err := p.DB.WithContext(ctx).
		Select("id", "full_content", "published_at").
		Order("id").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		log.Info("Keine Dokumente in der Datenbank, Training wird übersprungen.")
		return &RunResult{Mode: "train", NoOp: true}, nil
	}

	ids := make([]uint, len(docs))
	texts := make([]string, len(docs))
	timestamps := make([]time.Time, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		texts[i] = d.FullContent
		timestamps[i] = d.PublishedAt
	}

	log.Info("Trainiere Modell", zap.Int("documents", len(texts)))
	model, labels, err := topicmodel.Fit(ctx, p.Embedder, p.params(), texts)
	if err != nil {
		// Kein DB-Write hat stattgefunden: Modell und Taxonomie der
		// vorherigen Generation bleiben unverändert.
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}

	// Save ist der Commit-Punkt des Trainingslaufs.
	if err := p.saveModel(ctx, model); err != nil {
		return nil, err
	}
	log.Info("Modell trainiert und gespeichert",
		zap.String("path", p.Config.ModelPath), zap.Int("topics", len(model.Topics)))

	if err := p.Reconciler.ReplaceAll(ctx, model.Topics, ids, labels); err != nil {
		return nil, fmt.Errorf("reconcile taxonomy: %w", err)
	}
	log.Info("Alte Topics ersetzt und Dokumente neu zugeordnet.")

	// Abgeleitete Anreicherung, blockiert den Lauf nicht.
	p.Temporal.Run(ctx, timestamps, labels)

	return &RunResult{Mode: "train", Documents: len(docs), Topics: len(model.Topics)}, nil
}

// RunIncrementalUpdate klassifiziert noch unzugeordnete Dokumente gegen das
// bestehende Modell, ohne die Taxonomie zu verändern. Existiert noch kein
// Modell, bootstrapt die Operation in ein volles Retrain.
func (p *Pipeline) RunIncrementalUpdate(ctx context.Context) (*RunResult, error) {
	if !p.guard.tryAcquire() {
		return nil, ErrTrainingInProgress
	}
	defer p.guard.release()

	log := p.Logger.With(zap.String("mode", "update"))
	log.Info("Starte inkrementelles Update.")

	model, err := topicmodel.Load(p.Config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if model == nil {
		log.Info("Kein Modell vorhanden, führe stattdessen volles Retrain aus.")
		result, err := p.batchTrainLocked(ctx)
		if err != nil {
			return nil, err
		}
		result.Bootstrapped = true
		return result, nil
	}

	var docs []models.Document
	if err := p.DB.WithContext(ctx).
		Select("id", "full_content").
		Where("topic_id IS NULL").
		Order("id").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("load unassigned documents: %w", err)
	}
	if len(docs) == 0 {
		log.Info("Keine neuen Dokumente, Update wird übersprungen.")
		return &RunResult{Mode: "update", NoOp: true, Topics: len(model.Topics)}, nil
	}

	ids := make([]uint, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		texts[i] = d.FullContent
	}

	log.Info("Klassifiziere neue Dokumente", zap.Int("documents", len(texts)))
	labels, err := model.Transform(ctx, p.Embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}

	// Unbedingtes Re-Save nach erfolgreichem Update hält das Verhalten
	// einfach und reproduzierbar.
	if err := p.saveModel(ctx, model); err != nil {
		return nil, err
	}

	if err := p.Reconciler.AppendAssignments(ctx, ids, labels); err != nil {
		return nil, fmt.Errorf("append assignments: %w", err)
	}
	log.Info("Neue Dokumente zugeordnet", zap.Int("documents", len(docs)))

	return &RunResult{Mode: "update", Documents: len(docs), Topics: len(model.Topics)}, nil
}

// saveModel persistiert das Modell lokal und sichert den Blob optional nach S3.
func (p *Pipeline) saveModel(ctx context.Context, model *topicmodel.Model) error {
	if err := model.Save(p.Config.ModelPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	if p.Backup != nil {
		data, err := model.Encode()
		if err != nil {
			p.Logger.Warn("Modell-Blob für Backup nicht kodierbar", zap.Error(err))
			return nil
		}
		if err := p.Backup.Upload(ctx, data); err != nil {
			p.Logger.Warn("S3-Backup des Modells fehlgeschlagen", zap.Error(err))
		}
	}
	return nil
}
