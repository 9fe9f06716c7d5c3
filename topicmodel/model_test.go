package topicmodel

import (
	"context"
	"path/filepath"
	"testing"
)

func testParams() Params {
	return Params{
		Seed:          42,
		ProjectionDim: 8,
		NumTopics:     2,
		MinTopicSize:  1,
		TopicKeywords: 5,
	}
}

// Zwei klar getrennte Vokabular-Gruppen, wie sie ein Clustering trennen muss.
func testCorpus() []string {
	return []string{
		"semiconductor fabrication chip foundry wafer semiconductor chip",
		"semiconductor fabrication chip foundry wafer semiconductor chip",
		"semiconductor fabrication chip foundry wafer semiconductor chip",
		"cricket streaming broadcast rights tournament cricket streaming",
		"cricket streaming broadcast rights tournament cricket streaming",
		"cricket streaming broadcast rights tournament cricket streaming",
	}
}

func TestFitRejectsTinyCorpus(t *testing.T) {
	t.Parallel()

	emb := NewHashingEmbedder(64)
	_, _, err := Fit(context.Background(), emb, testParams(), []string{"single document"})
	if err == nil {
		t.Fatal("expected error for a one-document corpus")
	}
}

func TestFitIsDeterministic(t *testing.T) {
	t.Parallel()

	emb := NewHashingEmbedder(64)
	corpus := testCorpus()

	model1, labels1, err := Fit(context.Background(), emb, testParams(), corpus)
	if err != nil {
		t.Fatalf("first fit: %v", err)
	}
	model2, labels2, err := Fit(context.Background(), emb, testParams(), corpus)
	if err != nil {
		t.Fatalf("second fit: %v", err)
	}

	if len(labels1) != len(labels2) {
		t.Fatalf("label count differs: %d vs %d", len(labels1), len(labels2))
	}
	for i := range labels1 {
		if labels1[i] != labels2[i] {
			t.Fatalf("label %d differs: %d vs %d", i, labels1[i], labels2[i])
		}
	}
	if len(model1.Topics) != len(model2.Topics) {
		t.Fatalf("topic count differs: %d vs %d", len(model1.Topics), len(model2.Topics))
	}
	for i := range model1.Topics {
		if model1.Topics[i].Name != model2.Topics[i].Name {
			t.Fatalf("topic %d name differs: %q vs %q", i, model1.Topics[i].Name, model2.Topics[i].Name)
		}
		if model1.Topics[i].Count != model2.Topics[i].Count {
			t.Fatalf("topic %d count differs: %d vs %d", i, model1.Topics[i].Count, model2.Topics[i].Count)
		}
	}
}

func TestFitSeparatesDistinctVocabulary(t *testing.T) {
	t.Parallel()

	emb := NewHashingEmbedder(64)
	corpus := testCorpus()

	_, labels, err := Fit(context.Background(), emb, testParams(), corpus)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	// Identische Texte müssen identische Labels bekommen.
	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Fatalf("identical chip documents got labels %v", labels[:3])
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Fatalf("identical cricket documents got labels %v", labels[3:])
	}
	if labels[0] == labels[3] {
		t.Fatalf("distinct vocabularies collapsed into one label %d", labels[0])
	}
}

func TestFitLabelsAreCompactAndMatchTopics(t *testing.T) {
	t.Parallel()

	emb := NewHashingEmbedder(64)
	model, labels, err := Fit(context.Background(), emb, testParams(), testCorpus())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	for i, l := range labels {
		if l == OutlierLabel {
			continue
		}
		if l < 0 || l >= len(model.Topics) {
			t.Fatalf("label %d of document %d has no topic summary", l, i)
		}
	}
	for i, topic := range model.Topics {
		if topic.Label != i {
			t.Fatalf("topic at index %d carries label %d", i, topic.Label)
		}
		if topic.Count == 0 {
			t.Fatalf("topic %d has zero members", i)
		}
	}
	if len(model.Centroids) != len(model.Topics) {
		t.Fatalf("%d centroids for %d topics", len(model.Centroids), len(model.Topics))
	}
}

func TestTransformStaysInsideLabelSpace(t *testing.T) {
	t.Parallel()

	emb := NewHashingEmbedder(64)
	model, _, err := Fit(context.Background(), emb, testParams(), testCorpus())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	newDocs := []string{
		"semiconductor chip foundry fabrication",
		"completely unrelated gardening tulips soil watering flowers pruning",
	}
	labels, err := model.Transform(context.Background(), emb, newDocs)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(labels) != len(newDocs) {
		t.Fatalf("expected %d labels, got %d", len(newDocs), len(labels))
	}
	for i, l := range labels {
		if l != OutlierLabel && (l < 0 || l >= len(model.Topics)) {
			t.Fatalf("document %d got label %d outside the trained label space", i, l)
		}
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model", "topic_model.gob")

	// Abwesenheit ist ein normaler Zustand, kein Fehler.
	absent, err := Load(path)
	if err != nil {
		t.Fatalf("load absent model: %v", err)
	}
	if absent != nil {
		t.Fatal("expected nil model before first training")
	}

	emb := NewHashingEmbedder(64)
	model, _, err := Fit(context.Background(), emb, testParams(), testCorpus())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if err := model.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a model after save")
	}
	if len(loaded.Topics) != len(model.Topics) {
		t.Fatalf("topic count changed through persistence: %d vs %d", len(loaded.Topics), len(model.Topics))
	}
	if loaded.Params.Seed != model.Params.Seed {
		t.Fatalf("seed changed through persistence: %d vs %d", loaded.Params.Seed, model.Params.Seed)
	}

	// Ein klassifiziertes Dokument muss nach dem Laden dasselbe Label bekommen.
	before, err := model.Transform(context.Background(), emb, []string{testCorpus()[0]})
	if err != nil {
		t.Fatalf("transform before persistence: %v", err)
	}
	after, err := loaded.Transform(context.Background(), emb, []string{testCorpus()[0]})
	if err != nil {
		t.Fatalf("transform after persistence: %v", err)
	}
	if before[0] != after[0] {
		t.Fatalf("label changed through persistence: %d vs %d", before[0], after[0])
	}
}
