package topicmodel

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// OutlierLabel ist das reservierte Label für Dokumente, die zu keinem Cluster
// passen. Es wird nie als Topic persistiert.
const OutlierLabel = -1

// ErrCorpusTooSmall wird gemeldet, wenn der Korpus zum Clustern nicht reicht.
var ErrCorpusTooSmall = errors.New("corpus too small to fit a topic model")

// outlierRadiusFactor skaliert die mittlere Distanz zum Zentrum zur
// Outlier-Schwelle.
const outlierRadiusFactor = 2.0

// Params sind die Hyperparameter eines Trainingslaufs. Sie werden mit dem
// Modell persistiert, damit inkrementelle Updates dieselbe Basis verwenden.
type Params struct {
	Seed           int64
	ProjectionDim  int
	NumTopics      int
	MinTopicSize   int
	TopicKeywords  int
	ExtraStopWords []string
}

// Model ist der gefittete Zustand eines vollen Retrains: Projektionsbasis,
// Cluster-Zentren, Outlier-Schwelle und die Topic-Zusammenfassungen. Es wird
// als opaker Blob zwischen Pipeline-Läufen persistiert und ist der einzige
// Träger von Kontinuität zwischen Retrain und inkrementellen Updates.
type Model struct {
	Params        Params
	Projection    [][]float64 // EmbeddingDim x ProjectionDim
	Centroids     [][]float64 // pro Label ein Zentrum, Index == Topic-ID
	OutlierRadius float64
	Topics        []TopicSummary
	TrainedAt     time.Time
}

// Fit trainiert ein komplett neues Modell über den ganzen Korpus.
// Rückgabe: das Modell und pro Text das zugewiesene Label (positionsgleich
// mit der Eingabe), OutlierLabel für Ausreißer.
func Fit(ctx context.Context, emb Embedder, p Params, texts []string) (*Model, []int, error) {
	if len(texts) < 2 {
		return nil, nil, fmt.Errorf("%w: %d documents", ErrCorpusTooSmall, len(texts))
	}

	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(texts) || len(vectors[0]) == 0 {
		return nil, nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	if p.ProjectionDim <= 0 {
		p.ProjectionDim = 32
	}

	// Ein einziger seeded RNG für Projektion und Cluster-Initialisierung:
	// gleiche Eingabe + gleicher Seed => gleiches Ergebnis.
	rng := rand.New(rand.NewSource(p.Seed))
	projection := randomProjection(rng, len(vectors[0]), p.ProjectionDim)
	reduced := projectAll(vectors, projection)

	k := p.NumTopics
	if k <= 0 {
		k = 8
	}
	assign, centroids := kMeans(rng, reduced, k)

	// Outlier-Schwelle aus der mittleren Distanz zum eigenen Zentrum.
	dists := make([]float64, len(reduced))
	var distSum float64
	for i, point := range reduced {
		dists[i] = euclidean(point, centroids[assign[i]])
		distSum += dists[i]
	}
	radius := outlierRadiusFactor * distSum / float64(len(reduced))

	labels := make([]int, len(reduced))
	sizes := make(map[int]int)
	for i := range reduced {
		if dists[i] > radius && radius > 0 {
			labels[i] = OutlierLabel
			continue
		}
		labels[i] = assign[i]
		sizes[assign[i]]++
	}

	// Zu kleine Cluster auflösen: ihre Mitglieder werden Outlier.
	minSize := p.MinTopicSize
	if minSize < 1 {
		minSize = 1
	}
	for i, l := range labels {
		if l != OutlierLabel && sizes[l] < minSize {
			labels[i] = OutlierLabel
		}
	}

	// Verbleibende Cluster nach Größe absteigend in kompakte Labels 0..m-1
	// umnummerieren: Topic 0 ist immer das größte.
	type clusterInfo struct {
		old  int
		size int
	}
	var kept []clusterInfo
	for old, size := range sizes {
		if size >= minSize {
			kept = append(kept, clusterInfo{old: old, size: size})
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].size != kept[j].size {
			return kept[i].size > kept[j].size
		}
		return kept[i].old < kept[j].old
	})

	relabel := make(map[int]int, len(kept))
	finalCentroids := make([][]float64, len(kept))
	for newLabel, info := range kept {
		relabel[info.old] = newLabel
		finalCentroids[newLabel] = centroids[info.old]
	}
	for i, l := range labels {
		if l == OutlierLabel {
			continue
		}
		labels[i] = relabel[l]
	}

	// Keywords pro Topic aus den Token der Mitglieder.
	docTokens := make([][]string, len(texts))
	for i, t := range texts {
		docTokens[i] = Tokenize(t)
	}
	stop := StopWordSet(p.ExtraStopWords)

	topics := make([]TopicSummary, len(kept))
	for newLabel := range kept {
		var memberTokens [][]string
		count := 0
		for i, l := range labels {
			if l == newLabel {
				memberTokens = append(memberTokens, docTokens[i])
				count++
			}
		}
		keywords := extractKeywords(memberTokens, stop, p.TopicKeywords)
		topics[newLabel] = TopicSummary{
			Label:    newLabel,
			Name:     topicName(newLabel, keywords),
			Count:    count,
			Keywords: keywords,
		}
	}

	model := &Model{
		Params:        p,
		Projection:    projection,
		Centroids:     finalCentroids,
		OutlierRadius: radius,
		Topics:        topics,
		TrainedAt:     time.Now().UTC(),
	}
	return model, labels, nil
}

// Transform klassifiziert neue Texte gegen das bestehende Modell: embedden,
// mit der gespeicherten Basis projizieren, dem nächsten existierenden Zentrum
// zuordnen. Es entstehen nie neue Labels.
func (m *Model) Transform(ctx context.Context, emb Embedder, texts []string) ([]int, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed new documents: %w", err)
	}

	labels := make([]int, len(texts))
	for i, vec := range vectors {
		if len(vec) != len(m.Projection) {
			return nil, fmt.Errorf("embedding dim %d does not match model dim %d", len(vec), len(m.Projection))
		}
		point := project(vec, m.Projection)

		if len(m.Centroids) == 0 {
			labels[i] = OutlierLabel
			continue
		}
		best := nearestCentroid(point, m.Centroids)
		if d := euclidean(point, m.Centroids[best]); d > m.OutlierRadius && m.OutlierRadius > 0 {
			labels[i] = OutlierLabel
			continue
		}
		labels[i] = best
	}
	return labels, nil
}

// randomProjection erzeugt eine Gauss-Zufallsbasis rows x cols.
func randomProjection(rng *rand.Rand, rows, cols int) [][]float64 {
	scale := 1.0 / math.Sqrt(float64(cols))
	p := make([][]float64, rows)
	for i := range p {
		row := make([]float64, cols)
		for j := range row {
			row[j] = rng.NormFloat64() * scale
		}
		p[i] = row
	}
	return p
}

func projectAll(vectors [][]float64, projection [][]float64) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		out[i] = project(v, projection)
	}
	return out
}

func project(vec []float64, projection [][]float64) []float64 {
	cols := len(projection[0])
	out := make([]float64, cols)
	for i, v := range vec {
		if v == 0 {
			continue
		}
		row := projection[i]
		for j := 0; j < cols; j++ {
			out[j] += v * row[j]
		}
	}
	return out
}

// --- Persistenz ---

// Load liest das persistierte Modell. Gibt (nil, nil) zurück, wenn noch nie
// trainiert wurde: Abwesenheit ist ein normaler Zustand, kein Fehler.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

// Save persistiert das Modell atomar (Tempdatei + Rename) und überschreibt
// dabei jede vorherige Version. Save ist der Commit-Punkt eines Trainingslaufs.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	data, err := m.Encode()
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

// Encode serialisiert das Modell als gob-Blob (für Datei und S3-Backup).
func (m *Model) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return buf.Bytes(), nil
}
