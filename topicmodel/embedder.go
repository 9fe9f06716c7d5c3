package topicmodel

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder bildet Dokumenttexte auf Vektoren fester Dimension ab.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// HashingEmbedder ist der lokale Default-Embedder: signiertes Feature-Hashing
// der Token-Häufigkeiten in einen Vektor fester Dimension. Vollständig
// deterministisch und ohne externe Abhängigkeit, damit Retrains mit gleichem
// Korpus reproduzierbar sind.
type HashingEmbedder struct {
	Dim int
}

// NewHashingEmbedder erstellt einen Hashing-Embedder mit der gegebenen Dimension.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashingEmbedder{Dim: dim}
}

// Embed gibt pro Text einen L2-normalisierten Vektor der Länge Dim zurück.
func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, e.Dim)
		for _, token := range Tokenize(text) {
			h := fnv.New64a()
			h.Write([]byte(token))
			sum := h.Sum64()
			idx := int(sum % uint64(e.Dim))
			// Das oberste Bit bestimmt das Vorzeichen, damit sich
			// Hash-Kollisionen im Mittel aufheben.
			if sum>>63 == 1 {
				vec[idx] -= 1
			} else {
				vec[idx] += 1
			}
		}
		normalizeVec(vec)
		vectors[i] = vec
	}
	return vectors, nil
}

func normalizeVec(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= n
	}
}
