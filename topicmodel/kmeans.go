package topicmodel

import (
	"math"
	"math/rand"
)

const maxKMeansIterations = 100

// kMeans clustert die Punkte in k Cluster. Initialisierung und alle
// Tie-Breaks sind deterministisch, damit gleicher Seed + gleiche Eingabe
// identische Zuordnungen liefern.
func kMeans(rng *rand.Rand, points [][]float64, k int) ([]int, [][]float64) {
	if k > len(points) {
		k = len(points)
	}
	if k < 1 {
		k = 1
	}

	// Startzentren: k verschiedene Punkte in seed-abhängiger Reihenfolge.
	perm := rng.Perm(len(points))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	assign := make([]int, len(points))
	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Zentren neu berechnen; leere Cluster behalten ihr altes Zentrum.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for j, v := range p {
				sums[c][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	return assign, centroids
}

// nearestCentroid gibt den Index des nächsten Zentrums zurück; bei Gleichstand
// gewinnt der kleinere Index.
func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		d := euclidean(p, centroid)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
