package services

import "sync"

// runGuard serialisiert Training-Operationen prozessweit: nicht-blockierende
// Übernahme, zweite Anfragen werden sofort abgewiesen statt gequeued, damit
// sich keine langen CPU-lastigen Läufe stapeln.
type runGuard struct {
	mu sync.Mutex
}

// tryAcquire übernimmt den Guard, falls frei. Rückgabe false = belegt.
func (g *runGuard) tryAcquire() bool {
	return g.mu.TryLock()
}

// release gibt den Guard frei. Muss auf jedem Exit-Pfad laufen (defer).
func (g *runGuard) release() {
	g.mu.Unlock()
}
