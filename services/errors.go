package services

import "errors"

var (
	// ErrTrainingInProgress: eine andere Training-Operation läuft bereits.
	// Für den Aufrufer retrybar, kein fataler Zustand.
	ErrTrainingInProgress = errors.New("a training operation is already in progress")

	// ErrFitFailed: der Fit-Schritt selbst ist fehlgeschlagen. Der Lauf wird
	// komplett abgebrochen, Modell und Taxonomie bleiben unverändert.
	ErrFitFailed = errors.New("topic model fit failed")
)
