package topicmodel

import (
	"fmt"
	"sort"
	"strings"
)

// TopicSummary beschreibt ein Cluster über seine repräsentativen Terme.
type TopicSummary struct {
	Label    int
	Name     string
	Count    int
	Keywords []string
}

// extractKeywords zählt Term-Häufigkeiten über alle Token der Cluster-Mitglieder
// und gibt die topN häufigsten Terme zurück. Stoppwörter und Denylist-Terme
// tauchen nie im Ergebnis auf. Gleichstand wird lexikografisch aufgelöst,
// damit die Reihenfolge reproduzierbar ist.
func extractKeywords(memberTokens [][]string, stop map[string]struct{}, topN int) []string {
	freq := make(map[string]int)
	for _, tokens := range memberTokens {
		for _, tok := range tokens {
			if _, skip := stop[tok]; skip {
				continue
			}
			freq[tok]++
		}
	}

	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if topN > 0 && len(terms) > topN {
		terms = terms[:topN]
	}
	return terms
}

// topicName baut den Anzeigenamen aus Label und den drei Top-Keywords,
// z.B. "0_ai_startup_funding".
func topicName(label int, keywords []string) string {
	parts := keywords
	if len(parts) > 3 {
		parts = parts[:3]
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d_topic", label)
	}
	return fmt.Sprintf("%d_%s", label, strings.Join(parts, "_"))
}
