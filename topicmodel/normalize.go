package topicmodel

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize bringt Rohtext in eine kanonische Form (NFKC + lowercase),
// damit Transkript-Artefakte und typografische Varianten nicht als
// unterschiedliche Terme zählen.
func Normalize(s string) string {
	out, _, err := transform.String(norm.NFKC, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokenize zerlegt normalisierten Text in Wort-Token. Token mit weniger als
// zwei Zeichen werden verworfen (entspricht dem Muster \w\w+ des Vectorizers).
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
