package topicmodel

// englishStopWords ist die Standard-Stoppwortliste für die Keyword-Extraktion
// (angelehnt an die übliche englische Liste der gängigen Vectorizer).
var englishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
	"any", "are", "aren", "as", "at", "be", "because", "been", "before", "being",
	"below", "between", "both", "but", "by", "can", "cannot", "could", "couldn",
	"did", "didn", "do", "does", "doesn", "doing", "don", "down", "during", "each",
	"few", "for", "from", "further", "had", "hadn", "has", "hasn", "have", "haven",
	"having", "he", "her", "here", "hers", "herself", "him", "himself", "his",
	"how", "i", "if", "in", "into", "is", "isn", "it", "its", "itself", "let",
	"me", "more", "most", "mustn", "my", "myself", "no", "nor", "not", "of", "off",
	"on", "once", "only", "or", "other", "ought", "our", "ours", "ourselves",
	"out", "over", "own", "same", "shan", "she", "should", "shouldn", "so", "some",
	"such", "than", "that", "the", "their", "theirs", "them", "themselves", "then",
	"there", "these", "they", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "was", "wasn", "we", "were", "weren", "what", "when",
	"where", "which", "while", "who", "whom", "why", "will", "with", "won",
	"would", "wouldn", "you", "your", "yours", "yourself", "yourselves",
}

// domainStopWords sind Füllwörter, die in Tech-News-Transkripten die
// Keyword-Extraktion verschmutzen und nie als Topic-Keyword erscheinen dürfen.
var domainStopWords = []string{
	"uh", "ll", "et", "like", "just", "say", "said", "new", "year", "news",
	"mr", "mrs", "ms",
}

// StopWordSet baut die effektive Stoppwortmenge: englische Standardliste,
// Domain-Füllwörter und optionale Zusatzwörter aus der Konfiguration.
func StopWordSet(extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(englishStopWords)+len(domainStopWords)+len(extra))
	for _, w := range englishStopWords {
		set[w] = struct{}{}
	}
	for _, w := range domainStopWords {
		set[w] = struct{}{}
	}
	for _, w := range extra {
		set[Normalize(w)] = struct{}{}
	}
	return set
}
