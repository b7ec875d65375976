package domain

// UnknownGenre is the sentinel label returned when no candidate carries a genre.
const UnknownGenre = "Unknown"

// Movie is a stored movie document. Embedding is optional and present only
// after the reconciliation job has persisted a vector for the current scheme.
type Movie struct {
	ID        string
	Title     string
	FullPlot  string
	Genres    []string
	Embedding []float32
	// Scheme identifies the embedding scheme (model/dimensions) the stored
	// vector was computed under. A vector tagged with a retired scheme is
	// treated as absent.
	Scheme string
}

// HasEmbedding reports whether the movie carries a vector for the given scheme.
func (m *Movie) HasEmbedding(scheme string) bool {
	return len(m.Embedding) > 0 && m.Scheme == scheme
}

// SearchCandidate is a ranked vector search hit. Score is the similarity as
// reported by the index (higher is more similar; scale is backend-defined).
type SearchCandidate struct {
	Title  string
	Genres []string
	Score  float64
}

// Classification is the result of one classify call. Confidence is the top
// candidate's score, nil when there are no candidates.
type Classification struct {
	Input      string
	Genre      string
	Confidence *float64
	Matches    []SearchCandidate
	Message    string
}
