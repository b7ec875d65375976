package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	// VectorField is the hash field the index was created over.
	VectorField string
	Vector      []float32
	K           int
	// PoolSize is the HNSW EF_RUNTIME breadth parameter: how many candidates
	// the index inspects before returning the top K. Trades recall for latency.
	PoolSize     int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit, ordered by descending similarity.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
