package db

// ScoreQuery is the input for a shifted-cosine scoring search: every
// indexed record is scored against Vector and the top K come back in
// descending score order.
type ScoreQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a scoring search.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single record hit. Score is the shifted cosine
// similarity in [0, 2] regardless of driver.
type SearchEntry struct {
	ID     string
	Score  float64
	Fields map[string]string
}
