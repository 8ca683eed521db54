package domain

// QueryResult is a single ranked hit. Score carries the shifted cosine
// similarity in [0, 2], not the raw cosine value. Lives for one
// query-response cycle only.
type QueryResult struct {
	ID    string
	Score float64
	Title string
	Body  string
}
