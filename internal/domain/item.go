package domain

import (
	"fmt"
	"strings"
)

// Kind classifies a source record. Only questions are indexed;
// answers are filtered out before they reach the pipelines.
type Kind string

// Record kinds as they appear in the source stream's "type" field.
const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

// ParseKind parses the source "type" field case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(KindQuestion):
		return KindQuestion, nil
	case string(KindAnswer):
		return KindAnswer, nil
	default:
		return "", fmt.Errorf("unknown record type %q: %w", s, ErrInputFormat)
	}
}

// Item is the unit of retrieval. Title is the source of the embedding;
// Body is stored but never embedded. Meta fields pass through opaquely.
// Vector is attached during ingestion and immutable afterwards.
type Item struct {
	ID     string
	Kind   Kind
	Title  string
	Body   string
	Vector []float32
	Meta   map[string]string
}

// Validate checks an item before it enters a batch.
// Question items require a non-empty title since the title is what gets embedded.
func (it *Item) Validate() error {
	if it.Kind != KindQuestion && it.Kind != KindAnswer {
		return fmt.Errorf("item kind %q: %w", it.Kind, ErrInputFormat)
	}
	if it.Kind == KindQuestion && strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("question item without title: %w", ErrInputFormat)
	}
	return nil
}
