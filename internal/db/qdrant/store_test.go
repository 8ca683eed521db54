package qdrant

import (
	"context"
	"testing"

	"github.com/kailas-cloud/askdex/internal/db"
)

func TestNewStore_RequiresURL(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestNewStore_BadPort(t *testing.T) {
	if _, err := NewStore(Config{URL: "https://qdrant.local:notaport"}); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestScoreQuery_Validation(t *testing.T) {
	s := &Store{}

	tests := []struct {
		name string
		q    *db.ScoreQuery
	}{
		{"empty index", &db.ScoreQuery{Vector: []float32{1}, K: 1}},
		{"empty vector", &db.ScoreQuery{IndexName: "idx", K: 1}},
		{"zero k", &db.ScoreQuery{IndexName: "idx", Vector: []float32{1}}},
		{"negative k", &db.ScoreQuery{IndexName: "idx", Vector: []float32{1}, K: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ScoreQuery(context.Background(), tt.q); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWanted(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		field  string
		want   bool
	}{
		{"no filter passes all", nil, "__title", true},
		{"listed field", []string{"__title", "__body"}, "__body", true},
		{"unlisted field", []string{"__title"}, "tags", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wanted(tt.fields, tt.field); got != tt.want {
				t.Errorf("wanted(%v, %q) = %v, want %v", tt.fields, tt.field, got, tt.want)
			}
		})
	}
}
