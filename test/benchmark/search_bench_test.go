package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
	"github.com/hyperjump/bizsearch/internal/ranking"
	"github.com/hyperjump/bizsearch/internal/search"
	"github.com/hyperjump/bizsearch/internal/storage"
)

func candidates(n int) []models.BusinessRecord {
	out := make([]models.BusinessRecord, n)
	for i := range out {
		r := 3.0 + float64(i%20)/10
		out[i] = models.BusinessRecord{
			ID:             int64(i + 1),
			Name:           fmt.Sprintf("Clinic %d", i),
			Address:        fmt.Sprintf("%d Main Road", i),
			City:           "Pune",
			Category:       "Dentist",
			Subcategory:    "Dental Clinic",
			PhoneNumber:    fmt.Sprintf("020 %06d", i),
			ReviewsCount:   i * 7 % 900,
			ReviewsAverage: &r,
			CreatedAt:      "2025-01-02 03:04:05",
		}
	}
	return out
}

func BenchmarkRank(b *testing.B) {
	rows := candidates(storage.MaxLookupRows)
	ranker := ranking.NewRanker(nil, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ranker.Rank(rows, "best dental clinic in pune", 10)
	}
}

func BenchmarkRankWithLinearModel(b *testing.B) {
	rows := candidates(storage.MaxLookupRows)
	model := &ranking.LinearScorer{Weights: []float64{0.9, 0.4, 0.3, 0.05}}
	ranker := ranking.NewRanker(nil, ranking.NewModelHandle(model, "bench"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ranker.Rank(rows, "best dental clinic in pune", 10)
	}
}

func BenchmarkBuildAndCompilePredicate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		p := query.BuildPredicate("best dental clinic near station in pune")
		_, _ = storage.CompileLookup(p, storage.MaxLookupRows, storage.DialectSQLite)
	}
}

func BenchmarkEngineSearchSQLite(b *testing.B) {
	store, err := storage.NewSQLiteStorage(filepath.Join(b.TempDir(), "catalog.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	rows := candidates(2000)
	batch := make([]*models.BusinessRecord, len(rows))
	for i := range rows {
		batch[i] = &rows[i]
	}
	if err := store.BatchCreateBusinesses(context.Background(), batch); err != nil {
		b.Fatal(err)
	}
	engine := search.NewEngine(store, ranking.NewRanker(nil, nil))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Search(ctx, &models.SearchQuery{Query: "best clinic in pune"}); err != nil {
			b.Fatal(err)
		}
	}
}
