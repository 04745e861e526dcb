package search

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

func TestFind(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, index string, expr *query.Expression) (*db.SearchResult, error) {
		if index != "datasets" || expr.Size != 20 {
			t.Errorf("index/size = %s/%d", index, expr.Size)
		}
		return &db.SearchResult{Total: 10000, Entries: []db.SearchEntry{{ID: "a"}, {ID: "b"}}}, nil
	}
	ms.countFn = func(_ context.Context, _ string, _ *query.CountExpression) (int, error) {
		return 25000, nil
	}

	expr, count, err := query.Build(query.Params{})
	if err != nil {
		t.Fatal(err)
	}
	page, err := repo.Find(context.Background(), &expr, &count)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(page.IDs, []string{"a", "b"}) {
		t.Errorf("ids = %v", page.IDs)
	}
	// total comes from the count query, not the capped search total
	if page.Total != 25000 {
		t.Errorf("total = %d", page.Total)
	}
}

func TestFind_Errors(t *testing.T) {
	boom := errors.New("boom")
	expr, count, _ := query.Build(query.Params{})

	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, _ *query.Expression) (*db.SearchResult, error) {
		return nil, boom
	}
	if _, err := repo.Find(context.Background(), &expr, &count); !errors.Is(err, domain.ErrEngineQueryFailed) || !errors.Is(err, boom) {
		t.Errorf("search failure: %v", err)
	}

	repo, ms = newTestRepo(t)
	ms.countFn = func(_ context.Context, _ string, _ *query.CountExpression) (int, error) {
		return 0, boom
	}
	if _, err := repo.Find(context.Background(), &expr, &count); !errors.Is(err, domain.ErrEngineQueryFailed) {
		t.Errorf("count failure: %v", err)
	}
}

func TestRank(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, _ *query.Expression) (*db.SearchResult, error) {
		return &db.SearchResult{Entries: []db.SearchEntry{
			{ID: "d1", Score: 0.91},
			{ID: "d2", Score: 0.77},
		}}, nil
	}

	expr := query.Similar([]float32{1}, "", 50)
	hits, err := repo.Rank(context.Background(), &expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "d1" || hits[0].Score != 0.91 || hits[1].ID != "d2" {
		t.Errorf("hits = %+v", hits)
	}
}
