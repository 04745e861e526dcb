package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// --- Mocks ---

type mockRepo struct {
	page     result.Page
	findErr  error
	hits     []result.Hit
	rankErr  error
	lastExpr *query.Expression
	lastCnt  *query.CountExpression
}

func (m *mockRepo) Find(_ context.Context, expr *query.Expression, count *query.CountExpression) (result.Page, error) {
	m.lastExpr, m.lastCnt = expr, count
	return m.page, m.findErr
}

func (m *mockRepo) Rank(_ context.Context, expr *query.Expression) ([]result.Hit, error) {
	m.lastExpr = expr
	return m.hits, m.rankErr
}

type mockRecords struct {
	byID    map[string]domain.Record
	findErr error
	asked   []string
}

func (m *mockRecords) FindByIDs(_ context.Context, ids []string) ([]domain.Record, error) {
	m.asked = ids
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []domain.Record
	// reverse order to prove ranking comes from the engine
	for i := len(ids) - 1; i >= 0; i-- {
		if r, ok := m.byID[ids[i]]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecords) Get(_ context.Context, id string) (domain.Record, error) {
	r, ok := m.byID[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return r, nil
}

type mockVectors struct {
	err   error
	texts []string
}

func (m *mockVectors) EmbedOne(_ context.Context, text string) ([]float32, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2}, nil
}

func newTestService(repo *mockRepo, recs *mockRecords, opts ...Option) (*Service, *mockVectors) {
	v := &mockVectors{}
	return New(repo, recs, v, zap.NewNop(), opts...), v
}

// --- Tests ---

func TestSearch_ReturnsPage(t *testing.T) {
	repo := &mockRepo{page: result.Page{IDs: []string{"d1", "d2"}, Total: 1234}}
	svc, _ := newTestService(repo, &mockRecords{})

	page, err := svc.Search(context.Background(), query.Params{Term: "bike", Categories: []string{"health"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1234 || len(page.IDs) != 2 {
		t.Errorf("page = %+v", page)
	}
	if repo.lastExpr.Size != query.DefaultLimit {
		t.Errorf("size = %d, want default %d", repo.lastExpr.Size, query.DefaultLimit)
	}
	if repo.lastCnt == nil {
		t.Error("count expression must always be sent")
	}
}

func TestSearch_ConfiguredDefaultLimit(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(repo, &mockRecords{}, WithDefaultLimit(7))

	if _, err := svc.Search(context.Background(), query.Params{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if repo.lastExpr.Size != 7 {
		t.Errorf("size = %d, want 7", repo.lastExpr.Size)
	}
}

func TestSearch_EngineFailurePropagates(t *testing.T) {
	repo := &mockRepo{findErr: domain.ErrEngineQueryFailed}
	svc, _ := newTestService(repo, &mockRecords{})

	_, err := svc.Search(context.Background(), query.Params{Term: "x"})
	if !errors.Is(err, domain.ErrEngineQueryFailed) {
		t.Fatalf("expected ErrEngineQueryFailed, got %v", err)
	}
}

func TestSearch_InvalidParams(t *testing.T) {
	svc, _ := newTestService(&mockRepo{}, &mockRecords{})

	_, err := svc.Search(context.Background(), query.Params{Offset: -1})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSimilar_PreservesEngineOrder(t *testing.T) {
	repo := &mockRepo{hits: []result.Hit{{ID: "d1", Score: 0.91}, {ID: "d2", Score: 0.77}}}
	recs := &mockRecords{byID: map[string]domain.Record{
		"d1": {ID: "d1", Name: "Bike lanes"},
		"d2": {ID: "d2", Name: "Crashes"},
	}}
	svc, _ := newTestService(repo, recs)

	got, err := svc.Similar(context.Background(), "bicycle safety data", "")
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Record.ID != "d1" || got[0].Score != 0.91 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Record.ID != "d2" || got[1].Score != 0.77 {
		t.Errorf("second = %+v", got[1])
	}
	if repo.lastExpr.Size != query.DefaultSimilarLimit {
		t.Errorf("size = %d, want %d", repo.lastExpr.Size, query.DefaultSimilarLimit)
	}
	if _, ok := repo.lastExpr.Query.(query.ScriptScore); !ok {
		t.Errorf("expected script_score query, got %T", repo.lastExpr.Query)
	}
}

func TestSimilar_EngineFailureDegradesToEmpty(t *testing.T) {
	repo := &mockRepo{rankErr: errors.New("1 of 5 shards failed")}
	recs := &mockRecords{}
	svc, _ := newTestService(repo, recs)

	got, err := svc.Similar(context.Background(), "bicycle", "p1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
	if recs.asked != nil {
		t.Error("records must not be resolved after an engine failure")
	}
}

func TestSimilar_EmbedFailurePropagates(t *testing.T) {
	svc, v := newTestService(&mockRepo{}, &mockRecords{})
	v.err = domain.ErrModelUnavailable

	_, err := svc.Similar(context.Background(), "bicycle", "")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestSimilar_EmptyText(t *testing.T) {
	svc, _ := newTestService(&mockRepo{}, &mockRecords{})

	_, err := svc.Similar(context.Background(), "  ", "")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSimilar_ConfiguredCap(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(repo, &mockRecords{}, WithSimilarLimit(5))

	if _, err := svc.Similar(context.Background(), "x", ""); err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if repo.lastExpr.Size != 5 {
		t.Errorf("size = %d, want 5", repo.lastExpr.Size)
	}
}

func TestSimilarToRecord(t *testing.T) {
	recs := &mockRecords{byID: map[string]domain.Record{
		"d9": {ID: "d9", Name: "Bike lanes", Description: "Protected lanes"},
	}}
	svc, v := newTestService(&mockRepo{}, recs)

	if _, err := svc.SimilarToRecord(context.Background(), "d9", ""); err != nil {
		t.Fatalf("SimilarToRecord: %v", err)
	}
	if len(v.texts) != 1 || v.texts[0] != "Bike lanes. Protected lanes" {
		t.Errorf("embedded texts = %v", v.texts)
	}

	_, err := svc.SimilarToRecord(context.Background(), "missing", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
