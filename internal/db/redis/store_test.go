package redis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

// --- index.go tests ---

func testDefinition() *db.IndexDefinition {
	ac := db.Autocomplete{SubField: "complete", MinGram: 1, MaxGram: 30, Lowercase: true}
	return db.NewIndex("datasets").
		TextWithAutocomplete("title", ac).
		Keyword("portal").
		KeywordList("categories").
		Boolean("isTest").
		Vector("vector", 512, db.VectorFlat, db.DistanceCosine).
		MustBuild()
}

func TestCreateIndex_Args(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), testDefinition()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"FT.CREATE", "datasets", "ON", "HASH", "PREFIX", "1", "dataset:", "SCHEMA",
		"title", "TEXT", "title", "AS", "title_complete", "TEXT", "NOSTEM",
		"portal", "TAG", "SEPARATOR", "|",
		"categories", "TAG", "SEPARATOR", "|",
		"isTest", "TAG", "SEPARATOR", "|",
		"vector", "VECTOR", "FLAT", "6", "TYPE", "FLOAT32", "DIM", "512", "DISTANCE_METRIC", "COSINE",
	}
	if !slices.Equal(got, want) {
		t.Errorf("FT.CREATE args\n got %v\nwant %v", got, want)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), testDefinition())
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Invalid(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "idx"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "datasets", "DD")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "datasets"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "datasets")).
			Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("datasets")))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "datasets")).
			Return(mock.Result(mock.RedisError("Unknown Index name"))),
	)

	s := NewStoreForTest(c)
	if ok, err := s.IndexExists(context.Background(), "datasets"); err != nil || !ok {
		t.Errorf("first probe = %v, %v", ok, err)
	}
	if ok, err := s.IndexExists(context.Background(), "datasets"); err != nil || ok {
		t.Errorf("second probe = %v, %v", ok, err)
	}
}

// --- bulk.go tests ---

func TestBulkUpsert_Pipelined(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var cmds [][]string
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
			out := make([]rueidis.RedisResult, len(multi))
			for i, m := range multi {
				cmds = append(cmds, m.Commands())
				out[i] = mock.Result(mock.RedisInt64(4))
			}
			return out
		})

	s := NewStoreForTest(c)
	err := s.BulkUpsert(context.Background(), "datasets", []db.Document{
		{ID: "d1", Fields: map[string]any{
			"title":      "Bikes",
			"categories": []string{"transport", "city"},
			"isTest":     false,
			"vector":     []float32{1, 0},
		}},
		{ID: "d2", Fields: map[string]any{"title": "Trees"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	first := cmds[0]
	if first[0] != "HSET" || first[1] != "dataset:d1" {
		t.Fatalf("unexpected command %v", first[:2])
	}
	// fields are written in sorted order
	wantHead := []string{"categories", "transport|city", "isTest", "false", "title", "Bikes", "vector"}
	if !slices.Equal(first[2:9], wantHead) {
		t.Errorf("fields = %v, want prefix %v", first[2:9], wantHead)
	}
	if len(first[9]) != 8 {
		t.Errorf("vector blob len = %d, want 8", len(first[9]))
	}
}

func TestBulkUpsert_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.ErrorResult(errors.New("OOM")),
		})

	s := NewStoreForTest(c)
	err := s.BulkUpsert(context.Background(), "datasets", []db.Document{
		{ID: "d1", Fields: map[string]any{"title": "a"}},
		{ID: "d2", Fields: map[string]any{"title": "b"}},
	})
	if !isDBError(err) || !strings.Contains(err.Error(), "d2") {
		t.Errorf("expected db.Error naming d2, got %v", err)
	}
}

func TestBulkDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var keys []string
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
			out := make([]rueidis.RedisResult, len(multi))
			for i, m := range multi {
				keys = append(keys, m.Commands()[1])
				out[i] = mock.Result(mock.RedisInt64(1))
			}
			return out
		})

	s := NewStoreForTest(c)
	if err := s.BulkDelete(context.Background(), "datasets", []string{"d5", "d6", "d7"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(keys, []string{"dataset:d5", "dataset:d6", "dataset:d7"}) {
		t.Errorf("keys = %v", keys)
	}
}

func TestBulk_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if err := s.BulkUpsert(context.Background(), "datasets", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.BulkDelete(context.Background(), "datasets", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- render.go tests ---

func TestRenderClause(t *testing.T) {
	tests := []struct {
		name   string
		clause query.Clause
		want   string
	}{
		{"match all", query.MatchAll{}, "*"},
		{"tag", query.Match{Field: "portal", Value: "nyc"}, "@portal:{nyc}"},
		{"tag escaped", query.Match{Field: "columns", Value: "zip code"}, `@columns:{zip\ code}`},
		{"bool tag", query.Match{Field: "isTest", Value: true}, "@isTest:{true}"},
		{
			"multi match fuzz by length",
			query.MultiMatch{Fields: []string{"title", "description"}, Query: "NY bike-lanes safety", Fuzziness: "AUTO"},
			"@title|description:(ny|%bike%|%lanes%|%%safety%%)",
		},
		{
			"multi match exact",
			query.MultiMatch{Fields: []string{"title"}, Query: "bike"},
			"@title:(bike)",
		},
		{"multi match no terms", query.MultiMatch{Fields: []string{"title"}, Query: "--"}, "*"},
		{
			"bool drops match all",
			query.Bool{Must: []query.Clause{query.MatchAll{}, query.Match{Field: "portal", Value: "sf"}}},
			"(@portal:{sf})",
		},
		{"bool only match all", query.Bool{Must: []query.Clause{query.MatchAll{}}}, "*"},
		{
			"boosting over match all",
			query.Boosting{Positive: query.MatchAll{}, Negative: query.Match{Field: "isTest", Value: true}, NegativeBoost: 0.01},
			"(-(@isTest:{true})) | (((@isTest:{true})) => { $weight: 0.01; })",
		},
		{
			"boosting over term",
			query.Boosting{
				Positive:      query.Match{Field: "portal", Value: "sf"},
				Negative:      query.Match{Field: "isTest", Value: true},
				NegativeBoost: 0.01,
			},
			"((@portal:{sf}) -(@isTest:{true})) | (((@portal:{sf}) (@isTest:{true})) => { $weight: 0.01; })",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderClause(tt.clause)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestRenderClause_Unsupported(t *testing.T) {
	_, err := renderClause(query.ScriptScore{})
	if !errors.Is(err, db.ErrUnsupportedClause) {
		t.Errorf("expected ErrUnsupportedClause, got %v", err)
	}
}

func TestRenderKNN(t *testing.T) {
	expr := query.Similar([]float32{1}, "", 50)
	got, err := renderKNN(expr.Query.(query.ScriptScore), 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != "*=>[KNN 50 @vector $BLOB AS __vector_score]" {
		t.Errorf("got %s", got)
	}

	expr = query.Similar([]float32{1}, "sf", 5)
	got, _ = renderKNN(expr.Query.(query.ScriptScore), 5)
	if got != "(@portal:{sf})=>[KNN 5 @vector $BLOB AS __vector_score]" {
		t.Errorf("got %s", got)
	}

	_, err = renderKNN(query.ScriptScore{Script: "doc['x'].value"}, 5)
	if !errors.Is(err, db.ErrUnsupportedClause) {
		t.Errorf("expected ErrUnsupportedClause, got %v", err)
	}
}

// --- search.go tests ---

func TestSearch_Similar(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && strings.Contains(cmd[2], "KNN 50") &&
				slices.Contains(cmd, "SORTBY")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("dataset:d1"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.18")),
			mock.RedisString("dataset:d2"),
			mock.RedisArray(mock.RedisString("__vector_score"), mock.RedisString("0.46")),
		)))

	s := NewStoreForTest(c)
	expr := query.Similar([]float32{0.1, 0.2}, "", 50)
	res, err := s.Search(context.Background(), "datasets", &expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].ID != "d1" || res.Entries[1].ID != "d2" {
		t.Errorf("ids = %s, %s", res.Entries[0].ID, res.Entries[1].ID)
	}
	// distance 0.18 maps to (cos+1)/2 = 0.91
	if sc := res.Entries[0].Score; sc < 0.909 || sc > 0.911 {
		t.Errorf("score = %f, want ~0.91", sc)
	}
	if _, ok := res.Entries[0].Fields["__vector_score"]; ok {
		t.Error("score field should be stripped")
	}
}

func TestSearch_Keyword(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(31),
			mock.RedisString("dataset:d1"),
			mock.RedisString("2.5"),
			mock.RedisArray(mock.RedisString("title"), mock.RedisString("Bike lanes")),
		)))

	s := NewStoreForTest(c)
	expr, _, err := query.Build(query.Params{Term: "bike", Offset: 20, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Search(context.Background(), "datasets", &expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 31 || len(res.Entries) != 1 {
		t.Fatalf("result = %+v", res)
	}
	e := res.Entries[0]
	if e.ID != "d1" || e.Score != 2.5 || e.Fields["title"] != "Bike lanes" {
		t.Errorf("entry = %+v", e)
	}

	tail := got[3:]
	want := []string{"WITHSCORES", "RETURN", "1", "title", "LIMIT", "20", "10", "DIALECT", "2"}
	if !slices.Equal(tail, want) {
		t.Errorf("args = %v, want %v", tail, want)
	}
}

func TestSearch_NoContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && slices.Contains(cmd, "NOCONTENT")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("dataset:a"), mock.RedisString("1"),
			mock.RedisString("dataset:b"), mock.RedisString("0.5"),
		)))

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), "datasets", &query.Expression{Query: query.MatchAll{}, Size: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 2 || res.Entries[1].ID != "b" || res.Entries[1].Score != 0.5 {
		t.Errorf("entries = %+v", res.Entries)
	}
}

func TestSearch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	expr := query.Similar([]float32{1}, "", 0)
	_, err := s.Search(context.Background(), "datasets", &expr)
	if !isDBError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

func TestCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			n := len(cmd)
			return cmd[0] == "FT.SEARCH" && cmd[n-4] == "0" && cmd[n-3] == "0" &&
				!strings.Contains(cmd[2], "$weight")
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	_, count, _ := query.Build(query.Params{Term: "trees"})
	n, err := s.Count(context.Background(), "datasets", &count)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestVectorToBytes(t *testing.T) {
	b := vectorToBytes([]float32{1.0, 2.0})
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
