package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

func mustBuild(t *testing.T, p Params) (Expression, CountExpression) {
	t.Helper()
	expr, count, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return expr, count
}

func boostingOf(t *testing.T, expr Expression) Boosting {
	t.Helper()
	b, ok := expr.Query.(Bool)
	if !ok {
		t.Fatalf("query is %T, want Bool", expr.Query)
	}
	if len(b.Must) == 0 {
		t.Fatal("empty must")
	}
	boost, ok := b.Must[0].(Boosting)
	if !ok {
		t.Fatalf("first clause is %T, want Boosting", b.Must[0])
	}
	return boost
}

func TestBuild_EmptyTermMatchesAll(t *testing.T) {
	expr, _ := mustBuild(t, Params{})
	boost := boostingOf(t, expr)
	if _, ok := boost.Positive.(MatchAll); !ok {
		t.Errorf("positive = %T, want MatchAll", boost.Positive)
	}
}

func TestBuild_TermIsFuzzyMultiMatch(t *testing.T) {
	expr, _ := mustBuild(t, Params{Term: "bike lanes"})
	boost := boostingOf(t, expr)
	mm, ok := boost.Positive.(MultiMatch)
	if !ok {
		t.Fatalf("positive = %T, want MultiMatch", boost.Positive)
	}
	if mm.Query != "bike lanes" || mm.Fuzziness != "AUTO" {
		t.Errorf("multi_match = %+v", mm)
	}
	if len(mm.Fields) != 2 || mm.Fields[0] != "title" || mm.Fields[1] != "description" {
		t.Errorf("fields = %v", mm.Fields)
	}
}

func TestBuild_TestRecordsDownWeighted(t *testing.T) {
	for _, term := range []string{"", "crime"} {
		expr, _ := mustBuild(t, Params{Term: term})
		boost := boostingOf(t, expr)
		if boost.NegativeBoost != 0.01 {
			t.Errorf("term %q: negative boost = %v", term, boost.NegativeBoost)
		}
		neg, ok := boost.Negative.(Match)
		if !ok || neg.Field != "isTest" || neg.Value != true {
			t.Errorf("term %q: negative = %+v", term, boost.Negative)
		}
	}
}

func TestBuild_FacetsAddRequiredClauses(t *testing.T) {
	for _, term := range []string{"", "hospital"} {
		expr, count := mustBuild(t, Params{
			Term:       term,
			Columns:    []string{"age"},
			Categories: []string{"health"},
		})
		must := expr.Query.(Bool).Must
		if len(must) != 3 {
			t.Fatalf("term %q: %d clauses, want 3", term, len(must))
		}
		if m := must[1].(Match); m.Field != domain.FieldColumns || m.Value != "age" {
			t.Errorf("columns clause = %+v", m)
		}
		if m := must[2].(Match); m.Field != domain.FieldCategories || m.Value != "health" {
			t.Errorf("categories clause = %+v", m)
		}
		if n := len(count.Query.(Bool).Must); n != 3 {
			t.Errorf("count has %d clauses, want 3", n)
		}
	}
}

func TestBuild_FacetOrder(t *testing.T) {
	expr, _ := mustBuild(t, Params{
		Portal:      "p1",
		Columns:     []string{"a", "b"},
		Categories:  []string{"c"},
		Departments: []string{"d"},
	})
	must := expr.Query.(Bool).Must
	want := []Match{
		{Field: "portal", Value: "p1"},
		{Field: "columns", Value: "a"},
		{Field: "columns", Value: "b"},
		{Field: "categories", Value: "c"},
		{Field: "department", Value: "d"},
	}
	if len(must) != len(want)+1 {
		t.Fatalf("got %d clauses", len(must))
	}
	for i, w := range want {
		if got := must[i+1].(Match); got != w {
			t.Errorf("clause %d = %+v, want %+v", i+1, got, w)
		}
	}
}

func TestBuild_CountMirrorsFiltersWithoutBoosting(t *testing.T) {
	expr, count := mustBuild(t, Params{Term: "school", Portal: "nyc", Offset: 40, Limit: 10})
	must := count.Query.(Bool).Must
	for _, c := range must {
		if _, ok := c.(Boosting); ok {
			t.Fatal("count expression must not carry boosting")
		}
	}
	if _, ok := must[0].(MultiMatch); !ok {
		t.Errorf("count positive = %T, want MultiMatch", must[0])
	}
	if must[1] != expr.Query.(Bool).Must[1] {
		t.Errorf("count facet %+v differs from search facet", must[1])
	}
}

func TestBuild_Pagination(t *testing.T) {
	expr, _ := mustBuild(t, Params{Offset: 40, Limit: 10})
	if expr.From != 40 || expr.Size != 10 {
		t.Errorf("from/size = %d/%d", expr.From, expr.Size)
	}
	if len(expr.Source) != 1 || expr.Source[0] != "title" {
		t.Errorf("source = %v", expr.Source)
	}

	expr, _ = mustBuild(t, Params{})
	if expr.From != 0 || expr.Size != DefaultLimit {
		t.Errorf("defaults from/size = %d/%d", expr.From, expr.Size)
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"negative offset", Params{Offset: -1}},
		{"negative limit", Params{Limit: -5}},
		{"term too long", Params{Term: strings.Repeat("x", MaxTermLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Build(tt.p)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	vec := []float32{0.1, 0.2}

	expr := Similar(vec, "", 0)
	ss, ok := expr.Query.(ScriptScore)
	if !ok {
		t.Fatalf("query = %T", expr.Query)
	}
	if _, ok := ss.Query.(MatchAll); !ok {
		t.Errorf("unrestricted base = %T", ss.Query)
	}
	if ss.Script != "(cosineSimilarity(params.query_vector, doc['vector']) + 1.0)/2.0" {
		t.Errorf("script = %q", ss.Script)
	}
	if expr.Size != DefaultSimilarLimit {
		t.Errorf("size = %d", expr.Size)
	}

	expr = Similar(vec, "sf", 5)
	ss = expr.Query.(ScriptScore)
	if m, ok := ss.Query.(Match); !ok || m.Field != "portal" || m.Value != "sf" {
		t.Errorf("portal base = %+v", ss.Query)
	}
	if expr.Size != 5 {
		t.Errorf("size = %d", expr.Size)
	}
}
