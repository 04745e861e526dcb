package query

import (
	"fmt"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// Query builder constants.
const (
	// FuzzinessAuto lets the engine pick the edit distance from term length.
	FuzzinessAuto = "AUTO"
	// TestPenalty is the negative boost applied to test records.
	TestPenalty = 0.01
	// CosineScript normalizes cosine similarity into [0,1].
	CosineScript = "(cosineSimilarity(params.query_vector, doc['vector']) + 1.0)/2.0"

	MaxTermLength = 4096
	DefaultLimit  = 20
	// DefaultSimilarLimit caps similarity results when no cap is configured.
	DefaultSimilarLimit = 50
)

// Params are keyword and facet search inputs.
type Params struct {
	Term        string
	Portal      string
	Columns     []string
	Categories  []string
	Departments []string
	Offset      int
	Limit       int
}

// Normalize validates p and fills defaults.
func (p Params) Normalize() (Params, error) {
	if len(p.Term) > MaxTermLength {
		return p, fmt.Errorf("%w: term too long (max %d chars)", domain.ErrInvalidRequest, MaxTermLength)
	}
	if p.Offset < 0 {
		return p, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidRequest)
	}
	if p.Limit < 0 {
		return p, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return p, nil
}

// Build composes the boosted search expression and its count expression.
// Both share the same facet clauses; only the search is boosted and paginated.
func Build(p Params) (Expression, CountExpression, error) {
	p, err := p.Normalize()
	if err != nil {
		return Expression{}, CountExpression{}, err
	}

	positive := relevance(p.Term)
	facets := facetClauses(&p)

	must := make([]Clause, 0, len(facets)+1)
	must = append(must, Boosting{
		Positive:      positive,
		Negative:      Match{Field: domain.FieldIsTest, Value: true},
		NegativeBoost: TestPenalty,
	})
	must = append(must, facets...)

	countMust := make([]Clause, 0, len(facets)+1)
	countMust = append(countMust, positive)
	countMust = append(countMust, facets...)

	expr := Expression{
		Query:  Bool{Must: must},
		From:   p.Offset,
		Size:   p.Limit,
		Source: []string{domain.FieldTitle},
	}
	return expr, CountExpression{Query: Bool{Must: countMust}}, nil
}

// Similar builds a cosine-scored expression, optionally restricted to portal.
func Similar(vector []float32, portal string, size int) Expression {
	if size <= 0 {
		size = DefaultSimilarLimit
	}
	var base Clause = MatchAll{}
	if portal != "" {
		base = Match{Field: domain.FieldPortal, Value: portal}
	}
	return Expression{
		Query: ScriptScore{
			Query:  base,
			Field:  domain.FieldVector,
			Script: CosineScript,
			Vector: vector,
		},
		Size: size,
	}
}

func relevance(term string) Clause {
	if term == "" {
		return MatchAll{}
	}
	return MultiMatch{
		Fields:    []string{domain.FieldTitle, domain.FieldDescription},
		Query:     term,
		Fuzziness: FuzzinessAuto,
	}
}

func facetClauses(p *Params) []Clause {
	var out []Clause
	if p.Portal != "" {
		out = append(out, Match{Field: domain.FieldPortal, Value: p.Portal})
	}
	for _, c := range p.Columns {
		out = append(out, Match{Field: domain.FieldColumns, Value: c})
	}
	for _, c := range p.Categories {
		out = append(out, Match{Field: domain.FieldCategories, Value: c})
	}
	for _, d := range p.Departments {
		out = append(out, Match{Field: domain.FieldDepartment, Value: d})
	}
	return out
}
