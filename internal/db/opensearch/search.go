package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

type shards struct {
	Total    int            `json:"total"`
	Failed   int            `json:"failed"`
	Failures []shardFailure `json:"failures"`
}

type searchResponse struct {
	Shards shards `json:"_shards"`
	Hits   struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string         `json:"_id"`
			Score  *float64       `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count  int    `json:"count"`
	Shards shards `json:"_shards"`
}

// Search runs a ranked query.
func (s *Store) Search(ctx context.Context, index string, expr *query.Expression) (*db.SearchResult, error) {
	body, err := renderSearch(expr)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: parseError(res)}
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := out.Shards.err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	result := &db.SearchResult{
		Total:   parseTotal(out.Hits.Total),
		Entries: make([]db.SearchEntry, 0, len(out.Hits.Hits)),
	}
	for _, h := range out.Hits.Hits {
		e := db.SearchEntry{ID: h.ID}
		if h.Score != nil {
			e.Score = *h.Score
		}
		if len(h.Source) > 0 {
			e.Fields = make(map[string]string, len(h.Source))
			for k, v := range h.Source {
				if str, ok := v.(string); ok {
					e.Fields[k] = str
				}
			}
		}
		result.Entries = append(result.Entries, e)
	}
	return result, nil
}

// Count returns the exact number of matches via _count, unaffected by
// the search window cap.
func (s *Store) Count(ctx context.Context, index string, expr *query.CountExpression) (int, error) {
	q, err := renderClause(expr.Query)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	body, err := json.Marshal(map[string]any{"query": q})
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}

	res, err := opensearchapi.CountRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, &db.Error{Op: db.OpCount, Err: parseError(res)}
	}

	var out countResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := out.Shards.err(); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return out.Count, nil
}

func (s shards) err() error {
	if s.Failed == 0 {
		return nil
	}
	if len(s.Failures) > 0 {
		r := s.Failures[0].Reason
		return fmt.Errorf("%d of %d shards failed: %s: %s", s.Failed, s.Total, r.Type, r.Reason)
	}
	return fmt.Errorf("%d of %d shards failed", s.Failed, s.Total)
}

// parseTotal accepts both {"value": n} and a bare number.
func parseTotal(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

func renderSearch(expr *query.Expression) ([]byte, error) {
	q, err := renderClause(expr.Query)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"query": q}
	if expr.From > 0 {
		body["from"] = expr.From
	}
	if expr.Size > 0 {
		body["size"] = expr.Size
	}
	if expr.Source != nil {
		body["_source"] = expr.Source
	}
	return json.Marshal(body)
}

func renderClause(c query.Clause) (map[string]any, error) {
	switch c := c.(type) {
	case query.MatchAll:
		return map[string]any{"match_all": map[string]any{}}, nil

	case query.MultiMatch:
		mm := map[string]any{
			"fields": c.Fields,
			"query":  c.Query,
		}
		if c.Fuzziness != "" {
			mm["fuzziness"] = c.Fuzziness
		}
		return map[string]any{"multi_match": mm}, nil

	case query.Match:
		return map[string]any{"match": map[string]any{c.Field: c.Value}}, nil

	case query.Boosting:
		pos, err := renderClause(c.Positive)
		if err != nil {
			return nil, err
		}
		neg, err := renderClause(c.Negative)
		if err != nil {
			return nil, err
		}
		return map[string]any{"boosting": map[string]any{
			"positive":       pos,
			"negative":       neg,
			"negative_boost": c.NegativeBoost,
		}}, nil

	case query.Bool:
		must := make([]any, 0, len(c.Must))
		for _, sub := range c.Must {
			r, err := renderClause(sub)
			if err != nil {
				return nil, err
			}
			must = append(must, r)
		}
		return map[string]any{"bool": map[string]any{"must": must}}, nil

	case query.ScriptScore:
		inner, err := renderClause(c.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"script_score": map[string]any{
			"query": inner,
			"script": map[string]any{
				"source": c.Script,
				"params": map[string]any{"query_vector": c.Vector},
			},
		}}, nil

	default:
		return nil, fmt.Errorf("%w: %T", db.ErrUnsupportedClause, c)
	}
}
