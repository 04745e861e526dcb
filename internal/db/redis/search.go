package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

const defaultLimit = 10

// Search runs a ranked query via FT.SEARCH. A ScriptScore root is executed as KNN.
func (s *Store) Search(ctx context.Context, index string, expr *query.Expression) (*db.SearchResult, error) {
	size := expr.Size
	if size <= 0 {
		size = defaultLimit
	}

	if ss, ok := expr.Query.(query.ScriptScore); ok {
		return s.searchKNN(ctx, index, ss, size, expr.Source)
	}

	q, err := renderClause(expr.Query)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	args := []string{index, q, "WITHSCORES"}
	if len(expr.Source) == 0 {
		args = append(args, "NOCONTENT")
	} else {
		args = append(args, "RETURN", strconv.Itoa(len(expr.Source)))
		args = append(args, expr.Source...)
	}
	args = append(args,
		"LIMIT", strconv.Itoa(expr.From), strconv.Itoa(size),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return s.parseScoredResult(raw, len(expr.Source) > 0)
}

// Count returns the exact number of matches via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context, index string, expr *query.CountExpression) (int, error) {
	q, err := renderClause(expr.Query)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, q, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func (s *Store) searchKNN(
	ctx context.Context, index string, ss query.ScriptScore, k int, source []string,
) (*db.SearchResult, error) {
	if len(ss.Vector) == 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("vector is required")}
	}
	q, err := renderKNN(ss, k)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	ret := append([]string{scoreField}, source...)
	args := []string{index, q, "RETURN", strconv.Itoa(len(ret))}
	args = append(args, ret...)
	args = append(args,
		"SORTBY", scoreField, "ASC",
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", vectorParam, vectorToBytes(ss.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return s.parseKNNResult(raw)
}

// --- Result parsing ---

func (s *Store) parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			ID:     s.id(key),
			Fields: parseFieldPairs(fields),
		}

		if scoreStr, ok := entry.Fields[scoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				// cosine distance is 1-cos, so (cos+1)/2 == 1-d/2
				entry.Score = min(1, max(0, 1-d/2))
			}
			delete(entry.Fields, scoreField)
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func (s *Store) parseScoredResult(raw []rueidis.RedisMessage, withFields bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	// 3-stride with fields: [total, key1, score1, fields1, ...]
	// 2-stride without:     [total, key1, score1, ...]
	stride := 2
	if withFields {
		stride = 3
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		entry := db.SearchEntry{ID: s.id(key), Score: score}
		if withFields {
			if fields, err := raw[i+2].ToArray(); err == nil {
				entry.Fields = parseFieldPairs(fields)
			}
		}
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
