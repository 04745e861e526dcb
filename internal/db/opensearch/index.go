package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/vecsync/internal/db"
)

// Analysis component names.
const (
	autocompleteAnalyzer       = "autocomplete_analyzer"
	autocompleteSearchAnalyzer = "autocomplete_search_analyzer"
	autocompleteTokenizer      = "autocomplete"
)

// CreateIndex creates an index with analysis settings and mappings derived from def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	body, err := s.buildCreateBody(def)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal index body: %w", err)
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: def.Name,
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		err := parseError(res)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Type == "resource_already_exists_exception" {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex deletes an index by name.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	res, err := opensearchapi.IndicesDeleteRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return db.ErrIndexNotFound
	}
	if res.IsError() {
		return &db.Error{Op: db.OpDropIndex, Err: parseError(res)}
	}
	return nil
}

// IndexExists probes the index with HEAD; 404 means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: err}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexExists, Err: fmt.Errorf("status %d", res.StatusCode)}
	}
}

func (s *Store) buildCreateBody(def *db.IndexDefinition) (map[string]any, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	props := make(map[string]any, len(def.Fields))
	var ac *db.Autocomplete
	hasKNN := false

	for i := range def.Fields {
		f := &def.Fields[i]
		switch f.Type {
		case db.IndexFieldText, db.IndexFieldKeyword:
			m := map[string]any{"type": "text"}
			if f.Autocomplete != nil {
				ac = f.Autocomplete
				m["fields"] = map[string]any{
					f.Autocomplete.SubField: map[string]any{
						"type":            "text",
						"analyzer":        autocompleteAnalyzer,
						"search_analyzer": autocompleteSearchAnalyzer,
					},
				}
			}
			props[f.Name] = m
		case db.IndexFieldBoolean:
			props[f.Name] = map[string]any{"type": "boolean"}
		case db.IndexFieldVector:
			if s.vectorType == VectorDense {
				props[f.Name] = map[string]any{"type": VectorDense, "dims": f.VectorDim}
			} else {
				hasKNN = true
				props[f.Name] = map[string]any{"type": VectorKNN, "dimension": f.VectorDim}
			}
		default:
			return nil, fmt.Errorf("unknown field type for %q", f.Name)
		}
	}

	settings := map[string]any{}
	if ac != nil {
		settings["analysis"] = analysisSettings(ac)
	}
	if hasKNN {
		settings["index"] = map[string]any{"knn": true}
	}

	body := map[string]any{
		"mappings": map[string]any{"properties": props},
	}
	if len(settings) > 0 {
		body["settings"] = settings
	}
	return body, nil
}

func analysisSettings(ac *db.Autocomplete) map[string]any {
	filter := []string{}
	if ac.Lowercase {
		filter = append(filter, "lowercase")
	}
	return map[string]any{
		"analyzer": map[string]any{
			autocompleteAnalyzer: map[string]any{
				"tokenizer": autocompleteTokenizer,
				"filter":    filter,
			},
			autocompleteSearchAnalyzer: map[string]any{
				"tokenizer": "keyword",
				"filter":    filter,
			},
		},
		"tokenizer": map[string]any{
			autocompleteTokenizer: map[string]any{
				"type":        "edge_ngram",
				"min_gram":    ac.MinGram,
				"max_gram":    ac.MaxGram,
				"token_chars": []string{"letter", "digit", "whitespace"},
			},
		},
	}
}
