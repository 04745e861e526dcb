package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kailas-cloud/vecsync/internal/db"
)

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkUpdate struct {
	Doc         map[string]any `json:"doc"`
	DocAsUpsert bool           `json:"doc_as_upsert"`
}

type bulkResponse struct {
	Errors bool                           `json:"errors"`
	Items  []map[string]bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Error  *errorCause `json:"error,omitempty"`
}

// BulkUpsert sends update/doc_as_upsert pairs in one _bulk request.
func (s *Store) BulkUpsert(ctx context.Context, index string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range docs {
		meta := map[string]bulkMeta{"update": {Index: index, ID: docs[i].ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(bulkUpdate{Doc: docs[i].Fields, DocAsUpsert: true}); err != nil {
			return fmt.Errorf("encode document %s: %w", docs[i].ID, err)
		}
	}

	return s.bulk(ctx, db.OpBulkUpsert, index, &buf)
}

// BulkDelete sends delete actions in one _bulk request. Missing documents are not errors.
func (s *Store) BulkDelete(ctx context.Context, index string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if err := enc.Encode(map[string]bulkMeta{"delete": {Index: index, ID: id}}); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
	}

	return s.bulk(ctx, db.OpBulkDelete, index, &buf)
}

func (s *Store) bulk(ctx context.Context, op, index string, body *bytes.Buffer) error {
	res, err := opensearchapi.BulkRequest{
		Index: index,
		Body:  body,
	}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return &db.Error{Op: op, Err: parseError(res)}
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("decode bulk response: %w", err)}
	}
	if !out.Errors {
		return nil
	}
	for _, item := range out.Items {
		for action, r := range item {
			if r.Error != nil {
				return &db.Error{Op: op, Err: fmt.Errorf("%s %s: status %d: %s: %s",
					action, r.ID, r.Status, r.Error.Type, r.Error.Reason)}
			}
		}
	}
	return &db.Error{Op: op, Err: errors.New("bulk reported errors")}
}
