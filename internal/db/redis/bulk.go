package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecsync/internal/db"
)

// BulkUpsert writes documents as hashes in a single DoMulti round-trip.
// HSET only touches the given fields, so existing documents are merged.
func (s *Store) BulkUpsert(ctx context.Context, _ string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(docs))
	for i := range docs {
		cmd := s.b().Hset().Key(s.key(docs[i].ID)).FieldValue()
		for _, name := range slices.Sorted(maps.Keys(docs[i].Fields)) {
			cmd = cmd.FieldValue(name, encodeField(docs[i].Fields[name]))
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpBulkUpsert, Err: fmt.Errorf("document %s: %w", docs[i].ID, err)}
		}
	}
	return nil
}

// BulkDelete removes document hashes in a single DoMulti round-trip.
func (s *Store) BulkDelete(ctx context.Context, _ string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = s.b().Del().Key(s.key(id)).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpBulkDelete, Err: fmt.Errorf("document %s: %w", ids[i], err)}
		}
	}
	return nil
}

func encodeField(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, tagSeparator)
	case bool:
		return strconv.FormatBool(v)
	case []float32:
		return vectorToBytes(v)
	default:
		return fmt.Sprint(v)
	}
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
