package indexsync

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/repository/index"
)

// --- Mocks ---

type mockRecords struct {
	records      []domain.Record
	countErr     error
	pageErr      error
	shrinkTo     int // if > 0, pages past this many records come back empty
	pageOffsets  []int
	portalCounts int
}

func (m *mockRecords) CountAll(_ context.Context, _ time.Time) (int, error) {
	return len(m.records), m.countErr
}

func (m *mockRecords) CountForPortals(_ context.Context, portalIDs []string, _ time.Time) (int, error) {
	m.portalCounts++
	n := 0
	for i := range m.records {
		if slices.Contains(portalIDs, m.records[i].PortalID) {
			n++
		}
	}
	return n, m.countErr
}

func (m *mockRecords) FindPage(
	_ context.Context, limit, offset int, _ []string, _ time.Time,
) ([]domain.Record, error) {
	m.pageOffsets = append(m.pageOffsets, offset)
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	end := len(m.records)
	if m.shrinkTo > 0 {
		end = m.shrinkTo
	}
	if offset >= end {
		return nil, nil
	}
	return m.records[offset:min(offset+limit, end)], nil
}

type writeCall struct {
	batch int
	ids   []string
	docs  []domain.IndexDocument
}

type mockWriter struct {
	ensureErr  error
	recreated  []bool
	writes     []writeCall
	deletes    []writeCall
	failOnID   string
	deleteErr  error
	engineFail error
}

func (m *mockWriter) Name() string { return "datasets" }

func (m *mockWriter) EnsureIndex(_ context.Context, recreate bool) (index.Outcome, error) {
	m.recreated = append(m.recreated, recreate)
	if m.ensureErr != nil {
		return "", m.ensureErr
	}
	return index.OutcomeCreated, nil
}

func (m *mockWriter) WriteBatch(_ context.Context, batch int, docs []domain.IndexDocument) error {
	call := writeCall{batch: batch, docs: docs}
	for _, d := range docs {
		call.ids = append(call.ids, d.ID)
	}
	m.writes = append(m.writes, call)
	if m.failOnID != "" && slices.Contains(call.ids, m.failOnID) {
		return domain.NewBatchError(domain.BatchWrite, batch, len(docs), m.engineFail)
	}
	return nil
}

func (m *mockWriter) DeleteBatch(_ context.Context, batch int, ids []string) error {
	m.deletes = append(m.deletes, writeCall{batch: batch, ids: ids})
	if m.deleteErr != nil {
		return domain.NewBatchError(domain.BatchDelete, batch, len(ids), m.deleteErr)
	}
	return nil
}

type mockVectors struct {
	dim   int
	calls int
	err   error
}

func (m *mockVectors) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, m.dim)
		out[i][0] = 1
	}
	return out, nil
}

func (m *mockVectors) Dimensions() int { return m.dim }

// --- Helpers ---

func makeRecords(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{
			ID:          fmt.Sprintf("r%04d", i),
			Name:        fmt.Sprintf("Dataset %d", i),
			Description: "desc",
			PortalID:    "p1",
		}
	}
	return out
}

func newTestService(t *testing.T, n int) (*Service, *mockRecords, *mockWriter, *mockVectors) {
	t.Helper()
	recs := &mockRecords{records: makeRecords(n)}
	w := &mockWriter{}
	v := &mockVectors{dim: domain.DefaultVectorDimensions}
	return New(recs, w, v, Config{}, zap.NewNop()), recs, w, v
}
