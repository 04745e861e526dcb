package result

import "github.com/kailas-cloud/vecsync/internal/domain"

// Page is one window of keyword search results.
// Total is the exact match count, independent of the window.
type Page struct {
	IDs   []string
	Total int
}

// Hit is a ranked engine hit.
type Hit struct {
	ID    string
	Score float64
}

// Scored pairs a resolved record with its similarity score.
type Scored struct {
	Record domain.Record
	Score  float64
}

// Pair resolves hits against records by id, keeping hit order.
// Hits without a matching record are dropped.
func Pair(hits []Hit, records []domain.Record) []Scored {
	byID := make(map[string]*domain.Record, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}
	out := make([]Scored, 0, len(hits))
	for _, h := range hits {
		r, ok := byID[h.ID]
		if !ok {
			continue
		}
		out = append(out, Scored{Record: *r, Score: h.Score})
	}
	return out
}

// IDs returns the hit identifiers in rank order.
func IDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i := range hits {
		ids[i] = hits[i].ID
	}
	return ids
}
