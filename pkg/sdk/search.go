package vecsync

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// searchUseCase is the internal interface for queries.
type searchUseCase interface {
	Search(ctx context.Context, p query.Params) (result.Page, error)
	Similar(ctx context.Context, text, portal string) ([]result.Scored, error)
	SimilarToRecord(ctx context.Context, id, portal string) ([]result.Scored, error)
}

// Search runs a keyword search with facet filters.
func (c *Client) Search(ctx context.Context, q SearchQuery) (_ SearchPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	page, err := c.searchSvc.Search(ctx, toQueryParams(&q))
	if err != nil {
		return SearchPage{}, err
	}
	return SearchPage{IDs: page.IDs, Total: page.Total}, nil
}

// Similar returns records whose vectors are closest to text, optionally
// within one portal. An engine failure yields an empty result, not an error.
func (c *Client) Similar(ctx context.Context, text, portal string) (_ []ScoredRecord, err error) {
	start := time.Now()
	defer func() { c.obs.observe("similar", start, err) }()

	items, err := c.searchSvc.Similar(ctx, text, portal)
	if err != nil {
		return nil, err
	}
	return fromScored(items), nil
}

// SimilarToRecord is Similar seeded with a stored record's text.
func (c *Client) SimilarToRecord(ctx context.Context, id, portal string) (_ []ScoredRecord, err error) {
	start := time.Now()
	defer func() { c.obs.observe("similar_to_record", start, err) }()

	items, err := c.searchSvc.SimilarToRecord(ctx, id, portal)
	if err != nil {
		return nil, err
	}
	return fromScored(items), nil
}
