package connectors

import (
	"context"

	"go-insight/internal/features/query"
)

// TraceMeta is the pagination envelope of a trace listing.
type TraceMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// TracePage is one page of raw trace records.
type TracePage struct {
	Data []query.Row `json:"data"`
	Meta TraceMeta   `json:"meta"`
}

// QueryExecutor is the boundary to the analytics backend. Implementations
// return flat row sets; they never panic, and any transport or decoding
// problem surfaces as an error with the underlying cause retained for
// diagnostics.
type QueryExecutor interface {
	// Execute runs a declarative query and returns its rows.
	Execute(ctx context.Context, q query.QueryDescriptor) ([]query.Row, error)
	// ListTraces fetches one page of raw trace records.
	ListTraces(ctx context.Context, page, limit int, filters []query.Filter) (*TracePage, error)
	// Ping probes the backend.
	Ping(ctx context.Context) error
}
