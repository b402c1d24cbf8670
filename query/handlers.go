package query

import (
	"context"

	"github.com/goliatone/go-tokens/core"
	"github.com/goliatone/go-tokens/filter"
)

type ActiveTokenReader interface {
	FindActive(ctx context.Context, spec filter.Spec) (*core.Token, error)
}

type TokenListReader interface {
	List(ctx context.Context, req core.ListRequest) (core.ListResult, error)
}

// FindActiveTokenQuery returns nil when no active token matches.
type FindActiveTokenQuery struct {
	reader ActiveTokenReader
}

func NewFindActiveTokenQuery(reader ActiveTokenReader) *FindActiveTokenQuery {
	return &FindActiveTokenQuery{reader: reader}
}

func (q *FindActiveTokenQuery) Query(ctx context.Context, msg FindActiveTokenMessage) (*core.Token, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: active token reader is required")
	}
	return q.reader.FindActive(ctx, msg.Spec)
}

type ListTokensQuery struct {
	reader TokenListReader
}

func NewListTokensQuery(reader TokenListReader) *ListTokensQuery {
	return &ListTokensQuery{reader: reader}
}

func (q *ListTokensQuery) Query(ctx context.Context, msg ListTokensMessage) (core.ListResult, error) {
	if q == nil || q.reader == nil {
		return core.ListResult{}, queryDependencyError("query: token list reader is required")
	}
	return q.reader.List(ctx, msg.Request)
}
