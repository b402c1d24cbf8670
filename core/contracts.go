package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-tokens/filter"
)

// TokenStore is the persistence boundary of the manager.
type TokenStore interface {
	// Find returns the matching token with the lowest id, or nil.
	Find(ctx context.Context, cond filter.Condition) (*Token, error)
	// Save inserts a token without an id, otherwise updates its code,
	// remaining uses and expiration.
	Save(ctx context.Context, token Token) (Token, error)
	Delete(ctx context.Context, token Token) (int64, error)
	// RemoveMatching rejects an empty condition with an invalid argument error.
	RemoveMatching(ctx context.Context, cond filter.Condition) (int64, error)
	// NormalizeEntityName resolves a logical entity reference to the name
	// stored on tokens.
	NormalizeEntityName(ctx context.Context, name string) (string, error)
}

// TableBoundStore is a store that writes to a named table. NewManager
// requires the name to match Config.Table.
type TableBoundStore interface {
	Table() string
}

// TransactionalStore runs fn against a store bound to a single transaction.
type TransactionalStore interface {
	TokenStore
	RunInTx(ctx context.Context, fn func(ctx context.Context, store TokenStore) error) error
}

// TokenLister is implemented by stores that can page through a triple's
// tokens without mutating them.
type TokenLister interface {
	List(ctx context.Context, req ListRequest) (ListResult, error)
}

type CodeGenerator interface {
	Generate(length int, opts CodeOptions) (string, error)
}

type TokenService interface {
	Create(ctx context.Context, req CreateRequest) (Token, error)
	Redeem(ctx context.Context, code string, tokenType string) (*Token, error)
	RemoveAllOfType(ctx context.Context, entityName string, entityID int64, tokenType string) (int64, error)
	Remove(ctx context.Context, token Token) (int64, error)
	FindActive(ctx context.Context, spec filter.Spec) (*Token, error)
	List(ctx context.Context, req ListRequest) (ListResult, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Clock func() time.Time

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
