package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-tokens/core"
	"github.com/goliatone/go-tokens/filter"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// EntityNameResolver maps a caller supplied entity reference to the name
// stored on token rows.
type EntityNameResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// TokenStore persists tokens through bun. Inside RunInTx the store is bound to
// the transaction; on postgres lookups lock the matched row.
type TokenStore struct {
	db       bun.IDB
	root     *bun.DB
	repo     repository.Repository[*tokenRecord]
	table    string
	entities EntityNameResolver
	inTx     bool
}

type TokenStoreOption func(*TokenStore)

// WithTable stores tokens in a table other than core.DefaultTable.
func WithTable(table string) TokenStoreOption {
	return func(s *TokenStore) {
		trimmed := strings.TrimSpace(table)
		if trimmed != "" {
			s.table = trimmed
		}
	}
}

// WithConfig applies the table named by cfg.
func WithConfig(cfg core.Config) TokenStoreOption {
	return WithTable(cfg.Table)
}

func WithEntityResolver(resolver EntityNameResolver) TokenStoreOption {
	return func(s *TokenStore) {
		if resolver != nil {
			s.entities = resolver
		}
	}
}

func NewTokenStore(db *bun.DB, opts ...TokenStoreOption) (*TokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenRecord](db, tokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid token repository wiring: %w", err)
		}
	}
	store := &TokenStore{
		db:    db,
		root:  db,
		repo:  repo,
		table: core.DefaultTable,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	if store.entities == nil {
		resolver, err := NewEntityResolver(db)
		if err != nil {
			return nil, err
		}
		store.entities = resolver
	}
	return store, nil
}

// Table returns the table tokens are stored in.
func (s *TokenStore) Table() string {
	if s == nil {
		return ""
	}
	return s.table
}

func (s *TokenStore) NormalizeEntityName(ctx context.Context, name string) (string, error) {
	if s == nil || s.entities == nil {
		return "", fmt.Errorf("sqlstore: token store is not configured")
	}
	return s.entities.Resolve(ctx, name)
}

// Find returns the lowest id row matching cond, or nil.
func (s *TokenStore) Find(ctx context.Context, cond filter.Condition) (*core.Token, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	expr, err := s.compile(cond, "t.")
	if err != nil {
		return nil, err
	}

	record := &tokenRecord{}
	query := s.db.NewSelect().
		Model(record).
		ModelTableExpr("? AS t", bun.Ident(s.table)).
		OrderExpr("t.id ASC").
		Limit(1)
	if !expr.Empty() {
		query = query.Where(expr.SQL, expr.Args()...)
	}
	if s.inTx && s.root.Dialect().Name() == dialect.PG {
		query = query.For("UPDATE")
	}
	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	token := record.toDomain()
	return &token, nil
}

// Save inserts tokens without an id. Persisted tokens only have their code,
// remaining uses and expiration updated.
func (s *TokenStore) Save(ctx context.Context, token core.Token) (core.Token, error) {
	if err := s.ready(); err != nil {
		return core.Token{}, err
	}
	record := newTokenRecord(token)
	if !token.Persisted() {
		record.ID = 0
		if _, err := s.db.NewInsert().
			Model(record).
			ModelTableExpr("?", bun.Ident(s.table)).
			Returning("id").
			Exec(ctx); err != nil {
			return core.Token{}, err
		}
		return record.toDomain(), nil
	}

	res, err := s.db.NewUpdate().
		TableExpr("?", bun.Ident(s.table)).
		Set("code = ?", record.Code).
		Set("remaining_uses = ?", record.RemainingUses).
		Set("expiration_at = ?", record.ExpirationAt).
		Where("id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return core.Token{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return core.Token{}, fmt.Errorf("sqlstore: token %d not found", record.ID)
	}

	updated, err := s.Find(ctx, filter.Eq("id", record.ID))
	if err != nil {
		return core.Token{}, err
	}
	if updated == nil {
		return core.Token{}, fmt.Errorf("sqlstore: token %d not found", record.ID)
	}
	return *updated, nil
}

func (s *TokenStore) Delete(ctx context.Context, token core.Token) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !token.Persisted() {
		return 0, nil
	}
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(s.table)).
		Where("id = ?", token.ID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// RemoveMatching deletes every row matching cond. An empty condition is
// rejected rather than truncating the table.
func (s *TokenStore) RemoveMatching(ctx context.Context, cond filter.Condition) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	expr, err := s.compile(cond, "")
	if err != nil {
		return 0, err
	}
	if expr.Empty() {
		return 0, core.NewInvalidArgumentError("remove requires a non-empty condition")
	}
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(s.table)).
		Where(expr.SQL, expr.Args()...).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// List pages through every row of an entity and type, ordered by id.
func (s *TokenStore) List(ctx context.Context, req core.ListRequest) (core.ListResult, error) {
	if err := s.ready(); err != nil {
		return core.ListResult{}, err
	}
	if s.repo == nil {
		return core.ListResult{}, fmt.Errorf("sqlstore: token repository is not configured")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	records, total, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.ModelTableExpr("? AS t", bun.Ident(s.table))
		}),
		repository.SelectBy("entity_name", "=", req.EntityName),
		repository.SelectBy("entity_id", "=", strconv.FormatInt(req.EntityID, 10)),
		repository.SelectBy("type", "=", req.Type),
		repository.OrderBy("id ASC"),
		repository.SelectPaginate(limit, req.Offset),
	)
	if err != nil {
		return core.ListResult{}, err
	}
	tokens := make([]core.Token, 0, len(records))
	for _, record := range records {
		tokens = append(tokens, record.toDomain())
	}
	return core.ListResult{Tokens: tokens, Total: total}, nil
}

// RunInTx runs fn against a copy of the store bound to a bun transaction.
// Nested calls reuse the open transaction.
func (s *TokenStore) RunInTx(ctx context.Context, fn func(ctx context.Context, store core.TokenStore) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	if s.inTx {
		return fn(ctx, s)
	}
	return s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, s.withTx(tx))
	})
}

func (s *TokenStore) withTx(tx bun.Tx) *TokenStore {
	bound := *s
	bound.db = tx
	bound.inTx = true
	return &bound
}

func (s *TokenStore) ready() error {
	if s == nil || s.db == nil || s.root == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	return nil
}

func (s *TokenStore) compile(cond filter.Condition, prefix string) (filter.Expression, error) {
	return filter.Compile(cond,
		filter.WithPositionalPlaceholders(),
		filter.WithIdentifier(func(field string) (string, error) {
			column := strings.ToLower(strings.TrimSpace(field))
			if _, ok := tokenColumns[column]; !ok {
				return "", filter.NewInvalidArgumentError("unknown token field %q", field)
			}
			return prefix + `"` + column + `"`, nil
		}),
		filter.WithTimeFormatter(func(t time.Time) any {
			return t.UTC()
		}),
	)
}
