package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tokens/core"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type accountModel struct {
	bun.BaseModel `bun:"table:accounts"`

	ID int64 `bun:"id,pk,autoincrement"`
}

type countingResolver struct {
	mu    sync.Mutex
	calls int
	name  string
	err   error
}

func (r *countingResolver) Resolve(context.Context, string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.name, nil
}

func TestNewEntityResolver_RejectsInvalidModels(t *testing.T) {
	db := newTestBunDB(t)
	if _, err := NewEntityResolver(db, "accounts"); err == nil {
		t.Fatalf("expected non-struct model to fail construction")
	}
	if _, err := NewEntityResolver(db, 42, (*accountModel)(nil)); err == nil {
		t.Fatalf("expected error when any model is invalid")
	}
	if _, err := NewEntityResolver(nil); err == nil {
		t.Fatalf("expected error without bun db")
	}
	resolver, err := NewEntityResolver(db, (*accountModel)(nil))
	if err != nil {
		t.Fatalf("new entity resolver: %v", err)
	}
	if name, err := resolver.Resolve(context.Background(), "sqlstore.accountModel"); err != nil || name != "accounts" {
		t.Fatalf("expected model registered at construction, got %q %v", name, err)
	}
}

func TestEntityResolver_ResolvesRegisteredModels(t *testing.T) {
	resolver, err := NewEntityResolver(newTestBunDB(t))
	if err != nil {
		t.Fatalf("new entity resolver: %v", err)
	}
	if err := resolver.RegisterModel((*accountModel)(nil)); err != nil {
		t.Fatalf("register model: %v", err)
	}
	resolver.RegisterAlias(`App\Models\Account`, "accounts")

	ctx := context.Background()
	for _, reference := range []string{"sqlstore.accountModel", "SQLSTORE.ACCOUNTMODEL", "accounts", "account_model", `App\Models\Account`} {
		name, err := resolver.Resolve(ctx, reference)
		if err != nil {
			t.Fatalf("resolve %q: %v", reference, err)
		}
		if name != "accounts" {
			t.Fatalf("resolve %q: expected accounts, got %q", reference, name)
		}
	}

	name, err := resolver.Resolve(ctx, " orders ")
	if err != nil || name != "orders" {
		t.Fatalf("expected plain names to pass through, got %q %v", name, err)
	}
	for _, reference := range []string{"", "models.Order", `App\Models\Order`, "app/models/order"} {
		if _, err := resolver.Resolve(ctx, reference); !core.IsUnknownEntity(err) {
			t.Fatalf("expected unknown entity for %q, got %v", reference, err)
		}
	}

	if err := resolver.RegisterModel("not a model"); err == nil {
		t.Fatalf("expected non-struct model to be rejected")
	}
}

func TestCachedEntityResolver_CachesSuccessfulLookups(t *testing.T) {
	base := &countingResolver{name: "accounts"}
	resolver, err := NewCachedEntityResolver(base, newTestEntityCacheService(t))
	if err != nil {
		t.Fatalf("new cached resolver: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		name, err := resolver.Resolve(ctx, "models.Account")
		if err != nil || name != "accounts" {
			t.Fatalf("resolve: %q %v", name, err)
		}
	}
	if base.calls != 1 {
		t.Fatalf("expected one base lookup, got %d", base.calls)
	}

	if err := resolver.Invalidate(ctx, "models.Account"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := resolver.Resolve(ctx, "models.Account"); err != nil {
		t.Fatalf("resolve after invalidate: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected base lookup after invalidate, got %d", base.calls)
	}
}

func TestCachedEntityResolver_PropagatesErrors(t *testing.T) {
	base := &countingResolver{err: errors.New("boom")}
	resolver, err := NewCachedEntityResolver(base, newTestEntityCacheService(t))
	if err != nil {
		t.Fatalf("new cached resolver: %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "models.Account"); err == nil {
		t.Fatalf("expected base error")
	}
	if _, err := NewCachedEntityResolver(nil, newTestEntityCacheService(t)); err == nil {
		t.Fatalf("expected error without base resolver")
	}
}

func TestEntityCacheKey(t *testing.T) {
	key, err := EntityCacheKey(" App/Models User ")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-tokens::entity::v1::App%2FModels%20User" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := EntityCacheKey("  "); err == nil {
		t.Fatalf("expected error for empty reference")
	}
}

func newTestBunDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestEntityCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
