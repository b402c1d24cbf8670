package sqlstore

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/goliatone/go-tokens/core"
	"github.com/uptrace/bun"
)

// EntityResolver maps model references to table names using bun's table
// metadata. A registered model answers to its qualified Go type name
// ("models.User"), its full package path, its type and model names, and its
// table name. Unregistered plain names pass through; unregistered qualified
// names are rejected as unknown entities.
type EntityResolver struct {
	db      *bun.DB
	mu      sync.RWMutex
	aliases map[string]string
}

// NewEntityResolver registers models up front. A model that is not a bun
// struct model fails construction.
func NewEntityResolver(db *bun.DB, models ...any) (*EntityResolver, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	resolver := &EntityResolver{
		db:      db,
		aliases: map[string]string{},
	}
	if err := resolver.RegisterModel(models...); err != nil {
		return nil, err
	}
	return resolver, nil
}

func (r *EntityResolver) RegisterModel(models ...any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("sqlstore: entity resolver is not configured")
	}
	for _, model := range models {
		typ := reflect.TypeOf(model)
		for typ != nil && typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ == nil || typ.Kind() != reflect.Struct {
			return fmt.Errorf("sqlstore: entity model must be a struct, got %T", model)
		}
		table := r.db.Table(typ)
		if table == nil || strings.TrimSpace(table.Name) == "" {
			return fmt.Errorf("sqlstore: no table metadata for %s", typ)
		}
		references := []string{
			typ.String(),
			typ.PkgPath() + "." + typ.Name(),
			table.TypeName,
			table.ModelName,
			table.Name,
		}
		for _, reference := range references {
			r.RegisterAlias(reference, table.Name)
		}
	}
	return nil
}

// RegisterAlias maps reference to name. References are matched case
// insensitively and backslash separators are read as dots.
func (r *EntityResolver) RegisterAlias(reference string, name string) {
	if r == nil {
		return
	}
	key := entityKey(reference)
	name = strings.TrimSpace(name)
	if key == "" || name == "" {
		return
	}
	r.mu.Lock()
	r.aliases[key] = name
	r.mu.Unlock()
}

func (r *EntityResolver) Resolve(_ context.Context, name string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("sqlstore: entity resolver is not configured")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", core.NewUnknownEntityError(name)
	}
	r.mu.RLock()
	resolved, ok := r.aliases[entityKey(trimmed)]
	r.mu.RUnlock()
	if ok {
		return resolved, nil
	}
	if strings.ContainsAny(trimmed, `.\/`) {
		return "", core.NewUnknownEntityError(name)
	}
	return trimmed, nil
}

func entityKey(reference string) string {
	key := strings.ToLower(strings.TrimSpace(reference))
	key = strings.ReplaceAll(key, `\`, ".")
	return strings.Trim(key, ".")
}
