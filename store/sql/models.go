package sqlstore

import (
	"time"

	"github.com/goliatone/go-tokens/core"
	"github.com/uptrace/bun"
)

type tokenRecord struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`

	ID            int64     `bun:"id,pk,autoincrement"`
	EntityName    string    `bun:"entity_name,notnull"`
	EntityID      int64     `bun:"entity_id,notnull"`
	Code          string    `bun:"code,notnull"`
	Type          string    `bun:"type,notnull"`
	Behavior      string    `bun:"behavior,notnull"`
	RemainingUses *int      `bun:"remaining_uses"`
	ExpirationAt  time.Time `bun:"expiration_at,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// tokenColumns lists the fields a filter condition may reference.
var tokenColumns = map[string]struct{}{
	"id":             {},
	"entity_name":    {},
	"entity_id":      {},
	"code":           {},
	"type":           {},
	"behavior":       {},
	"remaining_uses": {},
	"expiration_at":  {},
	"created_at":     {},
}

func newTokenRecord(token core.Token) *tokenRecord {
	return &tokenRecord{
		ID:            token.ID,
		EntityName:    token.EntityName,
		EntityID:      token.EntityID,
		Code:          token.Code,
		Type:          token.Type,
		Behavior:      string(token.Behavior),
		RemainingUses: cloneIntPointer(token.RemainingUses),
		ExpirationAt:  token.ExpirationAt.UTC(),
		CreatedAt:     token.CreatedAt.UTC(),
	}
}

func (r *tokenRecord) toDomain() core.Token {
	if r == nil {
		return core.Token{}
	}
	return core.Token{
		ID:            r.ID,
		EntityName:    r.EntityName,
		EntityID:      r.EntityID,
		Code:          r.Code,
		Type:          r.Type,
		Behavior:      core.Behavior(r.Behavior),
		RemainingUses: cloneIntPointer(r.RemainingUses),
		ExpirationAt:  r.ExpirationAt.UTC(),
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func cloneIntPointer(input *int) *int {
	if input == nil {
		return nil
	}
	value := *input
	return &value
}
