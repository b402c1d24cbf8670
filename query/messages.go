package query

import (
	"strings"

	"github.com/goliatone/go-tokens/core"
	"github.com/goliatone/go-tokens/filter"
)

const (
	TypeFindActiveToken = "tokens.query.find_active"
	TypeListTokens      = "tokens.query.list"
)

// FindActiveTokenMessage carries a filter spec. The "type" key is required.
type FindActiveTokenMessage struct {
	Spec filter.Spec
}

func (FindActiveTokenMessage) Type() string { return TypeFindActiveToken }

func (m FindActiveTokenMessage) Validate() error {
	raw, ok := m.Spec["type"]
	if !ok {
		return queryValidationError("type", "token type is required")
	}
	name, ok := raw.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return queryValidationError("type", "token type must be a non-empty string")
	}
	return nil
}

type ListTokensMessage struct {
	Request core.ListRequest
}

func (ListTokensMessage) Type() string { return TypeListTokens }

func (m ListTokensMessage) Validate() error {
	if strings.TrimSpace(m.Request.EntityName) == "" {
		return queryValidationError("entity_name", "entity name is required")
	}
	if strings.TrimSpace(m.Request.Type) == "" {
		return queryValidationError("type", "token type is required")
	}
	if m.Request.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Request.Offset < 0 {
		return queryValidationError("offset", "offset must be >= 0")
	}
	return nil
}
