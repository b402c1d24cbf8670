package command

import (
	"strings"

	"github.com/goliatone/go-tokens/core"
)

const (
	TypeCreateToken        = "tokens.command.create"
	TypeRedeemToken        = "tokens.command.redeem"
	TypeRemoveTokensOfType = "tokens.command.remove_all_of_type"
	TypeRemoveToken        = "tokens.command.remove"
)

type CreateTokenMessage struct {
	Request core.CreateRequest
}

func (CreateTokenMessage) Type() string { return TypeCreateToken }

func (m CreateTokenMessage) Validate() error {
	if strings.TrimSpace(m.Request.EntityName) == "" {
		return commandValidationError("entity_name", "entity name is required")
	}
	if m.Request.EntityID < 0 {
		return commandValidationError("entity_id", "entity id must be >= 0")
	}
	if strings.TrimSpace(m.Request.Type) == "" {
		return commandValidationError("type", "token type is required")
	}
	if strings.TrimSpace(string(m.Request.Behavior)) == "" {
		return commandValidationError("behavior", "behavior is required")
	}
	if m.Request.Duration < 0 {
		return commandValidationError("duration", "duration must be >= 0")
	}
	return nil
}

type RedeemTokenMessage struct {
	Code      string
	TokenType string
}

func (RedeemTokenMessage) Type() string { return TypeRedeemToken }

func (m RedeemTokenMessage) Validate() error {
	if strings.TrimSpace(m.Code) == "" {
		return commandValidationError("code", "code is required")
	}
	if strings.TrimSpace(m.TokenType) == "" {
		return commandValidationError("type", "token type is required")
	}
	return nil
}

type RemoveTokensOfTypeMessage struct {
	EntityName string
	EntityID   int64
	TokenType  string
}

func (RemoveTokensOfTypeMessage) Type() string { return TypeRemoveTokensOfType }

func (m RemoveTokensOfTypeMessage) Validate() error {
	if strings.TrimSpace(m.EntityName) == "" {
		return commandValidationError("entity_name", "entity name is required")
	}
	if m.EntityID < 0 {
		return commandValidationError("entity_id", "entity id must be >= 0")
	}
	if strings.TrimSpace(m.TokenType) == "" {
		return commandValidationError("type", "token type is required")
	}
	return nil
}

type RemoveTokenMessage struct {
	Token core.Token
}

func (RemoveTokenMessage) Type() string { return TypeRemoveToken }

func (m RemoveTokenMessage) Validate() error {
	if !m.Token.Persisted() {
		return commandValidationError("id", "token id is required")
	}
	return nil
}
