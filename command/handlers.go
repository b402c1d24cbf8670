package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tokens/core"
)

// TokenMutator is the write side of core.TokenService.
type TokenMutator interface {
	Create(ctx context.Context, req core.CreateRequest) (core.Token, error)
	Redeem(ctx context.Context, code string, tokenType string) (*core.Token, error)
	RemoveAllOfType(ctx context.Context, entityName string, entityID int64, tokenType string) (int64, error)
	Remove(ctx context.Context, token core.Token) (int64, error)
}

// RedeemResult is stored for RedeemTokenCommand. Token is nil when the code
// was absent, expired or exhausted.
type RedeemResult struct {
	Token *core.Token
}

func (r RedeemResult) Redeemed() bool {
	return r.Token != nil
}

type RemoveResult struct {
	Removed int64
}

type CreateTokenCommand struct {
	service TokenMutator
}

func NewCreateTokenCommand(service TokenMutator) *CreateTokenCommand {
	return &CreateTokenCommand{service: service}
}

func (c *CreateTokenCommand) Execute(ctx context.Context, msg CreateTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	out, err := c.service.Create(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RedeemTokenCommand struct {
	service TokenMutator
}

func NewRedeemTokenCommand(service TokenMutator) *RedeemTokenCommand {
	return &RedeemTokenCommand{service: service}
}

func (c *RedeemTokenCommand) Execute(ctx context.Context, msg RedeemTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	out, err := c.service.Redeem(ctx, msg.Code, msg.TokenType)
	if err != nil {
		return err
	}
	storeResult(ctx, RedeemResult{Token: out})
	return nil
}

type RemoveTokensOfTypeCommand struct {
	service TokenMutator
}

func NewRemoveTokensOfTypeCommand(service TokenMutator) *RemoveTokensOfTypeCommand {
	return &RemoveTokensOfTypeCommand{service: service}
}

func (c *RemoveTokensOfTypeCommand) Execute(ctx context.Context, msg RemoveTokensOfTypeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	removed, err := c.service.RemoveAllOfType(ctx, msg.EntityName, msg.EntityID, msg.TokenType)
	if err != nil {
		return err
	}
	storeResult(ctx, RemoveResult{Removed: removed})
	return nil
}

type RemoveTokenCommand struct {
	service TokenMutator
}

func NewRemoveTokenCommand(service TokenMutator) *RemoveTokenCommand {
	return &RemoveTokenCommand{service: service}
}

func (c *RemoveTokenCommand) Execute(ctx context.Context, msg RemoveTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	removed, err := c.service.Remove(ctx, msg.Token)
	if err != nil {
		return err
	}
	storeResult(ctx, RemoveResult{Removed: removed})
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
