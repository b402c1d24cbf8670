package tokens

import (
	"context"
	"fmt"

	gocmd "github.com/goliatone/go-command"
	tokencommand "github.com/goliatone/go-tokens/command"
	"github.com/goliatone/go-tokens/core"
	"github.com/goliatone/go-tokens/filter"
	tokenquery "github.com/goliatone/go-tokens/query"
)

type Commands struct {
	Create          *tokencommand.CreateTokenCommand
	Redeem          *tokencommand.RedeemTokenCommand
	RemoveAllOfType *tokencommand.RemoveTokensOfTypeCommand
	Remove          *tokencommand.RemoveTokenCommand
}

type Queries struct {
	FindActive *tokenquery.FindActiveTokenQuery
	List       *tokenquery.ListTokensQuery
}

// Facade bundles the token command and query handlers over one service.
// Its helper methods validate messages the way the dispatcher does and
// return go-errors envelopes.
type Facade struct {
	service  TokenService
	commands Commands
	queries  Queries
}

func NewFacade(service TokenService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("tokens: token service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Create:          tokencommand.NewCreateTokenCommand(service),
			Redeem:          tokencommand.NewRedeemTokenCommand(service),
			RemoveAllOfType: tokencommand.NewRemoveTokensOfTypeCommand(service),
			Remove:          tokencommand.NewRemoveTokenCommand(service),
		},
		queries: Queries{
			FindActive: tokenquery.NewFindActiveTokenQuery(service),
			List:       tokenquery.NewListTokensQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() TokenService {
	if f == nil {
		return nil
	}
	return f.service
}

// Create runs the create command and returns the stored token.
func (f *Facade) Create(ctx context.Context, req CreateRequest) (Token, error) {
	if f == nil || f.commands.Create == nil {
		return Token{}, mapFacadeError(fmt.Errorf("tokens: facade is not configured"))
	}
	msg := tokencommand.CreateTokenMessage{Request: req}
	if err := msg.Validate(); err != nil {
		return Token{}, mapFacadeError(err)
	}
	collector := gocmd.NewResult[core.Token]()
	if err := f.commands.Create.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return Token{}, mapFacadeError(err)
	}
	token, _ := collector.Load()
	return token, nil
}

// Redeem runs the redeem command. The token is nil when no live token
// matched code and type.
func (f *Facade) Redeem(ctx context.Context, code string, tokenType string) (*Token, error) {
	if f == nil || f.commands.Redeem == nil {
		return nil, mapFacadeError(fmt.Errorf("tokens: facade is not configured"))
	}
	collector := gocmd.NewResult[tokencommand.RedeemResult]()
	msg := tokencommand.RedeemTokenMessage{Code: code, TokenType: tokenType}
	if err := msg.Validate(); err != nil {
		return nil, mapFacadeError(err)
	}
	if err := f.commands.Redeem.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return nil, mapFacadeError(err)
	}
	result, _ := collector.Load()
	return result.Token, nil
}

// RemoveAllOfType runs the remove command for every token of the entity and
// type, returning the number of rows removed.
func (f *Facade) RemoveAllOfType(ctx context.Context, entityName string, entityID int64, tokenType string) (int64, error) {
	if f == nil || f.commands.RemoveAllOfType == nil {
		return 0, mapFacadeError(fmt.Errorf("tokens: facade is not configured"))
	}
	msg := tokencommand.RemoveTokensOfTypeMessage{EntityName: entityName, EntityID: entityID, TokenType: tokenType}
	return runRemoveCommand(ctx, msg, f.commands.RemoveAllOfType.Execute)
}

func (f *Facade) Remove(ctx context.Context, token Token) (int64, error) {
	if f == nil || f.commands.Remove == nil {
		return 0, mapFacadeError(fmt.Errorf("tokens: facade is not configured"))
	}
	return runRemoveCommand(ctx, tokencommand.RemoveTokenMessage{Token: token}, f.commands.Remove.Execute)
}

func runRemoveCommand[T interface{ Validate() error }](ctx context.Context, msg T, execute func(context.Context, T) error) (int64, error) {
	if err := msg.Validate(); err != nil {
		return 0, mapFacadeError(err)
	}
	collector := gocmd.NewResult[tokencommand.RemoveResult]()
	if err := execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return 0, mapFacadeError(err)
	}
	result, _ := collector.Load()
	return result.Removed, nil
}

func (f *Facade) FindActive(ctx context.Context, spec filter.Spec) (*Token, error) {
	if f == nil || f.queries.FindActive == nil {
		return nil, mapFacadeError(fmt.Errorf("tokens: facade is not configured"))
	}
	msg := tokenquery.FindActiveTokenMessage{Spec: spec}
	if err := msg.Validate(); err != nil {
		return nil, mapFacadeError(err)
	}
	token, err := f.queries.FindActive.Query(ctx, msg)
	if err != nil {
		return nil, mapFacadeError(err)
	}
	return token, nil
}

func (f *Facade) List(ctx context.Context, req ListRequest) (ListResult, error) {
	if f == nil || f.queries.List == nil {
		return ListResult{}, mapFacadeError(fmt.Errorf("tokens: facade is not configured"))
	}
	msg := tokenquery.ListTokensMessage{Request: req}
	if err := msg.Validate(); err != nil {
		return ListResult{}, mapFacadeError(err)
	}
	result, err := f.queries.List.Query(ctx, msg)
	if err != nil {
		return ListResult{}, mapFacadeError(err)
	}
	return result, nil
}

func mapFacadeError(err error) error {
	if err == nil {
		return nil
	}
	return core.MapError(err)
}
