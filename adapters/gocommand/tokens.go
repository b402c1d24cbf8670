package gocommand

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	tokencommand "github.com/goliatone/go-tokens/command"
	"github.com/goliatone/go-tokens/core"
	tokenquery "github.com/goliatone/go-tokens/query"
)

// TokenHandlers holds the dispatcher subscriptions made by
// RegisterTokenHandlers.
type TokenHandlers struct {
	subscriptions []commanddispatcher.Subscription
}

func (h *TokenHandlers) Unsubscribe() {
	if h == nil {
		return
	}
	for _, subscription := range h.subscriptions {
		unsubscribe(subscription)
	}
	h.subscriptions = nil
}

// RegisterTokenHandlers registers and subscribes every token command and
// query against service. Nothing stays subscribed when one step fails.
func RegisterTokenHandlers(
	adapter *RegistryAdapter,
	service core.TokenService,
	runnerOpts ...runner.Option,
) (*TokenHandlers, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: token service is required")
	}
	handlers := &TokenHandlers{}
	track := func(subscription commanddispatcher.Subscription, err error) error {
		if err != nil {
			handlers.Unsubscribe()
			return err
		}
		handlers.subscriptions = append(handlers.subscriptions, subscription)
		return nil
	}

	if err := track(RegisterAndSubscribe[tokencommand.CreateTokenMessage](adapter, tokencommand.NewCreateTokenCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[tokencommand.RedeemTokenMessage](adapter, tokencommand.NewRedeemTokenCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[tokencommand.RemoveTokensOfTypeMessage](adapter, tokencommand.NewRemoveTokensOfTypeCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[tokencommand.RemoveTokenMessage](adapter, tokencommand.NewRemoveTokenCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribeQuery[tokenquery.FindActiveTokenMessage, *core.Token](adapter, tokenquery.NewFindActiveTokenQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribeQuery[tokenquery.ListTokensMessage, core.ListResult](adapter, tokenquery.NewListTokensQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	return handlers, nil
}
