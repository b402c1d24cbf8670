package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tokens/core"
)

var (
	_ gocmd.Commander[CreateTokenMessage]        = (*CreateTokenCommand)(nil)
	_ gocmd.Commander[RedeemTokenMessage]        = (*RedeemTokenCommand)(nil)
	_ gocmd.Commander[RemoveTokensOfTypeMessage] = (*RemoveTokensOfTypeCommand)(nil)
	_ gocmd.Commander[RemoveTokenMessage]        = (*RemoveTokenCommand)(nil)
	_ TokenMutator                               = (*core.Manager)(nil)
)
