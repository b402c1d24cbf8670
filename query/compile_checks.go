package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tokens/core"
)

var (
	_ gocmd.Querier[FindActiveTokenMessage, *core.Token] = (*FindActiveTokenQuery)(nil)
	_ gocmd.Querier[ListTokensMessage, core.ListResult]  = (*ListTokensQuery)(nil)
	_ ActiveTokenReader                                  = (*core.Manager)(nil)
	_ TokenListReader                                    = (*core.Manager)(nil)
)
