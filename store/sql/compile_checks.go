package sqlstore

import "github.com/goliatone/go-tokens/core"

var (
	_ core.TokenStore         = (*TokenStore)(nil)
	_ core.TransactionalStore = (*TokenStore)(nil)
	_ core.TokenLister        = (*TokenStore)(nil)
	_ core.TableBoundStore    = (*TokenStore)(nil)
	_ EntityNameResolver      = (*EntityResolver)(nil)
	_ EntityNameResolver      = (*CachedEntityResolver)(nil)
)
