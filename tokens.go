package tokens

import "github.com/goliatone/go-tokens/core"

type Config = core.Config

type Charset = core.Charset

type Option = core.Option

type Manager = core.Manager

type Token = core.Token
type Behavior = core.Behavior
type CreateRequest = core.CreateRequest
type ListRequest = core.ListRequest
type ListResult = core.ListResult
type CodeOptions = core.CodeOptions

type TokenStore = core.TokenStore
type TokenService = core.TokenService
type MemoryTokenStore = core.MemoryTokenStore

const (
	BehaviorAdd     = core.BehaviorAdd
	BehaviorUnique  = core.BehaviorUnique
	BehaviorRenew   = core.BehaviorRenew
	BehaviorReplace = core.BehaviorReplace
)

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithClock           = core.WithClock
	WithCodeGenerator   = core.WithCodeGenerator
	WithConfigProvider  = core.WithConfigProvider
	WithRawConfig       = core.WithRawConfig
	WithOptionsResolver = core.WithOptionsResolver
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewManager(cfg Config, store TokenStore, opts ...Option) (*Manager, error) {
	return core.NewManager(cfg, store, opts...)
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return core.NewMemoryTokenStore()
}
