package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type managerBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	clock           Clock
	codeGenerator   CodeGenerator
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
}

type Option func(*managerBuilder)

func WithLogger(logger Logger) Option {
	return func(b *managerBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *managerBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *managerBuilder) {
		b.metricsRecorder = recorder
	}
}

// WithClock overrides the time source used for creation and expiry checks.
func WithClock(clock Clock) Option {
	return func(b *managerBuilder) {
		b.clock = clock
	}
}

// WithCodeGenerator replaces the charset generator built from Config.
func WithCodeGenerator(generator CodeGenerator) Option {
	return func(b *managerBuilder) {
		b.codeGenerator = generator
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *managerBuilder) {
		b.configProvider = provider
	}
}

// WithRawConfig loads configuration from an in-memory map, for example one
// decoded from a host application's config file.
func WithRawConfig(values map[string]any) Option {
	return func(b *managerBuilder) {
		b.configProvider = NewCfgxConfigProvider(staticRawConfigLoader{Values: values})
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *managerBuilder) {
		b.optionsResolver = resolver
	}
}

func defaultManagerBuilder(runtime Config) managerBuilder {
	loggerProvider, logger := glog.Resolve("tokens", nil, nil)
	return managerBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		clock:           func() time.Time { return time.Now().UTC() },
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load decodes the raw values over defaults. Validation is deferred to the
// options resolver, since types usually arrive through the runtime layer.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	resolved = resolved.Normalized()
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || len(cfg.Types) > 0 {
		layer["types"] = append([]string(nil), cfg.Types...)
	}
	if includeZero || cfg.DefaultCodeLength > 0 {
		layer["default_code_length"] = cfg.DefaultCodeLength
	}
	charset := map[string]any{}
	if includeZero || cfg.Charset.Letters != "" {
		charset["letters"] = cfg.Charset.Letters
	}
	if includeZero || cfg.Charset.Numbers != "" {
		charset["numbers"] = cfg.Charset.Numbers
	}
	if len(charset) > 0 {
		layer["charset"] = charset
	}
	if includeZero || strings.TrimSpace(cfg.Table) != "" {
		layer["table"] = cfg.Table
	}
	return layer
}
