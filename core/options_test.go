package core

import (
	"context"
	"testing"
	"time"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewManager_DefaultConfig(t *testing.T) {
	manager, err := NewManager(Config{Types: []string{"pin"}}, NewMemoryTokenStore())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	cfg := manager.Config()
	if cfg.DefaultCodeLength != DefaultCodeLength {
		t.Fatalf("expected default code length, got %d", cfg.DefaultCodeLength)
	}
	if cfg.Table != DefaultTable {
		t.Fatalf("expected default table, got %q", cfg.Table)
	}
	if cfg.Charset.Letters != DefaultLetters || cfg.Charset.Numbers != DefaultNumbers {
		t.Fatalf("expected default charset, got %#v", cfg.Charset)
	}
	if manager.logger == nil || manager.metricsRecorder == nil || manager.codeGenerator == nil || manager.clock == nil {
		t.Fatalf("expected default dependencies")
	}
}

func TestNewManager_WithXOverrides(t *testing.T) {
	customLogger := stubLogger{}
	customProvider := stubLoggerProvider{logger: customLogger}
	metrics := &captureMetricsRecorder{}
	clock := newFakeClock()
	generator := fixedCodeGenerator{code: "FIXED"}
	optionsResolver := &fixedOptionsResolver{cfg: Config{
		Types:             []string{"Resolved"},
		DefaultCodeLength: 12,
		Charset:           Charset{Numbers: "0123456789"},
		Table:             "auth_tokens",
	}}

	manager, err := NewManager(Config{Types: []string{"runtime"}}, NewMemoryTokenStore(),
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithMetricsRecorder(metrics),
		WithClock(clock.Now),
		WithCodeGenerator(generator),
		WithConfigProvider(&fixedConfigProvider{cfg: Config{Types: []string{"loaded"}}}),
		WithOptionsResolver(optionsResolver),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if manager.logger != customLogger {
		t.Fatalf("expected custom logger override")
	}
	if manager.metricsRecorder != metrics {
		t.Fatalf("expected custom metrics recorder")
	}
	if got := manager.Types(); len(got) != 1 || got[0] != "resolved" {
		t.Fatalf("expected resolver output types, got %v", got)
	}
	if manager.Config().Table != "auth_tokens" {
		t.Fatalf("expected resolver output table")
	}

	token, err := manager.Create(context.Background(), CreateRequest{
		EntityName: "users", EntityID: 1, Type: "resolved", Behavior: BehaviorAdd, Duration: time.Minute,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if token.Code != "FIXED" || !token.CreatedAt.Equal(clock.Now()) {
		t.Fatalf("expected custom generator and clock, got %#v", token)
	}
}

func TestNewManager_ConfigLayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"types":               []string{"pin", "verify"},
		"default_code_length": 10,
		"table":               "from_config",
		"charset": map[string]any{
			"numbers": "01",
		},
	}})

	manager, err := NewManager(Config{Table: "from_runtime"}, NewMemoryTokenStore(), WithConfigProvider(provider))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	cfg := manager.Config()
	if cfg.Table != "from_runtime" {
		t.Fatalf("expected runtime value to override config, got %q", cfg.Table)
	}
	if len(cfg.Types) != 2 || cfg.DefaultCodeLength != 10 {
		t.Fatalf("expected config layer values, got %#v", cfg)
	}
	if cfg.Charset.Numbers != "01" {
		t.Fatalf("expected charset from config layer, got %#v", cfg.Charset)
	}
}

func TestNewManager_WithRawConfig(t *testing.T) {
	manager, err := NewManager(Config{}, NewMemoryTokenStore(), WithRawConfig(map[string]any{
		"types": []any{" PIN ", "pin", "reset"},
	}))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	got := manager.Types()
	if len(got) != 2 || got[0] != "pin" || got[1] != "reset" {
		t.Fatalf("expected normalized types, got %v", got)
	}
}

func TestNewManager_InvalidConfigIsNotConfigured(t *testing.T) {
	_, err := NewManager(Config{Types: []string{"pin"}}, NewMemoryTokenStore(),
		WithOptionsResolver(&fixedOptionsResolver{cfg: Config{Types: []string{"pin"}, Table: "tokens"}}),
	)
	if !IsNotConfigured(err) {
		t.Fatalf("expected not configured for zero code length, got %v", err)
	}
}
