package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-tokens/filter"
)

// Manager issues, redeems and removes tokens against a TokenStore.
type Manager struct {
	config          Config
	store           TokenStore
	codeGenerator   CodeGenerator
	clock           Clock
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
}

// NewManager resolves cfg through the configured provider and resolver. A
// missing store or an invalid configuration fails with a not configured error.
func NewManager(cfg Config, store TokenStore, opts ...Option) (*Manager, error) {
	builder := defaultManagerBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("tokens", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("tokens"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if store == nil {
		return nil, notConfigured("token store is required")
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.clock == nil {
		builder.clock = func() time.Time { return time.Now().UTC() }
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, configurationError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, configurationError(err)
	}
	finalConfig = finalConfig.Normalized()
	if err := finalConfig.Validate(); err != nil {
		return nil, configurationError(err)
	}
	if bound, ok := store.(TableBoundStore); ok && !strings.EqualFold(strings.TrimSpace(bound.Table()), finalConfig.Table) {
		return nil, notConfigured(fmt.Sprintf("token store table %q does not match configured table %q", bound.Table(), finalConfig.Table))
	}

	if builder.codeGenerator == nil {
		builder.codeGenerator = NewCharsetCodeGenerator(finalConfig.Charset)
	}

	return &Manager{
		config:          finalConfig,
		store:           store,
		codeGenerator:   builder.codeGenerator,
		clock:           builder.clock,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
	}, nil
}

func (m *Manager) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

// Types returns the recognized token types.
func (m *Manager) Types() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.config.Types...)
}

// Create issues a token for the entity and type, or applies the stored
// token's behavior when an active one exists.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (token Token, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"entity_name": req.EntityName,
		"entity_id":   req.EntityID,
		"type":        normalizeKey(req.Type),
		"behavior":    normalizeKey(string(req.Behavior)),
	}
	defer func() {
		m.observeOperation(ctx, startedAt, "create", err, fields)
	}()

	if m == nil {
		return Token{}, notConfigured("manager is not configured")
	}
	issue, err := m.validateCreate(req)
	if err != nil {
		return Token{}, err
	}
	entityName, err := m.store.NormalizeEntityName(ctx, req.EntityName)
	if err != nil {
		return Token{}, err
	}
	issue.EntityName = entityName
	fields["entity_name"] = entityName

	issue.CreatedAt = m.now()
	issue.ExpirationAt = issue.CreatedAt.Add(req.Duration)

	err = m.withStore(ctx, func(ctx context.Context, store TokenStore) error {
		existing, findErr := m.findActive(ctx, store, ownerCondition(issue.EntityName, issue.EntityID, issue.Type))
		if findErr != nil {
			return findErr
		}
		mutation := PlanCreate(existing, issue)
		fields["mutation"] = string(mutation.Kind)
		if !mutation.Persists() {
			token = mutation.Token
			return nil
		}
		if mutation.NeedsCode() {
			code, genErr := m.codeGenerator.Generate(issue.CodeLength, DefaultCodeOptions())
			if genErr != nil {
				return genErr
			}
			mutation.Token.Code = code
		}
		saved, saveErr := store.Save(ctx, mutation.Token)
		if saveErr != nil {
			return saveErr
		}
		token = saved
		return nil
	})
	if err != nil {
		return Token{}, err
	}
	fields["token_id"] = token.ID
	return token, nil
}

// Redeem consumes one use of the active token matching code and type. It
// returns nil when no usable token exists.
func (m *Manager) Redeem(ctx context.Context, code string, tokenType string) (token *Token, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"type": normalizeKey(tokenType)}
	defer func() {
		m.observeOperation(ctx, startedAt, "redeem", err, fields)
	}()

	if m == nil {
		return nil, notConfigured("manager is not configured")
	}
	tokenType, err = m.recognizedType(tokenType)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		fields["action"] = "not_found"
		return nil, nil
	}

	err = m.withStore(ctx, func(ctx context.Context, store TokenStore) error {
		found, findErr := m.findActive(ctx, store, filter.All(
			filter.Eq("code", code),
			filter.Eq("type", tokenType),
		))
		if findErr != nil || found == nil {
			fields["action"] = "not_found"
			return findErr
		}
		action, next := PlanRedeem(*found)
		fields["action"] = string(action)
		fields["token_id"] = found.ID
		switch action {
		case RedeemUnlimited:
			token = &next
		case RedeemDecrement:
			saved, saveErr := store.Save(ctx, next)
			if saveErr != nil {
				return saveErr
			}
			token = &saved
		default:
			if _, delErr := store.Delete(ctx, next); delErr != nil {
				return delErr
			}
			token = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// RemoveAllOfType deletes every token of the entity and type regardless of
// expiration or remaining uses. The type does not have to be configured.
func (m *Manager) RemoveAllOfType(ctx context.Context, entityName string, entityID int64, tokenType string) (removed int64, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"entity_name": entityName,
		"entity_id":   entityID,
		"type":        normalizeKey(tokenType),
	}
	defer func() {
		fields["removed"] = removed
		m.observeOperation(ctx, startedAt, "remove_all_of_type", err, fields)
	}()

	if m == nil {
		return 0, notConfigured("manager is not configured")
	}
	tokenType = normalizeKey(tokenType)
	if tokenType == "" {
		return 0, NewInvalidArgumentError("token type is required")
	}
	if entityID < 0 {
		return 0, NewInvalidArgumentError("entity id must not be negative")
	}
	normalized, err := m.store.NormalizeEntityName(ctx, entityName)
	if err != nil {
		return 0, err
	}
	fields["entity_name"] = normalized
	return m.store.RemoveMatching(ctx, ownerCondition(normalized, entityID, tokenType))
}

// Remove deletes a single persisted token.
func (m *Manager) Remove(ctx context.Context, token Token) (removed int64, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"token_id": token.ID,
		"type":     token.Type,
	}
	defer func() {
		fields["removed"] = removed
		m.observeOperation(ctx, startedAt, "remove", err, fields)
	}()

	if m == nil {
		return 0, notConfigured("manager is not configured")
	}
	if !token.Persisted() {
		return 0, NewInvalidArgumentError("token has no identifier")
	}
	return m.store.Delete(ctx, token)
}

// FindActive returns the first unexpired token matching spec. The spec must
// name a configured type under the "type" key. An expired match is deleted
// and reported as absent.
func (m *Manager) FindActive(ctx context.Context, spec filter.Spec) (token *Token, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"type": fmt.Sprint(spec["type"])}
	defer func() {
		fields["found"] = token != nil
		m.observeOperation(ctx, startedAt, "find_active", err, fields)
	}()

	if m == nil {
		return nil, notConfigured("manager is not configured")
	}
	raw, ok := spec["type"].(string)
	if !ok {
		return nil, unknownType(fmt.Sprint(spec["type"]))
	}
	tokenType, err := m.recognizedType(raw)
	if err != nil {
		return nil, err
	}

	normalized := make(filter.Spec, len(spec))
	for key, value := range spec {
		normalized[key] = value
	}
	normalized["type"] = tokenType
	cond, err := filter.Parse(normalized)
	if err != nil {
		return nil, err
	}

	err = m.withStore(ctx, func(ctx context.Context, store TokenStore) error {
		found, findErr := m.findActive(ctx, store, cond)
		token = found
		return findErr
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// List pages through the stored tokens of an entity and type without
// applying expiration. The store must implement TokenLister.
func (m *Manager) List(ctx context.Context, req ListRequest) (result ListResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"entity_name": req.EntityName,
		"entity_id":   req.EntityID,
		"type":        normalizeKey(req.Type),
	}
	defer func() {
		fields["total"] = result.Total
		m.observeOperation(ctx, startedAt, "list", err, fields)
	}()

	if m == nil {
		return ListResult{}, notConfigured("manager is not configured")
	}
	lister, ok := m.store.(TokenLister)
	if !ok {
		return ListResult{}, notConfigured("token store does not support listing")
	}
	if req.Limit < 0 || req.Offset < 0 {
		return ListResult{}, NewInvalidArgumentError("limit and offset must not be negative")
	}
	req.Type = normalizeKey(req.Type)
	if req.Type == "" {
		return ListResult{}, NewInvalidArgumentError("token type is required")
	}
	req.EntityName, err = m.store.NormalizeEntityName(ctx, req.EntityName)
	if err != nil {
		return ListResult{}, err
	}
	return lister.List(ctx, req)
}

// GenerateCode draws a code from the configured charset. A non-positive
// length uses the configured default.
func (m *Manager) GenerateCode(length int, opts CodeOptions) (string, error) {
	if m == nil {
		return "", notConfigured("manager is not configured")
	}
	if length <= 0 {
		length = m.config.DefaultCodeLength
	}
	return m.codeGenerator.Generate(length, opts)
}

func (m *Manager) validateCreate(req CreateRequest) (Issue, error) {
	tokenType, err := m.recognizedType(req.Type)
	if err != nil {
		return Issue{}, err
	}
	behavior, err := ParseBehavior(string(req.Behavior))
	if err != nil {
		return Issue{}, err
	}
	switch {
	case strings.TrimSpace(req.EntityName) == "":
		return Issue{}, NewInvalidArgumentError("entity name is required")
	case req.EntityID < 0:
		return Issue{}, NewInvalidArgumentError("entity id must not be negative")
	case req.Duration < 0:
		return Issue{}, NewInvalidArgumentError("duration must not be negative")
	case req.MaxUses > MaxRemainingUses:
		return Issue{}, NewInvalidArgumentError("max uses must not exceed %d", MaxRemainingUses)
	}

	issue := Issue{
		EntityID:   req.EntityID,
		Type:       tokenType,
		Behavior:   behavior,
		CodeLength: req.CodeLength,
	}
	if req.MaxUses > 0 {
		issue.RemainingUses = intPtr(req.MaxUses)
	}
	if issue.CodeLength <= 0 {
		issue.CodeLength = m.config.DefaultCodeLength
	}
	return issue, nil
}

func (m *Manager) recognizedType(raw string) (string, error) {
	tokenType := normalizeKey(raw)
	if !m.config.HasType(tokenType) {
		return "", unknownType(raw)
	}
	return tokenType, nil
}

// findActive deletes an expired match and reports it as absent.
func (m *Manager) findActive(ctx context.Context, store TokenStore, cond filter.Condition) (*Token, error) {
	token, err := store.Find(ctx, cond)
	if err != nil || token == nil {
		return nil, err
	}
	if token.IsExpired(m.now()) {
		if _, err := store.Delete(ctx, *token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return token, nil
}

func (m *Manager) withStore(ctx context.Context, fn func(ctx context.Context, store TokenStore) error) error {
	if txStore, ok := m.store.(TransactionalStore); ok {
		return txStore.RunInTx(ctx, fn)
	}
	return fn(ctx, m.store)
}

func (m *Manager) now() time.Time {
	if m.clock == nil {
		return time.Now().UTC()
	}
	return m.clock().UTC()
}

func ownerCondition(entityName string, entityID int64, tokenType string) filter.Condition {
	return filter.All(
		filter.Eq("entity_name", entityName),
		filter.Eq("entity_id", entityID),
		filter.Eq("type", tokenType),
	)
}
