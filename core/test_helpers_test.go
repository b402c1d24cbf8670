package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-tokens/filter"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// spyStore counts calls that reach storage.
type spyStore struct {
	*MemoryTokenStore
	mu    sync.Mutex
	calls int
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryTokenStore: NewMemoryTokenStore()}
}

func (s *spyStore) touch() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *spyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyStore) Find(ctx context.Context, cond filter.Condition) (*Token, error) {
	s.touch()
	return s.MemoryTokenStore.Find(ctx, cond)
}

func (s *spyStore) Save(ctx context.Context, token Token) (Token, error) {
	s.touch()
	return s.MemoryTokenStore.Save(ctx, token)
}

func (s *spyStore) Delete(ctx context.Context, token Token) (int64, error) {
	s.touch()
	return s.MemoryTokenStore.Delete(ctx, token)
}

func (s *spyStore) RemoveMatching(ctx context.Context, cond filter.Condition) (int64, error) {
	s.touch()
	return s.MemoryTokenStore.RemoveMatching(ctx, cond)
}

func (s *spyStore) NormalizeEntityName(ctx context.Context, name string) (string, error) {
	s.touch()
	return s.MemoryTokenStore.NormalizeEntityName(ctx, name)
}

func (s *spyStore) RunInTx(ctx context.Context, fn func(ctx context.Context, store TokenStore) error) error {
	return s.MemoryTokenStore.RunInTx(ctx, func(ctx context.Context, _ TokenStore) error {
		return fn(ctx, s)
	})
}

// plainStore hides the transactional and listing capabilities of the
// memory store.
type plainStore struct {
	inner *MemoryTokenStore
}

func (s plainStore) Find(ctx context.Context, cond filter.Condition) (*Token, error) {
	return s.inner.Find(ctx, cond)
}

func (s plainStore) Save(ctx context.Context, token Token) (Token, error) {
	return s.inner.Save(ctx, token)
}

func (s plainStore) Delete(ctx context.Context, token Token) (int64, error) {
	return s.inner.Delete(ctx, token)
}

func (s plainStore) RemoveMatching(ctx context.Context, cond filter.Condition) (int64, error) {
	return s.inner.RemoveMatching(ctx, cond)
}

func (s plainStore) NormalizeEntityName(ctx context.Context, name string) (string, error) {
	return s.inner.NormalizeEntityName(ctx, name)
}

func newTestManager(t *testing.T, store TokenStore, clock *fakeClock, opts ...Option) *Manager {
	t.Helper()
	options := []Option{WithLogger(stubLogger{}), WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}})}
	if clock != nil {
		options = append(options, WithClock(clock.Now))
	}
	options = append(options, opts...)
	manager, err := NewManager(Config{Types: []string{"pin", "verify", "Discount"}}, store, options...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func intValue(t *testing.T, value *int) int {
	t.Helper()
	if value == nil {
		t.Fatalf("expected remaining uses to be set")
	}
	return *value
}
