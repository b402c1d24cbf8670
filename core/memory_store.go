package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-tokens/filter"
)

// MemoryTokenStore keeps tokens in process. RunInTx serializes callers, so
// Create and Redeem are atomic against each other.
type MemoryTokenStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]Token
	entities map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		rows:     map[int64]Token{},
		entities: map[string]string{},
	}
}

// RegisterEntity maps a logical reference, such as a qualified model name,
// to the entity name stored on tokens.
func (s *MemoryTokenStore) RegisterEntity(reference string, name string) {
	if s == nil {
		return
	}
	reference = strings.TrimSpace(reference)
	name = strings.TrimSpace(name)
	if reference == "" || name == "" {
		return
	}
	s.mu.Lock()
	s.entities[strings.ToLower(reference)] = name
	s.mu.Unlock()
}

// NormalizeEntityName resolves registered references. Unregistered plain
// names are used as is; unregistered qualified names are rejected.
func (s *MemoryTokenStore) NormalizeEntityName(_ context.Context, name string) (string, error) {
	if s == nil {
		return "", notConfigured("memory token store is not configured")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewUnknownEntityError(name)
	}
	s.mu.Lock()
	resolved, ok := s.entities[strings.ToLower(trimmed)]
	s.mu.Unlock()
	if ok {
		return resolved, nil
	}
	if strings.ContainsAny(trimmed, `.\/`) {
		return "", NewUnknownEntityError(name)
	}
	return trimmed, nil
}

func (s *MemoryTokenStore) Find(_ context.Context, cond filter.Condition) (*Token, error) {
	if s == nil {
		return nil, notConfigured("memory token store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.sortedIDs() {
		row := s.rows[id]
		ok, err := filter.Match(cond, tokenRecord(row))
		if err != nil {
			return nil, err
		}
		if ok {
			found := row.Clone()
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token Token) (Token, error) {
	if s == nil {
		return Token{}, notConfigured("memory token store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !token.Persisted() {
		s.nextID++
		token.ID = s.nextID
		s.rows[token.ID] = token.Clone()
		return token.Clone(), nil
	}

	row, ok := s.rows[token.ID]
	if !ok {
		return Token{}, fmt.Errorf("core: token %d does not exist", token.ID)
	}
	row.Code = token.Code
	row.RemainingUses = cloneUses(token.RemainingUses)
	row.ExpirationAt = token.ExpirationAt
	s.rows[row.ID] = row
	return row.Clone(), nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, token Token) (int64, error) {
	if s == nil {
		return 0, notConfigured("memory token store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[token.ID]; !ok {
		return 0, nil
	}
	delete(s.rows, token.ID)
	return 1, nil
}

func (s *MemoryTokenStore) RemoveMatching(_ context.Context, cond filter.Condition) (int64, error) {
	if s == nil {
		return 0, notConfigured("memory token store is not configured")
	}
	if filter.IsEmpty(cond) {
		return 0, NewInvalidArgumentError("refusing to remove tokens without a filter")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, id := range s.sortedIDs() {
		ok, err := filter.Match(cond, tokenRecord(s.rows[id]))
		if err != nil {
			return removed, err
		}
		if ok {
			delete(s.rows, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryTokenStore) List(_ context.Context, req ListRequest) (ListResult, error) {
	if s == nil {
		return ListResult{}, notConfigured("memory token store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []Token{}
	for _, id := range s.sortedIDs() {
		row := s.rows[id]
		if row.EntityName == req.EntityName && row.EntityID == req.EntityID && row.Type == req.Type {
			matches = append(matches, row.Clone())
		}
	}
	total := len(matches)
	if req.Offset >= len(matches) {
		matches = []Token{}
	} else {
		matches = matches[req.Offset:]
	}
	if req.Limit > 0 && req.Limit < len(matches) {
		matches = matches[:req.Limit]
	}
	return ListResult{Tokens: matches, Total: total}, nil
}

func (s *MemoryTokenStore) RunInTx(ctx context.Context, fn func(ctx context.Context, store TokenStore) error) error {
	if s == nil {
		return notConfigured("memory token store is not configured")
	}
	if fn == nil {
		return nil
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, s)
}

// Tokens returns every stored token ordered by id.
func (s *MemoryTokenStore) Tokens() []Token {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Token, 0, len(s.rows))
	for _, id := range s.sortedIDs() {
		out = append(out, s.rows[id].Clone())
	}
	return out
}

func (s *MemoryTokenStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func tokenRecord(token Token) map[string]any {
	var uses any
	if token.RemainingUses != nil {
		uses = *token.RemainingUses
	}
	return map[string]any{
		"id":             token.ID,
		"entity_name":    token.EntityName,
		"entity_id":      token.EntityID,
		"code":           token.Code,
		"type":           token.Type,
		"behavior":       string(token.Behavior),
		"remaining_uses": uses,
		"expiration_at":  token.ExpirationAt,
		"created_at":     token.CreatedAt,
	}
}
