package core

import (
	"strings"
	"time"
)

// Behavior is the collision policy stored on a token. It decides what a later
// Create for the same entity and type does with the stored token.
type Behavior string

const (
	BehaviorAdd     Behavior = "add"
	BehaviorUnique  Behavior = "unique"
	BehaviorRenew   Behavior = "renew"
	BehaviorReplace Behavior = "replace"
)

// MaxRemainingUses is the largest use budget a token can carry.
const MaxRemainingUses = 65535

// MinCodeLength is the shortest code the generator produces.
const MinCodeLength = 4

// Behaviors lists the recognized behaviors.
func Behaviors() []Behavior {
	return []Behavior{BehaviorAdd, BehaviorUnique, BehaviorRenew, BehaviorReplace}
}

func (b Behavior) Valid() bool {
	switch b {
	case BehaviorAdd, BehaviorUnique, BehaviorRenew, BehaviorReplace:
		return true
	default:
		return false
	}
}

func (b Behavior) String() string {
	return string(b)
}

// ParseBehavior trims and lowercases raw before validating it.
func ParseBehavior(raw string) (Behavior, error) {
	behavior := Behavior(normalizeKey(raw))
	if !behavior.Valid() {
		return "", unknownBehavior(raw)
	}
	return behavior, nil
}

type Token struct {
	ID            int64
	EntityName    string
	EntityID      int64
	Code          string
	Type          string
	Behavior      Behavior
	RemainingUses *int
	ExpirationAt  time.Time
	CreatedAt     time.Time
}

func (t Token) Persisted() bool {
	return t.ID > 0
}

// IsExpired reports whether now has reached the expiration instant.
func (t Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpirationAt)
}

func (t Token) Unlimited() bool {
	return t.RemainingUses == nil
}

// Uses returns the remaining use count, or -1 when unlimited.
func (t Token) Uses() int {
	if t.RemainingUses == nil {
		return -1
	}
	return *t.RemainingUses
}

// Clone returns a copy that shares no pointers with t.
func (t Token) Clone() Token {
	out := t
	if t.RemainingUses != nil {
		uses := *t.RemainingUses
		out.RemainingUses = &uses
	}
	return out
}

type CreateRequest struct {
	EntityName string
	EntityID   int64
	Type       string
	Behavior   Behavior
	// Duration is the lifetime measured from creation.
	Duration time.Duration
	// MaxUses <= 0 means unlimited.
	MaxUses int
	// CodeLength <= 0 uses the configured default.
	CodeLength int
}

type CodeOptions struct {
	AllowLetters bool
	AllowNumbers bool
}

// DefaultCodeOptions allows both letters and numbers.
func DefaultCodeOptions() CodeOptions {
	return CodeOptions{AllowLetters: true, AllowNumbers: true}
}

// ListRequest selects every stored token of an entity and type, expired rows
// included.
type ListRequest struct {
	EntityName string
	EntityID   int64
	Type       string
	Limit      int
	Offset     int
}

type ListResult struct {
	Tokens []Token
	Total  int
}

func intPtr(value int) *int {
	return &value
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
