package core

import (
	"testing"
	"time"
)

func testIssue() Issue {
	createdAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return Issue{
		EntityName:    "users",
		EntityID:      7,
		Type:          "pin",
		Behavior:      BehaviorRenew,
		RemainingUses: intPtr(2),
		CodeLength:    8,
		CreatedAt:     createdAt,
		ExpirationAt:  createdAt.Add(time.Minute),
	}
}

func storedToken(behavior Behavior) *Token {
	createdAt := time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC)
	return &Token{
		ID:            11,
		EntityName:    "users",
		EntityID:      7,
		Code:          "stored-code",
		Type:          "pin",
		Behavior:      behavior,
		RemainingUses: intPtr(5),
		CreatedAt:     createdAt,
		ExpirationAt:  createdAt.Add(48 * time.Hour),
	}
}

func TestPlanCreate_WithoutExistingInsertsRequestedBehavior(t *testing.T) {
	issue := testIssue()
	mutation := PlanCreate(nil, issue)
	if mutation.Kind != MutationInsert {
		t.Fatalf("expected insert, got %q", mutation.Kind)
	}
	if !mutation.NeedsCode() || !mutation.Persists() {
		t.Fatalf("expected insert to need a code and persist")
	}
	if mutation.Token.Behavior != BehaviorRenew || mutation.Token.ID != 0 {
		t.Fatalf("unexpected token %#v", mutation.Token)
	}
	if intValue(t, mutation.Token.RemainingUses) != 2 {
		t.Fatalf("expected requested uses")
	}
	*issue.RemainingUses = 9
	if intValue(t, mutation.Token.RemainingUses) != 2 {
		t.Fatalf("expected planned token not to alias the request")
	}
}

func TestPlanCreate_BranchesOnStoredBehavior(t *testing.T) {
	issue := testIssue()
	issue.Behavior = BehaviorUnique

	cases := []struct {
		stored   Behavior
		kind     MutationKind
		sameRow  bool
		sameCode bool
	}{
		{stored: BehaviorAdd, kind: MutationInsert},
		{stored: BehaviorReplace, kind: MutationReplaceCode, sameRow: true},
		{stored: BehaviorRenew, kind: MutationKeepCode, sameRow: true, sameCode: true},
		{stored: BehaviorUnique, kind: MutationNoop, sameRow: true, sameCode: true},
	}
	for _, tc := range cases {
		t.Run(string(tc.stored), func(t *testing.T) {
			existing := storedToken(tc.stored)
			mutation := PlanCreate(existing, issue)
			if mutation.Kind != tc.kind {
				t.Fatalf("expected %q, got %q", tc.kind, mutation.Kind)
			}
			if got := mutation.Token.ID == existing.ID; got != tc.sameRow {
				t.Fatalf("row identity kept=%v, want %v", got, tc.sameRow)
			}
			if got := mutation.Token.Code == existing.Code; got != tc.sameCode {
				t.Fatalf("code kept=%v, want %v", got, tc.sameCode)
			}
		})
	}
}

func TestPlanCreate_RenewAndReplaceOverwriteUsesAndExpiry(t *testing.T) {
	issue := testIssue()
	issue.RemainingUses = nil

	for _, behavior := range []Behavior{BehaviorRenew, BehaviorReplace} {
		existing := storedToken(behavior)
		mutation := PlanCreate(existing, issue)
		if mutation.Token.RemainingUses != nil {
			t.Fatalf("%s: expected unlimited uses after overwrite", behavior)
		}
		if !mutation.Token.ExpirationAt.Equal(issue.ExpirationAt) {
			t.Fatalf("%s: expected new expiration", behavior)
		}
		if !mutation.Token.CreatedAt.Equal(existing.CreatedAt) {
			t.Fatalf("%s: expected creation time to stay", behavior)
		}
		if mutation.Token.Behavior != behavior {
			t.Fatalf("%s: expected stored behavior to stay, got %q", behavior, mutation.Token.Behavior)
		}
		if intValue(t, existing.RemainingUses) != 5 {
			t.Fatalf("%s: expected existing token untouched", behavior)
		}
	}
}

func TestPlanCreate_UniqueIgnoresRequest(t *testing.T) {
	existing := storedToken(BehaviorUnique)
	mutation := PlanCreate(existing, testIssue())
	if mutation.Persists() || mutation.NeedsCode() {
		t.Fatalf("expected noop")
	}
	if !mutation.Token.ExpirationAt.Equal(existing.ExpirationAt) || intValue(t, mutation.Token.RemainingUses) != 5 {
		t.Fatalf("expected unique token unchanged, got %#v", mutation.Token)
	}
}

func TestPlanRedeem(t *testing.T) {
	unlimited := Token{ID: 1}
	action, next := PlanRedeem(unlimited)
	if action != RedeemUnlimited || next.RemainingUses != nil {
		t.Fatalf("expected unlimited, got %q", action)
	}

	counted := Token{ID: 2, RemainingUses: intPtr(1)}
	action, next = PlanRedeem(counted)
	if action != RedeemDecrement || intValue(t, next.RemainingUses) != 0 {
		t.Fatalf("expected decrement to 0, got %q", action)
	}
	if intValue(t, counted.RemainingUses) != 1 {
		t.Fatalf("expected input token untouched")
	}

	action, _ = PlanRedeem(next)
	if action != RedeemExhausted {
		t.Fatalf("expected exhausted, got %q", action)
	}
}
