package core

import "time"

// MutationKind describes what Create does with the stored token.
type MutationKind string

const (
	MutationInsert      MutationKind = "insert"
	MutationReplaceCode MutationKind = "update_replace_code"
	MutationKeepCode    MutationKind = "update_keep_code"
	MutationNoop        MutationKind = "noop"
)

// Issue is a validated create request with its computed timestamps.
type Issue struct {
	EntityName    string
	EntityID      int64
	Type          string
	Behavior      Behavior
	RemainingUses *int
	CodeLength    int
	CreatedAt     time.Time
	ExpirationAt  time.Time
}

// Mutation is the effect planned by PlanCreate. Token is the row to persist,
// or for MutationNoop the stored token returned as is. Code is empty when
// NeedsCode reports true.
type Mutation struct {
	Kind  MutationKind
	Token Token
}

func (m Mutation) NeedsCode() bool {
	return m.Kind == MutationInsert || m.Kind == MutationReplaceCode
}

func (m Mutation) Persists() bool {
	return m.Kind != MutationNoop
}

type collisionHandler func(existing Token, issue Issue) Mutation

var collisionHandlers = map[Behavior]collisionHandler{
	BehaviorAdd:     planAdd,
	BehaviorUnique:  planUnique,
	BehaviorRenew:   planRenew,
	BehaviorReplace: planReplace,
}

// PlanCreate decides the effect of issue given the active token for the same
// entity and type. The stored token's behavior selects the branch, not the
// requested one.
func PlanCreate(existing *Token, issue Issue) Mutation {
	if existing == nil {
		return insertMutation(issue)
	}
	handler, ok := collisionHandlers[existing.Behavior]
	if !ok {
		return insertMutation(issue)
	}
	return handler(existing.Clone(), issue)
}

func planAdd(_ Token, issue Issue) Mutation {
	return insertMutation(issue)
}

func planUnique(existing Token, _ Issue) Mutation {
	return Mutation{Kind: MutationNoop, Token: existing}
}

func planRenew(existing Token, issue Issue) Mutation {
	existing.RemainingUses = cloneUses(issue.RemainingUses)
	existing.ExpirationAt = issue.ExpirationAt
	return Mutation{Kind: MutationKeepCode, Token: existing}
}

func planReplace(existing Token, issue Issue) Mutation {
	existing.Code = ""
	existing.RemainingUses = cloneUses(issue.RemainingUses)
	existing.ExpirationAt = issue.ExpirationAt
	return Mutation{Kind: MutationReplaceCode, Token: existing}
}

func insertMutation(issue Issue) Mutation {
	return Mutation{
		Kind: MutationInsert,
		Token: Token{
			EntityName:    issue.EntityName,
			EntityID:      issue.EntityID,
			Type:          issue.Type,
			Behavior:      issue.Behavior,
			RemainingUses: cloneUses(issue.RemainingUses),
			CreatedAt:     issue.CreatedAt,
			ExpirationAt:  issue.ExpirationAt,
		},
	}
}

// RedeemAction is the effect of a redemption attempt on a found token.
type RedeemAction string

const (
	RedeemUnlimited RedeemAction = "unlimited"
	RedeemDecrement RedeemAction = "decrement"
	RedeemExhausted RedeemAction = "exhausted"
)

// PlanRedeem returns the action for token and the token to persist. An
// exhausted token is only deleted on the attempt after its last use.
func PlanRedeem(token Token) (RedeemAction, Token) {
	token = token.Clone()
	if token.RemainingUses == nil {
		return RedeemUnlimited, token
	}
	if *token.RemainingUses >= 1 {
		*token.RemainingUses = *token.RemainingUses - 1
		return RedeemDecrement, token
	}
	return RedeemExhausted, token
}

func cloneUses(uses *int) *int {
	if uses == nil {
		return nil
	}
	return intPtr(*uses)
}
