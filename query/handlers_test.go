package query

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-tokens/core"
	"github.com/goliatone/go-tokens/filter"
)

type stubActiveTokenReader struct {
	token *core.Token
	spec  filter.Spec
}

func (s *stubActiveTokenReader) FindActive(_ context.Context, spec filter.Spec) (*core.Token, error) {
	s.spec = spec
	return s.token, nil
}

func TestFindActiveTokenQuery_Delegates(t *testing.T) {
	reader := &stubActiveTokenReader{token: &core.Token{ID: 4, Type: "pin"}}
	out, err := NewFindActiveTokenQuery(reader).Query(context.Background(), FindActiveTokenMessage{
		Spec: filter.Spec{"type": "pin", "entity_id": 4},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if out == nil || out.ID != 4 {
		t.Fatalf("expected stub token, got %#v", out)
	}
	if reader.spec["entity_id"] != 4 {
		t.Fatalf("expected spec passed through, got %#v", reader.spec)
	}
}

func TestQueries_WithManager(t *testing.T) {
	ctx := context.Background()
	manager, err := core.NewManager(core.Config{Types: []string{"pin"}}, core.NewMemoryTokenStore())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := manager.Create(ctx, core.CreateRequest{
			EntityName: "users", EntityID: 8, Type: "pin", Behavior: core.BehaviorAdd, Duration: time.Hour,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	found, err := NewFindActiveTokenQuery(manager).Query(ctx, FindActiveTokenMessage{
		Spec: filter.Spec{"type": "pin", "entity_name": "users", "entity_id": 8},
	})
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if found == nil || found.ID != 1 {
		t.Fatalf("expected first token, got %#v", found)
	}

	page, err := NewListTokensQuery(manager).Query(ctx, ListTokensMessage{Request: core.ListRequest{
		EntityName: "users", EntityID: 8, Type: "pin", Limit: 2,
	}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Tokens) != 2 {
		t.Fatalf("expected 2 of 3 tokens, got %d of %d", len(page.Tokens), page.Total)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	cases := []struct {
		name string
		msg  interface{ Validate() error }
	}{
		{name: "find without type", msg: FindActiveTokenMessage{Spec: filter.Spec{"code": "x"}}},
		{name: "find with non-string type", msg: FindActiveTokenMessage{Spec: filter.Spec{"type": 1}}},
		{name: "list without entity", msg: ListTokensMessage{Request: core.ListRequest{Type: "pin"}}},
		{name: "list negative offset", msg: ListTokensMessage{Request: core.ListRequest{EntityName: "users", Type: "pin", Offset: -1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rich *goerrors.Error
			if !goerrors.As(tc.msg.Validate(), &rich) {
				t.Fatalf("expected go-errors envelope")
			}
			if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.ErrorInvalidArgument {
				t.Fatalf("unexpected validation error %#v", rich)
			}
		})
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var qry *ListTokensQuery
	_, err := qry.Query(context.Background(), ListTokensMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
