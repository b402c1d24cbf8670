package sqlstore

import (
	"strconv"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// tokenHandlers wires integer-keyed token rows into the repository. Rows are
// never addressed by UUID, so GetID reports uuid.Nil and SetID is a no-op.
func tokenHandlers() repository.ModelHandlers[*tokenRecord] {
	return repository.ModelHandlers[*tokenRecord]{
		NewRecord: func() *tokenRecord {
			return &tokenRecord{}
		},
		GetID: func(record *tokenRecord) uuid.UUID {
			return uuid.Nil
		},
		SetID: func(record *tokenRecord, id uuid.UUID) {},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *tokenRecord) string {
			if record == nil || record.ID == 0 {
				return ""
			}
			return strconv.FormatInt(record.ID, 10)
		},
	}
}
