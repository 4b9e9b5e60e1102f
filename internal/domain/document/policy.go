package document

import (
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Actor is the authenticated user driving an operation.
type Actor struct {
	ID    *uuid.UUID
	Name  string
	Admin bool
}

// SystemActor is used for operations without an authenticated user.
var SystemActor = Actor{Name: "system"}

// Operation is a guarded document mutation
type Operation int

const (
	// OpEdit covers lines and header fields
	OpEdit Operation = iota
	// OpEditDate covers the document date alone
	OpEditDate
	// OpDelete removes the document
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpEdit:
		return "edit"
	case OpEditDate:
		return "edit date"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Guard decides whether actor may perform op on the document.
// derived lists the documents created from this one and only matters for deletion.
//
// Rules:
//   - a sent document is locked for edit and delete unless the actor is an admin
//   - a credit note only accepts date edits
//   - a paid invoice cannot be deleted
//   - a document with derived documents cannot be deleted
func (d *Document) Guard(op Operation, actor Actor, derived []Document) error {
	switch op {
	case OpEdit:
		if d.Type == TypeCreditNote {
			return shared.NewStateConflictError("credit note %s is frozen, only its date can change", d.Number)
		}
	case OpDelete:
		if d.Type == TypeInvoice && d.Paid {
			return shared.NewStateConflictError("invoice %s is paid and cannot be deleted", d.Number)
		}
		if len(derived) > 0 {
			return shared.NewStateConflictError("%s has %d derived document(s) and cannot be deleted", d.Number, len(derived))
		}
	case OpEditDate:
	default:
		return shared.NewValidationError("unknown operation %d", op)
	}

	if d.IsSent() && !actor.Admin {
		return shared.NewStateConflictError("%s was sent on %s and is locked for %s",
			d.Number, d.SentAt.Format("2006-01-02"), op)
	}
	return nil
}
