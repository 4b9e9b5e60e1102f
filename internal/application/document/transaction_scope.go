package document

import (
	"context"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
)

// TransactionScope provides transactional access to the document engine repositories.
// Every repository handed to fn shares one database transaction, committed when fn
// returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
type TransactionalRepositories interface {
	// Documents returns the document repository scoped to the current transaction
	Documents() document.DocumentRepository
	// Clients returns the client repository scoped to the current transaction
	Clients() party.ClientRepository
	// Suppliers returns the supplier repository scoped to the current transaction
	Suppliers() party.SupplierRepository
}
