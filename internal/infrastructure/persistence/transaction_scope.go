package persistence

import (
	"context"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, rolled back when fn returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appdoc.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Documents returns the document repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Documents() document.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

// Clients returns the client repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Clients() party.ClientRepository {
	return NewGormClientRepository(r.tx)
}

// Suppliers returns the supplier repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Suppliers() party.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appdoc.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appdoc.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
