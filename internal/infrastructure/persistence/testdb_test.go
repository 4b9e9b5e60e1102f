package persistence

import (
	"testing"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/party"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a migrated in-memory sqlite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedClient(t *testing.T, db *gorm.DB, name, email string) *party.Client {
	t.Helper()
	client, err := party.NewClient(party.Profile{CompanyName: name, Email: email}, nil)
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(t.Context(), client))
	return client
}

func seedSupplier(t *testing.T, db *gorm.DB, name string) *party.Supplier {
	t.Helper()
	supplier, err := party.NewSupplier(party.Profile{CompanyName: name}, nil)
	require.NoError(t, err)
	require.NoError(t, NewGormSupplierRepository(db).Save(t.Context(), supplier))
	return supplier
}

// newNumberedDocument builds a client document with one goods line, numbered but not saved
func newNumberedDocument(t *testing.T, docType document.DocumentType, clientID uuid.UUID, number string) *document.Document {
	t.Helper()
	doc, err := document.NewDocument(document.NewDocumentParams{
		Type:     docType,
		VATRate:  decimal.NewFromInt(20),
		ClientID: &clientID,
	})
	require.NoError(t, err)
	_, err = doc.AddLine(document.SystemActor, document.LineInput{
		Designation: "Parpaings",
		Category:    document.CategoryGoods,
		Quantity:    decimal.NewNullDecimal(decimal.NewFromInt(2)),
		UnitPrice:   decimal.NewNullDecimal(decimal.NewFromInt(50)),
	})
	require.NoError(t, err)
	require.NoError(t, doc.AssignNumber(number))
	doc.ClearDomainEvents()
	return doc
}
