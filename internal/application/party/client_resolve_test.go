package party

import (
	"testing"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteClientService(t *testing.T) (*ClientService, *persistence.GormClientRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	repo := persistence.NewGormClientRepository(db)
	return NewClientService(repo, nil), repo
}

func TestClientService_Resolve_AgainstDatabase(t *testing.T) {
	svc, repo := newSQLiteClientService(t)
	ctx := t.Context()
	dupont := newTestClient(t, "Maçonnerie Dupont", "")
	require.NoError(t, repo.Save(ctx, dupont))

	found, err := svc.Resolve(ctx, "dupont")
	require.NoError(t, err)
	assert.Equal(t, dupont.ID, found.ID)

	for _, name := range []string{"%", "_", "Ma_onnerie", "%Dupont%x"} {
		_, err := svc.Resolve(ctx, name)
		assert.ErrorIs(t, err, shared.ErrNotFound, "name %q", name)
	}

	count, err := repo.Count(ctx, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a miss never creates a client")
}
