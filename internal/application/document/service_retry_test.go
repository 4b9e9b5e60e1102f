package document

import (
	"context"
	"errors"
	"testing"

	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedScope runs fn without a database and returns the scripted errors in order
type scriptedScope struct {
	errs  []error
	calls int
}

func (s *scriptedScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	if err := fn(nil); err != nil {
		return err
	}
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func newRetryService(scope TransactionScope, attempts int) (*Service, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return NewService(nil, nil, nil, nil, scope, zap.New(core), Config{MaxAttempts: attempts}), logs
}

func TestService_InTransactionRetriesCollisions(t *testing.T) {
	t.Run("runs the whole operation again after a collision", func(t *testing.T) {
		scope := &scriptedScope{errs: []error{
			shared.NewNumberCollisionError("F-2026-0001 taken"),
			shared.NewNumberCollisionError("F-2026-0002 taken"),
		}}
		svc, logs := newRetryService(scope, 5)

		runs := 0
		err := svc.inTransaction(t.Context(), "create", func(TransactionalRepositories) error {
			runs++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, scope.calls)
		assert.Equal(t, 3, runs)
		assert.Equal(t, 2, logs.FilterMessage("Document number collision, retrying").Len())
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		scope := &scriptedScope{errs: []error{
			shared.NewNumberCollisionError("taken"),
			shared.NewNumberCollisionError("taken"),
			shared.NewNumberCollisionError("taken"),
		}}
		svc, _ := newRetryService(scope, 2)

		err := svc.inTransaction(t.Context(), "create", func(TransactionalRepositories) error { return nil })

		assert.ErrorIs(t, err, shared.ErrNumberCollision)
		assert.Equal(t, 2, scope.calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		scope := &scriptedScope{}
		svc, _ := newRetryService(scope, 5)
		boom := errors.New("boom")

		err := svc.inTransaction(t.Context(), "create", func(TransactionalRepositories) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, scope.calls)
	})

	t.Run("state conflicts are not retried", func(t *testing.T) {
		scope := &scriptedScope{}
		svc, _ := newRetryService(scope, 5)

		err := svc.inTransaction(t.Context(), "convert", func(TransactionalRepositories) error {
			return shared.NewStateConflictError("already converted")
		})

		assert.ErrorIs(t, err, shared.ErrStateConflict)
		assert.Equal(t, 1, scope.calls)
	})
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, &scriptedScope{}, nil, Config{PublicBaseURL: "https://docs.example.com/"})
	assert.Equal(t, defaultMaxAttempts, svc.config.MaxAttempts)
	assert.NotNil(t, svc.logger)
	assert.Equal(t, "https://docs.example.com/verify/abc", svc.verifyURL("abc"))
}
