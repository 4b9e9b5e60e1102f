package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AggregateRoot is implemented by every aggregate that versions itself and raises events
type AggregateRoot interface {
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot keeps the optimistic version and the events raised since the last save.
// Pending events are never persisted; the application layer publishes them after commit.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }

// AuditedAggregateRoot records who created and last changed the aggregate.
type AuditedAggregateRoot struct {
	BaseAggregateRoot
	CreatedBy *uuid.UUID
	UpdatedBy *uuid.UUID
}

// NewAuditedAggregateRoot starts a new aggregate at version 1, stamped with its creator.
func NewAuditedAggregateRoot(createdBy *uuid.UUID) AuditedAggregateRoot {
	now := time.Now()
	return AuditedAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{
			BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Version:    1,
		},
		CreatedBy: createdBy,
		UpdatedBy: createdBy,
	}
}

// Touch stamps a modification by updatedBy and bumps the version.
func (a *AuditedAggregateRoot) Touch(updatedBy *uuid.UUID) {
	a.UpdatedAt = time.Now()
	a.UpdatedBy = updatedBy
	a.IncrementVersion()
}
