package shared

import "time"

// Entity is anything the ledger stores under a sequence id.
type Entity interface {
	GetID() int64
}

// AggregateRoot is an entity saved as a unit and guarded by a version
// counter. Demands are the only aggregate roots in the ledger.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseEntity holds the identity and timestamps shared by ledger records.
// ID stays zero until the row is inserted.
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps both timestamps with the current time.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) GetID() int64 { return e.ID }

// Touch marks the record as modified now.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// BaseAggregateRoot is a BaseEntity with the version a repository compares
// on save. The row lock taken by mutating operations is the primary guard.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }
