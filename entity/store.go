/*
store.go - Persistence interface for derived entities

PURPOSE:
  Defines the boundary between the reducers and the database. The Store
  loads and saves whole records by id. Different implementations can use
  SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  Store:           Load/save per entity type
  TxStore:         Per-event atomic writes
  CheckpointStore: Stream position of the last applied event

LOAD CONTRACT:
  LoadX returns (nil, nil) when the record does not exist. Absence is not
  an error at this layer; the Repository turns it into a default record.

NO DELETE:
  Records are created once and updated many times. There is no Delete.

IMPLEMENTATIONS:
  - entity/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: SQLite via database/sql
  - store/gormstore: PostgreSQL or SQLite via GORM

SEE ALSO:
  - repository.go: Get-or-create accessors built on Store
*/
package entity

import "context"

// =============================================================================
// STORE - Load/save per entity type
// =============================================================================

type Store interface {
	LoadUser(ctx context.Context, id string) (*User, error)
	SaveUser(ctx context.Context, u User) error

	LoadPlatform(ctx context.Context, id string) (*Platform, error)
	SavePlatform(ctx context.Context, p Platform) error

	LoadLease(ctx context.Context, id string) (*Lease, error)
	SaveLease(ctx context.Context, l Lease) error

	LoadProposal(ctx context.Context, id string) (*Proposal, error)
	SaveProposal(ctx context.Context, p Proposal) error

	LoadRentPayment(ctx context.Context, id string) (*RentPayment, error)
	SaveRentPayment(ctx context.Context, rp RentPayment) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
// The indexer applies each event inside one WithTx call, never across events.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// CHECKPOINT STORE - Stream position
// =============================================================================

// Checkpoint is the position of an event in its source order.
type Checkpoint struct {
	Source      string // stream name, e.g. "http" or a kafka topic
	BlockNumber uint64
	LogIndex    uint32
}

// Before reports whether c precedes other in source order.
func (c Checkpoint) Before(other Checkpoint) bool {
	if c.BlockNumber != other.BlockNumber {
		return c.BlockNumber < other.BlockNumber
	}
	return c.LogIndex < other.LogIndex
}

// CheckpointStore is optionally implemented by stores that can remember
// how far a stream has been applied.
type CheckpointStore interface {
	// LoadCheckpoint returns (nil, nil) if the source has never been applied.
	LoadCheckpoint(ctx context.Context, source string) (*Checkpoint, error)
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
}
