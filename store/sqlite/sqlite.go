/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements entity.Store, entity.TxStore and entity.CheckpointStore using
  SQLite. In production, the same patterns apply to PostgreSQL - only minor
  SQL dialect differences (see store/gormstore for a dialect-neutral store).

INTERFACES IMPLEMENTED:
  entity.Store:           Load/save per entity type
  entity.TxStore:         One SQL transaction per event
  entity.CheckpointStore: Last applied stream position per source

NO DELETE:
  Records are upserted by id and never deleted, except by Reset (demo only).

KEY TABLES:
  users, platforms:  Identity registry records
  leases:            Lease aggregate
  proposals:         Offers keyed "<lease>-<tenant>"
  rent_payments:     Installments keyed "<lease>-<index>"
  checkpoints:       One row per stream source

COLUMN ENCODING:
  Amounts, rates, fees: TEXT holding the decimal string (exact)
  Timestamps:           INTEGER Unix seconds, 0 when unset
  References:           TEXT, NULL when absent

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, so an open
  transaction never races a second connection. Each ":memory:" connection
  would otherwise see its own empty database.

USAGE:
  store, err := sqlite.New("./data/rentindex.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ix := indexer.New(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - entity/store.go: Interface definitions
  - entity/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/rent-indexer/entity"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ entity.TxStore         = (*Store)(nil)
	_ entity.CheckpointStore = (*Store)(nil)
	_ entity.CheckpointStore = (*txStore)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Identity registry
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		handle TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		cid TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	-- Platform registry
	CREATE TABLE IF NOT EXISTS platforms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		cid TEXT NOT NULL DEFAULT '',
		origin_lease_fee_rate TEXT NOT NULL DEFAULT '0',
		origin_proposal_fee_rate TEXT NOT NULL DEFAULT '0',
		lease_posting_fee TEXT NOT NULL DEFAULT '0',
		proposal_posting_fee TEXT NOT NULL DEFAULT '0',
		created_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	-- Leases
	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		owner_id TEXT,
		tenant_id TEXT,
		platform_id TEXT,
		rent_amount TEXT NOT NULL DEFAULT '0',
		payment_token TEXT NOT NULL,
		currency_pair TEXT NOT NULL DEFAULT '',
		total_number_of_rents INTEGER NOT NULL DEFAULT 0,
		rent_payment_interval INTEGER NOT NULL DEFAULT 0,
		rent_payment_limit_time INTEGER NOT NULL DEFAULT 0,
		start_date INTEGER NOT NULL DEFAULT 0,
		schedule_materialized INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		lease_type TEXT NOT NULL,
		cancelled_by_owner INTEGER NOT NULL DEFAULT 0,
		cancelled_by_tenant INTEGER NOT NULL DEFAULT 0,
		tenant_review_uri TEXT NOT NULL DEFAULT '',
		owner_review_uri TEXT NOT NULL DEFAULT '',
		uri TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_leases_owner ON leases(owner_id);
	CREATE INDEX IF NOT EXISTS idx_leases_tenant ON leases(tenant_id);

	-- Proposals
	CREATE TABLE IF NOT EXISTS proposals (
		id TEXT PRIMARY KEY,
		lease_id TEXT,
		tenant_id TEXT,
		owner_id TEXT,
		platform_id TEXT,
		total_number_of_rents INTEGER NOT NULL DEFAULT 0,
		start_date INTEGER NOT NULL DEFAULT 0,
		cid TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_proposals_lease ON proposals(lease_id);

	-- Rent payments (one row per installment)
	CREATE TABLE IF NOT EXISTS rent_payments (
		id TEXT PRIMARY KEY,
		lease_id TEXT,
		tenant_id TEXT,
		owner_id TEXT,
		amount TEXT NOT NULL DEFAULT '0',
		payment_token TEXT NOT NULL,
		rent_payment_date INTEGER NOT NULL DEFAULT 0,
		rent_payment_limit_date INTEGER NOT NULL DEFAULT 0,
		validation_date INTEGER NOT NULL DEFAULT 0,
		exchange_rate TEXT NOT NULL DEFAULT '0',
		exchange_rate_timestamp INTEGER NOT NULL DEFAULT 0,
		without_issues INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	);

	-- Hot path: a lease's schedule in due-date order
	CREATE INDEX IF NOT EXISTS idx_rent_payments_lease_date
		ON rent_payments(lease_id, rent_payment_date);

	-- Stream positions
	CREATE TABLE IF NOT EXISTS checkpoints (
		source TEXT PRIMARY KEY,
		block_number INTEGER NOT NULL,
		log_index INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ENTITY STORE (entity.Store interface)
// =============================================================================

func (s *Store) LoadUser(ctx context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadUser(ctx, s.db, id)
}

func (s *Store) SaveUser(ctx context.Context, u entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func (s *Store) LoadPlatform(ctx context.Context, id string) (*entity.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadPlatform(ctx, s.db, id)
}

func (s *Store) SavePlatform(ctx context.Context, p entity.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePlatform(ctx, s.db, p)
}

func (s *Store) LoadLease(ctx context.Context, id string) (*entity.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadLease(ctx, s.db, id)
}

func (s *Store) SaveLease(ctx context.Context, l entity.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLease(ctx, s.db, l)
}

func (s *Store) LoadProposal(ctx context.Context, id string) (*entity.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadProposal(ctx, s.db, id)
}

func (s *Store) SaveProposal(ctx context.Context, p entity.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProposal(ctx, s.db, p)
}

func (s *Store) LoadRentPayment(ctx context.Context, id string) (*entity.RentPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadRentPayment(ctx, s.db, id)
}

func (s *Store) SaveRentPayment(ctx context.Context, rp entity.RentPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRentPayment(ctx, s.db, rp)
}

func (s *Store) LoadCheckpoint(ctx context.Context, source string) (*entity.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadCheckpoint(ctx, s.db, source)
}

func (s *Store) SaveCheckpoint(ctx context.Context, cp entity.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCheckpoint(ctx, s.db, cp)
}

// =============================================================================
// TRANSACTIONAL STORE (entity.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store entity.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every statement on the open transaction, so reads see the
// transaction's own writes.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) LoadUser(ctx context.Context, id string) (*entity.User, error) {
	return loadUser(ctx, ts.tx, id)
}

func (ts *txStore) SaveUser(ctx context.Context, u entity.User) error {
	return saveUser(ctx, ts.tx, u)
}

func (ts *txStore) LoadPlatform(ctx context.Context, id string) (*entity.Platform, error) {
	return loadPlatform(ctx, ts.tx, id)
}

func (ts *txStore) SavePlatform(ctx context.Context, p entity.Platform) error {
	return savePlatform(ctx, ts.tx, p)
}

func (ts *txStore) LoadLease(ctx context.Context, id string) (*entity.Lease, error) {
	return loadLease(ctx, ts.tx, id)
}

func (ts *txStore) SaveLease(ctx context.Context, l entity.Lease) error {
	return saveLease(ctx, ts.tx, l)
}

func (ts *txStore) LoadProposal(ctx context.Context, id string) (*entity.Proposal, error) {
	return loadProposal(ctx, ts.tx, id)
}

func (ts *txStore) SaveProposal(ctx context.Context, p entity.Proposal) error {
	return saveProposal(ctx, ts.tx, p)
}

func (ts *txStore) LoadRentPayment(ctx context.Context, id string) (*entity.RentPayment, error) {
	return loadRentPayment(ctx, ts.tx, id)
}

func (ts *txStore) SaveRentPayment(ctx context.Context, rp entity.RentPayment) error {
	return saveRentPayment(ctx, ts.tx, rp)
}

func (ts *txStore) LoadCheckpoint(ctx context.Context, source string) (*entity.Checkpoint, error) {
	return loadCheckpoint(ctx, ts.tx, source)
}

func (ts *txStore) SaveCheckpoint(ctx context.Context, cp entity.Checkpoint) error {
	return saveCheckpoint(ctx, ts.tx, cp)
}

// =============================================================================
// USERS / PLATFORMS
// =============================================================================

func loadUser(ctx context.Context, q dbtx, id string) (*entity.User, error) {
	var u entity.User
	err := q.QueryRowContext(ctx, `
		SELECT id, handle, address, cid, created_at, updated_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Handle, &u.Address, &u.CID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func saveUser(ctx context.Context, q dbtx, u entity.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, handle, address, cid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Handle, u.Address, u.CID, int64(u.CreatedAt), int64(u.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func loadPlatform(ctx context.Context, q dbtx, id string) (*entity.Platform, error) {
	var (
		p                                   entity.Platform
		leaseRate, proposalRate             string
		leasePostingFee, proposalPostingFee string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, address, cid,
		       origin_lease_fee_rate, origin_proposal_fee_rate, lease_posting_fee, proposal_posting_fee,
		       created_at, updated_at
		FROM platforms WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Address, &p.CID,
		&leaseRate, &proposalRate, &leasePostingFee, &proposalPostingFee,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load platform: %w", err)
	}

	if p.OriginLeaseFeeRate, err = parseDecimal(leaseRate); err != nil {
		return nil, err
	}
	if p.OriginProposalFeeRate, err = parseDecimal(proposalRate); err != nil {
		return nil, err
	}
	if p.LeasePostingFee, err = parseDecimal(leasePostingFee); err != nil {
		return nil, err
	}
	if p.ProposalPostingFee, err = parseDecimal(proposalPostingFee); err != nil {
		return nil, err
	}
	return &p, nil
}

func savePlatform(ctx context.Context, q dbtx, p entity.Platform) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO platforms
		(id, name, address, cid,
		 origin_lease_fee_rate, origin_proposal_fee_rate, lease_posting_fee, proposal_posting_fee,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Address, p.CID,
		p.OriginLeaseFeeRate.String(), p.OriginProposalFeeRate.String(),
		p.LeasePostingFee.String(), p.ProposalPostingFee.String(),
		int64(p.CreatedAt), int64(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save platform: %w", err)
	}
	return nil
}

// =============================================================================
// LEASES
// =============================================================================

func loadLease(ctx context.Context, q dbtx, id string) (*entity.Lease, error) {
	var (
		l                       entity.Lease
		owner, tenant, platform sql.NullString
		rentAmount              string
		rents                   int64
		status, leaseType       string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, owner_id, tenant_id, platform_id,
		       rent_amount, payment_token, currency_pair,
		       total_number_of_rents, rent_payment_interval, rent_payment_limit_time, start_date,
		       schedule_materialized, status, lease_type,
		       cancelled_by_owner, cancelled_by_tenant,
		       tenant_review_uri, owner_review_uri, uri,
		       created_at, updated_at
		FROM leases WHERE id = ?`, id,
	).Scan(&l.ID, &owner, &tenant, &platform,
		&rentAmount, &l.PaymentToken, &l.CurrencyPair,
		&rents, &l.RentPaymentInterval, &l.RentPaymentLimitTime, &l.StartDate,
		&l.ScheduleMaterialized, &status, &leaseType,
		&l.CancelledByOwner, &l.CancelledByTenant,
		&l.TenantReviewURI, &l.OwnerReviewURI, &l.URI,
		&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lease: %w", err)
	}

	l.Owner = refFromNull(owner)
	l.Tenant = refFromNull(tenant)
	l.Platform = refFromNull(platform)
	l.TotalNumberOfRents = uint64(rents)
	if l.RentAmount, err = parseDecimal(rentAmount); err != nil {
		return nil, err
	}
	l.Status = entity.LeaseStatus(status)
	l.Type = entity.LeaseType(leaseType)
	if !l.Status.Valid() || !l.Type.Valid() {
		return nil, fmt.Errorf("lease %s: %w: %q/%q", id, entity.ErrUnknownKind, status, leaseType)
	}
	return &l, nil
}

func saveLease(ctx context.Context, q dbtx, l entity.Lease) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO leases
		(id, owner_id, tenant_id, platform_id,
		 rent_amount, payment_token, currency_pair,
		 total_number_of_rents, rent_payment_interval, rent_payment_limit_time, start_date,
		 schedule_materialized, status, lease_type,
		 cancelled_by_owner, cancelled_by_tenant,
		 tenant_review_uri, owner_review_uri, uri,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, nullRef(l.Owner), nullRef(l.Tenant), nullRef(l.Platform),
		l.RentAmount.String(), l.PaymentToken, l.CurrencyPair,
		int64(l.TotalNumberOfRents), l.RentPaymentInterval, l.RentPaymentLimitTime, int64(l.StartDate),
		l.ScheduleMaterialized, string(l.Status), string(l.Type),
		l.CancelledByOwner, l.CancelledByTenant,
		l.TenantReviewURI, l.OwnerReviewURI, l.URI,
		int64(l.CreatedAt), int64(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save lease: %w", err)
	}
	return nil
}

// =============================================================================
// PROPOSALS
// =============================================================================

func loadProposal(ctx context.Context, q dbtx, id string) (*entity.Proposal, error) {
	var (
		p                              entity.Proposal
		lease, tenant, owner, platform sql.NullString
		rents                          int64
		status                         string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, lease_id, tenant_id, owner_id, platform_id,
		       total_number_of_rents, start_date, cid, status, created_at, updated_at
		FROM proposals WHERE id = ?`, id,
	).Scan(&p.ID, &lease, &tenant, &owner, &platform,
		&rents, &p.StartDate, &p.CID, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}

	p.Lease = refFromNull(lease)
	p.Tenant = refFromNull(tenant)
	p.Owner = refFromNull(owner)
	p.Platform = refFromNull(platform)
	p.TotalNumberOfRents = uint64(rents)
	p.Status = entity.ProposalStatus(status)
	if !p.Status.Valid() {
		return nil, fmt.Errorf("proposal %s: %w: %q", id, entity.ErrUnknownKind, status)
	}
	return &p, nil
}

func saveProposal(ctx context.Context, q dbtx, p entity.Proposal) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO proposals
		(id, lease_id, tenant_id, owner_id, platform_id,
		 total_number_of_rents, start_date, cid, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullRef(p.Lease), nullRef(p.Tenant), nullRef(p.Owner), nullRef(p.Platform),
		int64(p.TotalNumberOfRents), int64(p.StartDate), p.CID, string(p.Status),
		int64(p.CreatedAt), int64(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}
	return nil
}

// =============================================================================
// RENT PAYMENTS
// =============================================================================

func loadRentPayment(ctx context.Context, q dbtx, id string) (*entity.RentPayment, error) {
	var (
		rp                   entity.RentPayment
		lease, tenant, owner sql.NullString
		amount, rate         string
		status               string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, lease_id, tenant_id, owner_id, amount, payment_token,
		       rent_payment_date, rent_payment_limit_date, validation_date,
		       exchange_rate, exchange_rate_timestamp, without_issues, status
		FROM rent_payments WHERE id = ?`, id,
	).Scan(&rp.ID, &lease, &tenant, &owner, &amount, &rp.PaymentToken,
		&rp.RentPaymentDate, &rp.RentPaymentLimitDate, &rp.ValidationDate,
		&rate, &rp.ExchangeRateTimestamp, &rp.WithoutIssues, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rent payment: %w", err)
	}

	rp.Lease = refFromNull(lease)
	rp.Tenant = refFromNull(tenant)
	rp.Owner = refFromNull(owner)
	if rp.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if rp.ExchangeRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	rp.Status = entity.RentPaymentStatus(status)
	if !rp.Status.Valid() {
		return nil, fmt.Errorf("rent payment %s: %w: %q", id, entity.ErrUnknownKind, status)
	}
	return &rp, nil
}

func saveRentPayment(ctx context.Context, q dbtx, rp entity.RentPayment) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR REPLACE INTO rent_payments
		(id, lease_id, tenant_id, owner_id, amount, payment_token,
		 rent_payment_date, rent_payment_limit_date, validation_date,
		 exchange_rate, exchange_rate_timestamp, without_issues, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rp.ID, nullRef(rp.Lease), nullRef(rp.Tenant), nullRef(rp.Owner),
		rp.Amount.String(), rp.PaymentToken,
		int64(rp.RentPaymentDate), int64(rp.RentPaymentLimitDate), int64(rp.ValidationDate),
		rp.ExchangeRate.String(), int64(rp.ExchangeRateTimestamp), rp.WithoutIssues, string(rp.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to save rent payment: %w", err)
	}
	return nil
}

// =============================================================================
// CHECKPOINTS (entity.CheckpointStore interface)
// =============================================================================

func loadCheckpoint(ctx context.Context, q dbtx, source string) (*entity.Checkpoint, error) {
	cp := entity.Checkpoint{Source: source}
	var block int64
	err := q.QueryRowContext(ctx,
		"SELECT block_number, log_index FROM checkpoints WHERE source = ?", source,
	).Scan(&block, &cp.LogIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	cp.BlockNumber = uint64(block)
	return &cp, nil
}

func saveCheckpoint(ctx context.Context, q dbtx, cp entity.Checkpoint) error {
	_, err := q.ExecContext(ctx,
		"INSERT OR REPLACE INTO checkpoints (source, block_number, log_index) VALUES (?, ?, ?)",
		cp.Source, int64(cp.BlockNumber), cp.LogIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

var tables = []string{"users", "platforms", "leases", "proposals", "rent_payments", "checkpoints"}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the number of stored records per entity type.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := map[string]string{
		"users": "user", "platforms": "platform", "leases": "lease",
		"proposals": "proposal", "rent_payments": "rent_payment",
	}
	stats := make(map[string]int, len(keys))
	for table, key := range keys {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		stats[key] = n
	}
	return stats, nil
}

// Helper functions

func nullRef(r entity.Ref) sql.NullString {
	id, ok := r.Get()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: id, Valid: true}
}

func refFromNull(ns sql.NullString) entity.Ref {
	if !ns.Valid {
		return entity.None
	}
	return entity.Some(ns.String)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal %q: %w", s, err)
	}
	return d, nil
}
