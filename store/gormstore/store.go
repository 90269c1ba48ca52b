package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warp/rent-indexer/entity"
)

// Store works on a *gorm.DB that is either the connection pool or, inside
// WithTx, an open transaction.
type Store struct {
	db *gorm.DB
}

var (
	_ entity.Store           = (*Store)(nil)
	_ entity.TxStore         = (*Store)(nil)
	_ entity.CheckpointStore = (*Store)(nil)
)

// take loads one row by primary key. A missing row is (false, nil).
func take(ctx context.Context, db *gorm.DB, dst any, key, id string) (bool, error) {
	err := db.WithContext(ctx).Where(key+" = ?", id).Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// upsert inserts rec or overwrites every column of the existing row.
func upsert(ctx context.Context, db *gorm.DB, rec any) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (s *Store) LoadUser(ctx context.Context, id string) (*entity.User, error) {
	var rec userModel
	found, err := take(ctx, s.db, &rec, "id", id)
	if err != nil || !found {
		return nil, wrap(err, "load user")
	}
	u := toDomainUser(rec)
	return &u, nil
}

func (s *Store) SaveUser(ctx context.Context, u entity.User) error {
	rec := toUserModel(u)
	return wrap(upsert(ctx, s.db, &rec), "save user")
}

func (s *Store) LoadPlatform(ctx context.Context, id string) (*entity.Platform, error) {
	var rec platformModel
	found, err := take(ctx, s.db, &rec, "id", id)
	if err != nil || !found {
		return nil, wrap(err, "load platform")
	}
	p, err := toDomainPlatform(rec)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SavePlatform(ctx context.Context, p entity.Platform) error {
	rec := toPlatformModel(p)
	return wrap(upsert(ctx, s.db, &rec), "save platform")
}

func (s *Store) LoadLease(ctx context.Context, id string) (*entity.Lease, error) {
	var rec leaseModel
	found, err := take(ctx, s.db, &rec, "id", id)
	if err != nil || !found {
		return nil, wrap(err, "load lease")
	}
	l, err := toDomainLease(rec)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) SaveLease(ctx context.Context, l entity.Lease) error {
	rec := toLeaseModel(l)
	return wrap(upsert(ctx, s.db, &rec), "save lease")
}

func (s *Store) LoadProposal(ctx context.Context, id string) (*entity.Proposal, error) {
	var rec proposalModel
	found, err := take(ctx, s.db, &rec, "id", id)
	if err != nil || !found {
		return nil, wrap(err, "load proposal")
	}
	p, err := toDomainProposal(rec)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveProposal(ctx context.Context, p entity.Proposal) error {
	rec := toProposalModel(p)
	return wrap(upsert(ctx, s.db, &rec), "save proposal")
}

func (s *Store) LoadRentPayment(ctx context.Context, id string) (*entity.RentPayment, error) {
	var rec rentPaymentModel
	found, err := take(ctx, s.db, &rec, "id", id)
	if err != nil || !found {
		return nil, wrap(err, "load rent payment")
	}
	rp, err := toDomainRentPayment(rec)
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Store) SaveRentPayment(ctx context.Context, rp entity.RentPayment) error {
	rec := toRentPaymentModel(rp)
	return wrap(upsert(ctx, s.db, &rec), "save rent payment")
}

func (s *Store) LoadCheckpoint(ctx context.Context, source string) (*entity.Checkpoint, error) {
	var rec checkpointModel
	found, err := take(ctx, s.db, &rec, "source", source)
	if err != nil || !found {
		return nil, wrap(err, "load checkpoint")
	}
	cp := toDomainCheckpoint(rec)
	return &cp, nil
}

func (s *Store) SaveCheckpoint(ctx context.Context, cp entity.Checkpoint) error {
	rec := toCheckpointModel(cp)
	return wrap(upsert(ctx, s.db, &rec), "save checkpoint")
}

// WithTx runs fn against a Store bound to one database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(entity.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes every row (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range allModels {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		return nil
	})
}

// Stats counts rows per entity type.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	counted := []struct {
		key   string
		model any
	}{
		{"user", &userModel{}},
		{"platform", &platformModel{}},
		{"lease", &leaseModel{}},
		{"proposal", &proposalModel{}},
		{"rent_payment", &rentPaymentModel{}},
	}
	stats := make(map[string]int, len(counted))
	for _, c := range counted {
		var n int64
		if err := s.db.WithContext(ctx).Model(c.model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", c.key, err)
		}
		stats[c.key] = int(n)
	}
	return stats, nil
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
