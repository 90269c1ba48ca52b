/*
repository.go - Get-or-create accessors

PURPOSE:
  Every reducer reaches entities through the Repository. A lookup either
  returns the stored record or constructs one with documented defaults,
  saves it immediately, and returns it.

CRITICAL INVARIANTS:
  1. IDEMPOTENT: Two calls with the same id and no intervening save return
     the same field values. Defaults are applied only on construction.
  2. NON-MUTATING: A lookup never rewrites an existing record's identity or
     relationship fields. Only explicit assignment by a reducer does that.
  3. ALWAYS SUCCEEDS: A missing record is not an error. Referencing an id
     before the event that names it yields a placeholder record; consistency
     across entity types is eventual.

DEFAULTS:
  User:        empty handle/cid, ZeroAddress
  Platform:    empty name/cid, ZeroAddress, zero fees
  Lease:       PENDING, DIRECT, zero amounts, ZeroAddress token, no refs
  Proposal:    PENDING, no refs
  RentPayment: PENDING, zero amount and rate, ZeroAddress token, no refs

EXAMPLE:
  repo := entity.NewRepository(store)
  lease, err := repo.GetOrCreateLease(ctx, "42")
  lease.Status = entity.LeaseActive
  err = repo.SaveLease(ctx, *lease)

SEE ALSO:
  - store.go: Underlying persistence interface
  - types.go: New* constructors holding the defaults
*/
package entity

import "context"

// =============================================================================
// REPOSITORY - Get-or-create over a Store
// =============================================================================

type Repository struct {
	Store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{Store: store}
}

func (r *Repository) GetOrCreateUser(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	u, err := r.Store.LoadUser(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "user", ID: id, Err: err}
	}
	if u != nil {
		return u, nil
	}
	created := NewUser(id)
	if err := r.SaveUser(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repository) GetOrCreatePlatform(ctx context.Context, id string) (*Platform, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	p, err := r.Store.LoadPlatform(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "platform", ID: id, Err: err}
	}
	if p != nil {
		return p, nil
	}
	created := NewPlatform(id)
	if err := r.SavePlatform(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repository) GetOrCreateLease(ctx context.Context, id string) (*Lease, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	l, err := r.Store.LoadLease(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "lease", ID: id, Err: err}
	}
	if l != nil {
		return l, nil
	}
	created := NewLease(id)
	if err := r.SaveLease(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repository) GetOrCreateProposal(ctx context.Context, id string) (*Proposal, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	p, err := r.Store.LoadProposal(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "proposal", ID: id, Err: err}
	}
	if p != nil {
		return p, nil
	}
	created := NewProposal(id)
	if err := r.SaveProposal(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *Repository) GetOrCreateRentPayment(ctx context.Context, id string) (*RentPayment, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	rp, err := r.Store.LoadRentPayment(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "load", Entity: "rent_payment", ID: id, Err: err}
	}
	if rp != nil {
		return rp, nil
	}
	created := NewRentPayment(id)
	if err := r.SaveRentPayment(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

// =============================================================================
// SAVE - Store writes wrapped with record context
// =============================================================================

func (r *Repository) SaveUser(ctx context.Context, u User) error {
	if err := r.Store.SaveUser(ctx, u); err != nil {
		return &StoreError{Op: "save", Entity: "user", ID: u.ID, Err: err}
	}
	return nil
}

func (r *Repository) SavePlatform(ctx context.Context, p Platform) error {
	if err := r.Store.SavePlatform(ctx, p); err != nil {
		return &StoreError{Op: "save", Entity: "platform", ID: p.ID, Err: err}
	}
	return nil
}

func (r *Repository) SaveLease(ctx context.Context, l Lease) error {
	if err := r.Store.SaveLease(ctx, l); err != nil {
		return &StoreError{Op: "save", Entity: "lease", ID: l.ID, Err: err}
	}
	return nil
}

func (r *Repository) SaveProposal(ctx context.Context, p Proposal) error {
	if err := r.Store.SaveProposal(ctx, p); err != nil {
		return &StoreError{Op: "save", Entity: "proposal", ID: p.ID, Err: err}
	}
	return nil
}

func (r *Repository) SaveRentPayment(ctx context.Context, rp RentPayment) error {
	if err := r.Store.SaveRentPayment(ctx, rp); err != nil {
		return &StoreError{Op: "save", Entity: "rent_payment", ID: rp.ID, Err: err}
	}
	return nil
}
