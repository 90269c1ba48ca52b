/*
Package registry reduces identity-registry and platform-registry events
into User and Platform records.

PURPOSE:
  Both registries mint a numbered token per identity and let the holder
  point it at off-chain metadata. Users and platforms are also created
  implicitly by lease events through get-or-create, so a mint may land on
  a placeholder record and fill it in.

EVENTS:
  UserMinted:                   handle, address, createdAt (updatedAt reset)
  UserCidUpdated:               cid, updatedAt
  PlatformMinted:               name, owner address, createdAt (updatedAt reset)
  PlatformCidUpdated:           cid, updatedAt
  OriginLeaseFeeRateUpdated:    fee parameter, updatedAt
  OriginProposalFeeRateUpdated: fee parameter, updatedAt
  LeasePostingFeeUpdated:       fee parameter, updatedAt
  ProposalPostingFeeUpdated:    fee parameter, updatedAt
  LeaseContractAddressUpdated:  ignored
  MintFeeUpdated:               ignored (protocol-level, no entity)

SEE ALSO:
  - lease: Reducers for the lease contract
  - entity/repository.go: Get-or-create accessors
*/
package registry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
)

type Reducer struct {
	repo *entity.Repository
	log  *zap.Logger
}

func NewReducer(store entity.Store, log *zap.Logger) *Reducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reducer{repo: entity.NewRepository(store), log: log}
}

// =============================================================================
// USERS
// =============================================================================

func (r *Reducer) UserMinted(ctx context.Context, meta event.Meta, e *event.UserMinted) error {
	u, err := r.repo.GetOrCreateUser(ctx, e.UserID)
	if err != nil {
		return err
	}
	u.Handle = e.Handle
	u.Address = e.Address
	u.CreatedAt = meta.Timestamp
	u.UpdatedAt = 0
	return r.repo.SaveUser(ctx, *u)
}

func (r *Reducer) UserCidUpdated(ctx context.Context, meta event.Meta, e *event.UserCidUpdated) error {
	u, err := r.repo.GetOrCreateUser(ctx, e.UserID)
	if err != nil {
		return err
	}
	u.CID = e.CID
	u.UpdatedAt = meta.Timestamp
	return r.repo.SaveUser(ctx, *u)
}

func (r *Reducer) LeaseContractAddressUpdated(_ context.Context, meta event.Meta, e *event.LeaseContractAddressUpdated) error {
	r.log.Debug("ignoring lease contract address",
		zap.String("address", e.Address),
		zap.Stringer("at", meta))
	return nil
}

// =============================================================================
// PLATFORMS
// =============================================================================

func (r *Reducer) PlatformMinted(ctx context.Context, meta event.Meta, e *event.PlatformMinted) error {
	p, err := r.repo.GetOrCreatePlatform(ctx, e.PlatformID)
	if err != nil {
		return err
	}
	p.Name = e.Name
	p.Address = e.Address
	p.CreatedAt = meta.Timestamp
	p.UpdatedAt = 0
	return r.repo.SavePlatform(ctx, *p)
}

func (r *Reducer) PlatformCidUpdated(ctx context.Context, meta event.Meta, e *event.PlatformCidUpdated) error {
	p, err := r.repo.GetOrCreatePlatform(ctx, e.PlatformID)
	if err != nil {
		return err
	}
	p.CID = e.CID
	p.UpdatedAt = meta.Timestamp
	return r.repo.SavePlatform(ctx, *p)
}

func (r *Reducer) MintFeeUpdated(_ context.Context, meta event.Meta, e *event.MintFeeUpdated) error {
	r.log.Debug("ignoring mint fee",
		zap.String("fee", e.MintFee.String()),
		zap.Stringer("at", meta))
	return nil
}

func (r *Reducer) OriginLeaseFeeRateUpdated(ctx context.Context, meta event.Meta, e *event.OriginLeaseFeeRateUpdated) error {
	return r.setFee(ctx, meta, e.PlatformFee, func(p *entity.Platform, v decimal.Decimal) { p.OriginLeaseFeeRate = v })
}

func (r *Reducer) OriginProposalFeeRateUpdated(ctx context.Context, meta event.Meta, e *event.OriginProposalFeeRateUpdated) error {
	return r.setFee(ctx, meta, e.PlatformFee, func(p *entity.Platform, v decimal.Decimal) { p.OriginProposalFeeRate = v })
}

func (r *Reducer) LeasePostingFeeUpdated(ctx context.Context, meta event.Meta, e *event.LeasePostingFeeUpdated) error {
	return r.setFee(ctx, meta, e.PlatformFee, func(p *entity.Platform, v decimal.Decimal) { p.LeasePostingFee = v })
}

func (r *Reducer) ProposalPostingFeeUpdated(ctx context.Context, meta event.Meta, e *event.ProposalPostingFeeUpdated) error {
	return r.setFee(ctx, meta, e.PlatformFee, func(p *entity.Platform, v decimal.Decimal) { p.ProposalPostingFee = v })
}

func (r *Reducer) setFee(ctx context.Context, meta event.Meta, fee event.PlatformFee, set func(*entity.Platform, decimal.Decimal)) error {
	p, err := r.repo.GetOrCreatePlatform(ctx, fee.PlatformID)
	if err != nil {
		return err
	}
	set(p, fee.Value)
	p.UpdatedAt = meta.Timestamp
	return r.repo.SavePlatform(ctx, *p)
}
