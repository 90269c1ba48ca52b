package lease

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
)

// =============================================================================
// PROPOSALS - Open-marketplace offers
// =============================================================================

// ProposalSubmitted records a tenant's offer on an open lease. The owner is
// copied from the lease as it stands when the offer arrives.
func (r *Reducer) ProposalSubmitted(ctx context.Context, meta event.Meta, e *event.ProposalSubmitted) error {
	tenant, err := r.ensureUser(ctx, e.TenantID)
	if err != nil {
		return err
	}
	platform, err := r.ensurePlatform(ctx, e.PlatformID)
	if err != nil {
		return err
	}
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}

	p, err := r.repo.GetOrCreateProposal(ctx, entity.ProposalID(e.LeaseID, e.TenantID))
	if err != nil {
		return err
	}
	p.Lease = entity.Some(l.ID)
	p.Tenant = tenant
	p.Owner = l.Owner
	p.Platform = platform
	p.TotalNumberOfRents = e.TotalNumberOfRents
	p.StartDate = e.StartDate
	p.CID = e.CID
	// A redelivered submission must not undo an acceptance.
	if p.Status != entity.ProposalAccepted {
		p.Status = entity.ProposalPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = meta.Timestamp
	}
	return r.repo.SaveProposal(ctx, *p)
}

// ProposalUpdated revises the offered terms. Status is left as is.
func (r *Reducer) ProposalUpdated(ctx context.Context, meta event.Meta, e *event.ProposalUpdated) error {
	p, err := r.repo.GetOrCreateProposal(ctx, entity.ProposalID(e.LeaseID, e.TenantID))
	if err != nil {
		return err
	}
	if !p.Lease.IsSet() {
		p.Lease = entity.Some(e.LeaseID)
	}
	if !p.Tenant.IsSet() {
		p.Tenant = entity.Some(e.TenantID)
	}
	p.TotalNumberOfRents = e.TotalNumberOfRents
	p.StartDate = e.StartDate
	p.CID = e.CID
	p.UpdatedAt = meta.Timestamp
	return r.repo.SaveProposal(ctx, *p)
}

// ProposalValidated accepts a proposal. The lease takes the proposal's
// TotalNumberOfRents and StartDate and its tenant, becomes ACTIVE and has its
// schedule materialized. No other lease field is touched, and sibling
// proposals on the same lease are left as they are.
func (r *Reducer) ProposalValidated(ctx context.Context, meta event.Meta, e *event.ProposalValidated) error {
	p, err := r.repo.GetOrCreateProposal(ctx, entity.ProposalID(e.LeaseID, e.TenantID))
	if err != nil {
		return err
	}
	tenant, err := r.ensureUser(ctx, e.TenantID)
	if err != nil {
		return err
	}
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}

	p.Status = entity.ProposalAccepted
	p.UpdatedAt = meta.Timestamp
	if !p.Lease.IsSet() {
		p.Lease = entity.Some(l.ID)
	}
	if !p.Tenant.IsSet() {
		p.Tenant = tenant
	}
	if err := r.repo.SaveProposal(ctx, *p); err != nil {
		return err
	}

	if current, ok := l.Tenant.Get(); ok && tenant.IsSet() && current != e.TenantID {
		r.anomaly(e.Kind(), ReasonTenantReassigned,
			zap.String("lease_id", l.ID),
			zap.String("tenant", current),
			zap.String("accepted_tenant", e.TenantID))
	}
	if tenant.IsSet() {
		l.Tenant = tenant
	}

	switch {
	case !l.ScheduleMaterialized:
		l.TotalNumberOfRents = p.TotalNumberOfRents
		l.StartDate = p.StartDate
	case l.TotalNumberOfRents != p.TotalNumberOfRents || l.StartDate != p.StartDate:
		r.anomaly(e.Kind(), ReasonScheduleFrozen,
			zap.String("lease_id", l.ID),
			zap.String("proposal_id", p.ID),
			zap.Uint64("rents", l.TotalNumberOfRents),
			zap.Uint64("requested_rents", p.TotalNumberOfRents))
	}
	l.Status = entity.LeaseActive
	l.UpdatedAt = meta.Timestamp

	if _, err := r.Materialize(ctx, e.Kind(), l); err != nil {
		return err
	}
	return r.repo.SaveLease(ctx, *l)
}

// OpenProposalSubmitted is reserved by the contract and changes nothing.
func (r *Reducer) OpenProposalSubmitted(_ context.Context, meta event.Meta, e *event.OpenProposalSubmitted) error {
	r.log.Debug("ignoring reserved event",
		zap.String("kind", string(e.Kind())),
		zap.String("lease_id", e.LeaseID),
		zap.Stringer("at", meta))
	return nil
}

// OpenProposalUpdated is reserved by the contract and changes nothing.
func (r *Reducer) OpenProposalUpdated(_ context.Context, meta event.Meta, e *event.OpenProposalUpdated) error {
	r.log.Debug("ignoring reserved event",
		zap.String("kind", string(e.Kind())),
		zap.String("lease_id", e.LeaseID),
		zap.Stringer("at", meta))
	return nil
}
