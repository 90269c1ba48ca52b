package gormstore

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/rent-indexer/entity"
)

func toUserModel(u entity.User) userModel {
	return userModel{
		ID: u.ID, Handle: u.Handle, Address: u.Address, CID: u.CID,
		CreatedAt: int64(u.CreatedAt), UpdatedAt: int64(u.UpdatedAt),
	}
}

func toDomainUser(m userModel) entity.User {
	return entity.User{
		ID: m.ID, Handle: m.Handle, Address: m.Address, CID: m.CID,
		CreatedAt: entity.Timestamp(m.CreatedAt), UpdatedAt: entity.Timestamp(m.UpdatedAt),
	}
}

func toPlatformModel(p entity.Platform) platformModel {
	return platformModel{
		ID: p.ID, Name: p.Name, Address: p.Address, CID: p.CID,
		OriginLeaseFeeRate: p.OriginLeaseFeeRate.String(), OriginProposalFeeRate: p.OriginProposalFeeRate.String(),
		LeasePostingFee: p.LeasePostingFee.String(), ProposalPostingFee: p.ProposalPostingFee.String(),
		CreatedAt: int64(p.CreatedAt), UpdatedAt: int64(p.UpdatedAt),
	}
}

func toDomainPlatform(m platformModel) (entity.Platform, error) {
	p := entity.Platform{
		ID: m.ID, Name: m.Name, Address: m.Address, CID: m.CID,
		CreatedAt: entity.Timestamp(m.CreatedAt), UpdatedAt: entity.Timestamp(m.UpdatedAt),
	}
	var err error
	if p.OriginLeaseFeeRate, err = parseDecimal(m.OriginLeaseFeeRate); err != nil {
		return p, err
	}
	if p.OriginProposalFeeRate, err = parseDecimal(m.OriginProposalFeeRate); err != nil {
		return p, err
	}
	if p.LeasePostingFee, err = parseDecimal(m.LeasePostingFee); err != nil {
		return p, err
	}
	if p.ProposalPostingFee, err = parseDecimal(m.ProposalPostingFee); err != nil {
		return p, err
	}
	return p, nil
}

func toLeaseModel(l entity.Lease) leaseModel {
	return leaseModel{
		ID: l.ID, OwnerID: l.Owner.Ptr(), TenantID: l.Tenant.Ptr(), PlatformID: l.Platform.Ptr(),
		RentAmount: l.RentAmount.String(), PaymentToken: l.PaymentToken, CurrencyPair: l.CurrencyPair,
		TotalNumberOfRents: int64(l.TotalNumberOfRents), RentPaymentInterval: l.RentPaymentInterval,
		RentPaymentLimitTime: l.RentPaymentLimitTime, StartDate: int64(l.StartDate),
		ScheduleMaterialized: l.ScheduleMaterialized, Status: string(l.Status), LeaseType: string(l.Type),
		CancelledByOwner: l.CancelledByOwner, CancelledByTenant: l.CancelledByTenant,
		TenantReviewURI: l.TenantReviewURI, OwnerReviewURI: l.OwnerReviewURI, URI: l.URI,
		CreatedAt: int64(l.CreatedAt), UpdatedAt: int64(l.UpdatedAt),
	}
}

func toDomainLease(m leaseModel) (entity.Lease, error) {
	l := entity.Lease{
		ID: m.ID, Owner: entity.RefFromPtr(m.OwnerID), Tenant: entity.RefFromPtr(m.TenantID),
		Platform: entity.RefFromPtr(m.PlatformID), PaymentToken: m.PaymentToken, CurrencyPair: m.CurrencyPair,
		TotalNumberOfRents: uint64(m.TotalNumberOfRents), RentPaymentInterval: m.RentPaymentInterval,
		RentPaymentLimitTime: m.RentPaymentLimitTime, StartDate: entity.Timestamp(m.StartDate),
		ScheduleMaterialized: m.ScheduleMaterialized, Status: entity.LeaseStatus(m.Status),
		Type: entity.LeaseType(m.LeaseType),
		CancelledByOwner: m.CancelledByOwner, CancelledByTenant: m.CancelledByTenant,
		TenantReviewURI: m.TenantReviewURI, OwnerReviewURI: m.OwnerReviewURI, URI: m.URI,
		CreatedAt: entity.Timestamp(m.CreatedAt), UpdatedAt: entity.Timestamp(m.UpdatedAt),
	}
	if !l.Status.Valid() || !l.Type.Valid() {
		return l, fmt.Errorf("lease %s: %w: %q/%q", m.ID, entity.ErrUnknownKind, m.Status, m.LeaseType)
	}
	var err error
	l.RentAmount, err = parseDecimal(m.RentAmount)
	return l, err
}

func toProposalModel(p entity.Proposal) proposalModel {
	return proposalModel{
		ID: p.ID, LeaseID: p.Lease.Ptr(), TenantID: p.Tenant.Ptr(), OwnerID: p.Owner.Ptr(),
		PlatformID: p.Platform.Ptr(), TotalNumberOfRents: int64(p.TotalNumberOfRents),
		StartDate: int64(p.StartDate), CID: p.CID, Status: string(p.Status),
		CreatedAt: int64(p.CreatedAt), UpdatedAt: int64(p.UpdatedAt),
	}
}

func toDomainProposal(m proposalModel) (entity.Proposal, error) {
	p := entity.Proposal{
		ID: m.ID, Lease: entity.RefFromPtr(m.LeaseID), Tenant: entity.RefFromPtr(m.TenantID),
		Owner: entity.RefFromPtr(m.OwnerID), Platform: entity.RefFromPtr(m.PlatformID),
		TotalNumberOfRents: uint64(m.TotalNumberOfRents), StartDate: entity.Timestamp(m.StartDate),
		CID: m.CID, Status: entity.ProposalStatus(m.Status),
		CreatedAt: entity.Timestamp(m.CreatedAt), UpdatedAt: entity.Timestamp(m.UpdatedAt),
	}
	if !p.Status.Valid() {
		return p, fmt.Errorf("proposal %s: %w: %q", m.ID, entity.ErrUnknownKind, m.Status)
	}
	return p, nil
}

func toRentPaymentModel(rp entity.RentPayment) rentPaymentModel {
	return rentPaymentModel{
		ID: rp.ID, LeaseID: rp.Lease.Ptr(), TenantID: rp.Tenant.Ptr(), OwnerID: rp.Owner.Ptr(),
		Amount: rp.Amount.String(), PaymentToken: rp.PaymentToken,
		RentPaymentDate: int64(rp.RentPaymentDate), RentPaymentLimitDate: int64(rp.RentPaymentLimitDate),
		ValidationDate: int64(rp.ValidationDate), ExchangeRate: rp.ExchangeRate.String(),
		ExchangeRateTimestamp: int64(rp.ExchangeRateTimestamp), WithoutIssues: rp.WithoutIssues,
		Status: string(rp.Status),
	}
}

func toDomainRentPayment(m rentPaymentModel) (entity.RentPayment, error) {
	rp := entity.RentPayment{
		ID: m.ID, Lease: entity.RefFromPtr(m.LeaseID), Tenant: entity.RefFromPtr(m.TenantID),
		Owner: entity.RefFromPtr(m.OwnerID), PaymentToken: m.PaymentToken,
		RentPaymentDate:       entity.Timestamp(m.RentPaymentDate),
		RentPaymentLimitDate:  entity.Timestamp(m.RentPaymentLimitDate),
		ValidationDate:        entity.Timestamp(m.ValidationDate),
		ExchangeRateTimestamp: entity.Timestamp(m.ExchangeRateTimestamp),
		WithoutIssues:         m.WithoutIssues,
		Status:                entity.RentPaymentStatus(m.Status),
	}
	if !rp.Status.Valid() {
		return rp, fmt.Errorf("rent payment %s: %w: %q", m.ID, entity.ErrUnknownKind, m.Status)
	}
	var err error
	if rp.Amount, err = parseDecimal(m.Amount); err != nil {
		return rp, err
	}
	rp.ExchangeRate, err = parseDecimal(m.ExchangeRate)
	return rp, err
}

func toCheckpointModel(cp entity.Checkpoint) checkpointModel {
	return checkpointModel{Source: cp.Source, BlockNumber: int64(cp.BlockNumber), LogIndex: int64(cp.LogIndex)}
}

func toDomainCheckpoint(m checkpointModel) entity.Checkpoint {
	return entity.Checkpoint{Source: m.Source, BlockNumber: uint64(m.BlockNumber), LogIndex: uint32(m.LogIndex)}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}
