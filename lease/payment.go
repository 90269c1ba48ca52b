package lease

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
)

// =============================================================================
// SETTLEMENT - Per-installment outcomes
// =============================================================================
//
// Settlement events address one installment by (leaseId, rentId). The
// installment may not have been materialized yet (payment before
// validation on a replayed stream); get-or-create absorbs that and the
// later materialization only fills in schedule fields.

func (r *Reducer) rentPayment(ctx context.Context, ref event.RentRef) (*entity.RentPayment, error) {
	rp, err := r.repo.GetOrCreateRentPayment(ctx, ref.PaymentID())
	if err != nil {
		return nil, err
	}
	if !rp.Lease.IsSet() {
		rp.Lease = entity.Some(ref.LeaseID)
	}
	return rp, nil
}

func (r *Reducer) markPaid(kind event.Kind, meta event.Meta, rp *entity.RentPayment, amount decimal.Decimal, withoutIssues bool) {
	if !amount.IsPositive() {
		r.anomaly(kind, ReasonUnsettledPaidRent,
			zap.String("rent_payment_id", rp.ID),
			zap.String("amount", amount.String()))
	}
	rp.Amount = amount
	rp.WithoutIssues = withoutIssues
	rp.Status = entity.RentPaymentPaid
	rp.ValidationDate = meta.Timestamp
}

// FiatRentPaid settles an installment paid against a fiat-denominated rent,
// recording the exchange rate that was applied.
func (r *Reducer) FiatRentPaid(ctx context.Context, meta event.Meta, e *event.FiatRentPaid) error {
	rp, err := r.rentPayment(ctx, e.RentRef)
	if err != nil {
		return err
	}
	r.markPaid(e.Kind(), meta, rp, e.Amount, e.WithoutIssues)
	rp.ExchangeRate = e.ExchangeRate
	rp.ExchangeRateTimestamp = e.ExchangeRateTimestamp
	return r.repo.SaveRentPayment(ctx, *rp)
}

func (r *Reducer) CryptoRentPaid(ctx context.Context, meta event.Meta, e *event.CryptoRentPaid) error {
	rp, err := r.rentPayment(ctx, e.RentRef)
	if err != nil {
		return err
	}
	r.markPaid(e.Kind(), meta, rp, e.Amount, e.WithoutIssues)
	return r.repo.SaveRentPayment(ctx, *rp)
}

// RentNotPaid declares the installment missed. The amount is kept.
func (r *Reducer) RentNotPaid(ctx context.Context, meta event.Meta, e *event.RentNotPaid) error {
	rp, err := r.rentPayment(ctx, e.RentRef)
	if err != nil {
		return err
	}
	rp.Status = entity.RentPaymentNotPaid
	rp.ValidationDate = meta.Timestamp
	return r.repo.SaveRentPayment(ctx, *rp)
}

func (r *Reducer) RentPaymentIssueStatusUpdated(ctx context.Context, _ event.Meta, e *event.RentPaymentIssueStatusUpdated) error {
	rp, err := r.rentPayment(ctx, e.RentRef)
	if err != nil {
		return err
	}
	rp.WithoutIssues = e.WithoutIssues
	return r.repo.SaveRentPayment(ctx, *rp)
}

func (r *Reducer) SetRentToPending(ctx context.Context, _ event.Meta, e *event.SetRentToPending) error {
	rp, err := r.rentPayment(ctx, e.RentRef)
	if err != nil {
		return err
	}
	rp.Status = entity.RentPaymentPending
	return r.repo.SaveRentPayment(ctx, *rp)
}

// UpdateRentStatus overrides the status by on-chain code. Unmapped codes
// leave the status unchanged.
func (r *Reducer) UpdateRentStatus(ctx context.Context, _ event.Meta, e *event.UpdateRentStatus) error {
	rp, err := r.rentPayment(ctx, e.RentRef)
	if err != nil {
		return err
	}
	status, ok := entity.RentPaymentStatusFromCode(e.Status)
	if !ok {
		r.anomaly(e.Kind(), ReasonUnmappedStatus,
			zap.String("rent_payment_id", rp.ID),
			zap.Uint64("code", e.Status),
			zap.String("status", string(rp.Status)))
	} else {
		rp.Status = status
	}
	return r.repo.SaveRentPayment(ctx, *rp)
}

// ProtocolFeeRateUpdated has no entity to land on.
func (r *Reducer) ProtocolFeeRateUpdated(_ context.Context, meta event.Meta, e *event.ProtocolFeeRateUpdated) error {
	r.log.Debug("ignoring protocol fee rate",
		zap.String("rate", e.Rate.String()),
		zap.Stringer("at", meta))
	return nil
}
