package lease

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
)

// =============================================================================
// RENT SCHEDULE MATERIALIZATION
// =============================================================================

// Materialize expands l's schedule into RentPayment records and marks the
// lease as materialized. trigger names the event that asked for it. The
// caller saves the lease.
//
// For i in [0, TotalNumberOfRents) the installment at RentPaymentID(l.ID, i)
// is get-or-created and its schedule fields are rewritten:
//
//	RentPaymentDate      = StartDate + RentPaymentInterval*i
//	RentPaymentLimitDate = StartDate + RentPaymentLimitTime*i
//	PaymentToken, Lease, Tenant, Owner copied from the lease
//
// Settlement fields (Amount, Status, ValidationDate, exchange rate,
// WithoutIssues) are never written here, so re-running Materialize on a
// lease with paid installments leaves them paid. Ids are deterministic, so a
// second run rewrites the same n records instead of adding n more.
//
// An empty schedule or one longer than entity.MaxRents is reported as an
// anomaly and leaves the lease unmaterialized.
func (r *Reducer) Materialize(ctx context.Context, trigger event.Kind, l *entity.Lease) ([]string, error) {
	if l.TotalNumberOfRents == 0 {
		r.anomaly(trigger, ReasonEmptySchedule, zap.String("lease_id", l.ID))
		return nil, nil
	}
	if l.TotalNumberOfRents > entity.MaxRents {
		r.anomaly(trigger, ReasonScheduleTooLarge,
			zap.String("lease_id", l.ID),
			zap.Uint64("total_number_of_rents", l.TotalNumberOfRents))
		return nil, nil
	}

	ids := make([]string, 0, l.TotalNumberOfRents)
	for i := uint64(0); i < l.TotalNumberOfRents; i++ {
		rp, err := r.repo.GetOrCreateRentPayment(ctx, entity.RentPaymentID(l.ID, i))
		if err != nil {
			return ids, err
		}
		rp.Lease = entity.Some(l.ID)
		rp.Tenant = l.Tenant
		rp.Owner = l.Owner
		rp.PaymentToken = l.PaymentToken
		rp.RentPaymentDate = l.StartDate.Offset(l.RentPaymentInterval, i)
		rp.RentPaymentLimitDate = l.StartDate.Offset(l.RentPaymentLimitTime, i)

		if err := r.repo.SaveRentPayment(ctx, *rp); err != nil {
			return ids, err
		}
		ids = append(ids, rp.ID)
	}

	l.ScheduleMaterialized = true
	r.observer.Materialized(l.ID, len(ids))
	r.log.Debug("rent schedule materialized",
		zap.String("lease_id", l.ID),
		zap.String("trigger", string(trigger)),
		zap.Int("installments", len(ids)),
		zap.Int64("start", int64(l.StartDate)),
		zap.Int64("interval", l.RentPaymentInterval))
	return ids, nil
}
