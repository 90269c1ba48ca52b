package indexer

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/lease"
	"github.com/warp/rent-indexer/registry"
)

// =============================================================================
// DISPATCH - Payload type to reducer method
// =============================================================================

// dispatch routes env to its reducer. Reducers are built around s, the
// event's transactional view of the store.
func (ix *Indexer) dispatch(ctx context.Context, s entity.Store, env event.Envelope) error {
	lr := lease.NewReducer(s,
		lease.WithLogger(ix.log),
		lease.WithObserver(ix.recorder),
		lease.WithLegacySchedule(ix.legacySchedule))
	rr := registry.NewReducer(s, ix.log)
	m := env.Meta

	switch e := env.Payload.(type) {
	// Lease lifecycle
	case *event.LeaseCreated:
		return lr.LeaseCreated(ctx, m, e)
	case *event.LeaseUpdated:
		return lr.LeaseUpdated(ctx, m, e)
	case *event.LeasePaymentDataUpdated:
		return lr.LeasePaymentDataUpdated(ctx, m, e)
	case *event.LeaseValidated:
		return lr.LeaseValidated(ctx, m, e)
	case *event.UpdateLeaseStatus:
		return lr.UpdateLeaseStatus(ctx, m, e)
	case *event.CancellationRequested:
		return lr.CancellationRequested(ctx, m, e)
	case *event.LeaseReviewedByTenant:
		return lr.LeaseReviewedByTenant(ctx, m, e)
	case *event.LeaseReviewedByOwner:
		return lr.LeaseReviewedByOwner(ctx, m, e)
	case *event.LeaseMetaDataUpdated:
		return lr.LeaseMetaDataUpdated(ctx, m, e)

	// Proposals
	case *event.ProposalSubmitted:
		return lr.ProposalSubmitted(ctx, m, e)
	case *event.ProposalUpdated:
		return lr.ProposalUpdated(ctx, m, e)
	case *event.ProposalValidated:
		return lr.ProposalValidated(ctx, m, e)
	case *event.OpenProposalSubmitted:
		return lr.OpenProposalSubmitted(ctx, m, e)
	case *event.OpenProposalUpdated:
		return lr.OpenProposalUpdated(ctx, m, e)

	// Settlement
	case *event.FiatRentPaid:
		return lr.FiatRentPaid(ctx, m, e)
	case *event.CryptoRentPaid:
		return lr.CryptoRentPaid(ctx, m, e)
	case *event.RentNotPaid:
		return lr.RentNotPaid(ctx, m, e)
	case *event.RentPaymentIssueStatusUpdated:
		return lr.RentPaymentIssueStatusUpdated(ctx, m, e)
	case *event.SetRentToPending:
		return lr.SetRentToPending(ctx, m, e)
	case *event.UpdateRentStatus:
		return lr.UpdateRentStatus(ctx, m, e)
	case *event.ProtocolFeeRateUpdated:
		return lr.ProtocolFeeRateUpdated(ctx, m, e)

	// Identity registry
	case *event.UserMinted:
		return rr.UserMinted(ctx, m, e)
	case *event.UserCidUpdated:
		return rr.UserCidUpdated(ctx, m, e)
	case *event.LeaseContractAddressUpdated:
		return rr.LeaseContractAddressUpdated(ctx, m, e)

	// Platform registry
	case *event.PlatformMinted:
		return rr.PlatformMinted(ctx, m, e)
	case *event.PlatformCidUpdated:
		return rr.PlatformCidUpdated(ctx, m, e)
	case *event.MintFeeUpdated:
		return rr.MintFeeUpdated(ctx, m, e)
	case *event.OriginLeaseFeeRateUpdated:
		return rr.OriginLeaseFeeRateUpdated(ctx, m, e)
	case *event.OriginProposalFeeRateUpdated:
		return rr.OriginProposalFeeRateUpdated(ctx, m, e)
	case *event.LeasePostingFeeUpdated:
		return rr.LeasePostingFeeUpdated(ctx, m, e)
	case *event.ProposalPostingFeeUpdated:
		return rr.ProposalPostingFeeUpdated(ctx, m, e)

	default:
		ix.log.Warn("event anomaly",
			zap.String("kind", string(env.Kind())),
			zap.String("reason", ReasonUnknownEvent),
			zap.Stringer("at", m))
		ix.recorder.Anomaly(env.Kind(), ReasonUnknownEvent)
		return nil
	}
}
