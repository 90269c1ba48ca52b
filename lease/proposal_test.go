package lease_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/lease"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// openLease creates open lease "5" owned by "7" with payment data set.
func openLease(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.reducer.LeaseCreated(ctx, at(1), &event.LeaseCreated{LeaseTerms: terms("5", "7", "0", 0, 100, 0)}))
	require.NoError(t, f.reducer.LeasePaymentDataUpdated(ctx, at(2), &event.LeasePaymentDataUpdated{
		LeaseID: "5", RentAmount: decimal.NewFromInt(900), PaymentToken: "0xtoken", CurrencyPair: "EUR/USD",
	}))
}

func (f *fixture) proposal(t *testing.T, id string) *entity.Proposal {
	t.Helper()
	p, err := f.store.LoadProposal(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p, "proposal %s should exist", id)
	return p
}

// =============================================================================
// SUBMIT / UPDATE
// =============================================================================

func TestProposalSubmitted_CopiesOwnerFromLease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	openLease(t, f)

	err := f.reducer.ProposalSubmitted(ctx, at(3), &event.ProposalSubmitted{
		LeaseID: "5", TenantID: "11", PlatformID: "1", TotalNumberOfRents: 6, StartDate: 1000, CID: "cid-1",
	})
	require.NoError(t, err)

	p := f.proposal(t, "5-11")
	assert.Equal(t, entity.Some("5"), p.Lease)
	assert.Equal(t, entity.Some("11"), p.Tenant)
	assert.Equal(t, entity.Some("7"), p.Owner)
	assert.Equal(t, entity.Some("1"), p.Platform)
	assert.Equal(t, uint64(6), p.TotalNumberOfRents)
	assert.Equal(t, entity.Timestamp(1000), p.StartDate)
	assert.Equal(t, "cid-1", p.CID)
	assert.Equal(t, entity.ProposalPending, p.Status)
	assert.Equal(t, entity.Timestamp(3), p.CreatedAt)
}

func TestProposalUpdated_KeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	openLease(t, f)

	require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), &event.ProposalSubmitted{
		LeaseID: "5", TenantID: "11", PlatformID: "1", TotalNumberOfRents: 6, StartDate: 1000,
	}))
	require.NoError(t, f.reducer.ProposalUpdated(ctx, at(4), &event.ProposalUpdated{
		LeaseID: "5", TenantID: "11", TotalNumberOfRents: 12, StartDate: 2000, CID: "cid-2",
	}))

	p := f.proposal(t, "5-11")
	assert.Equal(t, uint64(12), p.TotalNumberOfRents)
	assert.Equal(t, entity.Timestamp(2000), p.StartDate)
	assert.Equal(t, "cid-2", p.CID)
	assert.Equal(t, entity.ProposalPending, p.Status)
	assert.Equal(t, entity.Some("7"), p.Owner)
}

// =============================================================================
// VALIDATE
// =============================================================================

func TestProposalValidated_SeedsLeaseSchedule(t *testing.T) {
	// GIVEN: An open lease with payment data and a proposal for 3 rents from 1000
	// WHEN: The proposal is validated
	// THEN: The proposal is ACCEPTED, the lease takes rents/start/tenant only,
	//       becomes ACTIVE, and 3 installments exist

	f := newFixture(t)
	ctx := context.Background()
	openLease(t, f)

	require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), &event.ProposalSubmitted{
		LeaseID: "5", TenantID: "11", PlatformID: "1", TotalNumberOfRents: 3, StartDate: 1000,
	}))
	require.NoError(t, f.reducer.ProposalValidated(ctx, at(4), &event.ProposalValidated{LeaseID: "5", TenantID: "11"}))

	assert.Equal(t, entity.ProposalAccepted, f.proposal(t, "5-11").Status)

	l := f.lease(t, "5")
	assert.Equal(t, entity.LeaseActive, l.Status)
	assert.Equal(t, uint64(3), l.TotalNumberOfRents)
	assert.Equal(t, entity.Timestamp(1000), l.StartDate)
	assert.Equal(t, entity.Some("11"), l.Tenant)
	assert.Equal(t, "900", l.RentAmount.String(), "financial terms are untouched")
	assert.Equal(t, "0xtoken", l.PaymentToken)
	assert.Equal(t, "EUR/USD", l.CurrencyPair)
	assert.Equal(t, int64(100), l.RentPaymentInterval)

	assert.Equal(t, 3, f.store.Counts()["rent_payment"])
	rp := f.rent(t, "5-2")
	assert.Equal(t, entity.Timestamp(1200), rp.RentPaymentDate)
	assert.Equal(t, entity.Some("11"), rp.Tenant)
	assert.Equal(t, "0xtoken", rp.PaymentToken)
	assert.Empty(t, f.observer.anomalies)
}

func TestProposalValidated_SiblingsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	openLease(t, f)

	for _, tenant := range []string{"11", "12"} {
		require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), &event.ProposalSubmitted{
			LeaseID: "5", TenantID: tenant, PlatformID: "1", TotalNumberOfRents: 1, StartDate: 10,
		}))
	}
	require.NoError(t, f.reducer.ProposalValidated(ctx, at(4), &event.ProposalValidated{LeaseID: "5", TenantID: "12"}))

	assert.Equal(t, entity.ProposalPending, f.proposal(t, "5-11").Status)
	assert.Equal(t, entity.ProposalAccepted, f.proposal(t, "5-12").Status)
}

func TestProposalValidated_SecondAcceptanceIsAnomaly(t *testing.T) {
	// GIVEN: A lease whose proposal from "11" was accepted
	// WHEN: A proposal from "12" with different terms is also validated
	// THEN: The tenant moves to "12", the schedule stays, both are reported

	f := newFixture(t)
	ctx := context.Background()
	openLease(t, f)

	require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), &event.ProposalSubmitted{
		LeaseID: "5", TenantID: "11", PlatformID: "1", TotalNumberOfRents: 2, StartDate: 10,
	}))
	require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), &event.ProposalSubmitted{
		LeaseID: "5", TenantID: "12", PlatformID: "1", TotalNumberOfRents: 4, StartDate: 10,
	}))
	require.NoError(t, f.reducer.ProposalValidated(ctx, at(4), &event.ProposalValidated{LeaseID: "5", TenantID: "11"}))
	require.NoError(t, f.reducer.ProposalValidated(ctx, at(5), &event.ProposalValidated{LeaseID: "5", TenantID: "12"}))

	l := f.lease(t, "5")
	assert.Equal(t, entity.Some("12"), l.Tenant)
	assert.Equal(t, uint64(2), l.TotalNumberOfRents)
	assert.Equal(t, 2, f.store.Counts()["rent_payment"])
	assert.Equal(t, []string{
		"ProposalValidated:" + lease.ReasonTenantReassigned,
		"ProposalValidated:" + lease.ReasonScheduleFrozen,
	}, f.observer.anomalies)
}

func TestProposalSubmitted_RedeliveryKeepsAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	openLease(t, f)

	submit := &event.ProposalSubmitted{LeaseID: "5", TenantID: "11", PlatformID: "1", TotalNumberOfRents: 1, StartDate: 10}
	require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), submit))
	require.NoError(t, f.reducer.ProposalValidated(ctx, at(4), &event.ProposalValidated{LeaseID: "5", TenantID: "11"}))
	require.NoError(t, f.reducer.ProposalSubmitted(ctx, at(3), submit))

	p := f.proposal(t, "5-11")
	assert.Equal(t, entity.ProposalAccepted, p.Status)
	assert.Equal(t, entity.Timestamp(3), p.CreatedAt)
}

func TestOpenProposalEvents_AreNoOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reducer.OpenProposalSubmitted(ctx, at(1), &event.OpenProposalSubmitted{LeaseID: "5", TenantID: "11"}))
	require.NoError(t, f.reducer.OpenProposalUpdated(ctx, at(2), &event.OpenProposalUpdated{LeaseID: "5", TenantID: "11"}))

	for kind, n := range f.store.Counts() {
		assert.Zero(t, n, kind)
	}
	assert.Equal(t, 2, f.logs.FilterMessage("ignoring reserved event").Len())
}
