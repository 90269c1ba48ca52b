package lease_test

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/lease"
)

// =============================================================================
// MATERIALIZATION
// =============================================================================

func TestMaterialize_DatesAndIds(t *testing.T) {
	// GIVEN: n=3, start=1000, interval=2592000 (30 days)
	// WHEN: The schedule is materialized twice
	// THEN: Exactly 3 installments exist with dates 1000, 2593000, 5185000

	f := newFixture(t)
	ctx := context.Background()

	l := entity.NewLease("7")
	l.TotalNumberOfRents = 3
	l.StartDate = 1000
	l.RentPaymentInterval = 2592000
	l.RentPaymentLimitTime = 86400

	for i := 0; i < 2; i++ {
		ids, err := f.reducer.Materialize(ctx, event.KindLeaseValidated, &l)
		require.NoError(t, err)
		assert.Equal(t, []string{"7-0", "7-1", "7-2"}, ids)
	}

	assert.Equal(t, 3, f.store.Counts()["rent_payment"])
	assert.True(t, l.ScheduleMaterialized)

	want := []entity.Timestamp{1000, 2593000, 5185000}
	wantLimit := []entity.Timestamp{1000, 87400, 173800}
	for i, id := range []string{"7-0", "7-1", "7-2"} {
		rp := f.rent(t, id)
		assert.Equal(t, want[i], rp.RentPaymentDate, id)
		assert.Equal(t, wantLimit[i], rp.RentPaymentLimitDate, id)
		assert.Equal(t, entity.RentPaymentPending, rp.Status, id)
	}
}

func TestMaterialize_DoesNotRegressSettlement(t *testing.T) {
	// GIVEN: A validated lease whose first installment is PAID with 500
	// WHEN: The schedule is materialized again
	// THEN: Amount and status of the paid installment are kept

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reducer.LeaseCreated(ctx, at(1), &event.LeaseCreated{LeaseTerms: terms("42", "7", "9", 2, 100, 0)}))
	require.NoError(t, f.reducer.LeaseValidated(ctx, at(2), &event.LeaseValidated{LeaseID: "42"}))
	require.NoError(t, f.reducer.CryptoRentPaid(ctx, at(3), &event.CryptoRentPaid{
		RentRef:       event.RentRef{LeaseID: "42", RentID: "0"},
		Amount:        decimal.NewFromInt(500),
		WithoutIssues: true,
	}))

	require.NoError(t, f.reducer.LeaseValidated(ctx, at(4), &event.LeaseValidated{LeaseID: "42"}))

	rp := f.rent(t, "42-0")
	assert.Equal(t, entity.RentPaymentPaid, rp.Status)
	assert.Equal(t, "500", rp.Amount.String())
	assert.True(t, rp.WithoutIssues)
	assert.Equal(t, entity.Timestamp(3), rp.ValidationDate)
	assert.Equal(t, 2, f.store.Counts()["rent_payment"])
}

func TestMaterialize_PaymentBeforeValidation(t *testing.T) {
	// GIVEN: A payment for an installment that was never materialized
	// WHEN: The lease is validated afterwards
	// THEN: Schedule fields are filled in and the payment survives

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reducer.CryptoRentPaid(ctx, at(1), &event.CryptoRentPaid{
		RentRef: event.RentRef{LeaseID: "42", RentID: "1"},
		Amount:  decimal.NewFromInt(10),
	}))
	require.NoError(t, f.reducer.LeaseCreated(ctx, at(2), &event.LeaseCreated{LeaseTerms: terms("42", "7", "9", 2, 100, 0)}))
	require.NoError(t, f.reducer.LeaseValidated(ctx, at(3), &event.LeaseValidated{LeaseID: "42"}))

	rp := f.rent(t, "42-1")
	assert.Equal(t, entity.RentPaymentPaid, rp.Status)
	assert.Equal(t, "10", rp.Amount.String())
	assert.Equal(t, entity.Timestamp(100), rp.RentPaymentDate)
	assert.Equal(t, entity.Some("9"), rp.Tenant)
}

func TestMaterialize_EmptySchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := entity.NewLease("1")
	ids, err := f.reducer.Materialize(ctx, event.KindLeaseValidated, &l)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.False(t, l.ScheduleMaterialized)
	assert.Equal(t, []string{"LeaseValidated:" + lease.ReasonEmptySchedule}, f.observer.anomalies)
}

func TestMaterialize_ScheduleTooLarge(t *testing.T) {
	// GIVEN: A lease created with a rent count of 2^64-1
	// WHEN: The lease is validated
	// THEN: The reduction continues, no installment is created and the
	// oversized schedule is reported

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reducer.LeaseCreated(ctx, at(1), &event.LeaseCreated{LeaseTerms: terms("42", "7", "9", math.MaxUint64, 100, 0)}))
	require.NotPanics(t, func() {
		require.NoError(t, f.reducer.LeaseValidated(ctx, at(2), &event.LeaseValidated{LeaseID: "42"}))
	})

	l := f.lease(t, "42")
	assert.Equal(t, entity.LeaseActive, l.Status)
	assert.False(t, l.ScheduleMaterialized)
	assert.Zero(t, f.store.Counts()["rent_payment"])
	assert.Equal(t, []string{"LeaseValidated:" + lease.ReasonScheduleTooLarge}, f.observer.anomalies)

	entries := f.logs.FilterMessage("event anomaly").All()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(math.MaxUint64), entries[0].ContextMap()["total_number_of_rents"])
}

func TestMaterialize_AtLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := entity.NewLease("3")
	l.TotalNumberOfRents = entity.MaxRents
	l.RentPaymentInterval = 10

	ids, err := f.reducer.Materialize(ctx, event.KindLeaseValidated, &l)
	require.NoError(t, err)
	assert.Len(t, ids, entity.MaxRents)
	assert.True(t, l.ScheduleMaterialized)
	assert.Equal(t, entity.Timestamp(10*(entity.MaxRents-1)), f.rent(t, entity.RentPaymentID("3", entity.MaxRents-1)).RentPaymentDate)
	assert.Empty(t, f.observer.anomalies)
}

func TestMaterialize_OpenLeaseHasNoTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.reducer.LeaseCreated(ctx, at(1), &event.LeaseCreated{LeaseTerms: terms("5", "7", "0", 1, 100, 0)}))
	require.NoError(t, f.reducer.LeaseValidated(ctx, at(2), &event.LeaseValidated{LeaseID: "5"}))

	rp := f.rent(t, "5-0")
	assert.False(t, rp.Tenant.IsSet())
	assert.Equal(t, entity.Some("7"), rp.Owner)
}
