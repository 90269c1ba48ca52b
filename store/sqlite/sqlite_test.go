package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/entity/storetest"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/indexer"
	"github.com/warp/rent-indexer/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return newStore(t) })
}

// =============================================================================
// ENCODING
// =============================================================================

func TestStore_LargeAmountsKeepPrecision(t *testing.T) {
	// GIVEN: An installment with an amount beyond int64 and float64 precision
	// WHEN: It is saved and loaded back
	// THEN: The decimal string is unchanged

	store := newStore(t)
	ctx := context.Background()

	rp := entity.NewRentPayment("1-0")
	rp.Amount = decimal.RequireFromString("115792089237316195423570985008687907853269984665640564039457")
	require.NoError(t, store.SaveRentPayment(ctx, rp))

	got, err := store.LoadRentPayment(ctx, "1-0")
	require.NoError(t, err)
	assert.Equal(t, rp.Amount.String(), got.Amount.String())
}

func TestStore_AbsentRefsStayAbsent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	l := entity.NewLease("5")
	l.Owner = entity.Some("7")
	l.Type = entity.LeaseOpen
	require.NoError(t, store.SaveLease(ctx, l))

	got, err := store.LoadLease(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, entity.None, got.Tenant)
	assert.Equal(t, entity.None, got.Platform)
	assert.Equal(t, entity.LeaseOpen, got.Type)
}

// =============================================================================
// RESET / STATS
// =============================================================================

func TestStore_StatsAndReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, entity.NewUser("1")))
	require.NoError(t, store.SaveUser(ctx, entity.NewUser("2")))
	require.NoError(t, store.SaveLease(ctx, entity.NewLease("42")))
	require.NoError(t, store.SaveRentPayment(ctx, entity.NewRentPayment("42-0")))
	require.NoError(t, store.SaveCheckpoint(ctx, entity.Checkpoint{Source: "a", BlockNumber: 3}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"user": 2, "platform": 0, "lease": 1, "proposal": 0, "rent_payment": 1,
	}, stats)

	require.NoError(t, store.Reset(ctx))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	for kind, n := range stats {
		assert.Zero(t, n, kind)
	}

	cp, err := store.LoadCheckpoint(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

// =============================================================================
// INDEXER INTEGRATION
// =============================================================================

func TestStore_IndexerEndToEnd(t *testing.T) {
	// GIVEN: An indexer persisting to SQLite
	// WHEN: A lease is created, validated and its first rent paid
	// THEN: The schedule and the payment survive in the database along with
	//       the stream position

	store := newStore(t)
	idx := indexer.New(store, indexer.WithSource("test"))
	ctx := context.Background()

	envs := []event.Envelope{
		{
			Meta: event.Meta{BlockNumber: 1, LogIndex: 0, Timestamp: 1000},
			Payload: &event.LeaseCreated{LeaseTerms: event.LeaseTerms{
				LeaseID: "42", OwnerID: "7", TenantID: "9", PlatformID: "1",
				TotalNumberOfRents: 3, RentPaymentInterval: 2592000,
				RentPaymentLimitTime: 86400, StartDate: 1000,
			}},
		},
		{
			Meta:    event.Meta{BlockNumber: 2, LogIndex: 0, Timestamp: 1100},
			Payload: &event.LeaseValidated{LeaseID: "42"},
		},
		{
			Meta: event.Meta{BlockNumber: 3, LogIndex: 1, Timestamp: 1200},
			Payload: &event.CryptoRentPaid{
				RentRef: event.RentRef{LeaseID: "42", RentID: "0"}, Amount: decimal.NewFromInt(500), WithoutIssues: true,
			},
		},
	}

	res, err := idx.Run(ctx, envs)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)

	l, err := store.LoadLease(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, entity.LeaseActive, l.Status)
	assert.True(t, l.ScheduleMaterialized)

	first, err := store.LoadRentPayment(ctx, "42-0")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, entity.RentPaymentPaid, first.Status)
	assert.Equal(t, "500", first.Amount.String())

	last, err := store.LoadRentPayment(ctx, "42-2")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, entity.RentPaymentPending, last.Status)
	assert.Equal(t, entity.Timestamp(5185000), last.RentPaymentDate)

	cp, err := idx.Checkpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, uint64(3), cp.BlockNumber)
	assert.Equal(t, uint32(1), cp.LogIndex)
}
