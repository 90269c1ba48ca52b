// Package storetest checks that an entity.TxStore implementation honors the
// load/save contract the reducers rely on. Each store package runs it from
// its own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-indexer/entity"
)

// Store is what a backend must implement to be tested here.
type Store interface {
	entity.TxStore
	entity.CheckpointStore
}

// Run executes the contract tests. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("MissingRecordsAreNil", func(t *testing.T) { testMissing(t, newStore(t)) })
	t.Run("UserRoundTrip", func(t *testing.T) { testUser(t, newStore(t)) })
	t.Run("PlatformRoundTrip", func(t *testing.T) { testPlatform(t, newStore(t)) })
	t.Run("LeaseRoundTrip", func(t *testing.T) { testLease(t, newStore(t)) })
	t.Run("ProposalRoundTrip", func(t *testing.T) { testProposal(t, newStore(t)) })
	t.Run("RentPaymentRoundTrip", func(t *testing.T) { testRentPayment(t, newStore(t)) })
	t.Run("SaveOverwrites", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("Checkpoint", func(t *testing.T) { testCheckpoint(t, newStore(t)) })
	t.Run("TxCommit", func(t *testing.T) { testTxCommit(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
}

func testMissing(t *testing.T, s Store) {
	ctx := context.Background()

	u, err := s.LoadUser(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, u)

	p, err := s.LoadPlatform(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, p)

	l, err := s.LoadLease(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, l)

	pr, err := s.LoadProposal(ctx, "1-2")
	require.NoError(t, err)
	assert.Nil(t, pr)

	rp, err := s.LoadRentPayment(ctx, "1-0")
	require.NoError(t, err)
	assert.Nil(t, rp)

	cp, err := s.LoadCheckpoint(ctx, "src")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func testUser(t *testing.T, s Store) {
	ctx := context.Background()
	u := entity.User{ID: "7", Handle: "alice", Address: "0xabc", CID: "bafy", CreatedAt: 10, UpdatedAt: 20}
	require.NoError(t, s.SaveUser(ctx, u))

	got, err := s.LoadUser(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u, *got)
}

func testPlatform(t *testing.T, s Store) {
	ctx := context.Background()
	p := entity.NewPlatform("1")
	p.Name = "rentals"
	p.OriginLeaseFeeRate = decimal.NewFromInt(150)
	p.ProposalPostingFee = decimal.RequireFromString("0.000000000000000001")
	p.CreatedAt = 3
	require.NoError(t, s.SavePlatform(ctx, p))

	got, err := s.LoadPlatform(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rentals", got.Name)
	assert.Equal(t, entity.ZeroAddress, got.Address)
	assert.Equal(t, "150", got.OriginLeaseFeeRate.String())
	assert.True(t, got.OriginProposalFeeRate.IsZero())
	assert.True(t, got.LeasePostingFee.IsZero())
	assert.Equal(t, "0.000000000000000001", got.ProposalPostingFee.String())
	assert.Equal(t, entity.Timestamp(3), got.CreatedAt)
}

func testLease(t *testing.T, s Store) {
	ctx := context.Background()
	l := entity.NewLease("42")
	l.Owner = entity.Some("7")
	l.Platform = entity.Some("1")
	l.RentAmount = decimal.RequireFromString("1500000000000000000000")
	l.PaymentToken = "0xtoken"
	l.CurrencyPair = "EUR/USD"
	l.TotalNumberOfRents = 12
	l.RentPaymentInterval = 2592000
	l.RentPaymentLimitTime = 86400
	l.StartDate = 1700000000
	l.ScheduleMaterialized = true
	l.Status = entity.LeaseActive
	l.Type = entity.LeaseOpen
	l.CancelledByTenant = true
	l.TenantReviewURI = "t"
	l.OwnerReviewURI = "o"
	l.URI = "u"
	l.CreatedAt = 1
	l.UpdatedAt = 2
	require.NoError(t, s.SaveLease(ctx, l))

	got, err := s.LoadLease(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, entity.Some("7"), got.Owner)
	assert.False(t, got.Tenant.IsSet())
	assert.Equal(t, entity.Some("1"), got.Platform)
	assert.Equal(t, l.RentAmount.String(), got.RentAmount.String())

	// Decimals compared above; blank them for a whole-struct comparison.
	got.RentAmount, l.RentAmount = decimal.Decimal{}, decimal.Decimal{}
	assert.Equal(t, l, *got)
}

func testProposal(t *testing.T, s Store) {
	ctx := context.Background()
	p := entity.NewProposal("42-9")
	p.Lease = entity.Some("42")
	p.Tenant = entity.Some("9")
	p.Owner = entity.Some("7")
	p.TotalNumberOfRents = 6
	p.StartDate = 1000
	p.CID = "cid"
	p.Status = entity.ProposalAccepted
	p.CreatedAt = 5
	require.NoError(t, s.SaveProposal(ctx, p))

	got, err := s.LoadProposal(ctx, "42-9")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, *got)
}

func testRentPayment(t *testing.T, s Store) {
	ctx := context.Background()
	rp := entity.NewRentPayment("42-0")
	rp.Lease = entity.Some("42")
	rp.Tenant = entity.Some("9")
	rp.Amount = decimal.NewFromInt(500)
	rp.RentPaymentDate = 1000
	rp.RentPaymentLimitDate = 87400
	rp.ValidationDate = 2000
	rp.ExchangeRate = decimal.RequireFromString("1.0825")
	rp.ExchangeRateTimestamp = 1999
	rp.WithoutIssues = true
	rp.Status = entity.RentPaymentPaid
	require.NoError(t, s.SaveRentPayment(ctx, rp))

	got, err := s.LoadRentPayment(ctx, "42-0")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "500", got.Amount.String())
	assert.Equal(t, "1.0825", got.ExchangeRate.String())
	assert.False(t, got.Owner.IsSet())
	assert.Equal(t, entity.Some("42"), got.Lease)
	assert.Equal(t, entity.Timestamp(87400), got.RentPaymentLimitDate)
	assert.Equal(t, entity.Timestamp(1999), got.ExchangeRateTimestamp)
	assert.True(t, got.WithoutIssues)
	assert.Equal(t, entity.RentPaymentPaid, got.Status)
}

func testOverwrite(t *testing.T, s Store) {
	ctx := context.Background()
	l := entity.NewLease("1")
	require.NoError(t, s.SaveLease(ctx, l))

	l.Status = entity.LeaseEnded
	l.Tenant = entity.Some("9")
	require.NoError(t, s.SaveLease(ctx, l))

	got, err := s.LoadLease(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, entity.LeaseEnded, got.Status)
	assert.Equal(t, entity.Some("9"), got.Tenant)
}

func testCheckpoint(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveCheckpoint(ctx, entity.Checkpoint{Source: "a", BlockNumber: 10, LogIndex: 2}))
	require.NoError(t, s.SaveCheckpoint(ctx, entity.Checkpoint{Source: "a", BlockNumber: 11, LogIndex: 0}))
	require.NoError(t, s.SaveCheckpoint(ctx, entity.Checkpoint{Source: "b", BlockNumber: 1, LogIndex: 1}))

	a, err := s.LoadCheckpoint(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, entity.Checkpoint{Source: "a", BlockNumber: 11, LogIndex: 0}, *a)

	b, err := s.LoadCheckpoint(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, uint32(1), b.LogIndex)
}

func testTxCommit(t *testing.T, s Store) {
	ctx := context.Background()
	err := s.WithTx(ctx, func(tx entity.Store) error {
		if err := tx.SaveLease(ctx, entity.NewLease("1")); err != nil {
			return err
		}
		// Reads inside the transaction see its own writes.
		l, err := tx.LoadLease(ctx, "1")
		if err != nil {
			return err
		}
		if l == nil {
			return errors.New("write not visible inside transaction")
		}
		cs, ok := tx.(entity.CheckpointStore)
		if !ok {
			return errors.New("transaction view does not store checkpoints")
		}
		return cs.SaveCheckpoint(ctx, entity.Checkpoint{Source: "a", BlockNumber: 1})
	})
	require.NoError(t, err)

	l, err := s.LoadLease(ctx, "1")
	require.NoError(t, err)
	assert.NotNil(t, l)

	cp, err := s.LoadCheckpoint(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, cp)
}

func testTxRollback(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveUser(ctx, entity.NewUser("7")))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx entity.Store) error {
		if err := tx.SaveRentPayment(ctx, entity.NewRentPayment("1-0")); err != nil {
			return err
		}
		u := entity.NewUser("7")
		u.Handle = "changed"
		if err := tx.SaveUser(ctx, u); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rp, err := s.LoadRentPayment(ctx, "1-0")
	require.NoError(t, err)
	assert.Nil(t, rp)

	u, err := s.LoadUser(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.Handle)
}
