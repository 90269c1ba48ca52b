/*
Package entity provides the derived entity graph of the rent indexer.

PURPOSE:
  This package contains the records produced by reducing the rental
  protocol's event stream: users, platforms, leases, proposals and
  rent-payment installments. Reducers in the lease and registry packages
  mutate these records; stores persist them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Ref: An optional reference to another entity (owner, tenant, platform)
  - User / Platform: Identity records from the two on-chain registries
  - Lease: The rental agreement aggregate
  - Proposal: A tenant's offer against an open lease
  - RentPayment: One scheduled installment of a lease

DESIGN PRINCIPLES:
  1. Create-once, update-many, never delete
  2. Precision: amounts, fees and rates use decimal.Decimal
  3. Explicit absence: relationships are Ref values, never bare strings
  4. Deterministic identity: composite ids come from id.go, never random

USAGE:
  lease := entity.NewLease("42")
  lease.Owner = entity.Some("7")
  if tenant, ok := lease.Tenant.Get(); ok {
      ...
  }

SEE ALSO:
  - status.go: Status enums and integer code tables
  - repository.go: Get-or-create accessors
  - store.go: Persistence interface
*/
package entity

import (
	"github.com/shopspring/decimal"
)

// ZeroAddress is the default for address and token fields that have not been set.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// =============================================================================
// REF - Optional reference to another entity
// =============================================================================

// Ref is a weak, optional reference to another entity by id.
// The referenced record is not guaranteed to exist yet.
type Ref struct {
	id  string
	set bool
}

// None is the absent reference.
var None = Ref{}

// Some returns a reference to id. An empty id or the sentinel id yields None.
func Some(id string) Ref {
	if id == "" || IsSentinel(id) {
		return None
	}
	return Ref{id: id, set: true}
}

// Get returns the referenced id and whether it is set.
func (r Ref) Get() (string, bool) { return r.id, r.set }

// IsSet reports whether the reference points at an entity.
func (r Ref) IsSet() bool { return r.set }

// OrSentinel returns the id, or SentinelID when absent.
func (r Ref) OrSentinel() string {
	if !r.set {
		return SentinelID
	}
	return r.id
}

// Ptr returns nil for an absent reference. Used by stores for nullable columns.
func (r Ref) Ptr() *string {
	if !r.set {
		return nil
	}
	id := r.id
	return &id
}

// RefFromPtr is the inverse of Ptr.
func RefFromPtr(p *string) Ref {
	if p == nil {
		return None
	}
	return Some(*p)
}

func (r Ref) String() string {
	if !r.set {
		return "<none>"
	}
	return r.id
}

// =============================================================================
// USER - Identity registry record
// =============================================================================

type User struct {
	ID        string
	Handle    string
	Address   string
	CID       string // off-chain metadata pointer
	CreatedAt Timestamp
	UpdatedAt Timestamp
}

func NewUser(id string) User {
	return User{ID: id, Address: ZeroAddress}
}

// =============================================================================
// PLATFORM - Marketplace / tenant namespace
// =============================================================================

type Platform struct {
	ID                    string
	Name                  string
	Address               string
	CID                   string
	OriginLeaseFeeRate    decimal.Decimal
	OriginProposalFeeRate decimal.Decimal
	LeasePostingFee       decimal.Decimal
	ProposalPostingFee    decimal.Decimal
	CreatedAt             Timestamp
	UpdatedAt             Timestamp
}

func NewPlatform(id string) Platform {
	return Platform{
		ID:                    id,
		Address:               ZeroAddress,
		OriginLeaseFeeRate:    decimal.Zero,
		OriginProposalFeeRate: decimal.Zero,
		LeasePostingFee:       decimal.Zero,
		ProposalPostingFee:    decimal.Zero,
	}
}

// =============================================================================
// LEASE - Central aggregate
// =============================================================================

type Lease struct {
	ID       string
	Owner    Ref
	Tenant   Ref // None for open leases until a proposal is accepted
	Platform Ref

	// Financial terms
	RentAmount   decimal.Decimal
	PaymentToken string
	CurrencyPair string // non-empty for fiat-denominated rents

	// Schedule terms. Frozen once ScheduleMaterialized is true.
	TotalNumberOfRents   uint64
	RentPaymentInterval  int64 // seconds between installments
	RentPaymentLimitTime int64 // seconds, grace offset per installment
	StartDate            Timestamp
	ScheduleMaterialized bool

	Status LeaseStatus
	Type   LeaseType

	CancelledByOwner  bool
	CancelledByTenant bool

	TenantReviewURI string
	OwnerReviewURI  string
	URI             string

	CreatedAt Timestamp
	UpdatedAt Timestamp
}

func NewLease(id string) Lease {
	return Lease{
		ID:           id,
		RentAmount:   decimal.Zero,
		PaymentToken: ZeroAddress,
		Status:       LeasePending,
		Type:         LeaseDirect,
	}
}

// =============================================================================
// PROPOSAL - Offer against an open lease
// =============================================================================

type Proposal struct {
	ID       string // ProposalID(lease, tenant)
	Lease    Ref
	Tenant   Ref
	Owner    Ref
	Platform Ref

	TotalNumberOfRents uint64
	StartDate          Timestamp
	CID                string

	Status ProposalStatus

	CreatedAt Timestamp
	UpdatedAt Timestamp
}

func NewProposal(id string) Proposal {
	return Proposal{ID: id, Status: ProposalPending}
}

// =============================================================================
// RENT PAYMENT - One installment
// =============================================================================

type RentPayment struct {
	ID     string // RentPaymentID(lease, index)
	Lease  Ref
	Tenant Ref
	Owner  Ref

	// Amount stays zero until the installment is settled.
	Amount       decimal.Decimal
	PaymentToken string

	RentPaymentDate      Timestamp // due date
	RentPaymentLimitDate Timestamp // grace deadline
	ValidationDate       Timestamp // when settled or declared not paid

	ExchangeRate          decimal.Decimal
	ExchangeRateTimestamp Timestamp

	WithoutIssues bool
	Status        RentPaymentStatus
}

func NewRentPayment(id string) RentPayment {
	return RentPayment{
		ID:           id,
		Amount:       decimal.Zero,
		PaymentToken: ZeroAddress,
		ExchangeRate: decimal.Zero,
		Status:       RentPaymentPending,
	}
}
