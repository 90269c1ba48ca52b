package event

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/rent-indexer/entity"
)

// Lease contract events.
const (
	KindLeaseCreated                  Kind = "LeaseCreated"
	KindLeaseUpdated                  Kind = "LeaseUpdated"
	KindLeasePaymentDataUpdated       Kind = "LeasePaymentDataUpdated"
	KindLeaseValidated                Kind = "LeaseValidated"
	KindUpdateLeaseStatus             Kind = "UpdateLeaseStatus"
	KindCancellationRequested         Kind = "CancellationRequested"
	KindLeaseReviewedByTenant         Kind = "LeaseReviewedByTenant"
	KindLeaseReviewedByOwner          Kind = "LeaseReviewedByOwner"
	KindLeaseMetaDataUpdated          Kind = "LeaseMetaDataUpdated"
	KindProposalSubmitted             Kind = "ProposalSubmitted"
	KindProposalUpdated               Kind = "ProposalUpdated"
	KindProposalValidated             Kind = "ProposalValidated"
	KindOpenProposalSubmitted         Kind = "OpenProposalSubmitted"
	KindOpenProposalUpdated           Kind = "OpenProposalUpdated"
	KindFiatRentPaid                  Kind = "FiatRentPaid"
	KindCryptoRentPaid                Kind = "CryptoRentPaid"
	KindRentNotPaid                   Kind = "RentNotPaid"
	KindRentPaymentIssueStatusUpdated Kind = "RentPaymentIssueStatusUpdated"
	KindSetRentToPending              Kind = "SetRentToPending"
	KindUpdateRentStatus              Kind = "UpdateRentStatus"
	KindProtocolFeeRateUpdated        Kind = "ProtocolFeeRateUpdated"
)

func init() {
	register(func() Payload { return &LeaseCreated{} })
	register(func() Payload { return &LeaseUpdated{} })
	register(func() Payload { return &LeasePaymentDataUpdated{} })
	register(func() Payload { return &LeaseValidated{} })
	register(func() Payload { return &UpdateLeaseStatus{} })
	register(func() Payload { return &CancellationRequested{} })
	register(func() Payload { return &LeaseReviewedByTenant{} })
	register(func() Payload { return &LeaseReviewedByOwner{} })
	register(func() Payload { return &LeaseMetaDataUpdated{} })
	register(func() Payload { return &ProposalSubmitted{} })
	register(func() Payload { return &ProposalUpdated{} })
	register(func() Payload { return &ProposalValidated{} })
	register(func() Payload { return &OpenProposalSubmitted{} })
	register(func() Payload { return &OpenProposalUpdated{} })
	register(func() Payload { return &FiatRentPaid{} })
	register(func() Payload { return &CryptoRentPaid{} })
	register(func() Payload { return &RentNotPaid{} })
	register(func() Payload { return &RentPaymentIssueStatusUpdated{} })
	register(func() Payload { return &SetRentToPending{} })
	register(func() Payload { return &UpdateRentStatus{} })
	register(func() Payload { return &ProtocolFeeRateUpdated{} })
}

// =============================================================================
// LEASE LIFECYCLE
// =============================================================================

// LeaseTerms is the field set shared by creation and update.
type LeaseTerms struct {
	LeaseID              string           `json:"leaseId"`
	OwnerID              string           `json:"ownerId"`
	TenantID             string           `json:"tenantId"` // "0" for an open lease
	PlatformID           string           `json:"platformId"`
	TotalNumberOfRents   uint64           `json:"totalNumberOfRents"`
	RentPaymentInterval  int64            `json:"rentPaymentInterval"`
	RentPaymentLimitTime int64            `json:"rentPaymentLimitTime"`
	StartDate            entity.Timestamp `json:"startDate"`
}

func (t *LeaseTerms) Keys() []*string {
	return []*string{&t.LeaseID, &t.OwnerID, &t.TenantID, &t.PlatformID}
}

// Validate rejects terms whose schedule cannot be materialized: more than
// entity.MaxRents installments, a negative date or interval, or a last
// installment dated past the int64 range.
func (t *LeaseTerms) Validate() error {
	if err := validateSchedule(t.TotalNumberOfRents, t.StartDate); err != nil {
		return err
	}
	for _, iv := range []struct {
		name  string
		value int64
	}{
		{"rentPaymentInterval", t.RentPaymentInterval},
		{"rentPaymentLimitTime", t.RentPaymentLimitTime},
	} {
		if iv.value < 0 {
			return fmt.Errorf("%w: %s %d is negative", ErrOutOfRange, iv.name, iv.value)
		}
		if last := int64(t.TotalNumberOfRents) - 1; last > 0 && iv.value > (math.MaxInt64-int64(t.StartDate))/last {
			return fmt.Errorf("%w: %s %d overflows installment %d", ErrOutOfRange, iv.name, iv.value, last)
		}
	}
	return nil
}

func validateSchedule(rents uint64, start entity.Timestamp) error {
	if rents > entity.MaxRents {
		return fmt.Errorf("%w: totalNumberOfRents %d exceeds %d", ErrOutOfRange, rents, entity.MaxRents)
	}
	if start < 0 {
		return fmt.Errorf("%w: startDate %d is negative", ErrOutOfRange, start)
	}
	return nil
}

type LeaseCreated struct {
	LeaseTerms
}

func (*LeaseCreated) Kind() Kind { return KindLeaseCreated }

type LeaseUpdated struct {
	LeaseTerms
	URI string `json:"uri"`
}

func (*LeaseUpdated) Kind() Kind { return KindLeaseUpdated }

type LeasePaymentDataUpdated struct {
	LeaseID      string          `json:"leaseId"`
	RentAmount   decimal.Decimal `json:"rentAmount"`
	PaymentToken string          `json:"paymentToken"`
	CurrencyPair string          `json:"currencyPair"`
}

func (*LeasePaymentDataUpdated) Kind() Kind        { return KindLeasePaymentDataUpdated }
func (e *LeasePaymentDataUpdated) Keys() []*string { return []*string{&e.LeaseID} }

type LeaseValidated struct {
	LeaseID string `json:"leaseId"`
}

func (*LeaseValidated) Kind() Kind        { return KindLeaseValidated }
func (e *LeaseValidated) Keys() []*string { return []*string{&e.LeaseID} }

type UpdateLeaseStatus struct {
	LeaseID string `json:"leaseId"`
	Status  uint64 `json:"status"`
}

func (*UpdateLeaseStatus) Kind() Kind        { return KindUpdateLeaseStatus }
func (e *UpdateLeaseStatus) Keys() []*string { return []*string{&e.LeaseID} }

type CancellationRequested struct {
	LeaseID           string `json:"leaseId"`
	CancelledByOwner  bool   `json:"cancelledByOwner"`
	CancelledByTenant bool   `json:"cancelledByTenant"`
}

func (*CancellationRequested) Kind() Kind        { return KindCancellationRequested }
func (e *CancellationRequested) Keys() []*string { return []*string{&e.LeaseID} }

type LeaseReviewedByTenant struct {
	LeaseID   string `json:"leaseId"`
	ReviewURI string `json:"reviewUri"`
}

func (*LeaseReviewedByTenant) Kind() Kind        { return KindLeaseReviewedByTenant }
func (e *LeaseReviewedByTenant) Keys() []*string { return []*string{&e.LeaseID} }

type LeaseReviewedByOwner struct {
	LeaseID   string `json:"leaseId"`
	ReviewURI string `json:"reviewUri"`
}

func (*LeaseReviewedByOwner) Kind() Kind        { return KindLeaseReviewedByOwner }
func (e *LeaseReviewedByOwner) Keys() []*string { return []*string{&e.LeaseID} }

type LeaseMetaDataUpdated struct {
	LeaseID  string `json:"leaseId"`
	MetaData string `json:"metaData"`
}

func (*LeaseMetaDataUpdated) Kind() Kind        { return KindLeaseMetaDataUpdated }
func (e *LeaseMetaDataUpdated) Keys() []*string { return []*string{&e.LeaseID} }

// =============================================================================
// PROPOSALS
// =============================================================================

type ProposalSubmitted struct {
	LeaseID            string           `json:"leaseId"`
	TenantID           string           `json:"tenantId"`
	PlatformID         string           `json:"platformId"`
	TotalNumberOfRents uint64           `json:"totalNumberOfRents"`
	StartDate          entity.Timestamp `json:"startDate"`
	CID                string           `json:"cid"`
}

func (*ProposalSubmitted) Kind() Kind { return KindProposalSubmitted }
func (e *ProposalSubmitted) Keys() []*string {
	return []*string{&e.LeaseID, &e.TenantID, &e.PlatformID}
}
func (e *ProposalSubmitted) Validate() error {
	return validateSchedule(e.TotalNumberOfRents, e.StartDate)
}

type ProposalUpdated struct {
	LeaseID            string           `json:"leaseId"`
	TenantID           string           `json:"tenantId"`
	TotalNumberOfRents uint64           `json:"totalNumberOfRents"`
	StartDate          entity.Timestamp `json:"startDate"`
	CID                string           `json:"cid"`
}

func (*ProposalUpdated) Kind() Kind        { return KindProposalUpdated }
func (e *ProposalUpdated) Keys() []*string { return []*string{&e.LeaseID, &e.TenantID} }
func (e *ProposalUpdated) Validate() error {
	return validateSchedule(e.TotalNumberOfRents, e.StartDate)
}

type ProposalValidated struct {
	LeaseID  string `json:"leaseId"`
	TenantID string `json:"tenantId"`
}

func (*ProposalValidated) Kind() Kind        { return KindProposalValidated }
func (e *ProposalValidated) Keys() []*string { return []*string{&e.LeaseID, &e.TenantID} }

// OpenProposalSubmitted is reserved by the contract; the reducer ignores it.
type OpenProposalSubmitted struct {
	LeaseID  string `json:"leaseId"`
	TenantID string `json:"tenantId"`
}

func (*OpenProposalSubmitted) Kind() Kind        { return KindOpenProposalSubmitted }
func (e *OpenProposalSubmitted) Keys() []*string { return []*string{&e.LeaseID, &e.TenantID} }

// OpenProposalUpdated is reserved by the contract; the reducer ignores it.
type OpenProposalUpdated struct {
	LeaseID  string `json:"leaseId"`
	TenantID string `json:"tenantId"`
}

func (*OpenProposalUpdated) Kind() Kind        { return KindOpenProposalUpdated }
func (e *OpenProposalUpdated) Keys() []*string { return []*string{&e.LeaseID, &e.TenantID} }

// =============================================================================
// RENT PAYMENTS
// =============================================================================

// RentRef addresses one installment.
type RentRef struct {
	LeaseID string `json:"leaseId"`
	RentID  string `json:"rentId"`
}

func (r *RentRef) Keys() []*string { return []*string{&r.LeaseID, &r.RentID} }

// PaymentID is the id of the addressed RentPayment.
func (r RentRef) PaymentID() string { return entity.Combine(r.LeaseID, r.RentID) }

type FiatRentPaid struct {
	RentRef
	Amount                decimal.Decimal  `json:"amount"`
	WithoutIssues         bool             `json:"withoutIssues"`
	ExchangeRate          decimal.Decimal  `json:"exchangeRate"`
	ExchangeRateTimestamp entity.Timestamp `json:"exchangeRateTimestamp"`
}

func (*FiatRentPaid) Kind() Kind { return KindFiatRentPaid }

type CryptoRentPaid struct {
	RentRef
	Amount        decimal.Decimal `json:"amount"`
	WithoutIssues bool            `json:"withoutIssues"`
}

func (*CryptoRentPaid) Kind() Kind { return KindCryptoRentPaid }

type RentNotPaid struct {
	RentRef
}

func (*RentNotPaid) Kind() Kind { return KindRentNotPaid }

type RentPaymentIssueStatusUpdated struct {
	RentRef
	WithoutIssues bool `json:"withoutIssues"`
}

func (*RentPaymentIssueStatusUpdated) Kind() Kind { return KindRentPaymentIssueStatusUpdated }

type SetRentToPending struct {
	RentRef
}

func (*SetRentToPending) Kind() Kind { return KindSetRentToPending }

type UpdateRentStatus struct {
	RentRef
	Status uint64 `json:"status"`
}

func (*UpdateRentStatus) Kind() Kind { return KindUpdateRentStatus }

// ProtocolFeeRateUpdated has no entity to land on yet.
type ProtocolFeeRateUpdated struct {
	Rate decimal.Decimal `json:"rate"`
}

func (*ProtocolFeeRateUpdated) Kind() Kind      { return KindProtocolFeeRateUpdated }
func (*ProtocolFeeRateUpdated) Keys() []*string { return nil }
