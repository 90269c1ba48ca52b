package entity

// =============================================================================
// LEASE STATUS
// =============================================================================

type LeaseStatus string

const (
	LeasePending   LeaseStatus = "PENDING"
	LeaseActive    LeaseStatus = "ACTIVE"
	LeaseEnded     LeaseStatus = "ENDED"
	LeaseCancelled LeaseStatus = "CANCELLED"
)

// LeaseStatusFromCode maps the on-chain status enum by position.
// The second result is false for codes outside the table.
func LeaseStatusFromCode(code uint64) (LeaseStatus, bool) {
	switch code {
	case 0:
		return LeaseActive, true
	case 1:
		return LeasePending, true
	case 2:
		return LeaseEnded, true
	case 3:
		return LeaseCancelled, true
	default:
		return "", false
	}
}

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeasePending, LeaseActive, LeaseEnded, LeaseCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is expected.
func (s LeaseStatus) Terminal() bool { return s == LeaseEnded || s == LeaseCancelled }

type LeaseType string

const (
	LeaseDirect LeaseType = "DIRECT"
	LeaseOpen   LeaseType = "OPEN" // no tenant yet, filled by an accepted proposal
)

func (t LeaseType) Valid() bool { return t == LeaseDirect || t == LeaseOpen }

// =============================================================================
// PROPOSAL STATUS
// =============================================================================

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDING"
	ProposalAccepted ProposalStatus = "ACCEPTED"
)

func (s ProposalStatus) Valid() bool { return s == ProposalPending || s == ProposalAccepted }

// =============================================================================
// RENT PAYMENT STATUS
// =============================================================================

type RentPaymentStatus string

const (
	RentPaymentPending   RentPaymentStatus = "PENDING"
	RentPaymentPaid      RentPaymentStatus = "PAID"
	RentPaymentNotPaid   RentPaymentStatus = "NOT_PAID"
	RentPaymentCancelled RentPaymentStatus = "CANCELLED"
	RentPaymentConflict  RentPaymentStatus = "CONFLICT"
)

// RentPaymentStatusFromCode maps the on-chain payment status enum by position.
func RentPaymentStatusFromCode(code uint64) (RentPaymentStatus, bool) {
	switch code {
	case 0:
		return RentPaymentPending, true
	case 1:
		return RentPaymentPaid, true
	case 2:
		return RentPaymentNotPaid, true
	case 3:
		return RentPaymentCancelled, true
	case 4:
		return RentPaymentConflict, true
	default:
		return "", false
	}
}

func (s RentPaymentStatus) Valid() bool {
	switch s {
	case RentPaymentPending, RentPaymentPaid, RentPaymentNotPaid, RentPaymentCancelled, RentPaymentConflict:
		return true
	}
	return false
}

// Settled reports whether the installment carries a settlement outcome.
func (s RentPaymentStatus) Settled() bool {
	return s == RentPaymentPaid || s == RentPaymentNotPaid
}
