package entity

import (
	"strconv"
	"strings"
)

// SentinelID stands for "no counterpart yet", e.g. the tenant of an open lease.
const SentinelID = "0"

const idSeparator = "-"

// IsSentinel reports whether id is the "no counterpart" sentinel.
func IsSentinel(id string) bool { return id == SentinelID }

// Combine derives a composite id from two natural keys.
//
// Natural keys are unsigned integers in decimal form, so the separator never
// appears inside a key and the result is collision-free. The same inputs
// always yield the same id, which is what makes replays converge.
func Combine(a, b string) string {
	return a + idSeparator + b
}

// SplitID inverts Combine. ok is false when id is not a composite id.
func SplitID(id string) (a, b string, ok bool) {
	return strings.Cut(id, idSeparator)
}

// MaxRents bounds a lease's TotalNumberOfRents. A schedule above it is never
// materialized.
const MaxRents = 1200

// RentPaymentID is the id of installment index of lease leaseID.
func RentPaymentID(leaseID string, index uint64) string {
	return Combine(leaseID, strconv.FormatUint(index, 10))
}

// ProposalID is the id of tenantID's proposal on lease leaseID.
func ProposalID(leaseID, tenantID string) string {
	return Combine(leaseID, tenantID)
}
