/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the entity graph from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Response wrappers

ENCODING:
  Amounts, rates and fees are decimal strings. Timestamps are Unix seconds.
  Absent references are null.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/event.go: Request body schema for POST /api/events
*/
package api

import (
	"github.com/warp/rent-indexer/entity"
)

// =============================================================================
// ENTITY VIEWS
// =============================================================================

type UserDTO struct {
	ID        string `json:"id"`
	Handle    string `json:"handle"`
	Address   string `json:"address"`
	CID       string `json:"cid,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type PlatformDTO struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Address               string `json:"address"`
	CID                   string `json:"cid,omitempty"`
	OriginLeaseFeeRate    string `json:"origin_lease_fee_rate"`
	OriginProposalFeeRate string `json:"origin_proposal_fee_rate"`
	LeasePostingFee       string `json:"lease_posting_fee"`
	ProposalPostingFee    string `json:"proposal_posting_fee"`
	CreatedAt             int64  `json:"created_at"`
	UpdatedAt             int64  `json:"updated_at"`
}

type LeaseDTO struct {
	ID                   string  `json:"id"`
	Owner                *string `json:"owner"`
	Tenant               *string `json:"tenant"`
	Platform             *string `json:"platform"`
	RentAmount           string  `json:"rent_amount"`
	PaymentToken         string  `json:"payment_token"`
	CurrencyPair         string  `json:"currency_pair,omitempty"`
	TotalNumberOfRents   uint64  `json:"total_number_of_rents"`
	RentPaymentInterval  int64   `json:"rent_payment_interval"`
	RentPaymentLimitTime int64   `json:"rent_payment_limit_time"`
	StartDate            int64   `json:"start_date"`
	ScheduleMaterialized bool    `json:"schedule_materialized"`
	Status               string  `json:"status"`
	Type                 string  `json:"type"`
	CancelledByOwner     bool    `json:"cancelled_by_owner"`
	CancelledByTenant    bool    `json:"cancelled_by_tenant"`
	TenantReviewURI      string  `json:"tenant_review_uri,omitempty"`
	OwnerReviewURI       string  `json:"owner_review_uri,omitempty"`
	URI                  string  `json:"uri,omitempty"`
	CreatedAt            int64   `json:"created_at"`
	UpdatedAt            int64   `json:"updated_at"`
}

type ProposalDTO struct {
	ID                 string  `json:"id"`
	Lease              *string `json:"lease"`
	Tenant             *string `json:"tenant"`
	Owner              *string `json:"owner"`
	Platform           *string `json:"platform"`
	TotalNumberOfRents uint64  `json:"total_number_of_rents"`
	StartDate          int64   `json:"start_date"`
	CID                string  `json:"cid,omitempty"`
	Status             string  `json:"status"`
	CreatedAt          int64   `json:"created_at"`
	UpdatedAt          int64   `json:"updated_at"`
}

type RentPaymentDTO struct {
	ID                    string  `json:"id"`
	Lease                 *string `json:"lease"`
	Tenant                *string `json:"tenant"`
	Owner                 *string `json:"owner"`
	Amount                string  `json:"amount"`
	PaymentToken          string  `json:"payment_token"`
	RentPaymentDate       int64   `json:"rent_payment_date"`
	RentPaymentLimitDate  int64   `json:"rent_payment_limit_date"`
	ValidationDate        int64   `json:"validation_date"`
	ExchangeRate          string  `json:"exchange_rate"`
	ExchangeRateTimestamp int64   `json:"exchange_rate_timestamp"`
	WithoutIssues         bool    `json:"without_issues"`
	Status                string  `json:"status"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// IngestResponse reports how much of a POST /api/events body was applied.
type IngestResponse struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

type CheckpointDTO struct {
	Source      string `json:"source"`
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint32 `json:"log_index"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Events      int    `json:"events"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toUserDTO(u entity.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Handle:    u.Handle,
		Address:   u.Address,
		CID:       u.CID,
		CreatedAt: int64(u.CreatedAt),
		UpdatedAt: int64(u.UpdatedAt),
	}
}

func toPlatformDTO(p entity.Platform) PlatformDTO {
	return PlatformDTO{
		ID:                    p.ID,
		Name:                  p.Name,
		Address:               p.Address,
		CID:                   p.CID,
		OriginLeaseFeeRate:    p.OriginLeaseFeeRate.String(),
		OriginProposalFeeRate: p.OriginProposalFeeRate.String(),
		LeasePostingFee:       p.LeasePostingFee.String(),
		ProposalPostingFee:    p.ProposalPostingFee.String(),
		CreatedAt:             int64(p.CreatedAt),
		UpdatedAt:             int64(p.UpdatedAt),
	}
}

func toLeaseDTO(l entity.Lease) LeaseDTO {
	return LeaseDTO{
		ID:                   l.ID,
		Owner:                l.Owner.Ptr(),
		Tenant:               l.Tenant.Ptr(),
		Platform:             l.Platform.Ptr(),
		RentAmount:           l.RentAmount.String(),
		PaymentToken:         l.PaymentToken,
		CurrencyPair:         l.CurrencyPair,
		TotalNumberOfRents:   l.TotalNumberOfRents,
		RentPaymentInterval:  l.RentPaymentInterval,
		RentPaymentLimitTime: l.RentPaymentLimitTime,
		StartDate:            int64(l.StartDate),
		ScheduleMaterialized: l.ScheduleMaterialized,
		Status:               string(l.Status),
		Type:                 string(l.Type),
		CancelledByOwner:     l.CancelledByOwner,
		CancelledByTenant:    l.CancelledByTenant,
		TenantReviewURI:      l.TenantReviewURI,
		OwnerReviewURI:       l.OwnerReviewURI,
		URI:                  l.URI,
		CreatedAt:            int64(l.CreatedAt),
		UpdatedAt:            int64(l.UpdatedAt),
	}
}

func toProposalDTO(p entity.Proposal) ProposalDTO {
	return ProposalDTO{
		ID:                 p.ID,
		Lease:              p.Lease.Ptr(),
		Tenant:             p.Tenant.Ptr(),
		Owner:              p.Owner.Ptr(),
		Platform:           p.Platform.Ptr(),
		TotalNumberOfRents: p.TotalNumberOfRents,
		StartDate:          int64(p.StartDate),
		CID:                p.CID,
		Status:             string(p.Status),
		CreatedAt:          int64(p.CreatedAt),
		UpdatedAt:          int64(p.UpdatedAt),
	}
}

func toRentPaymentDTO(rp entity.RentPayment) RentPaymentDTO {
	return RentPaymentDTO{
		ID:                    rp.ID,
		Lease:                 rp.Lease.Ptr(),
		Tenant:                rp.Tenant.Ptr(),
		Owner:                 rp.Owner.Ptr(),
		Amount:                rp.Amount.String(),
		PaymentToken:          rp.PaymentToken,
		RentPaymentDate:       int64(rp.RentPaymentDate),
		RentPaymentLimitDate:  int64(rp.RentPaymentLimitDate),
		ValidationDate:        int64(rp.ValidationDate),
		ExchangeRate:          rp.ExchangeRate.String(),
		ExchangeRateTimestamp: int64(rp.ExchangeRateTimestamp),
		WithoutIssues:         rp.WithoutIssues,
		Status:                string(rp.Status),
	}
}

func toCheckpointDTO(cp entity.Checkpoint) CheckpointDTO {
	return CheckpointDTO{Source: cp.Source, BlockNumber: cp.BlockNumber, LogIndex: cp.LogIndex}
}
