package event

import (
	"github.com/shopspring/decimal"
)

// Identity registry (user) and platform registry events.
const (
	KindUserMinted                   Kind = "UserMinted"
	KindUserCidUpdated               Kind = "UserCidUpdated"
	KindLeaseContractAddressUpdated  Kind = "LeaseContractAddressUpdated"
	KindPlatformMinted               Kind = "PlatformMinted"
	KindPlatformCidUpdated           Kind = "PlatformCidUpdated"
	KindMintFeeUpdated               Kind = "MintFeeUpdated"
	KindOriginLeaseFeeRateUpdated    Kind = "OriginLeaseFeeRateUpdated"
	KindOriginProposalFeeRateUpdated Kind = "OriginProposalFeeRateUpdated"
	KindLeasePostingFeeUpdated       Kind = "LeasePostingFeeUpdated"
	KindProposalPostingFeeUpdated    Kind = "ProposalPostingFeeUpdated"
)

func init() {
	register(func() Payload { return &UserMinted{} })
	register(func() Payload { return &UserCidUpdated{} })
	register(func() Payload { return &LeaseContractAddressUpdated{} })
	register(func() Payload { return &PlatformMinted{} })
	register(func() Payload { return &PlatformCidUpdated{} })
	register(func() Payload { return &MintFeeUpdated{} })
	register(func() Payload { return &OriginLeaseFeeRateUpdated{} })
	register(func() Payload { return &OriginProposalFeeRateUpdated{} })
	register(func() Payload { return &LeasePostingFeeUpdated{} })
	register(func() Payload { return &ProposalPostingFeeUpdated{} })
}

// =============================================================================
// USER REGISTRY
// =============================================================================

type UserMinted struct {
	UserID  string `json:"userId"`
	Handle  string `json:"handle"`
	Address string `json:"address"`
}

func (*UserMinted) Kind() Kind        { return KindUserMinted }
func (e *UserMinted) Keys() []*string { return []*string{&e.UserID} }

type UserCidUpdated struct {
	UserID string `json:"userId"`
	CID    string `json:"newCid"`
}

func (*UserCidUpdated) Kind() Kind        { return KindUserCidUpdated }
func (e *UserCidUpdated) Keys() []*string { return []*string{&e.UserID} }

// LeaseContractAddressUpdated is emitted by the user registry; nothing is derived from it.
type LeaseContractAddressUpdated struct {
	Address string `json:"address"`
}

func (*LeaseContractAddressUpdated) Kind() Kind      { return KindLeaseContractAddressUpdated }
func (*LeaseContractAddressUpdated) Keys() []*string { return nil }

// =============================================================================
// PLATFORM REGISTRY
// =============================================================================

type PlatformMinted struct {
	PlatformID string `json:"platformId"`
	Name       string `json:"platformName"`
	Address    string `json:"platformOwnerAddress"`
}

func (*PlatformMinted) Kind() Kind        { return KindPlatformMinted }
func (e *PlatformMinted) Keys() []*string { return []*string{&e.PlatformID} }

type PlatformCidUpdated struct {
	PlatformID string `json:"platformId"`
	CID        string `json:"newCid"`
}

func (*PlatformCidUpdated) Kind() Kind        { return KindPlatformCidUpdated }
func (e *PlatformCidUpdated) Keys() []*string { return []*string{&e.PlatformID} }

// MintFeeUpdated belongs to the protocol, not to a platform.
type MintFeeUpdated struct {
	MintFee decimal.Decimal `json:"mintFee"`
}

func (*MintFeeUpdated) Kind() Kind      { return KindMintFeeUpdated }
func (*MintFeeUpdated) Keys() []*string { return nil }

// PlatformFee carries one fee parameter of a platform.
type PlatformFee struct {
	PlatformID string          `json:"platformId"`
	Value      decimal.Decimal `json:"value"`
}

func (f *PlatformFee) Keys() []*string { return []*string{&f.PlatformID} }

type OriginLeaseFeeRateUpdated struct{ PlatformFee }

func (*OriginLeaseFeeRateUpdated) Kind() Kind { return KindOriginLeaseFeeRateUpdated }

type OriginProposalFeeRateUpdated struct{ PlatformFee }

func (*OriginProposalFeeRateUpdated) Kind() Kind { return KindOriginProposalFeeRateUpdated }

type LeasePostingFeeUpdated struct{ PlatformFee }

func (*LeasePostingFeeUpdated) Kind() Kind { return KindLeasePostingFeeUpdated }

type ProposalPostingFeeUpdated struct{ PlatformFee }

func (*ProposalPostingFeeUpdated) Kind() Kind { return KindProposalPostingFeeUpdated }
