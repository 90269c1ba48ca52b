package gormstore

type userModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	Handle    string `gorm:"column:handle"`
	Address   string `gorm:"column:address"`
	CID       string `gorm:"column:cid"`
	CreatedAt int64  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

type platformModel struct {
	ID                    string `gorm:"column:id;primaryKey"`
	Name                  string `gorm:"column:name"`
	Address               string `gorm:"column:address"`
	CID                   string `gorm:"column:cid"`
	OriginLeaseFeeRate    string `gorm:"column:origin_lease_fee_rate"`
	OriginProposalFeeRate string `gorm:"column:origin_proposal_fee_rate"`
	LeasePostingFee       string `gorm:"column:lease_posting_fee"`
	ProposalPostingFee    string `gorm:"column:proposal_posting_fee"`
	CreatedAt             int64  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt             int64  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (platformModel) TableName() string { return "platforms" }

type leaseModel struct {
	ID                   string  `gorm:"column:id;primaryKey"`
	OwnerID              *string `gorm:"column:owner_id;index"`
	TenantID             *string `gorm:"column:tenant_id;index"`
	PlatformID           *string `gorm:"column:platform_id"`
	RentAmount           string  `gorm:"column:rent_amount"`
	PaymentToken         string  `gorm:"column:payment_token"`
	CurrencyPair         string  `gorm:"column:currency_pair"`
	TotalNumberOfRents   int64   `gorm:"column:total_number_of_rents"`
	RentPaymentInterval  int64   `gorm:"column:rent_payment_interval"`
	RentPaymentLimitTime int64   `gorm:"column:rent_payment_limit_time"`
	StartDate            int64   `gorm:"column:start_date"`
	ScheduleMaterialized bool    `gorm:"column:schedule_materialized"`
	Status               string  `gorm:"column:status"`
	LeaseType            string  `gorm:"column:lease_type"`
	CancelledByOwner     bool    `gorm:"column:cancelled_by_owner"`
	CancelledByTenant    bool    `gorm:"column:cancelled_by_tenant"`
	TenantReviewURI      string  `gorm:"column:tenant_review_uri"`
	OwnerReviewURI       string  `gorm:"column:owner_review_uri"`
	URI                  string  `gorm:"column:uri"`
	CreatedAt            int64   `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt            int64   `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (leaseModel) TableName() string { return "leases" }

type proposalModel struct {
	ID                 string  `gorm:"column:id;primaryKey"`
	LeaseID            *string `gorm:"column:lease_id;index"`
	TenantID           *string `gorm:"column:tenant_id"`
	OwnerID            *string `gorm:"column:owner_id"`
	PlatformID         *string `gorm:"column:platform_id"`
	TotalNumberOfRents int64   `gorm:"column:total_number_of_rents"`
	StartDate          int64   `gorm:"column:start_date"`
	CID                string  `gorm:"column:cid"`
	Status             string  `gorm:"column:status"`
	CreatedAt          int64   `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt          int64   `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (proposalModel) TableName() string { return "proposals" }

type rentPaymentModel struct {
	ID                    string  `gorm:"column:id;primaryKey"`
	LeaseID               *string `gorm:"column:lease_id;index"`
	TenantID              *string `gorm:"column:tenant_id"`
	OwnerID               *string `gorm:"column:owner_id"`
	Amount                string  `gorm:"column:amount"`
	PaymentToken          string  `gorm:"column:payment_token"`
	RentPaymentDate       int64   `gorm:"column:rent_payment_date"`
	RentPaymentLimitDate  int64   `gorm:"column:rent_payment_limit_date"`
	ValidationDate        int64   `gorm:"column:validation_date"`
	ExchangeRate          string  `gorm:"column:exchange_rate"`
	ExchangeRateTimestamp int64   `gorm:"column:exchange_rate_timestamp"`
	WithoutIssues         bool    `gorm:"column:without_issues"`
	Status                string  `gorm:"column:status;index"`
}

func (rentPaymentModel) TableName() string { return "rent_payments" }

type checkpointModel struct {
	Source      string `gorm:"column:source;primaryKey"`
	BlockNumber int64  `gorm:"column:block_number"`
	LogIndex    int64  `gorm:"column:log_index"`
}

func (checkpointModel) TableName() string { return "checkpoints" }

var allModels = []any{
	&userModel{},
	&platformModel{},
	&leaseModel{},
	&proposalModel{},
	&rentPaymentModel{},
	&checkpointModel{},
}
