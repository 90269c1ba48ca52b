/*
Package lease reduces lease contract events into leases, proposals and
rent-payment installments.

PURPOSE:
  Each exported method of Reducer handles one event kind. A method loads the
  entities it declares through the Repository, applies field updates, may
  expand the rent schedule, and saves. It never touches any other record.

LIFECYCLE:
  PENDING ──validate──► ACTIVE ──status 2──► ENDED
     │                    │
     └──────status 3──────┴──────────────► CANCELLED

  Status-update events can set any status by code; the table is total over
  codes 0..3 and anything else is an anomaly that leaves status unchanged.
  Cancellation requests only record who asked; they never move the status.

SCHEDULE TRIGGERS:
  - LeaseValidated (direct leases): authoritative trigger
  - ProposalValidated (open leases): copies terms from the proposal, then triggers
  - LeasePaymentDataUpdated: only with WithLegacySchedule(true)
  Materialization is idempotent, so triggering more than once converges.

ANOMALIES:
  Conditions the source of truth allowed but this model considers suspect
  are logged at warn level and reported to the Observer. They never stop
  the reduction of later events.

EXAMPLE:
  r := lease.NewReducer(store, lease.WithLogger(log))
  err := r.LeaseCreated(ctx, meta, &event.LeaseCreated{...})

SEE ALSO:
  - schedule.go: Rent schedule materialization
  - proposal.go: Open-marketplace proposal reducers
  - payment.go: Settlement reducers
*/
package lease

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
)

// Anomaly reasons reported to the Observer.
const (
	ReasonUnmappedStatus    = "unmapped_status_code"
	ReasonScheduleFrozen    = "schedule_frozen"
	ReasonTenantReassigned  = "tenant_reassigned"
	ReasonEmptySchedule     = "empty_schedule"
	ReasonScheduleTooLarge  = "schedule_too_large"
	ReasonUnsettledPaidRent = "paid_without_amount"
)

// Observer receives side-channel signals from the reducer.
type Observer interface {
	Anomaly(kind event.Kind, reason string)
	Materialized(leaseID string, count int)
}

type nopObserver struct{}

func (nopObserver) Anomaly(event.Kind, string) {}
func (nopObserver) Materialized(string, int)   {}

// =============================================================================
// REDUCER
// =============================================================================

// Reducer applies lease contract events. It is cheap to construct; the
// indexer builds one per event around that event's transactional store.
type Reducer struct {
	repo           *entity.Repository
	log            *zap.Logger
	observer       Observer
	legacySchedule bool
}

type Option func(*Reducer)

func WithLogger(log *zap.Logger) Option {
	return func(r *Reducer) { r.log = log }
}

func WithObserver(o Observer) Option {
	return func(r *Reducer) { r.observer = o }
}

// WithLegacySchedule also materializes the schedule on payment-data updates.
func WithLegacySchedule(enabled bool) Option {
	return func(r *Reducer) { r.legacySchedule = enabled }
}

func NewReducer(store entity.Store, opts ...Option) *Reducer {
	r := &Reducer{
		repo:     entity.NewRepository(store),
		log:      zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reducer) anomaly(kind event.Kind, reason string, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", string(kind)), zap.String("reason", reason))
	r.log.Warn("event anomaly", fields...)
	r.observer.Anomaly(kind, reason)
}

// ensureUser get-or-creates the user behind id. The sentinel and empty ids
// mean "no counterpart yet" and yield entity.None without touching the store.
func (r *Reducer) ensureUser(ctx context.Context, id string) (entity.Ref, error) {
	if id == "" || entity.IsSentinel(id) {
		return entity.None, nil
	}
	u, err := r.repo.GetOrCreateUser(ctx, id)
	if err != nil {
		return entity.None, err
	}
	return entity.Some(u.ID), nil
}

func (r *Reducer) ensurePlatform(ctx context.Context, id string) (entity.Ref, error) {
	if id == "" || entity.IsSentinel(id) {
		return entity.None, nil
	}
	p, err := r.repo.GetOrCreatePlatform(ctx, id)
	if err != nil {
		return entity.None, err
	}
	return entity.Some(p.ID), nil
}

// =============================================================================
// CREATION / UPDATE
// =============================================================================

// LeaseCreated sets the lease's parties, platform and schedule terms.
func (r *Reducer) LeaseCreated(ctx context.Context, meta event.Meta, e *event.LeaseCreated) error {
	l, err := r.applyTerms(ctx, e.Kind(), e.LeaseTerms)
	if err != nil {
		return err
	}
	l.CreatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}

// LeaseUpdated is the pre-validation edit: same fields as creation plus the metadata URI.
func (r *Reducer) LeaseUpdated(ctx context.Context, meta event.Meta, e *event.LeaseUpdated) error {
	l, err := r.applyTerms(ctx, e.Kind(), e.LeaseTerms)
	if err != nil {
		return err
	}
	l.URI = e.URI
	l.UpdatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}

func (r *Reducer) applyTerms(ctx context.Context, kind event.Kind, t event.LeaseTerms) (*entity.Lease, error) {
	owner, err := r.ensureUser(ctx, t.OwnerID)
	if err != nil {
		return nil, err
	}
	tenant, err := r.ensureUser(ctx, t.TenantID)
	if err != nil {
		return nil, err
	}
	platform, err := r.ensurePlatform(ctx, t.PlatformID)
	if err != nil {
		return nil, err
	}

	l, err := r.repo.GetOrCreateLease(ctx, t.LeaseID)
	if err != nil {
		return nil, err
	}
	l.Owner = owner
	l.Tenant = tenant
	l.Platform = platform
	if tenant.IsSet() {
		l.Type = entity.LeaseDirect
	} else {
		l.Type = entity.LeaseOpen
	}

	if l.ScheduleMaterialized && scheduleChanged(l, t) {
		r.anomaly(kind, ReasonScheduleFrozen,
			zap.String("lease_id", l.ID),
			zap.Uint64("rents", l.TotalNumberOfRents),
			zap.Uint64("requested_rents", t.TotalNumberOfRents),
			zap.Int64("start", int64(l.StartDate)),
			zap.Int64("requested_start", int64(t.StartDate)))
		return l, nil
	}
	l.TotalNumberOfRents = t.TotalNumberOfRents
	l.RentPaymentInterval = t.RentPaymentInterval
	l.RentPaymentLimitTime = t.RentPaymentLimitTime
	l.StartDate = t.StartDate
	return l, nil
}

func scheduleChanged(l *entity.Lease, t event.LeaseTerms) bool {
	return l.TotalNumberOfRents != t.TotalNumberOfRents ||
		l.StartDate != t.StartDate ||
		l.RentPaymentInterval != t.RentPaymentInterval ||
		l.RentPaymentLimitTime != t.RentPaymentLimitTime
}

// LeasePaymentDataUpdated sets the financial terms. They are independent of
// the schedule unless legacy scheduling is enabled.
func (r *Reducer) LeasePaymentDataUpdated(ctx context.Context, meta event.Meta, e *event.LeasePaymentDataUpdated) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	l.RentAmount = e.RentAmount
	l.PaymentToken = e.PaymentToken
	l.CurrencyPair = e.CurrencyPair
	l.UpdatedAt = meta.Timestamp

	if r.legacySchedule {
		if _, err := r.Materialize(ctx, e.Kind(), l); err != nil {
			return err
		}
	}
	return r.repo.SaveLease(ctx, *l)
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// LeaseValidated activates a direct lease and expands its schedule from the
// lease's current terms.
func (r *Reducer) LeaseValidated(ctx context.Context, meta event.Meta, e *event.LeaseValidated) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	l.Status = entity.LeaseActive
	l.UpdatedAt = meta.Timestamp

	if _, err := r.Materialize(ctx, e.Kind(), l); err != nil {
		return err
	}
	return r.repo.SaveLease(ctx, *l)
}

// UpdateLeaseStatus sets the status by on-chain code.
func (r *Reducer) UpdateLeaseStatus(ctx context.Context, meta event.Meta, e *event.UpdateLeaseStatus) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	status, ok := entity.LeaseStatusFromCode(e.Status)
	if ok {
		l.Status = status
	} else {
		r.anomaly(e.Kind(), ReasonUnmappedStatus,
			zap.String("lease_id", l.ID),
			zap.Uint64("code", e.Status),
			zap.String("status", string(l.Status)))
	}
	l.UpdatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}

// CancellationRequested records each party's cancellation flag. Both flags are
// tracked independently; the status only changes through a status event.
func (r *Reducer) CancellationRequested(ctx context.Context, meta event.Meta, e *event.CancellationRequested) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	l.CancelledByOwner = e.CancelledByOwner
	l.CancelledByTenant = e.CancelledByTenant
	l.UpdatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}

// =============================================================================
// REVIEWS / METADATA
// =============================================================================

func (r *Reducer) LeaseReviewedByTenant(ctx context.Context, meta event.Meta, e *event.LeaseReviewedByTenant) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	l.TenantReviewURI = e.ReviewURI
	l.UpdatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}

func (r *Reducer) LeaseReviewedByOwner(ctx context.Context, meta event.Meta, e *event.LeaseReviewedByOwner) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	l.OwnerReviewURI = e.ReviewURI
	l.UpdatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}

func (r *Reducer) LeaseMetaDataUpdated(ctx context.Context, meta event.Meta, e *event.LeaseMetaDataUpdated) error {
	l, err := r.repo.GetOrCreateLease(ctx, e.LeaseID)
	if err != nil {
		return err
	}
	l.URI = e.MetaData
	l.UpdatedAt = meta.Timestamp
	return r.repo.SaveLease(ctx, *l)
}
