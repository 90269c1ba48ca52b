/*
indexer.go - Ordered event delivery to the reducers

PURPOSE:
  The Indexer is the single entry point through which events reach the
  entity graph. Transports (HTTP ingest, Kafka, replay files) hand it
  envelopes; it applies them one at a time, in the order received.

PER-EVENT FLOW:
  1. Lock: deliveries from every transport are serialized
  2. Open a transaction if the store is an entity.TxStore
  3. Dispatch the payload to its reducer method (exhaustive type switch)
  4. Save the event's checkpoint if the store is an entity.CheckpointStore
  5. Commit, or roll back everything the event wrote if any step failed
  6. Record metrics

  No transaction ever spans two events.

WHAT STOPS THE STREAM:
  Only store failures. Unknown payloads and reducer anomalies are logged
  and counted, and the event still counts as applied.

REPLAY:
  Reducers are idempotent, so re-applying a prefix of the stream converges
  to the same state. Run with FromCheckpoint() skips what the store has
  already recorded instead of re-applying it.

SEE ALSO:
  - lease/reducer.go, registry/reducer.go: Reducers
  - entity/store.go: TxStore and CheckpointStore
  - metrics/metrics.go: Recorder implementation
*/
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/lease"
)

// ReasonUnknownEvent is reported for envelopes no reducer handles.
const ReasonUnknownEvent = "unknown_event"

// DefaultSource names the stream checkpoints are recorded under when none is given.
const DefaultSource = "default"

// Recorder receives metrics. It also observes reducer anomalies.
type Recorder interface {
	lease.Observer
	EventApplied(kind event.Kind, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) Anomaly(event.Kind, string)                    {}
func (nopRecorder) Materialized(string, int)                      {}
func (nopRecorder) EventApplied(event.Kind, time.Duration, error) {}

// =============================================================================
// INDEXER
// =============================================================================

type Indexer struct {
	mu             sync.Mutex
	store          entity.Store
	source         string
	log            *zap.Logger
	recorder       Recorder
	legacySchedule bool
}

type Option func(*Indexer)

func WithLogger(log *zap.Logger) Option {
	return func(ix *Indexer) { ix.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(ix *Indexer) { ix.recorder = r }
}

// WithSource sets the stream name checkpoints are recorded under.
func WithSource(source string) Option {
	return func(ix *Indexer) { ix.source = source }
}

// WithLegacySchedule is passed through to the lease reducer.
func WithLegacySchedule(enabled bool) Option {
	return func(ix *Indexer) { ix.legacySchedule = enabled }
}

func New(store entity.Store, opts ...Option) *Indexer {
	ix := &Indexer{
		store:    store,
		source:   DefaultSource,
		log:      zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

func (ix *Indexer) Source() string { return ix.source }

// Handle applies one event.
func (ix *Indexer) Handle(ctx context.Context, env event.Envelope) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.handle(ctx, env)
}

func (ix *Indexer) handle(ctx context.Context, env event.Envelope) error {
	start := time.Now()
	var err error
	if tx, ok := ix.store.(entity.TxStore); ok {
		err = tx.WithTx(ctx, func(s entity.Store) error {
			return ix.apply(ctx, s, env)
		})
	} else {
		err = ix.apply(ctx, ix.store, env)
	}
	ix.recorder.EventApplied(env.Kind(), time.Since(start), err)

	if err != nil {
		ix.log.Error("event not applied",
			zap.String("kind", string(env.Kind())),
			zap.Stringer("at", env.Meta),
			zap.Error(err))
		return fmt.Errorf("apply %s at %s: %w", env.Kind(), env.Meta, err)
	}
	ix.log.Debug("event applied",
		zap.String("kind", string(env.Kind())),
		zap.Stringer("at", env.Meta),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (ix *Indexer) apply(ctx context.Context, s entity.Store, env event.Envelope) error {
	if err := ix.dispatch(ctx, s, env); err != nil {
		return err
	}
	if cs, ok := s.(entity.CheckpointStore); ok {
		if err := cs.SaveCheckpoint(ctx, env.Meta.Position(ix.source)); err != nil {
			return &entity.StoreError{Op: "save", Entity: "checkpoint", ID: ix.source, Err: err}
		}
	}
	return nil
}

// Checkpoint returns the last applied position, or nil if the store does not
// track positions or nothing has been applied yet.
func (ix *Indexer) Checkpoint(ctx context.Context) (*entity.Checkpoint, error) {
	cs, ok := ix.store.(entity.CheckpointStore)
	if !ok {
		return nil, nil
	}
	cp, err := cs.LoadCheckpoint(ctx, ix.source)
	if err != nil {
		return nil, &entity.StoreError{Op: "load", Entity: "checkpoint", ID: ix.source, Err: err}
	}
	return cp, nil
}

// =============================================================================
// BATCH / REPLAY
// =============================================================================

type Result struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

type RunOption func(*runConfig)

type runConfig struct {
	fromCheckpoint bool
}

// FromCheckpoint skips envelopes at or before the stored checkpoint.
func FromCheckpoint() RunOption {
	return func(c *runConfig) { c.fromCheckpoint = true }
}

// Run applies envs in order and stops at the first failure. The returned
// Result counts what happened before the failure.
func (ix *Indexer) Run(ctx context.Context, envs []event.Envelope, opts ...RunOption) (Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var cursor *entity.Checkpoint
	if cfg.fromCheckpoint {
		cp, err := ix.Checkpoint(ctx)
		if err != nil {
			return Result{}, err
		}
		cursor = cp
	}

	var res Result
	for _, env := range envs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if cursor != nil && !cursor.Before(env.Meta.Position(ix.source)) {
			res.Skipped++
			continue
		}
		if err := ix.handle(ctx, env); err != nil {
			return res, err
		}
		res.Applied++
	}

	ix.log.Info("batch applied",
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped))
	return res, nil
}
