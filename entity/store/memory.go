// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/rent-indexer/entity"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state memoryState
}

type memoryState struct {
	users        map[string]entity.User
	platforms    map[string]entity.Platform
	leases       map[string]entity.Lease
	proposals    map[string]entity.Proposal
	rentPayments map[string]entity.RentPayment
	checkpoints  map[string]entity.Checkpoint
}

func newMemoryState() memoryState {
	return memoryState{
		users:        make(map[string]entity.User),
		platforms:    make(map[string]entity.Platform),
		leases:       make(map[string]entity.Lease),
		proposals:    make(map[string]entity.Proposal),
		rentPayments: make(map[string]entity.RentPayment),
		checkpoints:  make(map[string]entity.Checkpoint),
	}
}

func NewMemory() *Memory {
	return &Memory{state: newMemoryState()}
}

var (
	_ entity.Store           = (*Memory)(nil)
	_ entity.CheckpointStore = (*Memory)(nil)
	_ entity.TxStore         = (*TxMemory)(nil)
)

// load returns a copy of the stored value, or nil.
func load[T any](m map[string]T, id string) *T {
	v, ok := m[id]
	if !ok {
		return nil
	}
	return &v
}

func (m *Memory) LoadUser(_ context.Context, id string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return load(m.state.users, id), nil
}

func (m *Memory) SaveUser(_ context.Context, u entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.users[u.ID] = u
	return nil
}

func (m *Memory) LoadPlatform(_ context.Context, id string) (*entity.Platform, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return load(m.state.platforms, id), nil
}

func (m *Memory) SavePlatform(_ context.Context, p entity.Platform) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.platforms[p.ID] = p
	return nil
}

func (m *Memory) LoadLease(_ context.Context, id string) (*entity.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return load(m.state.leases, id), nil
}

func (m *Memory) SaveLease(_ context.Context, l entity.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.leases[l.ID] = l
	return nil
}

func (m *Memory) LoadProposal(_ context.Context, id string) (*entity.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return load(m.state.proposals, id), nil
}

func (m *Memory) SaveProposal(_ context.Context, p entity.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.proposals[p.ID] = p
	return nil
}

func (m *Memory) LoadRentPayment(_ context.Context, id string) (*entity.RentPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return load(m.state.rentPayments, id), nil
}

func (m *Memory) SaveRentPayment(_ context.Context, rp entity.RentPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.rentPayments[rp.ID] = rp
	return nil
}

func (m *Memory) LoadCheckpoint(_ context.Context, source string) (*entity.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return load(m.state.checkpoints, source), nil
}

func (m *Memory) SaveCheckpoint(_ context.Context, cp entity.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.checkpoints[cp.Source] = cp
	return nil
}

// =============================================================================
// INSPECTION - Test helpers
// =============================================================================

// Counts returns the number of stored records per entity type.
func (m *Memory) Counts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int{
		"user":         len(m.state.users),
		"platform":     len(m.state.platforms),
		"lease":        len(m.state.leases),
		"proposal":     len(m.state.proposals),
		"rent_payment": len(m.state.rentPayments),
	}
}

// Stats is Counts in the shape the other stores report.
func (m *Memory) Stats(context.Context) (map[string]int, error) {
	return m.Counts(), nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = newMemoryState()
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot that is restored when
// fn returns an error or panics. A panic in fn still propagates.
func (tm *TxMemory) WithTx(_ context.Context, fn func(entity.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.state.clone()
	committed := false
	defer func() {
		if !committed {
			tm.state = snapshot
		}
	}()

	if err := fn(&txMemoryView{state: &tm.state}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s memoryState) clone() memoryState {
	c := newMemoryState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.platforms {
		c.platforms[k] = v
	}
	for k, v := range s.leases {
		c.leases[k] = v
	}
	for k, v := range s.proposals {
		c.proposals[k] = v
	}
	for k, v := range s.rentPayments {
		c.rentPayments[k] = v
	}
	for k, v := range s.checkpoints {
		c.checkpoints[k] = v
	}
	return c
}

// txMemoryView operates on the parent's state while WithTx holds its lock.
type txMemoryView struct {
	state *memoryState
}

func (tv *txMemoryView) LoadUser(_ context.Context, id string) (*entity.User, error) {
	return load(tv.state.users, id), nil
}

func (tv *txMemoryView) SaveUser(_ context.Context, u entity.User) error {
	tv.state.users[u.ID] = u
	return nil
}

func (tv *txMemoryView) LoadPlatform(_ context.Context, id string) (*entity.Platform, error) {
	return load(tv.state.platforms, id), nil
}

func (tv *txMemoryView) SavePlatform(_ context.Context, p entity.Platform) error {
	tv.state.platforms[p.ID] = p
	return nil
}

func (tv *txMemoryView) LoadLease(_ context.Context, id string) (*entity.Lease, error) {
	return load(tv.state.leases, id), nil
}

func (tv *txMemoryView) SaveLease(_ context.Context, l entity.Lease) error {
	tv.state.leases[l.ID] = l
	return nil
}

func (tv *txMemoryView) LoadProposal(_ context.Context, id string) (*entity.Proposal, error) {
	return load(tv.state.proposals, id), nil
}

func (tv *txMemoryView) SaveProposal(_ context.Context, p entity.Proposal) error {
	tv.state.proposals[p.ID] = p
	return nil
}

func (tv *txMemoryView) LoadRentPayment(_ context.Context, id string) (*entity.RentPayment, error) {
	return load(tv.state.rentPayments, id), nil
}

func (tv *txMemoryView) SaveRentPayment(_ context.Context, rp entity.RentPayment) error {
	tv.state.rentPayments[rp.ID] = rp
	return nil
}

func (tv *txMemoryView) LoadCheckpoint(_ context.Context, source string) (*entity.Checkpoint, error) {
	return load(tv.state.checkpoints, source), nil
}

func (tv *txMemoryView) SaveCheckpoint(_ context.Context, cp entity.Checkpoint) error {
	tv.state.checkpoints[cp.Source] = cp
	return nil
}
