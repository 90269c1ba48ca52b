/*
handlers.go - HTTP API handlers for the rent indexer

PURPOSE:
  Exposes event ingestion and read access to the entity graph over REST.
  Handles HTTP request/response and JSON serialization. All state changes
  go through the indexer; handlers never write entities themselves.

ENDPOINTS:
  Ingest:
    POST   /api/events                          Apply one envelope or an array

  Entities:
    GET    /api/users/{id}                      User record
    GET    /api/platforms/{id}                  Platform record
    GET    /api/leases/{id}                     Lease record
    GET    /api/leases/{id}/rent-payments       Installments in schedule order
    GET    /api/leases/{id}/rent-payments/{n}   One installment
    GET    /api/leases/{id}/proposals/{tenant}  One proposal

  Admin:
    GET    /api/checkpoint                      Last applied stream position
    GET    /api/stats                           Record counts per entity type
    POST   /api/reset                           Clear all data (dev only)

REQUEST FLOW (ingest):
  1. Read the body (bounded)
  2. Decode envelopes via factory.EventFactory
  3. Apply in order via indexer.Run
  4. Report how many were applied

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Undecodable body, unknown kind, malformed key, out-of-range terms
  - 404: Entity not found
  - 413: Body too large
  - 500: Store failure (details carry the applied count)

SECURITY NOTE:
  No authentication. The ingest endpoint must not be exposed beyond the
  network the event decoder runs in.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/factory"
	"github.com/warp/rent-indexer/indexer"
)

const maxBodyBytes = 8 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Backend is the store the API reads from. Every store package satisfies it.
type Backend interface {
	entity.Store
	Reset(ctx context.Context) error
	Stats(ctx context.Context) (map[string]int, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Backend
	Indexer *indexer.Indexer
	Factory *factory.EventFactory

	log *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. ix must have been built over store.
func NewHandler(store Backend, ix *indexer.Indexer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:   store,
		Indexer: ix,
		Factory: factory.NewEventFactory(),
		log:     log,
	}
}

// =============================================================================
// INGEST
// =============================================================================

// IngestEvents applies the posted envelopes in order.
// With ?from_checkpoint=true, envelopes at or before the stored position are skipped.
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	envs, err := h.Factory.ParseBatch(body)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "Invalid event", decodeErrorCode(err), err.Error())
		return
	}

	var opts []indexer.RunOption
	if fromCheckpoint, _ := strconv.ParseBool(r.URL.Query().Get("from_checkpoint")); fromCheckpoint {
		opts = append(opts, indexer.FromCheckpoint())
	}

	res, err := h.Indexer.Run(r.Context(), envs, opts...)
	if err != nil {
		h.log.Error("ingest stopped", zap.Int("applied", res.Applied), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to apply events",
			Code:    "store_failed",
			Details: map[string]any{"applied": res.Applied, "skipped": res.Skipped, "cause": err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusAccepted, IngestResponse{Applied: res.Applied, Skipped: res.Skipped})
}

func decodeErrorCode(err error) string {
	switch {
	case errors.Is(err, factory.ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, factory.ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, factory.ErrOutOfRange):
		return "out_of_range"
	default:
		return "malformed"
	}
}

// =============================================================================
// ENTITY HANDLERS
// =============================================================================

// GetUser returns a user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.LoadUser(r.Context(), chi.URLParam(r, "id"))
	if !found(w, "User", u != nil, err) {
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

// GetPlatform returns a platform with its fee schedule.
func (h *Handler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.LoadPlatform(r.Context(), chi.URLParam(r, "id"))
	if !found(w, "Platform", p != nil, err) {
		return
	}
	writeJSON(w, http.StatusOK, toPlatformDTO(*p))
}

// GetLease returns a lease.
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	l, err := h.Store.LoadLease(r.Context(), chi.URLParam(r, "id"))
	if !found(w, "Lease", l != nil, err) {
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTO(*l))
}

// ListRentPayments returns the lease's installments in schedule order.
// Before the schedule is materialized only installments already touched by
// payment events are listed.
func (h *Handler) ListRentPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leaseID := chi.URLParam(r, "id")

	l, err := h.Store.LoadLease(ctx, leaseID)
	if !found(w, "Lease", l != nil, err) {
		return
	}

	dtos := make([]RentPaymentDTO, 0, l.TotalNumberOfRents)
	for i := uint64(0); i < l.TotalNumberOfRents; i++ {
		rp, err := h.Store.LoadRentPayment(ctx, entity.RentPaymentID(leaseID, i))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load rent payments", err)
			return
		}
		if rp != nil {
			dtos = append(dtos, toRentPaymentDTO(*rp))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRentPayment returns one installment by index.
func (h *Handler) GetRentPayment(w http.ResponseWriter, r *http.Request) {
	index, err := factory.CanonicalKey(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid installment index", err)
		return
	}
	rp, err := h.Store.LoadRentPayment(r.Context(), entity.Combine(chi.URLParam(r, "id"), index))
	if !found(w, "Rent payment", rp != nil, err) {
		return
	}
	writeJSON(w, http.StatusOK, toRentPaymentDTO(*rp))
}

// GetProposal returns the proposal a tenant made on an open lease.
func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	id := entity.ProposalID(chi.URLParam(r, "id"), chi.URLParam(r, "tenant"))
	p, err := h.Store.LoadProposal(r.Context(), id)
	if !found(w, "Proposal", p != nil, err) {
		return
	}
	writeJSON(w, http.StatusOK, toProposalDTO(*p))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetCheckpoint returns the indexer's last applied position.
func (h *Handler) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	cp, err := h.Indexer.Checkpoint(r.Context())
	if !found(w, "Checkpoint", cp != nil, err) {
		return
	}
	writeJSON(w, http.StatusOK, toCheckpointDTO(*cp))
}

// GetStats returns record counts per entity type.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count records", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// found writes a 500 or 404 and returns false unless the lookup succeeded.
func found(w http.ResponseWriter, what string, ok bool, err error) bool {
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load "+what, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusNotFound, what+" not found", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeErrorCode(w http.ResponseWriter, status int, message, code string, details any) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}
