/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built event streams that populate the store with realistic
	data for testing and demos. Each scenario is a JSON batch of envelopes,
	decoded and applied exactly as POST /api/events would.

AVAILABLE SCENARIOS:

	direct-lease:    Direct lease validated and partly paid in crypto
	open-lease:      Open lease, two competing proposals, fiat payment
	cancelled-lease: Mutual cancellation, remaining installments cancelled
	disputed-lease:  Conflicting installment and the anomalies it raises

HOW SCENARIOS WORK:
 1. Reset the store (clear all data, checkpoints included)
 2. Decode the scenario's envelopes via factory.EventFactory
 3. Apply them in order via indexer.Run

USAGE VIA API:

	POST /api/scenarios/open-lease/load

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' with ID, name, description and events
 2. Keep block numbers increasing so replays from a checkpoint work

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared helpers
  - factory/event.go: Envelope JSON schema
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/indexer"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ErrUnknownScenario is returned for a scenario id not in the catalogue.
var ErrUnknownScenario = errors.New("unknown scenario")

type scenario struct {
	ID          string
	Name        string
	Description string
	Events      string
}

// Shared by every scenario: one platform, an owner and two tenants.
const registryEvents = `
{"kind":"PlatformMinted","block":{"number":1,"timestamp":1699990000,"logIndex":0},"params":{"platformId":"1","platformName":"warp-rentals","platformOwnerAddress":"0x00000000000000000000000000000000000000a1"}},
{"kind":"OriginLeaseFeeRateUpdated","block":{"number":1,"timestamp":1699990000,"logIndex":1},"params":{"platformId":"1","value":"100"}},
{"kind":"OriginProposalFeeRateUpdated","block":{"number":1,"timestamp":1699990000,"logIndex":2},"params":{"platformId":"1","value":"150"}},
{"kind":"UserMinted","block":{"number":2,"timestamp":1699990100,"logIndex":0},"params":{"userId":"7","handle":"alice","address":"0x00000000000000000000000000000000000000b7"}},
{"kind":"UserMinted","block":{"number":2,"timestamp":1699990100,"logIndex":1},"params":{"userId":"9","handle":"bob","address":"0x00000000000000000000000000000000000000b9"}},
{"kind":"UserMinted","block":{"number":2,"timestamp":1699990100,"logIndex":2},"params":{"userId":"10","handle":"carol","address":"0x00000000000000000000000000000000000000ba"}},
{"kind":"UserCidUpdated","block":{"number":3,"timestamp":1699990200,"logIndex":0},"params":{"userId":"7","newCid":"bafy-alice"}}`

var scenarios = []scenario{
	{
		ID:          "direct-lease",
		Name:        "Direct Lease",
		Description: "Owner and tenant agree up front; 12 monthly crypto rents, two paid and one missed",
		Events: `[` + registryEvents + `,
{"kind":"LeaseCreated","block":{"number":10,"timestamp":1700000000,"logIndex":0},"params":{"leaseId":"1","ownerId":"7","tenantId":"9","platformId":"1","totalNumberOfRents":12,"rentPaymentInterval":2592000,"rentPaymentLimitTime":86400,"startDate":1700000000}},
{"kind":"LeasePaymentDataUpdated","block":{"number":10,"timestamp":1700000000,"logIndex":1},"params":{"leaseId":"1","rentAmount":"1500000000000000000000","paymentToken":"0x00000000000000000000000000000000000000c0","currencyPair":""}},
{"kind":"LeaseValidated","block":{"number":11,"timestamp":1700000100,"logIndex":0},"params":{"leaseId":"1"}},
{"kind":"CryptoRentPaid","block":{"number":20,"timestamp":1700050000,"logIndex":0},"params":{"leaseId":"1","rentId":"0","amount":"1500000000000000000000","withoutIssues":true}},
{"kind":"CryptoRentPaid","block":{"number":30,"timestamp":1702600000,"logIndex":0},"params":{"leaseId":"1","rentId":"1","amount":"1500000000000000000000","withoutIssues":true}},
{"kind":"RentNotPaid","block":{"number":40,"timestamp":1705300000,"logIndex":0},"params":{"leaseId":"1","rentId":"2"}},
{"kind":"LeaseReviewedByTenant","block":{"number":41,"timestamp":1705300100,"logIndex":0},"params":{"leaseId":"1","reviewUri":"ipfs://review-bob"}}
]`,
	},
	{
		ID:          "open-lease",
		Name:        "Open Lease",
		Description: "Listing without a tenant; two proposals compete and one is accepted, then rent is paid in fiat",
		Events: `[` + registryEvents + `,
{"kind":"LeaseCreated","block":{"number":10,"timestamp":1700000000,"logIndex":0},"params":{"leaseId":"2","ownerId":"7","tenantId":"0","platformId":"1","totalNumberOfRents":6,"rentPaymentInterval":2592000,"rentPaymentLimitTime":172800,"startDate":0}},
{"kind":"LeasePaymentDataUpdated","block":{"number":10,"timestamp":1700000000,"logIndex":1},"params":{"leaseId":"2","rentAmount":"1200","paymentToken":"0x0000000000000000000000000000000000000000","currencyPair":"EUR/USD"}},
{"kind":"ProposalSubmitted","block":{"number":12,"timestamp":1700003000,"logIndex":0},"params":{"leaseId":"2","tenantId":"9","platformId":"1","totalNumberOfRents":6,"startDate":1701000000,"cid":"bafy-proposal-bob"}},
{"kind":"ProposalSubmitted","block":{"number":13,"timestamp":1700004000,"logIndex":0},"params":{"leaseId":"2","tenantId":"10","platformId":"1","totalNumberOfRents":3,"startDate":1701500000,"cid":"bafy-proposal-carol"}},
{"kind":"ProposalUpdated","block":{"number":14,"timestamp":1700005000,"logIndex":0},"params":{"leaseId":"2","tenantId":"9","totalNumberOfRents":6,"startDate":1701000000,"cid":"bafy-proposal-bob-v2"}},
{"kind":"ProposalValidated","block":{"number":15,"timestamp":1700006000,"logIndex":0},"params":{"leaseId":"2","tenantId":"9"}},
{"kind":"FiatRentPaid","block":{"number":20,"timestamp":1701010000,"logIndex":0},"params":{"leaseId":"2","rentId":"0","amount":"1200","withoutIssues":true,"exchangeRate":"1.0825","exchangeRateTimestamp":1701009000}},
{"kind":"RentPaymentIssueStatusUpdated","block":{"number":21,"timestamp":1701020000,"logIndex":0},"params":{"leaseId":"2","rentId":"0","withoutIssues":false}}
]`,
	},
	{
		ID:          "cancelled-lease",
		Name:        "Cancelled Lease",
		Description: "Both parties request cancellation after the first rent; the rest of the schedule is cancelled",
		Events: `[` + registryEvents + `,
{"kind":"LeaseCreated","block":{"number":10,"timestamp":1700000000,"logIndex":0},"params":{"leaseId":"3","ownerId":"7","tenantId":"9","platformId":"1","totalNumberOfRents":3,"rentPaymentInterval":2592000,"rentPaymentLimitTime":86400,"startDate":1700000000}},
{"kind":"LeaseValidated","block":{"number":11,"timestamp":1700000100,"logIndex":0},"params":{"leaseId":"3"}},
{"kind":"CryptoRentPaid","block":{"number":20,"timestamp":1700050000,"logIndex":0},"params":{"leaseId":"3","rentId":"0","amount":"900","withoutIssues":true}},
{"kind":"CancellationRequested","block":{"number":21,"timestamp":1700060000,"logIndex":0},"params":{"leaseId":"3","cancelledByOwner":true,"cancelledByTenant":false}},
{"kind":"CancellationRequested","block":{"number":22,"timestamp":1700070000,"logIndex":0},"params":{"leaseId":"3","cancelledByOwner":true,"cancelledByTenant":true}},
{"kind":"UpdateLeaseStatus","block":{"number":22,"timestamp":1700070000,"logIndex":1},"params":{"leaseId":"3","status":3}},
{"kind":"UpdateRentStatus","block":{"number":22,"timestamp":1700070000,"logIndex":2},"params":{"leaseId":"3","rentId":"1","status":3}},
{"kind":"UpdateRentStatus","block":{"number":22,"timestamp":1700070000,"logIndex":3},"params":{"leaseId":"3","rentId":"2","status":3}}
]`,
	},
	{
		ID:          "disputed-lease",
		Name:        "Disputed Lease",
		Description: "A rent marked paid without an amount, then put in conflict; an unmapped status code is ignored",
		Events: `[` + registryEvents + `,
{"kind":"LeaseCreated","block":{"number":10,"timestamp":1700000000,"logIndex":0},"params":{"leaseId":"4","ownerId":"7","tenantId":"10","platformId":"1","totalNumberOfRents":2,"rentPaymentInterval":604800,"rentPaymentLimitTime":86400,"startDate":1700000000}},
{"kind":"LeaseValidated","block":{"number":11,"timestamp":1700000100,"logIndex":0},"params":{"leaseId":"4"}},
{"kind":"CryptoRentPaid","block":{"number":20,"timestamp":1700050000,"logIndex":0},"params":{"leaseId":"4","rentId":"0","amount":"0","withoutIssues":false}},
{"kind":"UpdateRentStatus","block":{"number":21,"timestamp":1700060000,"logIndex":0},"params":{"leaseId":"4","rentId":"0","status":4}},
{"kind":"UpdateRentStatus","block":{"number":22,"timestamp":1700070000,"logIndex":0},"params":{"leaseId":"4","rentId":"1","status":9}},
{"kind":"LeaseReviewedByOwner","block":{"number":23,"timestamp":1700080000,"logIndex":0},"params":{"leaseId":"4","reviewUri":"ipfs://review-alice"}}
]`,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, 0, len(scenarios))
	for _, s := range scenarios {
		envs, err := h.Factory.ParseBatch([]byte(s.Events))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Scenario %s is invalid", s.ID), err)
			return
		}
		dtos = append(dtos, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description, Events: len(envs)})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
}

// LoadScenario resets the store and applies a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "name")
	res, err := h.ApplyScenario(r.Context(), id)
	if errors.Is(err, ErrUnknownScenario) {
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "loaded", "scenario": id, "applied": res.Applied})
}

// ApplyScenario resets the store and applies the named scenario.
func (h *Handler) ApplyScenario(ctx context.Context, id string) (indexer.Result, error) {
	s, ok := findScenario(id)
	if !ok {
		return indexer.Result{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return h.loadScenario(ctx, s)
}

// ScenarioIDs lists the available scenarios in catalogue order.
func ScenarioIDs() []string {
	ids := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		ids = append(ids, s.ID)
	}
	return ids
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) (indexer.Result, error) {
	envs, err := h.Factory.ParseBatch([]byte(s.Events))
	if err != nil {
		return indexer.Result{}, fmt.Errorf("decode %s: %w", s.ID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return indexer.Result{}, fmt.Errorf("reset: %w", err)
	}
	h.currentScenario = ""

	res, err := h.Indexer.Run(ctx, envs)
	if err != nil {
		return res, err
	}
	h.currentScenario = s.ID
	h.log.Info("scenario loaded", zap.String("scenario", s.ID), zap.Int("applied", res.Applied))
	return res, nil
}
