/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Event ingestion (single, batch, decode errors, store failures, replay)
- Entity reads and 404s
- Admin endpoints (checkpoint, stats, reset, health, metrics)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/entity/store"
	"github.com/warp/rent-indexer/indexer"
	"github.com/warp/rent-indexer/metrics"
	"github.com/warp/rent-indexer/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func setupTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := prometheus.NewRegistry()
	log := zaptest.NewLogger(t)
	ix := indexer.New(st, indexer.WithLogger(log), indexer.WithRecorder(metrics.New(reg, "")), indexer.WithSource("http"))
	return NewRouter(NewHandler(st, ix, log), metrics.Handler(reg))
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v), rec.Body.String())
	return v
}

const (
	leaseCreatedJSON   = `{"kind":"LeaseCreated","block":{"number":1,"timestamp":1000,"logIndex":0},"params":{"leaseId":"42","ownerId":"7","tenantId":"9","platformId":"1","totalNumberOfRents":3,"rentPaymentInterval":2592000,"rentPaymentLimitTime":86400,"startDate":1000}}`
	leaseValidatedJSON = `{"kind":"LeaseValidated","block":{"number":2,"timestamp":1100,"logIndex":0},"params":{"leaseId":"42"}}`
	rentPaidJSON       = `{"kind":"CryptoRentPaid","block":{"number":3,"timestamp":1200,"logIndex":0},"params":{"leaseId":"42","rentId":"0","amount":"500","withoutIssues":true}}`
)

// =============================================================================
// INGEST
// =============================================================================

func TestIngestEvents_SingleEnvelope(t *testing.T) {
	router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/events", leaseCreatedJSON)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, IngestResponse{Applied: 1}, decode[IngestResponse](t, rec))

	rec = do(t, router, http.MethodGet, "/api/leases/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	l := decode[LeaseDTO](t, rec)
	assert.Equal(t, "PENDING", l.Status)
	assert.Equal(t, "DIRECT", l.Type)
	require.NotNil(t, l.Owner)
	assert.Equal(t, "7", *l.Owner)
	assert.False(t, l.ScheduleMaterialized)
}

func TestIngestEvents_BatchMaterializesSchedule(t *testing.T) {
	// GIVEN: A batch creating, validating and paying a 3-rent lease
	// WHEN: It is posted in one request
	// THEN: All three apply and the schedule is listed in order

	router := setupTestRouter(t)

	body := "[" + leaseCreatedJSON + "," + leaseValidatedJSON + "," + rentPaidJSON + "]"
	rec := do(t, router, http.MethodPost, "/api/events", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[IngestResponse](t, rec).Applied)

	rec = do(t, router, http.MethodGet, "/api/leases/42/rent-payments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rents := decode[[]RentPaymentDTO](t, rec)
	require.Len(t, rents, 3)
	assert.Equal(t, "42-0", rents[0].ID)
	assert.Equal(t, "PAID", rents[0].Status)
	assert.Equal(t, "500", rents[0].Amount)
	assert.Equal(t, int64(2593000), rents[1].RentPaymentDate)
	assert.Equal(t, "PENDING", rents[2].Status)

	// Non-canonical index resolves to the same installment.
	rec = do(t, router, http.MethodGet, "/api/leases/42/rent-payments/00", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42-0", decode[RentPaymentDTO](t, rec).ID)
}

func TestIngestEvents_DecodeErrors(t *testing.T) {
	router := setupTestRouter(t)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"unknown kind", `{"kind":"LeaseTeleported","block":{"number":1},"params":{}}`, "unknown_event"},
		{"bad key", `{"kind":"LeaseValidated","block":{"number":1},"params":{"leaseId":"forty-two"}}`, "invalid_key"},
		{"huge schedule", `{"kind":"LeaseCreated","block":{"number":1},"params":{"leaseId":"1","ownerId":"2","tenantId":"3","platformId":"4","totalNumberOfRents":18446744073709551615}}`, "out_of_range"},
		{"negative interval", `{"kind":"LeaseCreated","block":{"number":1},"params":{"leaseId":"1","ownerId":"2","tenantId":"3","platformId":"4","totalNumberOfRents":2,"rentPaymentInterval":-100}}`, "out_of_range"},
		{"not json", `{"kind":`, "malformed"},
		{"empty", ``, "malformed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/events", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, rec).Code)
		})
	}

	// Nothing from the rejected bodies reached the store.
	rec := do(t, router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[map[string]int](t, rec)["lease"])
}

func TestIngestEvents_FromCheckpointSkipsApplied(t *testing.T) {
	router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/events", "["+leaseCreatedJSON+","+leaseValidatedJSON+"]")
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := "[" + leaseCreatedJSON + "," + leaseValidatedJSON + "," + rentPaidJSON + "]"
	rec = do(t, router, http.MethodPost, "/api/events?from_checkpoint=true", body)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, IngestResponse{Applied: 1, Skipped: 2}, decode[IngestResponse](t, rec))
}

func TestIngestEvents_UnmappedStatusCodeIsAccepted(t *testing.T) {
	// GIVEN: A status code beyond any on-chain enum
	// WHEN: It is posted
	// THEN: 202, and the event is applied as a no-op instead of rejected

	router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/events",
		`{"kind":"UpdateLeaseStatus","block":{"number":1},"params":{"leaseId":"42","status":300}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, IngestResponse{Applied: 1}, decode[IngestResponse](t, rec))
}

var errReadOnly = errors.New("read-only file system")

// readOnlyLeases rejects lease writes. Memory is not transactional, so the
// indexer applies events straight to it.
type readOnlyLeases struct {
	*store.Memory
}

func (readOnlyLeases) SaveLease(context.Context, entity.Lease) error { return errReadOnly }

func TestIngestEvents_StoreFailure(t *testing.T) {
	// GIVEN: A store that accepts users but rejects leases
	// WHEN: A user mint followed by a lease creation is posted
	// THEN: 500, and the details report that one event was applied

	st := readOnlyLeases{Memory: store.NewMemory()}
	ix := indexer.New(st)
	router := NewRouter(NewHandler(st, ix, nil), nil)

	mint := `{"kind":"UserMinted","block":{"number":1,"timestamp":1},"params":{"userId":"3","handle":"dave","address":"0x03"}}`
	rec := do(t, router, http.MethodPost, "/api/events", "["+mint+","+leaseCreatedJSON+"]")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "store_failed", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), details["applied"])
	assert.Contains(t, details["cause"], "read-only")
}

// =============================================================================
// READS
// =============================================================================

func TestGetEntities_NotFound(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{
		"/api/users/1",
		"/api/platforms/1",
		"/api/leases/1",
		"/api/leases/1/rent-payments",
		"/api/leases/1/rent-payments/0",
		"/api/leases/1/proposals/9",
		"/api/checkpoint",
	} {
		rec := do(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := do(t, router, http.MethodGet, "/api/leases/1/rent-payments/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEntities_RegistryAndProposal(t *testing.T) {
	router := setupTestRouter(t)

	body := `[
{"kind":"UserMinted","block":{"number":1,"timestamp":10},"params":{"userId":"7","handle":"alice","address":"0xa"}},
{"kind":"PlatformMinted","block":{"number":2,"timestamp":20},"params":{"platformId":"1","platformName":"rentals","platformOwnerAddress":"0xp"}},
{"kind":"LeasePostingFeeUpdated","block":{"number":3,"timestamp":30},"params":{"platformId":"1","value":"0.5"}},
{"kind":"LeaseCreated","block":{"number":4,"timestamp":40},"params":{"leaseId":"5","ownerId":"7","tenantId":"0","platformId":"1","totalNumberOfRents":2,"rentPaymentInterval":60,"rentPaymentLimitTime":10,"startDate":0}},
{"kind":"ProposalSubmitted","block":{"number":5,"timestamp":50},"params":{"leaseId":"5","tenantId":"9","platformId":"1","totalNumberOfRents":2,"startDate":100,"cid":"bafy"}}
]`
	rec := do(t, router, http.MethodPost, "/api/events", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/users/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[UserDTO](t, rec).Handle)

	rec = do(t, router, http.MethodGet, "/api/platforms/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[PlatformDTO](t, rec)
	assert.Equal(t, "rentals", p.Name)
	assert.Equal(t, "0.5", p.LeasePostingFee)
	assert.Equal(t, "0", p.ProposalPostingFee)

	rec = do(t, router, http.MethodGet, "/api/leases/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	l := decode[LeaseDTO](t, rec)
	assert.Nil(t, l.Tenant)
	assert.Equal(t, "OPEN", l.Type)

	rec = do(t, router, http.MethodGet, "/api/leases/5/proposals/9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pr := decode[ProposalDTO](t, rec)
	assert.Equal(t, "5-9", pr.ID)
	assert.Equal(t, "PENDING", pr.Status)
	require.NotNil(t, pr.Owner)
	assert.Equal(t, "7", *pr.Owner)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdmin_CheckpointStatsReset(t *testing.T) {
	router := setupTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/events", "["+leaseCreatedJSON+","+leaseValidatedJSON+"]")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/checkpoint", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CheckpointDTO{Source: "http", BlockNumber: 2}, decode[CheckpointDTO](t, rec))

	rec = do(t, router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]int](t, rec)
	assert.Equal(t, 1, stats["lease"])
	assert.Equal(t, 3, stats["rent_payment"])
	assert.Equal(t, 2, stats["user"])
	assert.Equal(t, 1, stats["platform"])

	rec = do(t, router, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/leases/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/checkpoint", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupTestRouter(t)

	rec := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	do(t, router, http.MethodPost, "/api/events", leaseCreatedJSON)

	rec = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rentindex_events_total{kind="LeaseCreated"} 1`)
}
