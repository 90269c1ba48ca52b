package factory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/event"
)

func TestParseEnvelope_LeaseCreated(t *testing.T) {
	f := NewEventFactory()
	data := `{
		"kind": "LeaseCreated",
		"block": {"number": 120, "timestamp": 1700000000, "logIndex": 3},
		"params": {
			"leaseId": "042",
			"ownerId": "7",
			"tenantId": "0",
			"platformId": "1",
			"totalNumberOfRents": 12,
			"rentPaymentInterval": 2592000,
			"rentPaymentLimitTime": 86400,
			"startDate": 1700000000
		}
	}`

	env, err := f.ParseEnvelope([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, event.KindLeaseCreated, env.Kind())
	assert.Equal(t, uint64(120), env.Meta.BlockNumber)
	assert.Equal(t, entity.Timestamp(1700000000), env.Meta.Timestamp)
	assert.Equal(t, uint32(3), env.Meta.LogIndex)

	e, ok := env.Payload.(*event.LeaseCreated)
	require.True(t, ok)
	assert.Equal(t, "42", e.LeaseID, "keys are canonicalized")
	assert.Equal(t, "0", e.TenantID)
	assert.Equal(t, uint64(12), e.TotalNumberOfRents)
	assert.Equal(t, int64(86400), e.RentPaymentLimitTime)
}

func TestParseEnvelope_Decimals(t *testing.T) {
	f := NewEventFactory()

	env, err := f.ParseEnvelope([]byte(`{"kind":"FiatRentPaid","block":{"number":1},
		"params":{"leaseId":"42","rentId":"0","amount":"500","withoutIssues":true,
		"exchangeRate":1.0825,"exchangeRateTimestamp":99}}`))
	require.NoError(t, err)

	e := env.Payload.(*event.FiatRentPaid)
	assert.Equal(t, "42-0", e.PaymentID())
	assert.Equal(t, "500", e.Amount.String())
	assert.Equal(t, "1.0825", e.ExchangeRate.String())
	assert.True(t, e.WithoutIssues)
}

func TestParseEnvelope_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown kind", `{"kind":"Nope","block":{},"params":{}}`, ErrUnknownEvent},
		{"not json", `{"kind":`, ErrMalformed},
		{"unknown field", `{"kind":"LeaseValidated","params":{"leaseId":"1","extra":1}}`, ErrMalformed},
		{"wrong type", `{"kind":"LeaseValidated","params":{"leaseId":1}}`, ErrMalformed},
		{"empty key", `{"kind":"LeaseValidated","params":{}}`, ErrInvalidKey},
		{"negative key", `{"kind":"LeaseValidated","params":{"leaseId":"-1"}}`, ErrInvalidKey},
		{"fractional key", `{"kind":"LeaseValidated","params":{"leaseId":"1.5"}}`, ErrInvalidKey},
		{"hex key", `{"kind":"LeaseValidated","params":{"leaseId":"0x2a"}}`, ErrInvalidKey},
	}

	f := NewEventFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseEnvelope([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseEnvelope_RangeChecks(t *testing.T) {
	// GIVEN: Lease terms and proposals with impossible schedule values
	// WHEN: They are decoded
	// THEN: Each is rejected as out of range before reaching a reducer

	const lease = `{"kind":"LeaseCreated","block":{"number":1},"params":{"leaseId":"1","ownerId":"2","tenantId":"3","platformId":"4",%s}}`
	tests := []struct {
		name   string
		data   string
		reject bool
	}{
		{"huge rent count", fmt.Sprintf(lease, `"totalNumberOfRents":18446744073709551615,"rentPaymentInterval":60`), true},
		{"one over max rents", fmt.Sprintf(lease, `"totalNumberOfRents":1201,"rentPaymentInterval":60`), true},
		{"max rents", fmt.Sprintf(lease, `"totalNumberOfRents":1200,"rentPaymentInterval":60`), false},
		{"negative interval", fmt.Sprintf(lease, `"totalNumberOfRents":2,"rentPaymentInterval":-100`), true},
		{"negative limit time", fmt.Sprintf(lease, `"totalNumberOfRents":2,"rentPaymentLimitTime":-1`), true},
		{"negative start", fmt.Sprintf(lease, `"totalNumberOfRents":2,"startDate":-5`), true},
		{"last installment overflows", fmt.Sprintf(lease, `"totalNumberOfRents":3,"rentPaymentInterval":9223372036854775807`), true},
		{"single installment with huge interval", fmt.Sprintf(lease, `"totalNumberOfRents":1,"rentPaymentInterval":9223372036854775807`), false},
		{"proposal rent count", `{"kind":"ProposalSubmitted","params":{"leaseId":"1","tenantId":"2","platformId":"3","totalNumberOfRents":5000}}`, true},
		{"proposal update rent count", `{"kind":"ProposalUpdated","params":{"leaseId":"1","tenantId":"2","totalNumberOfRents":5000}}`, true},
		{"proposal in range", `{"kind":"ProposalUpdated","params":{"leaseId":"1","tenantId":"2","totalNumberOfRents":12}}`, false},
	}

	f := NewEventFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseEnvelope([]byte(tt.data))
			if tt.reject {
				assert.ErrorIs(t, err, ErrOutOfRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := f.ParseBatch([]byte("[" + fmt.Sprintf(lease, `"totalNumberOfRents":18446744073709551615`) + "]"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "event 0: LeaseCreated")
}

func TestParseEnvelope_WideStatusCodes(t *testing.T) {
	f := NewEventFactory()

	env, err := f.ParseEnvelope([]byte(`{"kind":"UpdateLeaseStatus","params":{"leaseId":"1","status":300}}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(300), env.Payload.(*event.UpdateLeaseStatus).Status)

	env, err = f.ParseEnvelope([]byte(`{"kind":"UpdateRentStatus","params":{"leaseId":"1","rentId":"0","status":70000}}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(70000), env.Payload.(*event.UpdateRentStatus).Status)
}

func TestParseEnvelope_LenientAllowsUnknownFields(t *testing.T) {
	f := &EventFactory{Strict: false}

	env, err := f.ParseEnvelope([]byte(`{"kind":"LeaseValidated","params":{"leaseId":"1","extra":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "1", env.Payload.(*event.LeaseValidated).LeaseID)
}

func TestParseEnvelope_KeylessEventWithoutParams(t *testing.T) {
	f := NewEventFactory()

	env, err := f.ParseEnvelope([]byte(`{"kind":"MintFeeUpdated","block":{"number":5}}`))
	require.NoError(t, err)
	assert.Equal(t, event.KindMintFeeUpdated, env.Kind())
}

func TestParseBatch(t *testing.T) {
	f := NewEventFactory()

	single, err := f.ParseBatch([]byte(`  {"kind":"LeaseValidated","params":{"leaseId":"1"}}`))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	many, err := f.ParseBatch([]byte(`[
		{"kind":"LeaseValidated","block":{"number":1},"params":{"leaseId":"1"}},
		{"kind":"UpdateLeaseStatus","block":{"number":2},"params":{"leaseId":"1","status":2}}
	]`))
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, event.KindUpdateLeaseStatus, many[1].Kind())
	assert.Equal(t, uint64(2), many[1].Payload.(*event.UpdateLeaseStatus).Status)

	_, err = f.ParseBatch([]byte(`[{"kind":"LeaseValidated","params":{"leaseId":"1"}},{"kind":"Bad"}]`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
	assert.Contains(t, err.Error(), "event 1")

	_, err = f.ParseBatch([]byte("   "))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestToJSON_ParsesBack(t *testing.T) {
	f := NewEventFactory()
	orig := event.Envelope{
		Meta: event.Meta{BlockNumber: 9, Timestamp: 100, LogIndex: 1},
		Payload: &event.LeaseUpdated{
			LeaseTerms: event.LeaseTerms{LeaseID: "3", OwnerID: "4", TenantID: "5", PlatformID: "1", TotalNumberOfRents: 2},
			URI:        "ipfs://x",
		},
	}

	ej, err := f.ToJSON(orig)
	require.NoError(t, err)
	assert.Equal(t, "LeaseUpdated", ej.Kind)

	back, err := f.FromJSON(ej)
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}

func TestRegistryCoversEveryKind(t *testing.T) {
	// Every registered kind must decode from empty params when it declares no keys,
	// and fail only on keys otherwise.
	f := NewEventFactory()
	for _, kind := range event.Kinds() {
		_, err := f.FromJSON(EnvelopeJSON{Kind: string(kind)})
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidKey, kind)
		}
	}
	assert.Len(t, event.Kinds(), 31)
}

func TestCanonicalKey(t *testing.T) {
	for in, want := range map[string]string{"0": "0", "007": "7", "42": "42", "1e2": "100"} {
		got, err := CanonicalKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
