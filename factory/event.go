/*
Package factory provides JSON to Go event conversion.

PURPOSE:
  Converts JSON event envelopes into typed event.Envelope values. Decoding
  from the chain happens upstream; whatever delivers events (HTTP, Kafka,
  replay files) hands this package the decoded parameters as JSON and gets
  back the payload type the reducers expect.

JSON SCHEMA:
  {
    "kind": "LeaseCreated",
    "block": {"number": 120, "timestamp": 1700000000, "logIndex": 3},
    "params": {
      "leaseId": "42",
      "ownerId": "7",
      "tenantId": "9",
      "platformId": "1",
      "totalNumberOfRents": 12,
      "rentPaymentInterval": 2592000,
      "rentPaymentLimitTime": 86400,
      "startDate": 1700000000
    }
  }

  A batch is a JSON array of envelopes. Amounts, rates and fees are decimal
  strings or JSON numbers.

KEY HANDLING:
  Natural keys (lease, user, platform, rent ids) are on-chain unsigned
  integers. Every key the payload declares must parse as one, and is
  rewritten to canonical decimal form ("007" becomes "7") so that the same
  logical key always yields the same composite id.

RANGE CHECKS:
  Payloads implementing event.Validator are checked after decoding. Lease
  terms and proposals are rejected when totalNumberOfRents exceeds
  entity.MaxRents or an interval or start date is negative.

USAGE:
  f := factory.NewEventFactory()
  env, err := f.ParseEnvelope(data)
  envs, err := f.ParseBatch(data) // object or array

SEE ALSO:
  - event/event.go: Envelope, Payload and the kind registry
  - entity/id.go: Composite ids built from the canonical keys
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/rent-indexer/event"
)

var (
	// ErrUnknownEvent is returned for a kind with no registered payload.
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrInvalidKey is returned when a natural key is not an unsigned integer.
	ErrInvalidKey = errors.New("invalid natural key")

	// ErrMalformed is returned when the JSON does not match the envelope schema.
	ErrMalformed = errors.New("malformed event")

	// ErrOutOfRange is returned when a decoded value fails the payload's
	// range checks (schedule size, negative intervals).
	ErrOutOfRange = event.ErrOutOfRange
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// EnvelopeJSON is the JSON representation of one event.
type EnvelopeJSON struct {
	Kind   string          `json:"kind"`
	Block  event.Meta      `json:"block"`
	Params json.RawMessage `json:"params"`
}

// =============================================================================
// FACTORY
// =============================================================================

type EventFactory struct {
	// Strict rejects params with fields the payload does not declare.
	Strict bool
}

func NewEventFactory() *EventFactory {
	return &EventFactory{Strict: true}
}

// ParseEnvelope parses a single JSON envelope.
func (f *EventFactory) ParseEnvelope(data []byte) (event.Envelope, error) {
	var ej EnvelopeJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return event.Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return f.FromJSON(ej)
}

// ParseBatch parses either one envelope or an array of them.
// The whole batch fails if any element fails.
func (f *EventFactory) ParseBatch(data []byte) ([]event.Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if trimmed[0] != '[' {
		env, err := f.ParseEnvelope(trimmed)
		if err != nil {
			return nil, err
		}
		return []event.Envelope{env}, nil
	}

	var ejs []EnvelopeJSON
	if err := json.Unmarshal(trimmed, &ejs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	envs := make([]event.Envelope, 0, len(ejs))
	for i, ej := range ejs {
		env, err := f.FromJSON(ej)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// FromJSON converts an EnvelopeJSON to a typed envelope.
func (f *EventFactory) FromJSON(ej EnvelopeJSON) (event.Envelope, error) {
	payload, ok := event.New(event.Kind(ej.Kind))
	if !ok {
		return event.Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ej.Kind)
	}

	params := ej.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	if f.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(payload); err != nil {
		return event.Envelope{}, fmt.Errorf("%w: %s params: %v", ErrMalformed, ej.Kind, err)
	}

	for _, key := range payload.Keys() {
		canonical, err := CanonicalKey(*key)
		if err != nil {
			return event.Envelope{}, fmt.Errorf("%s: %w", ej.Kind, err)
		}
		*key = canonical
	}

	if v, ok := payload.(event.Validator); ok {
		if err := v.Validate(); err != nil {
			return event.Envelope{}, fmt.Errorf("%s: %w", ej.Kind, err)
		}
	}

	return event.Envelope{Meta: ej.Block, Payload: payload}, nil
}

// ToJSON converts a typed envelope back to its JSON representation.
func (f *EventFactory) ToJSON(env event.Envelope) (EnvelopeJSON, error) {
	if env.Payload == nil {
		return EnvelopeJSON{}, fmt.Errorf("%w: nil payload", ErrMalformed)
	}
	params, err := json.Marshal(env.Payload)
	if err != nil {
		return EnvelopeJSON{}, err
	}
	return EnvelopeJSON{Kind: string(env.Kind()), Block: env.Meta, Params: params}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// CanonicalKey validates an on-chain id and returns its canonical decimal form.
func CanonicalKey(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	if d.IsNegative() || !d.IsInteger() {
		return "", fmt.Errorf("%w: %q is not an unsigned integer", ErrInvalidKey, s)
	}
	return d.String(), nil
}
