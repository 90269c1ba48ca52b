// Package event defines the typed event payloads consumed by the reducers.
//
// Decoding from the chain is done upstream; this package only describes the
// decoded shape. Every payload type corresponds to exactly one reducer method.
package event

import (
	"errors"
	"fmt"

	"github.com/warp/rent-indexer/entity"
)

// Kind identifies the type of an event. Values match the contract event names.
type Kind string

// Meta locates an event in its source order.
type Meta struct {
	BlockNumber uint64           `json:"number"`
	Timestamp   entity.Timestamp `json:"timestamp"`
	LogIndex    uint32           `json:"logIndex"`
	TxHash      string           `json:"txHash,omitempty"`
}

// Position returns the event's checkpoint within source.
func (m Meta) Position(source string) entity.Checkpoint {
	return entity.Checkpoint{Source: source, BlockNumber: m.BlockNumber, LogIndex: m.LogIndex}
}

func (m Meta) String() string {
	return fmt.Sprintf("block %d log %d", m.BlockNumber, m.LogIndex)
}

// Payload is implemented by every event type.
type Payload interface {
	Kind() Kind

	// Keys returns pointers to the payload's natural-key fields so that
	// decoders can validate and canonicalize them in place.
	Keys() []*string
}

// Validator is implemented by payloads with range-checked numeric fields.
// Decoders call Validate once the payload is fully decoded.
type Validator interface {
	Validate() error
}

// ErrOutOfRange is returned by Validate for a value the contracts cannot emit
// or the reducers cannot expand.
var ErrOutOfRange = errors.New("value out of range")

// Envelope is one delivered event.
type Envelope struct {
	Meta    Meta
	Payload Payload
}

func (e Envelope) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// =============================================================================
// REGISTRY - Kind to payload constructor
// =============================================================================

var registry = map[Kind]func() Payload{}

func register(fn func() Payload) {
	registry[fn().Kind()] = fn
}

// New returns an empty payload for kind, ready to be decoded into.
func New(kind Kind) (Payload, bool) {
	fn, ok := registry[kind]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Kinds returns every registered kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
