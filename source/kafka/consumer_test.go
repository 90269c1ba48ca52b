package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/rent-indexer/config"
	"github.com/warp/rent-indexer/entity"
	"github.com/warp/rent-indexer/entity/store"
	"github.com/warp/rent-indexer/event"
	"github.com/warp/rent-indexer/indexer"
	rentkafka "github.com/warp/rent-indexer/source/kafka"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeReader serves queued messages, then blocks until ctx is done.
type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type failingHandler struct{ calls int }

func (h *failingHandler) Handle(context.Context, event.Envelope) error {
	h.calls++
	return errors.New("disk full")
}

func message(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "rent-events", Offset: offset, Value: []byte(value)}
}

// =============================================================================
// TESTS
// =============================================================================

func TestConsumer_AppliesAndCommits(t *testing.T) {
	// GIVEN: A lease creation, an undecodable message and a validation
	// WHEN: The consumer runs until the topic is drained
	// THEN: Both events apply and all three offsets are committed

	st := store.NewTxMemory()
	ix := indexer.New(st, indexer.WithSource("kafka"))
	reader := &fakeReader{msgs: []kafka.Message{
		message(0, `{"kind":"LeaseCreated","block":{"number":1,"timestamp":10},"params":{"leaseId":"5","ownerId":"1","tenantId":"2","platformId":"3","totalNumberOfRents":2,"rentPaymentInterval":60,"rentPaymentLimitTime":10,"startDate":100}}`),
		message(1, `{"kind":"LeaseTeleported","block":{"number":2},"params":{}}`),
		message(2, `{"kind":"LeaseValidated","block":{"number":3,"timestamp":30},"params":{"leaseId":"5"}}`),
	}}
	c := rentkafka.NewConsumer(reader, ix, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		cp, err := ix.Checkpoint(context.Background())
		return err == nil && cp != nil && cp.BlockNumber == 3
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{0, 1, 2}, reader.committed)

	rp, err := st.LoadRentPayment(context.Background(), "5-1")
	require.NoError(t, err)
	require.NotNil(t, rp)
	assert.Equal(t, entity.Timestamp(160), rp.RentPaymentDate)
}

func TestConsumer_StoreFailureStopsWithoutCommit(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		message(7, `{"kind":"LeaseValidated","block":{"number":1},"params":{"leaseId":"5"}}`),
		message(8, `{"kind":"LeaseValidated","block":{"number":2},"params":{"leaseId":"5"}}`),
	}}
	h := &failingHandler{}
	c := rentkafka.NewConsumer(reader, h, nil)

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, h.calls)
	assert.Empty(t, reader.committed)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestNewReader_Validation(t *testing.T) {
	_, err := rentkafka.NewReader(config.KafkaConfig{Topic: "t", GroupID: "g"})
	assert.Error(t, err)

	_, err = rentkafka.NewReader(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	assert.Error(t, err)

	r, err := rentkafka.NewReader(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t", GroupID: "g"})
	require.NoError(t, err)
	assert.Equal(t, "t", r.Config().Topic)
	require.NoError(t, r.Close())
}
