package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"commerce-core/internal/model"
	"commerce-core/internal/repository"
	"commerce-core/internal/testutil"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	failOn   string
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if w.failOn != "" && m.Topic == w.failOn {
			return errors.New("broker unavailable")
		}
		w.messages = append(w.messages, m)
	}
	return nil
}

func newRelay(t *testing.T, writer MessageWriter) (*Relay, repository.OutboxRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewOutboxRepository(db)

	for i, topic := range []string{"order.paid", "order.cancelled", "topup.paid"} {
		require.NoError(t, repo.Insert(t.Context(), db, topic, "ORD-"+string(rune('A'+i)), map[string]any{"n": i}))
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRelay(repo, writer, log, time.Millisecond, 10), repo
}

func TestRelay_FlushPublishesAndMarksSent(t *testing.T) {
	writer := &recordingWriter{}
	relay, repo := newRelay(t, writer)

	assert.Equal(t, 3, relay.Flush(t.Context()))
	require.Len(t, writer.messages, 3)

	first := writer.messages[0]
	assert.Equal(t, "order.paid", first.Topic)
	assert.Equal(t, "ORD-A", string(first.Key))
	assert.JSONEq(t, `{"n":0}`, string(first.Value))
	assert.Equal(t, "event_id", first.Headers[0].Key)
	assert.NotEmpty(t, first.Headers[0].Value)

	pending, err := repo.FetchPending(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Zero(t, relay.Flush(t.Context()))
}

func TestRelay_FailedPublishIsRetried(t *testing.T) {
	writer := &recordingWriter{failOn: "order.cancelled"}
	relay, repo := newRelay(t, writer)

	assert.Equal(t, 1, relay.Flush(t.Context()))

	pending, err := repo.FetchPending(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "order.cancelled", pending[0].Topic)

	writer.failOn = ""
	assert.Equal(t, 2, relay.Flush(t.Context()))

	topics := make([]string, len(writer.messages))
	for i, m := range writer.messages {
		topics[i] = m.Topic
	}
	assert.Equal(t, []string{"order.paid", "order.cancelled", "topup.paid"}, topics)
}

type failingMarkRepo struct {
	repository.OutboxRepository
	failures int
}

func (r *failingMarkRepo) MarkSent(ctx context.Context, eventID uint) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	return r.OutboxRepository.MarkSent(ctx, eventID)
}

func TestRelay_MarkFailureKeepsOrder(t *testing.T) {
	writer := &recordingWriter{}
	relay, repo := newRelay(t, writer)
	relay.repo = &failingMarkRepo{OutboxRepository: repo, failures: 1}

	assert.Zero(t, relay.Flush(t.Context()))
	require.Len(t, writer.messages, 1)

	// the unmarked event goes out again ahead of the ones behind it
	assert.Equal(t, 3, relay.Flush(t.Context()))

	topics := make([]string, len(writer.messages))
	for i, m := range writer.messages {
		topics[i] = m.Topic
	}
	assert.Equal(t, []string{"order.paid", "order.paid", "order.cancelled", "topup.paid"}, topics)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	writer := &recordingWriter{}
	relay, _ := newRelay(t, writer)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var pending []*model.OutboxEvent
		pending, _ = relay.repo.FetchPending(context.Background(), 10)
		return len(pending) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
