package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/campusride/wallet-ledger/internal/models/events"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w, notificationsTopic: "notifications"}
	event := events.SettlementCompleted{
		EntryID:    "e1",
		Kind:       string(models.OperationTransfer),
		Amount:     decimal.NewFromInt(200),
		Fee:        decimal.NewFromInt(2),
		OccurredAt: time.Unix(0, 0).UTC(),
	}

	require.NoError(t, p.Publish(context.Background(), events.SettlementCompletedTopic, event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, events.SettlementCompletedTopic, w.msgs[0].Topic)
	assert.Nil(t, w.msgs[0].Key)
	var got events.SettlementCompleted
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "e1", got.EntryID)
	assert.True(t, got.Fee.Equal(decimal.NewFromInt(2)))
}

func TestPublisher_NotifyKeysByRecipient(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w, notificationsTopic: "notifications"}

	require.NoError(t, p.Notify(context.Background(), models.Notification{ID: "n1", RecipientID: "acc-1"}))
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "notifications", w.msgs[0].Topic)
	assert.Equal(t, []byte("acc-1"), w.msgs[0].Key)
	assert.True(t, w.closed)
}
