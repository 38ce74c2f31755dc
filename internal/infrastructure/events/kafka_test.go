package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipped/internal/domain/entity"
)

type captureWriter struct {
	messages []kafka.Message
	err      error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaNotifierPublishesKeyedByUser(t *testing.T) {
	writer := &captureWriter{}
	notifier := &KafkaNotifier{writer: writer}

	n := &entity.Notification{
		ID:        "n-1",
		UserID:    "seller-1",
		Type:      entity.NotificationOfferCreated,
		Data:      map[string]interface{}{"offer_id": "o-1"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, notifier.Notify(context.Background(), n))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "seller-1", string(msg.Key))
	assert.Equal(t, entity.NotificationOfferCreated, string(msg.Headers[0].Value))

	var decoded entity.Notification
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "n-1", decoded.ID)
	assert.Equal(t, "o-1", decoded.Data["offer_id"])
}

func TestKafkaNotifierWrapsWriteErrors(t *testing.T) {
	notifier := &KafkaNotifier{writer: &captureWriter{err: errors.New("broker down")}}

	err := notifier.Notify(context.Background(), &entity.Notification{ID: "n-2", UserID: "u"})
	assert.ErrorContains(t, err, "broker down")
}
