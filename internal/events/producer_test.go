package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/domain"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerMessageCreated(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "message.created"}

	msg := domain.Message{ID: 14, GroupID: 3, UserID: 1, Text: "hello"}
	require.NoError(t, p.MessageCreated(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "3", string(w.msgs[0].Key))

	var ev MessageEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, TypeMessageCreated, ev.Type)
	assert.Equal(t, 14, ev.Message.ID)
	assert.Equal(t, "hello", ev.Message.Text)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewProducerTargetsTopic(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "chat.events")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "chat.events", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	require.NoError(t, p.Close())
}
