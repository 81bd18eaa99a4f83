package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Publish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "bk-1" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "ce_id" || string(msg.Headers[1].Key) != "request_id" {
			return errors.New("headers must be sorted by key")
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newProducerFrom(sp)
	headers := map[string]string{"request_id": "req-1", "ce_id": "ev-1"}
	require.NoError(t, p.Publish(context.Background(), "booking.events.v1", "bk-1", []byte(`{}`), headers))

	err := p.Publish(context.Background(), "booking.events.v1", "bk-2", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
}

func TestProducer_PublishHonoursContext(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := newProducerFrom(sp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestNewMessage(t *testing.T) {
	msg := newMessage("topic", "key", []byte("payload"), map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, "topic", msg.Topic)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "a", string(msg.Headers[0].Key))
	assert.Equal(t, "1", string(msg.Headers[0].Value))
	value, err := msg.Value.Encode()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(value))
}

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "member" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string                            { return "booking.events.v1" }
func (c fakeClaim) Partition() int32                         { return 0 }
func (c fakeClaim) InitialOffset() int64                     { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64               { return 3 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestConsumeClaim_MarksOnlyHandledMessages(t *testing.T) {
	var seen []string
	handler := PayloadHandler(func(_ context.Context, payload []byte) error {
		seen = append(seen, string(payload))
		if string(payload) == "bad" {
			return errors.New("cannot project")
		}
		return nil
	})

	claim := fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 0, Value: []byte("one")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: []byte("bad")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("three")}
	close(claim.messages)

	sess := &fakeSession{ctx: context.Background()}
	require.NoError(t, consumerGroupHandler{handler: handler}.ConsumeClaim(sess, claim))

	assert.Equal(t, []string{"one", "bad", "three"}, seen)
	assert.Equal(t, []int64{0, 2}, sess.marked)
}
