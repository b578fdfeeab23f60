package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

type mockTopic struct {
	mock.Mock
}

func (m *mockTopic) Publish(ctx context.Context, msg *pubsub.Message) Result {
	args := m.Called(ctx, msg)
	return args.Get(0).(Result)
}

type fixedResult struct {
	id  string
	err error
}

func (r fixedResult) Get(context.Context) (string, error) { return r.id, r.err }

func TestPublishEncodesEvent(t *testing.T) {
	t.Parallel()

	event := crawler.ObjectFlushed{
		RunID:       "run-1",
		Category:    "banks",
		ObjectURL:   "https://reviews.test/item/1",
		ObjectIndex: 3,
		Reviews:     12,
		Stored:      true,
	}
	topic := &mockTopic{}
	topic.On("Publish", mock.Anything, mock.MatchedBy(func(msg *pubsub.Message) bool {
		var got crawler.ObjectFlushed
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			return false
		}
		return got == event && msg.Attributes["run_id"] == "run-1" && msg.Attributes["category"] == "banks"
	})).Return(fixedResult{id: "msg-1"})

	require.NoError(t, NewWithTopic(topic).Publish(context.Background(), event))
	topic.AssertExpectations(t)
}

func TestPublishError(t *testing.T) {
	t.Parallel()

	topic := &mockTopic{}
	topic.On("Publish", mock.Anything, mock.Anything).Return(fixedResult{err: errors.New("unavailable")})

	err := NewWithTopic(topic).Publish(context.Background(), crawler.ObjectFlushed{RunID: "run-1"})
	require.ErrorContains(t, err, "publish message")
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()

	require.Error(t, NewWithTopic(nil).Publish(context.Background(), crawler.ObjectFlushed{}))
	_, err := New(nil)
	require.Error(t, err)
}
