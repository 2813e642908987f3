package checkout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/fuegoaustral/storefront/pkg/event"
)

// MockPublisher records published events for assertions.
type MockPublisher struct {
	mu        sync.Mutex
	published []publishedMsg
	err       error
}

type publishedMsg struct {
	topic string
	data  []byte
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, publishedMsg{topic: topic, data: msg})
	return nil
}

func (m *MockPublisher) Published() []publishedMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]publishedMsg, len(m.published))
	copy(out, m.published)
	return out
}

func (m *MockPublisher) LastOrderConfirmed(t *testing.T) event.OrderConfirmedEvent {
	t.Helper()
	msgs := m.Published()
	if len(msgs) == 0 {
		t.Fatal("no events published")
	}
	last := msgs[len(msgs)-1]
	if last.topic != event.TopicOrderConfirmed {
		t.Fatalf("last topic = %s, want %s", last.topic, event.TopicOrderConfirmed)
	}
	var evt event.OrderConfirmedEvent
	if err := json.Unmarshal(last.data, &evt); err != nil {
		t.Fatalf("failed to decode published event: %v", err)
	}
	return evt
}
