package realtime

import (
	"context"
	"sync"
)

// subscriberBuffer is the number of events a subscriber may lag behind.
const subscriberBuffer = 64

type subscriber struct {
	table string
	typ   EventType
	ch    chan Event
}

// Memory is an in-process broker. The postgres and redis brokers use it to
// fan out the events they receive.
type Memory struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
}

var _ Broker = (*Memory)(nil)

// NewMemory returns an in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: make(map[*subscriber]struct{})}
}

// Publish implements Broker.
func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	for sub := range m.subs {
		if !e.Matches(sub.table, sub.typ) {
			continue
		}

		select {
		case sub.ch <- e:
		default:
		}
	}

	return nil
}

// Subscribe implements Broker.
func (m *Memory) Subscribe(ctx context.Context, table string, typ EventType) (<-chan Event, error) {
	sub := &subscriber{
		table: table,
		typ:   typ,
		ch:    make(chan Event, subscriberBuffer),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.subs[sub] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.remove(sub)
	}()

	return sub.ch, nil
}

// Subscribers returns the number of live subscribers.
func (m *Memory) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *Memory) remove(sub *subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub]; !ok {
		return
	}

	delete(m.subs, sub)
	close(sub.ch)
}

// Close implements Broker.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	m.closed = true
	for sub := range m.subs {
		close(sub.ch)
	}
	m.subs = map[*subscriber]struct{}{}

	return nil
}
