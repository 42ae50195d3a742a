package events

import (
	"sync"

	"go.uber.org/zap"
)

// LogPublisher writes events to the application log. Used when no broker is configured.
type LogPublisher struct {
	log *zap.SugaredLogger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log *zap.SugaredLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(topic string, event any) error {
	p.log.Infow("Event published", "topic", topic, "event", event)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Message is one event captured by MemoryPublisher.
type Message struct {
	Topic string
	Event any
}

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned from every Publish call.
	Err error
}

func (p *MemoryPublisher) Publish(topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.messages = append(p.messages, Message{Topic: topic, Event: event})
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}
