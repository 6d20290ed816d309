package notify

import (
	"context"
	"sync"
)

// Published records one delivered message for inspection in tests.
type Published struct {
	Channel string
	Message Message
}

// MemoryPublisher is an in-process Publisher used in tests and development.
type MemoryPublisher struct {
	mu        sync.Mutex
	published []Published
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, channel string, msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, Published{Channel: channel, Message: msg})
}

// Published returns a copy of everything published so far.
func (p *MemoryPublisher) Published() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.published))
	copy(out, p.published)
	return out
}

// ByChannel returns the messages published to one channel.
func (p *MemoryPublisher) ByChannel(channel string) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Message
	for _, pub := range p.published {
		if pub.Channel == channel {
			out = append(out, pub.Message)
		}
	}
	return out
}

// Reset discards recorded messages.
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = nil
}
