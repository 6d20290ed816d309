package notify

import "context"

// Queue accumulates messages during a database transaction so that nothing is
// published unless the transaction commits. Not safe for concurrent use; one
// queue belongs to one request.
type Queue struct {
	publisher Publisher
	pending   []Published
}

func NewQueue(publisher Publisher) *Queue {
	return &Queue{publisher: publisher}
}

// Add stages a message for dispatch after commit.
func (q *Queue) Add(channel string, msg Message) {
	q.pending = append(q.pending, Published{Channel: channel, Message: msg})
}

// Len returns the number of staged messages.
func (q *Queue) Len() int { return len(q.pending) }

// Flush dispatches all staged messages in order and clears the queue. Call
// only after the surrounding transaction committed.
func (q *Queue) Flush(ctx context.Context) {
	for _, p := range q.pending {
		q.publisher.Publish(ctx, p.Channel, p.Message)
	}
	q.pending = nil
}

// Discard drops staged messages without sending, for the rollback path.
func (q *Queue) Discard() {
	q.pending = nil
}
