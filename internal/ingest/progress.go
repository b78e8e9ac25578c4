package ingest

import "sync"

// ProgressEvent reports one ingestion stage transition for a document.
type ProgressEvent struct {
	DocumentID string `json:"documentId"`
	Stage      string `json:"stage"`
	Message    string `json:"message,omitempty"`
	ChunkCount int    `json:"chunkCount,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Ingestion progress stages.
const (
	StageQueued      = "queued"
	StageChunking    = "chunking"
	StageChunked     = "chunked"
	StageVectorizing = "vectorizing"
	StageIndexed     = "indexed"
	StageFailed      = "failed"
)

const subscriberBuffer = 16

// ProgressBroker fans ingestion progress out to per-document subscribers.
// Subscribers register a channel for the duration of their request and
// deregister on completion; there is no process-wide state beyond the
// channel registry itself.
type ProgressBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan ProgressEvent]struct{}
}

// NewProgressBroker creates an empty broker.
func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{
		subs: make(map[string]map[chan ProgressEvent]struct{}),
	}
}

// Subscribe registers for a document's progress events. The returned cancel
// func deregisters and closes the channel; call it exactly once.
func (b *ProgressBroker) Subscribe(documentID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[documentID] == nil {
		b.subs[documentID] = make(map[chan ProgressEvent]struct{})
	}
	b.subs[documentID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[documentID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, documentID)
			}
		}
		b.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the document. Delivery is
// non-blocking: a subscriber that stopped draining loses events rather than
// stalling the publisher.
func (b *ProgressBroker) Publish(event ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[event.DocumentID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports the live subscriber count for a document.
func (b *ProgressBroker) SubscriberCount(documentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[documentID])
}
