// Package realtime fans out newly inserted messages to per-conversation
// subscribers. Delivery is best-effort: a subscriber whose buffer is full
// misses the event and is expected to refetch the message list to reconcile.
package realtime

import (
	"sync"

	"github.com/hsawaji/flema-backend/internal/model"
)

const subscriptionBuffer = 16

type Feed struct {
	mu   sync.Mutex
	subs map[uint64]map[*Subscription]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]map[*Subscription]struct{})}
}

// Subscription is a live handle onto one conversation's insert events.
// Close releases the handle; the Messages channel is closed afterwards.
type Subscription struct {
	feed   *Feed
	convID uint64
	ch     chan model.Message
	once   sync.Once
}

// Subscribe registers interest in messages inserted into the given
// conversation. The caller owns the returned handle and must Close it.
func (f *Feed) Subscribe(convID uint64) *Subscription {
	s := &Subscription{
		feed:   f,
		convID: convID,
		ch:     make(chan model.Message, subscriptionBuffer),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.subs[convID]
	if !ok {
		set = make(map[*Subscription]struct{})
		f.subs[convID] = set
	}
	set[s] = struct{}{}
	return s
}

// Publish delivers msg to every subscriber of its conversation without
// blocking. Sender display fields are not resolved here; the payload is the
// row as inserted.
func (f *Feed) Publish(msg model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs[msg.ConversationID] {
		select {
		case s.ch <- msg:
		default:
			// Subscriber is not keeping up; it reconciles via ListMessages.
		}
	}
}

func (s *Subscription) Messages() <-chan model.Message {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		f := s.feed
		f.mu.Lock()
		if set, ok := f.subs[s.convID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(f.subs, s.convID)
			}
		}
		f.mu.Unlock()
		close(s.ch)
	})
}
