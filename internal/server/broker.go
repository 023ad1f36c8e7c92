package server

import (
	"encoding/json"
	"sync"
)

// Event is the payload published to scoreboard subscribers. Detail
// carries the human-readable text for sync notices.
type Event struct {
	Type   string `json:"type"`
	Detail string `json:"detail,omitempty"`
}

// Event types pushed over the state stream.
const (
	EventMatchStarted    = "match_started"
	EventMatchEnded      = "match_ended"
	EventGoal            = "goal"
	EventTimeline        = "timeline"
	EventTimer           = "timer"
	EventUndo            = "undo"
	EventHistory         = "history"
	EventSettings        = "settings"
	EventSyncNotice      = "sync_notice"
	EventStateReplaced   = "state_replaced"
)

// Broker is an in-process pub/sub for the single event stream the
// presentation layer re-renders from.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel that receives JSON-encoded events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers.
func (b *Broker) Publish(event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
