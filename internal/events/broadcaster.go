package events

import (
	"strings"
	"sync"
)

// Subscriber receives events from Emit.
type Subscriber chan Event

// Broadcaster fans events out to live subscribers such as WebSocket clients.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[Subscriber][]string
}

var broadcaster = &Broadcaster{
	subscribers: make(map[Subscriber][]string),
}

// Subscribe registers a subscriber. With prefixes, only events whose name
// starts with one of them are delivered ("question." or "scene.").
func Subscribe(prefixes ...string) Subscriber {
	ch := make(Subscriber, 64)
	broadcaster.mu.Lock()
	broadcaster.subscribers[ch] = prefixes
	broadcaster.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func Unsubscribe(sub Subscriber) {
	broadcaster.mu.Lock()
	_, ok := broadcaster.subscribers[sub]
	delete(broadcaster.subscribers, sub)
	broadcaster.mu.Unlock()
	if ok {
		close(sub)
	}
}

// CloseAllSubscribers closes and removes every subscriber. Used on shutdown.
func CloseAllSubscribers() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	for sub := range broadcaster.subscribers {
		close(sub)
	}
	broadcaster.subscribers = make(map[Subscriber][]string)
}

func wants(prefixes []string, name string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// broadcast never blocks: a subscriber with a full buffer misses the event.
func broadcast(e Event) {
	broadcaster.mu.RLock()
	defer broadcaster.mu.RUnlock()

	for sub, prefixes := range broadcaster.subscribers {
		if !wants(prefixes, e.Name) {
			continue
		}
		select {
		case sub <- e:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func SubscriberCount() int {
	broadcaster.mu.RLock()
	defer broadcaster.mu.RUnlock()
	return len(broadcaster.subscribers)
}

// RecentEvents returns the last n buffered events, or all of them when n
// is zero or larger than the buffer.
func RecentEvents(n int) []Event {
	all := buffer.Snapshot()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
