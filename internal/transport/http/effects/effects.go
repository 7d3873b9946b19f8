package effects

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tableserve/ordersync/internal/service/services/effectsvc"
)

// subscriber is one connected display client. audio marks that the client
// has performed the user gesture that unlocks playback on its side.
type subscriber struct {
	ch    chan effectsvc.Effect
	audio bool
}

// Hub fans display effects out to subscribed clients over their effect
// streams. It backs both the dispatcher's Notifier (toasts) and its Player
// (chimes): a chime can only be "played" when at least one client has
// unlocked audio.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]subscriber)}
}

// Subscribe registers a display client and returns its id and effect
// channel. Slow clients miss effects rather than stall the feed.
func (h *Hub) Subscribe(audioUnlocked bool) (string, <-chan effectsvc.Effect) {
	id := uuid.NewString()
	sub := subscriber{ch: make(chan effectsvc.Effect, 16), audio: audioUnlocked}

	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	return id, sub.ch
}

// Unsubscribe removes a display client.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.mu.Unlock()
}

// Notify broadcasts an effect to every subscriber without blocking.
func (h *Hub) Notify(ef effectsvc.Effect) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- ef:
		default:
		}
	}
}

// Ready reports whether some client can actually play audio.
func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.audio {
			return true
		}
	}

	return false
}

// Resume attempts to unlock playback. The gesture has to come from a client;
// the hub can only report that none has arrived yet.
func (h *Hub) Resume() error {
	if h.Ready() {
		return nil
	}

	return effectsvc.ErrAudioLocked
}

// Play delivers a chime effect to the clients.
func (h *Hub) Play(_ context.Context, ef effectsvc.Effect) error {
	h.Notify(ef)

	return nil
}
