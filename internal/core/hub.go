package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

// Hub is a threadsafe in-memory set of event-stream subscribers per session code.
// It never closes adapter-owned resources.
type Hub struct {
	mu     sync.RWMutex
	byCode map[domain.Code]map[SubscriberID]SignalConnection
}

func NewHub() *Hub {
	return &Hub{byCode: make(map[domain.Code]map[SubscriberID]SignalConnection)}
}

func (h *Hub) Subscribe(code domain.Code, id SubscriberID, conn SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.byCode[code]
	if !ok {
		subs = make(map[SubscriberID]SignalConnection)
		h.byCode[code] = subs
	}
	subs[id] = conn
	log.Info().Str("module", "core.hub").Str("code", string(code)).Str("sub", string(id)).Msg("subscriber added")
}

// Unsubscribe removes a subscriber and returns its connection, if it was present.
func (h *Hub) Unsubscribe(code domain.Code, id SubscriberID) (SignalConnection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.byCode[code]
	if !ok {
		return nil, false
	}
	conn, ok := subs[id]
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.byCode, code)
	}
	if ok {
		log.Info().Str("module", "core.hub").Str("code", string(code)).Str("sub", string(id)).Msg("subscriber removed")
	}
	return conn, ok
}

func (h *Hub) Count(code domain.Code) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byCode[code])
}

func (h *Hub) Broadcast(code domain.Code, data Frame) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for id, c := range h.byCode[code] {
		if err := c.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.hub").Str("code", string(code)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// Drain removes every subscriber of code and returns their connections.
func (h *Hub) Drain(code domain.Code) []SignalConnection {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.byCode[code]
	delete(h.byCode, code)
	out := make([]SignalConnection, 0, len(subs))
	for _, c := range subs {
		out = append(out, c)
	}
	return out
}
