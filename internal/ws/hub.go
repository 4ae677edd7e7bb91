package ws

import "sync"

// Hub fans published payloads out to the clients subscribed to a channel,
// e.g. a member's repayment feed or the cooperative-wide activity stream.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: map[string]map[*Client]struct{}{}}
}

func (h *Hub) Subscribe(channel string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[channel]; !ok {
		h.subscribers[channel] = map[*Client]struct{}{}
	}
	h.subscribers[channel][client] = struct{}{}
	client.addChannel(channel)
}

// UnsubscribeAll drops the client from every channel it joined. Called when
// the websocket connection goes away.
func (h *Hub) UnsubscribeAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range client.listChannels() {
		if subs, ok := h.subscribers[channel]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscribers, channel)
			}
		}
	}
}

func (h *Hub) Publish(channel string, payload []byte) {
	h.mu.RLock()
	subs := h.subscribers[channel]
	h.mu.RUnlock()

	for c := range subs {
		c.send(payload)
	}
}
