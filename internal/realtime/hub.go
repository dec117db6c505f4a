// Package realtime delivers chat messages to connected websocket sessions.
//
// Every authenticated session joins the channel of its user, so a user
// with several tabs open receives each frame on all of them. Messages
// travel through a messaging.Broker so that any instance holding a
// recipient's session can deliver it.
package realtime

import (
	"strconv"
	"sync"

	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
)

const sendQueueSize = 64

// ChannelFor names the delivery channel of a user.
func ChannelFor(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Session is one open connection. UserID is zero for anonymous sessions.
type Session struct {
	ID     string
	UserID int64
	Send   chan []byte
}

func NewSession(id string, userID int64) *Session {
	return &Session{ID: id, UserID: userID, Send: make(chan []byte, sendQueueSize)}
}

// Hub tracks sessions and their channel membership.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Session]struct{}
	all      map[*Session]struct{}
	metrics  *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		channels: make(map[string]map[*Session]struct{}),
		all:      make(map[*Session]struct{}),
		metrics:  m,
	}
}

// Register adds s and, when authenticated, joins it to its user channel.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[s]; ok {
		return
	}
	h.all[s] = struct{}{}
	if s.UserID != 0 {
		ch := ChannelFor(s.UserID)
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[*Session]struct{})
		}
		h.channels[ch][s] = struct{}{}
	}
	h.metrics.ConnectedSessions.Inc()
}

// Unregister removes s and closes its send queue.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[s]; !ok {
		return
	}
	if s.UserID != 0 {
		ch := ChannelFor(s.UserID)
		if members, ok := h.channels[ch]; ok {
			delete(members, s)
			if len(members) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	delete(h.all, s)
	close(s.Send)
	h.metrics.ConnectedSessions.Dec()
}

// Deliver queues frame on every session of channel without blocking and
// returns how many sessions accepted it.
func (h *Hub) Deliver(channel string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.channels[channel] {
		select {
		case s.Send <- frame:
			delivered++
		default:
			h.metrics.DeliveryDropped.Inc()
		}
	}
	return delivered
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) ChannelSize(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
