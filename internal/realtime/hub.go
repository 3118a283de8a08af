package realtime

import (
	"fmt"
	"sync"

	"storefront-app/internal/platform/logger"

	"github.com/google/uuid"
)

// PagePayload is what connected viewers need to refresh a page after an
// editor mutation. Sections and theme are passed through opaquely.
type PagePayload struct {
	PageID        string      `json:"page_id"`
	PageType      string      `json:"page_type"`
	Sections      interface{} `json:"sections"`
	ThemeSettings interface{} `json:"theme_settings"`
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Publisher is the broadcast capability the page engine consumes. Delivery is
// best-effort; the engine never blocks on it.
type Publisher interface {
	PublishPageUpdate(userID uint, payload PagePayload)
}

type Client struct {
	ID       uuid.UUID
	UserID   uint
	Outbound chan Message
}

// Hub fans page-update events out to SSE clients subscribed per user channel.
type Hub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:        log.With("component", "realtime.Hub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func userChannel(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func (h *Hub) AddClient(userID uint) *Client {
	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, 16),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch := userChannel(userID)
	clients, exists := h.subscriptions[ch]
	if !exists {
		clients = make(map[*Client]bool)
		h.subscriptions[ch] = clients
	}
	clients[client] = true

	h.logger.Debug("SSE client connected", "clientID", client.ID, "channel", ch)
	return client
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := userChannel(client.UserID)
	if clients, ok := h.subscriptions[ch]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscriptions, ch)
		}
	}
	close(client.Outbound)

	h.logger.Debug("SSE client disconnected", "clientID", client.ID, "channel", ch)
}

// PublishPageUpdate implements Publisher. Clients with a full outbound buffer
// are skipped rather than waited on.
func (h *Hub) PublishPageUpdate(userID uint, payload PagePayload) {
	msg := Message{Event: "PageUpdated", Data: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.subscriptions[userChannel(userID)] {
		select {
		case client.Outbound <- msg:
		default:
			h.logger.Warn("SSE client buffer full, dropping event",
				"clientID", client.ID, "event", msg.Event)
		}
	}
}

// Package-level publisher wired in main; nil until then so the engine and its
// tests run without a live transport.
var Default Publisher

func Init(hub *Hub) {
	Default = hub
}

// Publish forwards to the configured publisher, if any.
func Publish(userID uint, payload PagePayload) {
	if Default == nil {
		return
	}
	Default.PublishPageUpdate(userID, payload)
}
