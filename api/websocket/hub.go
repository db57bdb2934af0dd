package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openalpha/nos-rewards/metrics"
)

// Channel names
const (
	ChannelPool          = "pool"
	ChannelEntriesPrefix = "entries:"
)

// EntriesChannel returns the channel carrying owner's entry events
func EntriesChannel(owner string) string {
	return ChannelEntriesPrefix + owner
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Latest pool snapshot, flushed on PoolInterval
	poolBuffer *PoolMessage
	poolDirty  bool

	mu sync.RWMutex

	config  *HubConfig
	metrics *metrics.Collector
	stop    chan struct{}
	once    sync.Once
}

// HubConfig contains hub configuration
type HubConfig struct {
	// PoolInterval coalesces pool updates. Default: 250ms
	PoolInterval time.Duration `mapstructure:"pool_interval"`

	// Connection limits
	MaxSubscriptions int `mapstructure:"max_subscriptions"`

	// Messages per second per client
	MessageRateLimit int `mapstructure:"message_rate_limit"`
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		PoolInterval:     250 * time.Millisecond,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub. collector may be nil.
func NewHub(config *HubConfig, collector *metrics.Collector) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		config:      config,
		metrics:     collector,
		stop:        make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns once Stop is called
func (h *Hub) Run() {
	poolTicker := time.NewTicker(h.config.PoolInterval)
	defer poolTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case <-poolTicker.C:
			h.flushPool()

		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and disconnects every client
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.metrics != nil {
		h.metrics.RecordWSConnection(1)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		h.dropClient(client)
	}
}

// dropClient must be called with h.mu held
func (h *Hub) dropClient(client *Client) {
	delete(h.clients, client)
	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	client.close()
	if h.metrics != nil {
		h.metrics.RecordWSConnection(-1)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropClient(client)
	}
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[req.Client]; !ok {
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true

	req.Client.Send(mustMarshal(&WSMessage{Type: "subscribed", Channel: req.Channel}))

	// New pool subscribers get the current snapshot right away
	if req.Channel == ChannelPool && h.poolBuffer != nil {
		req.Client.Send(mustMarshal(&WSMessage{Type: "pool", Channel: ChannelPool, Data: h.poolBuffer}))
	}
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[req.Client]; !ok {
		return
	}
	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}

	req.Client.Send(mustMarshal(&WSMessage{Type: "unsubscribed", Channel: req.Channel}))
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		client.Send(data)
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage(channelLabel(channel))
	}
}

// ============ Channel-specific broadcasts ============

// PublishPool buffers the latest pool snapshot for the next flush
func (h *Hub) PublishPool(pool *PoolMessage) {
	h.mu.Lock()
	h.poolBuffer = pool
	h.poolDirty = true
	h.mu.Unlock()
}

// PublishEntry sends an entry event to the owner's channel
func (h *Hub) PublishEntry(entry *EntryMessage) {
	channel := EntriesChannel(entry.Owner)
	h.BroadcastToChannel(channel, &WSMessage{
		Type:    "entry",
		Channel: channel,
		Data:    entry,
	})
}

func (h *Hub) flushPool() {
	h.mu.Lock()
	if !h.poolDirty {
		h.mu.Unlock()
		return
	}
	pool := h.poolBuffer
	h.poolDirty = false
	h.mu.Unlock()

	h.BroadcastToChannel(ChannelPool, &WSMessage{
		Type:    "pool",
		Channel: ChannelPool,
		Data:    pool,
	})
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PoolMessage is a pool snapshot
type PoolMessage struct {
	ShareTotal     string `json:"share_total"`
	PrincipalTotal string `json:"principal_total"`
	Rate           string `json:"rate"`
	Height         int64  `json:"height"`
	Timestamp      int64  `json:"timestamp"`
}

// EntryMessage is a change to one participant's entry
type EntryMessage struct {
	Owner     string `json:"owner"`
	Event     string `json:"event"` // enter, claim, close
	Principal string `json:"principal,omitempty"`
	Shares    string `json:"shares,omitempty"`
	Amount    string `json:"amount,omitempty"` // earned on claim, forfeited on close
	Timestamp int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(h, conn, uuid.NewString(), getClientIPFromRequest(r))

	select {
	case h.register <- client:
	case <-h.stop:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}

// channelLabel keeps per-owner channels from exploding metric cardinality
func channelLabel(channel string) string {
	if strings.HasPrefix(channel, ChannelEntriesPrefix) {
		return ChannelEntriesPrefix + "*"
	}
	return channel
}

func mustMarshal(msg *WSMessage) []byte {
	data, _ := json.Marshal(msg)
	return data
}
