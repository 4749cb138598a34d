package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jgirmay/chatroom/pkg/events"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
	"github.com/jgirmay/chatroom/pkg/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 16
)

// Message types pushed to clients
const (
	MessageOnline = "online"
	MessageError  = "error"
)

// OnlineReader computes a room's online set
type OnlineReader interface {
	RoomOnline(ctx context.Context, roomID uint) ([]models.OnlineParticipant, error)
}

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	RoomID    uint        `json:"room_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client watching one room
type Client struct {
	ID     string
	RoomID uint
	conn   *websocket.Conn
	send   chan Message
}

// PresenceBroadcaster pushes each room's online set to the clients watching
// it, on relevant events and on a fixed interval so expiries show up.
type PresenceBroadcaster struct {
	reader   OnlineReader
	metrics  *metrics.Metrics
	logger   *logging.Logger
	interval time.Duration

	rooms      map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	refresh    chan uint
	done       chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once

	// regMu orders RegisterClient against the final drain in closeAll
	regMu  sync.Mutex
	closed bool

	mu      sync.RWMutex
	clients int
}

// NewPresenceBroadcaster creates a broadcaster; interval <= 0 disables the periodic push
func NewPresenceBroadcaster(reader OnlineReader, interval time.Duration, m *metrics.Metrics, logger *logging.Logger) *PresenceBroadcaster {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PresenceBroadcaster{
		reader:     reader,
		metrics:    m,
		logger:     logger.Named("ws"),
		interval:   interval,
		rooms:      make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 10),
		unregister: make(chan *Client, 10),
		refresh:    make(chan uint, 100),
		done:       make(chan struct{}),
	}
}

// Start begins the broadcaster loop
func (pb *PresenceBroadcaster) Start(ctx context.Context) {
	pb.wg.Add(1)
	go pb.run(ctx)
}

// Stop closes every client connection and waits for the loop to exit
func (pb *PresenceBroadcaster) Stop() {
	pb.stopOnce.Do(func() {
		close(pb.done)
	})
	pb.wg.Wait()
}

// OnEvent schedules a push for rooms whose online set may have changed
func (pb *PresenceBroadcaster) OnEvent(event events.Event) {
	if event.RoomID == 0 {
		return
	}
	switch event.Type {
	case events.EventPresenceUpdated, events.EventPresenceLeft:
	default:
		return
	}

	select {
	case pb.refresh <- event.RoomID:
	default:
		// the next tick covers a dropped refresh
	}
}

// RegisterClient attaches conn to roomID and starts its pumps
func (pb *PresenceBroadcaster) RegisterClient(conn *websocket.Conn, roomID uint) *Client {
	client := &Client{
		ID:     uuid.New().String(),
		RoomID: roomID,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
	}

	pb.regMu.Lock()
	defer pb.regMu.Unlock()
	if pb.closed {
		conn.Close()
		return client
	}

	select {
	case <-pb.done:
		conn.Close()
		return client
	default:
	}

	select {
	case pb.register <- client:
		go pb.writePump(client)
		go pb.readPump(client)
	case <-pb.done:
		conn.Close()
	}
	return client
}

// UnregisterClient removes a client
func (pb *PresenceBroadcaster) UnregisterClient(client *Client) {
	select {
	case pb.unregister <- client:
	case <-pb.done:
	}
}

// GetClientCount returns the number of connected clients
func (pb *PresenceBroadcaster) GetClientCount() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.clients
}

func (pb *PresenceBroadcaster) run(ctx context.Context) {
	defer pb.wg.Done()

	var tick <-chan time.Time
	if pb.interval > 0 {
		ticker := time.NewTicker(pb.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer pb.closeAll()
	defer pb.stopOnce.Do(func() { close(pb.done) })

	for {
		select {
		case <-pb.done:
			return

		case <-ctx.Done():
			return

		case client := <-pb.register:
			watchers, ok := pb.rooms[client.RoomID]
			if !ok {
				watchers = make(map[*Client]struct{})
				pb.rooms[client.RoomID] = watchers
			}
			watchers[client] = struct{}{}
			pb.addCount(1)
			pb.metrics.WebsocketOpened()
			pb.logger.Debug("client registered",
				zap.String("client_id", client.ID), zap.Uint("room_id", client.RoomID), zap.Int("total", pb.GetClientCount()))

			pb.push(ctx, client.RoomID)

		case client := <-pb.unregister:
			pb.remove(client)

		case roomID := <-pb.refresh:
			pb.push(ctx, roomID)

		case <-tick:
			for roomID := range pb.rooms {
				pb.push(ctx, roomID)
			}
		}
	}
}

// push recomputes a room's online set and sends it to the room's watchers
func (pb *PresenceBroadcaster) push(ctx context.Context, roomID uint) {
	watchers := pb.rooms[roomID]
	if len(watchers) == 0 {
		return
	}

	msg := Message{Type: MessageOnline, RoomID: roomID, Timestamp: time.Now().UTC()}
	online, err := pb.reader.RoomOnline(ctx, roomID)
	if err != nil {
		pb.logger.Warn("online set not computed", zap.Uint("room_id", roomID), zap.Error(err))
		msg.Type = MessageError
		msg.Data = map[string]string{"message": "online set unavailable"}
	} else {
		msg.Data = online
	}

	for client := range watchers {
		select {
		case client.send <- msg:
		default:
			pb.logger.Warn("client send buffer full", zap.String("client_id", client.ID))
		}
	}
}

func (pb *PresenceBroadcaster) remove(client *Client) {
	watchers, ok := pb.rooms[client.RoomID]
	if !ok {
		return
	}
	if _, ok := watchers[client]; !ok {
		return
	}

	delete(watchers, client)
	if len(watchers) == 0 {
		delete(pb.rooms, client.RoomID)
	}
	close(client.send)
	pb.addCount(-1)
	pb.metrics.WebsocketClosed()
	pb.logger.Debug("client unregistered", zap.String("client_id", client.ID), zap.Int("total", pb.GetClientCount()))
}

func (pb *PresenceBroadcaster) closeAll() {
	for _, watchers := range pb.rooms {
		for client := range watchers {
			pb.remove(client)
		}
	}

	// clients queued after the loop exited were never added to a room
	pb.regMu.Lock()
	defer pb.regMu.Unlock()
	pb.closed = true
	for {
		select {
		case client := <-pb.register:
			client.conn.Close()
		default:
			return
		}
	}
}

func (pb *PresenceBroadcaster) addCount(delta int) {
	pb.mu.Lock()
	pb.clients += delta
	pb.mu.Unlock()
}

// writePump delivers queued messages and keeps the connection alive with pings
func (pb *PresenceBroadcaster) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				pb.UnregisterClient(client)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				pb.UnregisterClient(client)
				return
			}
		}
	}
}

// readPump discards client frames and detects disconnects
func (pb *PresenceBroadcaster) readPump(client *Client) {
	defer pb.UnregisterClient(client)

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				pb.logger.Debug("client read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			return
		}
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
