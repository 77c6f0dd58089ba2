package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/metrics"
)

var ErrHubClosed = errors.New("hub closed")

// Hub tracks connected clients per group and fans created messages out to
// them. All maps are owned by the Run goroutine.
type Hub struct {
	clients map[*Client]bool
	rooms   map[int]map[*Client]bool

	registered   chan *Client
	unregistered chan *Client
	joins        chan *joinRequest
	leaves       chan *joinRequest
	closes       chan int
	broadcast    chan domain.Message
	replies      chan *reply
	done         chan struct{}

	log     *zap.Logger
	metrics *metrics.Metrics
}

// joinRequest carries a client for joins and a user id for leaves.
type joinRequest struct {
	client  *Client
	userID  int
	groupID int
}

type reply struct {
	client  *Client
	payload []byte
}

// Event is what clients receive.
type Event struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
}

func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		rooms:        make(map[int]map[*Client]bool),
		registered:   make(chan *Client),
		unregistered: make(chan *Client),
		joins:        make(chan *joinRequest),
		leaves:       make(chan *joinRequest),
		closes:       make(chan int),
		broadcast:    make(chan domain.Message, 256),
		replies:      make(chan *reply, 256),
		done:         make(chan struct{}),
		log:          log,
		metrics:      m,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.registered:
			h.clients[client] = true
			for _, id := range client.groupIDs {
				h.room(id)[client] = true
			}
			if h.metrics != nil {
				h.metrics.WSConnections.Inc()
			}
			h.log.Info("client connected",
				zap.Int("user_id", client.UserID),
				zap.Int("groups", len(client.groupIDs)),
				zap.Int("total", len(h.clients)),
			)

		case client := <-h.unregistered:
			if h.clients[client] {
				h.drop(client)
				h.log.Info("client disconnected", zap.Int("user_id", client.UserID))
			}

		case req := <-h.joins:
			if !h.clients[req.client] {
				continue
			}
			room := h.room(req.groupID)
			if room[req.client] {
				h.send(req.client, statusEvent("You are already in this group"))
				continue
			}
			room[req.client] = true
			h.send(req.client, statusEvent("Joined group "+strconv.Itoa(req.groupID)))

		case req := <-h.leaves:
			room := h.rooms[req.groupID]
			for client := range room {
				if client.UserID == req.userID {
					delete(room, client)
					h.send(client, statusEvent("Left group "+strconv.Itoa(req.groupID)))
				}
			}
			if len(room) == 0 {
				delete(h.rooms, req.groupID)
			}

		case groupID := <-h.closes:
			delete(h.rooms, groupID)

		case msg := <-h.broadcast:
			payload, err := json.Marshal(Event{Type: "message", Message: &msg})
			if err != nil {
				h.log.Error("encode message event", zap.Int("message_id", msg.ID), zap.Error(err))
				continue
			}
			for client := range h.rooms[msg.GroupID] {
				h.send(client, payload)
			}

		case r := <-h.replies:
			if h.clients[r.client] {
				h.send(r.client, r.payload)
			}

		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// MessageCreated queues msg for delivery to the group's connected members.
func (h *Hub) MessageCreated(ctx context.Context, msg domain.Message) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.registered <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregistered <- c:
	case <-h.done:
	}
}

func (h *Hub) Join(c *Client, groupID int) {
	select {
	case h.joins <- &joinRequest{client: c, groupID: groupID}:
	case <-h.done:
	}
}

// Leave stops fan-out of groupID to every connection of userID.
func (h *Hub) Leave(ctx context.Context, groupID, userID int) {
	select {
	case h.leaves <- &joinRequest{userID: userID, groupID: groupID}:
	case <-h.done:
	case <-ctx.Done():
	}
}

// CloseGroup forgets the group's room.
func (h *Hub) CloseGroup(ctx context.Context, groupID int) {
	select {
	case h.closes <- groupID:
	case <-h.done:
	case <-ctx.Done():
	}
}

// Reply sends payload to one client; it is dropped if the client is gone.
func (h *Hub) Reply(c *Client, payload []byte) {
	select {
	case h.replies <- &reply{client: c, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) room(groupID int) map[*Client]bool {
	room, ok := h.rooms[groupID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[groupID] = room
	}
	return room
}

// send never blocks the hub: a client whose buffer is full is dropped.
func (h *Hub) send(c *Client, payload []byte) {
	select {
	case c.Send <- payload:
	default:
		h.log.Warn("client too slow, dropping", zap.Int("user_id", c.UserID))
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for id, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
	close(c.Send)
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
}

func statusEvent(content string) []byte {
	b, _ := json.Marshal(Event{Type: "status", Content: content})
	return b
}
