package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"groupchat/internal/domain"
)

type Settings struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

func DefaultSettings() Settings {
	pongWait := 60 * time.Second
	return Settings{
		WriteWait:      10 * time.Second,
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: 1024,
	}
}

// ChatService is the slice of the use cases a connection needs.
type ChatService interface {
	GetUser(ctx context.Context, id int) (*domain.User, error)
	CreateMessage(ctx context.Context, userID, groupID int, text string) (*domain.Message, error)
	IsMember(ctx context.Context, groupID, userID int) (bool, error)
	UserGroups(ctx context.Context, userID int) ([]domain.Group, error)
}

type Client struct {
	UserID int
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	groupIDs []int
	chat     ChatService
	settings Settings
	log      *zap.Logger
}

// Incoming is a frame sent by a client.
type Incoming struct {
	Type    string `json:"type"`
	GroupID int    `json:"group_id"`
	Content string `json:"content"`
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.settings.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", zap.Int("user_id", c.UserID), zap.Error(err))
			}
			return
		}

		var in Incoming
		if err := json.Unmarshal(data, &in); err != nil {
			c.Hub.Reply(c, statusEvent("Message could not be decoded"))
			continue
		}
		c.handle(context.Background(), in)
	}
}

func (c *Client) handle(ctx context.Context, in Incoming) {
	switch in.Type {
	case "group_chat":
		if in.GroupID == 0 {
			c.Hub.Reply(c, statusEvent("Group ID is required"))
			return
		}
		if in.Content == "" {
			c.Hub.Reply(c, statusEvent("Message content is required"))
			return
		}
		// The hub delivers the stored message back to every member,
		// sender included.
		if _, err := c.chat.CreateMessage(ctx, c.UserID, in.GroupID, in.Content); err != nil {
			c.Hub.Reply(c, statusEvent(failureText(err)))
		}

	case "join_group":
		if in.GroupID == 0 {
			c.Hub.Reply(c, statusEvent("Group ID is required"))
			return
		}
		ok, err := c.chat.IsMember(ctx, in.GroupID, c.UserID)
		if err != nil {
			c.Hub.Reply(c, statusEvent(failureText(err)))
			return
		}
		if !ok {
			c.Hub.Reply(c, statusEvent("Group not found"))
			return
		}
		c.Hub.Join(c, in.GroupID)

	default:
		c.Hub.Reply(c, statusEvent("Unknown message type"))
	}
}

func failureText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Group not found"
	case errors.Is(err, domain.ErrForbidden):
		return "You are not a member of this group"
	case errors.Is(err, domain.ErrBadRequest):
		return "Message content is required"
	default:
		return "Message could not be sent"
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn("websocket write failed", zap.Int("user_id", c.UserID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
