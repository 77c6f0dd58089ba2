package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"groupchat/internal/domain"
	"groupchat/internal/metrics"
)

func startHub(t *testing.T) (*Hub, *metrics.Metrics, context.CancelFunc) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	h := NewHub(zap.NewNop(), m)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, m, cancel
}

func newTestClient(h *Hub, userID int, buf int, groups ...int) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, buf), Hub: h, groupIDs: groups, log: zap.NewNop()}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case b, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(b, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case b := <-c.Send:
		t.Fatalf("unexpected event %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastsToGroupMembersOnly(t *testing.T) {
	h, m, _ := startHub(t)
	alice := newTestClient(h, 1, 8, 10)
	bob := newTestClient(h, 2, 8, 10, 20)
	carol := newTestClient(h, 3, 8, 20)
	for _, c := range []*Client{alice, bob, carol} {
		h.Register(c)
	}

	msg := domain.Message{ID: 5, GroupID: 10, UserID: 1, Text: "hello"}
	require.NoError(t, h.MessageCreated(context.Background(), msg))

	for _, c := range []*Client{alice, bob} {
		ev := receive(t, c)
		assert.Equal(t, "message", ev.Type)
		require.NotNil(t, ev.Message)
		assert.Equal(t, msg.ID, ev.Message.ID)
	}
	assertQuiet(t, carol)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WSConnections))
}

func TestHubJoin(t *testing.T) {
	h, _, _ := startHub(t)
	c := newTestClient(h, 1, 8, 10)
	h.Register(c)

	h.Join(c, 10)
	assert.Equal(t, "You are already in this group", receive(t, c).Content)

	h.Join(c, 30)
	assert.Equal(t, "Joined group 30", receive(t, c).Content)

	require.NoError(t, h.MessageCreated(context.Background(), domain.Message{ID: 1, GroupID: 30}))
	assert.Equal(t, "message", receive(t, c).Type)
}

func TestHubLeaveStopsFanOut(t *testing.T) {
	h, _, _ := startHub(t)
	alice := newTestClient(h, 1, 8, 10)
	bobPhone := newTestClient(h, 2, 8, 10, 20)
	bobLaptop := newTestClient(h, 2, 8, 10)
	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		h.Register(c)
	}

	h.Leave(context.Background(), 10, 2)
	for _, c := range []*Client{bobPhone, bobLaptop} {
		assert.Equal(t, "Left group 10", receive(t, c).Content)
	}

	require.NoError(t, h.MessageCreated(context.Background(), domain.Message{ID: 7, GroupID: 10, Text: "after bob left"}))
	assert.Equal(t, 7, receive(t, alice).Message.ID)
	assertQuiet(t, bobPhone)
	assertQuiet(t, bobLaptop)

	// Other groups are untouched.
	require.NoError(t, h.MessageCreated(context.Background(), domain.Message{ID: 8, GroupID: 20}))
	assert.Equal(t, 8, receive(t, bobPhone).Message.ID)
}

func TestHubCloseGroup(t *testing.T) {
	h, _, _ := startHub(t)
	c := newTestClient(h, 1, 8, 10)
	h.Register(c)

	h.CloseGroup(context.Background(), 10)
	require.NoError(t, h.MessageCreated(context.Background(), domain.Message{ID: 1, GroupID: 10}))
	assertQuiet(t, c)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h, m, _ := startHub(t)
	c := newTestClient(h, 1, 8, 10)
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	// Replies to a departed client are discarded rather than panicking.
	h.Reply(c, statusEvent("late"))
	require.NoError(t, h.MessageCreated(context.Background(), domain.Message{ID: 1, GroupID: 10}))
	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.WSConnections) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowClient(t *testing.T) {
	h, m, _ := startHub(t)
	slow := newTestClient(h, 1, 1, 10)
	h.Register(slow)

	for i := 1; i <= 2; i++ {
		require.NoError(t, h.MessageCreated(context.Background(), domain.Message{ID: i, GroupID: 10}))
	}
	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.WSConnections) == 0 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, receive(t, slow).Message.ID)
	_, ok := <-slow.Send
	assert.False(t, ok)
}

func TestHubShutdown(t *testing.T) {
	h, _, cancel := startHub(t)
	c := newTestClient(h, 1, 8, 10)
	h.Register(c)
	cancel()

	<-h.done
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.ErrorIs(t, h.MessageCreated(context.Background(), domain.Message{ID: 1, GroupID: 10}), ErrHubClosed)
}
