package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"survivor-api/internal/domain"
	"survivor-api/pkg/logger"
	"survivor-api/pkg/redis"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// dial serves one hub-attached connection for the given league and returns the client side
func dial(t *testing.T, hub *Hub, leagueID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, leagueID, "viewer")
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.RoomSize(leagueID) > 0 }, time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.LiveEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.LiveEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func startHub(t *testing.T, rc *redis.Client) *Hub {
	t.Helper()
	hub := NewHub(rc, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	select {
	case <-hub.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hub never became ready")
	}
	return hub
}

func TestHub_LocalDelivery(t *testing.T) {
	hub := startHub(t, nil)
	conn := dial(t, hub, "league-1")
	other := dial(t, hub, "league-2")

	hub.Publish(context.Background(), domain.LiveEvent{
		Type: domain.EventStandingsUpdated, LeagueID: "league-1", Week: 3, Reason: "pick_submitted",
	})

	event := readEvent(t, conn)
	assert.Equal(t, "league-1", event.LeagueID)
	assert.Equal(t, 3, event.Week)
	assert.Equal(t, "pick_submitted", event.Reason)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other leagues receive nothing")
}

func TestHub_RelaysThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	// Two hubs sharing redis stand in for two API instances
	receiver := startHub(t, rc)
	sender := startHub(t, rc)
	conn := dial(t, receiver, "league-1")

	sender.Publish(context.Background(), domain.LiveEvent{
		Type: domain.EventStandingsUpdated, LeagueID: "league-1", Reason: "results_reconciled",
	})

	event := readEvent(t, conn)
	assert.Equal(t, "results_reconciled", event.Reason)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := startHub(t, nil)
	conn := dial(t, hub, "league-1")
	assert.Equal(t, 1, hub.RoomSize("league-1"))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.RoomSize("league-1") == 0 }, 2*time.Second, 10*time.Millisecond)

	// Publishing to an empty room is a no-op
	hub.Publish(context.Background(), domain.LiveEvent{LeagueID: "league-1"})
}
