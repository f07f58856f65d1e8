package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, "staff")
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(EventTableUpdate, map[string]int{"id": 3})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, EventTableUpdate, msg.Event)
	assert.Equal(t, 3, msg.Data["id"])
}

func TestHubDropsStalledClient(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, "display")
	}))
	defer srv.Close()

	// The client never reads, so its socket buffers fill up.
	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	blob := strings.Repeat("x", 256<<10)
	started := time.Now()
	for i := 0; i < 400 && hub.ClientCount() > 0; i++ {
		hub.Broadcast(EventTableUpdate, blob)
	}

	assert.Less(t, time.Since(started), writeWait)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubUnregisterClosesSocket(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)

	registered := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, "staff")
		registered <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	conn := <-registered
	hub.Unregister(conn)
	hub.Unregister(conn)
	assert.Equal(t, 0, hub.ClientCount())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = client.ReadMessage()
	assert.Error(t, err)
}

type countingBroadcaster struct {
	events []string
}

func (c *countingBroadcaster) Broadcast(event string, _ interface{}) {
	c.events = append(c.events, event)
}

func TestFanout(t *testing.T) {
	a, b := &countingBroadcaster{}, &countingBroadcaster{}
	fanout := Fanout{a, nil, b}

	fanout.Broadcast(EventMoveDone, nil)

	assert.Equal(t, []string{EventMoveDone}, a.events)
	assert.Equal(t, []string{EventMoveDone}, b.events)
}
