package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/truco-paulista/internal/config"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
	"github.com/palemoky/truco-paulista/internal/server/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Game.NextHandDelayMs = 50
	cfg.Game.RoomCleanupDelay = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Shutdown()
		ts.Close()
	})
	return s, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// dial connects and consumes the connected greeting, returning the player id.
func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	msg := readUntil(t, conn, protocol.MsgConnected, nil)
	payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg)
	require.NoError(t, err)
	require.NotEmpty(t, payload.PlayerID)
	return conn, payload.PlayerID
}

func send(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.Encode(codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// readUntil reads text frames until one of the wanted type satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, want protocol.MessageType, match func(*protocol.Message) bool) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)
		msg, err := codec.Decode(data)
		require.NoError(t, err)
		if msg.Type == want && (match == nil || match(msg)) {
			return msg
		}
	}
}

func stateOf(t *testing.T, msg *protocol.Message) *protocol.StatePayload {
	t.Helper()
	state, err := codec.ParsePayload[protocol.StatePayload](msg)
	require.NoError(t, err)
	return state
}

func startedState(msg *protocol.Message) bool {
	state, err := codec.ParsePayload[protocol.StatePayload](msg)
	return err == nil && state.Started
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServer_FourPlayersStartAndDisconnectLeaves(t *testing.T) {
	t.Parallel()

	s, ts := newTestServer(t, testConfig())
	names := []string{"Ana", "Bia", "Caio", "Dan"}
	conns := make([]*websocket.Conn, len(names))
	ids := make([]string, len(names))

	for i, name := range names {
		conns[i], ids[i] = dial(t, ts)
		send(t, conns[i], protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "mesa", PlayerName: name})

		ack, err := codec.ParsePayload[protocol.AckPayload](readUntil(t, conns[i], protocol.MsgAck, nil))
		require.NoError(t, err)
		require.NotNil(t, ack.Seat)
		assert.Equal(t, i, *ack.Seat)
	}
	assert.Equal(t, 4, s.GetOnlineCount())

	for i, conn := range conns {
		state := stateOf(t, readUntil(t, conn, protocol.MsgState, startedState))
		require.NotNil(t, state.Me)
		assert.Equal(t, ids[i], state.Me.ID)
		assert.Len(t, state.Me.Hand, 3)
		assert.Len(t, state.Players, 4)
	}

	var rooms struct {
		Rooms       []protocol.RoomListItem `json:"rooms"`
		ActiveGames int                     `json:"active_games"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/rooms", &rooms))
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "MESA", rooms.Rooms[0].RoomID)
	assert.Equal(t, 4, rooms.Rooms[0].PlayerCount)
	assert.Equal(t, 1, rooms.ActiveGames)

	require.NoError(t, conns[3].Close())
	state := stateOf(t, readUntil(t, conns[0], protocol.MsgState, func(m *protocol.Message) bool {
		st, err := codec.ParsePayload[protocol.StatePayload](m)
		return err == nil && len(st.Players) == 3
	}))
	assert.False(t, state.Started)
	assert.Eventually(t, func() bool { return s.GetOnlineCount() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_RejectedActionGetsError(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, testConfig())
	conn, _ := dial(t, ts)

	send(t, conn, protocol.MsgCallTruco, nil)
	e, err := codec.ParsePayload[protocol.ErrorPayload](readUntil(t, conn, protocol.MsgError, nil))
	require.NoError(t, err)
	assert.Equal(t, "NotInRoom", e.Kind)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	e, err = codec.ParsePayload[protocol.ErrorPayload](readUntil(t, conn, protocol.MsgError, nil))
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, e.Code)
}

func TestServer_BinaryClientGetsBinaryReplies(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, testConfig())
	conn, _ := dial(t, ts)

	data, err := codec.EncodeBinary(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{Timestamp: 42}))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	kind, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)

	msg, err := codec.DecodeBinary(reply)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgPong, msg.Type)
	pong, err := codec.ParsePayload[protocol.PongPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, int64(42), pong.ClientTimestamp)
}

func TestServer_HealthAndLeaderboardWithoutRedis(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, testConfig())

	var health map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["maintenance"])

	var board struct {
		Period  string `json:"period"`
		Entries []any  `json:"entries"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/leaderboard?limit=500&period=weekly", &board))
	assert.Equal(t, "weekly", board.Period)
	assert.Empty(t, board.Entries)

	var missing map[string]any
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/players/ana", &missing))
}

func TestServer_PlayerStats(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	_, ts := newTestServer(t, cfg)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	lb := storage.NewLeaderboard(rdb)
	require.NoError(t, lb.RecordMatchResult(t.Context(), []string{"Ana", "Caio"}, []string{"Bia", "Duda"}))

	var got struct {
		Stats storage.PlayerStats `json:"stats"`
		Rank  int64               `json:"rank"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/players/ANA", &got))
	assert.Equal(t, 1, got.Stats.Wins)
	assert.Equal(t, storage.WinMatch, got.Stats.Score)
	assert.Positive(t, got.Rank)
	assert.LessOrEqual(t, got.Rank, int64(2))
}

func TestServer_ConnectionGuards(t *testing.T) {
	t.Parallel()

	t.Run("maintenance", func(t *testing.T) {
		t.Parallel()
		s, ts := newTestServer(t, testConfig())
		s.EnterMaintenanceMode()

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("blocked ip", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Security.BlockedIPs = []string{"127.0.0.1"}
		_, ts := newTestServer(t, cfg)

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("origin", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Security.AllowedOrigins = []string{"https://truco.example"}
		_, ts := newTestServer(t, cfg)

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), http.Header{"Origin": {"https://evil.example"}})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("connection limit", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.Server.MaxConnections = 1
		s, ts := newTestServer(t, cfg)

		conn, _ := dial(t, ts)
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		// The slot is returned once the first client goes away.
		require.NoError(t, conn.Close())
		assert.Eventually(t, func() bool { return s.GetOnlineCount() == 0 }, 2*time.Second, 10*time.Millisecond)
		dial(t, ts)
	})
}

func TestServer_RedisMirror(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("truco:room:VELHA", `{"id":"VELHA"}`))
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	_, ts := newTestServer(t, cfg)
	assert.False(t, mr.Exists("truco:room:VELHA"), "mirrors from a previous run are cleared on startup")

	conn, _ := dial(t, ts)
	send(t, conn, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "sala", PlayerName: "Ana"})
	readUntil(t, conn, protocol.MsgAck, nil)

	assert.Eventually(t, func() bool { return mr.Exists("truco:room:SALA") }, 2*time.Second, 10*time.Millisecond)

	send(t, conn, protocol.MsgLeaveRoom, nil)
	readUntil(t, conn, protocol.MsgAck, nil)
	assert.Eventually(t, func() bool { return !mr.Exists("truco:room:SALA") }, 2*time.Second, 10*time.Millisecond)
}

func TestNewServer_RedisUnavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServer_GracefulShutdownWithoutGames(t *testing.T) {
	t.Parallel()

	bodies := make(chan string, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	s, ts := newTestServer(t, testConfig())
	s.shutdownWebhook = hook.URL
	conn, _ := dial(t, ts)

	s.GracefulShutdown(time.Second)

	assert.True(t, s.IsMaintenanceMode())
	select {
	case body := <-bodies:
		assert.Contains(t, body, "truco")
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was not called")
	}

	// The client is told about maintenance and then disconnected.
	readUntil(t, conn, protocol.MsgError, nil)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestServer_GracefulShutdownNotifiesBeforeStartReturns(t *testing.T) {
	t.Parallel()

	events := make(chan string, 2)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		events <- "webhook"
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	s, err := NewServer(cfg)
	require.NoError(t, err)
	s.shutdownWebhook = hook.URL

	go func() {
		if err := s.Start(); err != nil {
			events <- "start failed: " + err.Error()
			return
		}
		events <- "start returned"
	}()

	s.GracefulShutdown(time.Second)

	// Once Start returns the process exits, so the webhook must already be delivered.
	var order []string
	for range 2 {
		select {
		case e := <-events:
			order = append(order, e)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out, events so far: %v", order)
		}
	}
	assert.Equal(t, []string{"webhook", "start returned"}, order)
}
