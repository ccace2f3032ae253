package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/slot-payout/internal/config"
	"github.com/wfunc/slot-payout/internal/game/slot"
)

// startHub 启动Hub和测试服务器，返回客户端连接
func startHub(t *testing.T) (*Hub, *websocket.Conn, context.CancelFunc) {
	t.Helper()
	hub := NewHub(DefaultSettings(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeConnected, msg.Type)
	return hub, conn, cancel
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	msg := map[string]interface{}{"type": msgType}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func testOutcome(t *testing.T, tier slot.Tier) *slot.SpinOutcome {
	t.Helper()
	pt, err := slot.NewPaytable(slot.DefaultPaytableConfig())
	require.NoError(t, err)
	e := slot.NewEngine(pt, slot.WithRandom(slot.NewSeededRandomGenerator(3)))
	o, err := e.Spin(slot.SpinRequest{Bet: decimal.NewFromInt(100), Tier: &tier})
	require.NoError(t, err)
	return o
}

func TestHub_PublishSpin(t *testing.T) {
	hub, conn, cancel := startHub(t)
	defer cancel()
	assert.Equal(t, 1, hub.GetOnlineCount())

	o := testOutcome(t, slot.TierSmall)
	hub.PublishSpin(o)

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeSpinResult, msg.Type)
	assert.Equal(t, "classic_fruit", msg.Paytable)

	var ev SpinEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, o.ID, ev.SpinID)
	assert.Equal(t, "small", ev.Tier)
	assert.True(t, ev.Win)
	assert.Equal(t, o.Payout.StringFixed(2), ev.Payout)
	assert.Len(t, ev.Grid, 3)
	assert.Len(t, ev.Result, 5)
	assert.NotEmpty(t, ev.Reward)
	assert.Equal(t, o.Reward.Positions, ev.Positions)
}

func TestHub_Subscription(t *testing.T) {
	hub, conn, cancel := startHub(t)
	defer cancel()

	sendMessage(t, conn, MessageTypeSubscribe, map[string]string{"paytable": "other"})
	ack := readMessage(t, conn)
	require.Equal(t, MessageTypeSubscribe, ack.Type)
	assert.Equal(t, "other", ack.Paytable)

	// 其他赔付表的结果不推送
	hub.PublishSpin(testOutcome(t, slot.TierLoss))
	other := testOutcome(t, slot.TierLoss)
	other.Paytable = "other"
	hub.PublishSpin(other)

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeSpinResult, msg.Type)
	assert.Equal(t, "other", msg.Paytable)
}

func TestHub_PingAndInvalidMessage(t *testing.T) {
	_, conn, cancel := startHub(t)
	defer cancel()

	sendMessage(t, conn, MessageTypePing, nil)
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	errMsg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, errMsg.Type)

	sendMessage(t, conn, "dance", nil)
	errMsg = readMessage(t, conn)
	assert.Equal(t, MessageTypeError, errMsg.Type)
	assert.Contains(t, string(errMsg.Data), "dance")
}

func TestHub_PublishReload(t *testing.T) {
	hub, conn, cancel := startHub(t)
	defer cancel()

	pt, err := slot.NewPaytable(slot.DefaultPaytableConfig())
	require.NoError(t, err)
	hub.PublishReload(pt)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypePaytableReloaded, msg.Type)
	assert.Contains(t, string(msg.Data), "expected_rtp")
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, conn, cancel := startHub(t)
	cancel()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// 停止后广播不阻塞
	o := testOutcome(t, slot.TierLoss)
	done := make(chan struct{})
	go func() {
		hub.PublishSpin(o)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after hub stopped")
	}
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(configWith(30*time.Second, 20*time.Second, 5*time.Second, 4096))
	assert.Equal(t, 30*time.Second, s.PongWait)
	assert.Equal(t, 20*time.Second, s.PingPeriod)
	assert.Equal(t, 5*time.Second, s.WriteWait)
	assert.Equal(t, int64(4096), s.MaxMessageSize)

	// ping 间隔不小于 pong 超时时使用 9/10
	s = SettingsFromConfig(configWith(10*time.Second, 10*time.Second, 0, 0))
	assert.Equal(t, 9*time.Second, s.PingPeriod)
	assert.Equal(t, DefaultSettings().WriteWait, s.WriteWait)
}

func configWith(pong, ping, write time.Duration, maxSize int64) config.WebSocketConfig {
	return config.WebSocketConfig{
		PongTimeout:    pong,
		PingInterval:   ping,
		WriteTimeout:   write,
		MaxMessageSize: maxSize,
	}
}
