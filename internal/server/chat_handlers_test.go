package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"modulehub/internal/notifications"
	"modulehub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatBase = "/modules/firebase-basic-chat"

func TestChat_SendAndRead(t *testing.T) {
	env := newTestEnv(t, "")
	alice, aliceToken := env.user(t, "alice@example.com", false)
	bob, bobToken := env.user(t, "bob@example.com", false)

	sub := env.redis.Subscribe(context.Background(), notifications.UserChannel(bob.ID))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	resp := env.do(t, http.MethodPost, chatBase+"/send_message", aliceToken, fiber.Map{"receiver": bob.ID, "message": "hi bob"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := decode[service.ChatMessageView](t, resp)
	assert.Equal(t, alice.ID, sent.Sender)
	assert.True(t, sent.IsSender)

	select {
	case msg := <-sub.Channel():
		var event struct {
			Type    string                  `json:"type"`
			Payload service.ChatMessageView `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "chat_message", event.Type)
		assert.Equal(t, "hi bob", event.Payload.Message)
		assert.False(t, event.Payload.IsSender)
	case <-time.After(2 * time.Second):
		t.Fatal("receiver was not notified")
	}

	resp = env.do(t, http.MethodGet, fmt.Sprintf("%s/chat_details/%d", chatBase, alice.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	details := decode[service.ChatDetails](t, resp)
	require.Len(t, details.Messages, 1)
	assert.False(t, details.Messages[0].IsSender)
	assert.Equal(t, alice.ID, details.User.ID)

	resp = env.do(t, http.MethodGet, chatBase+"/chat_list", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]service.ChatListEntry](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].User.ID)
	assert.Equal(t, "hi bob", list[0].LastMessage.Message)
}

func TestChat_SendValidation(t *testing.T) {
	env := newTestEnv(t, "")
	_, token := env.user(t, "sender@example.com", false)

	resp := env.do(t, http.MethodPost, chatBase+"/send_message", token, fiber.Map{"receiver": 9999, "message": "hello?"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, chatBase+"/send_message", token, fiber.Map{"message": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, chatBase+"/chat_details/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_WebSocketRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, "")
	_, token := env.user(t, "ws@example.com", false)

	resp := env.do(t, http.MethodGet, chatBase+"/ws", token, nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, chatBase+"/ws", nil)
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	res, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "upgrade without a token")
}

// listen serves the app on a loopback port and returns its address.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func TestChat_WebSocketReceivesSentMessage(t *testing.T) {
	env := newTestEnv(t, "")
	alice, aliceToken := env.user(t, "alice@example.com", false)
	bob, bobToken := env.user(t, "bob@example.com", false)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.srv.chatHub.Subscribe(ctx, env.srv.notifier))
	t.Cleanup(func() { _ = env.srv.chatHub.Shutdown(context.Background()) })

	addr := env.listen(t)
	wsURL := url.URL{Scheme: "ws", Host: addr, Path: chatBase + "/ws", RawQuery: "token=" + url.QueryEscape(bobToken)}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return env.srv.chatHub.Listening(bob.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	sendResp := env.do(t, http.MethodPost, chatBase+"/send_message", aliceToken, fiber.Map{"receiver": bob.ID, "message": "over the socket"})
	require.Equal(t, http.StatusCreated, sendResp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	kind, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var event struct {
		Type    string                  `json:"type"`
		Payload service.ChatMessageView `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frame, &event))
	assert.Equal(t, "chat_message", event.Type)
	assert.Equal(t, "over the socket", event.Payload.Message)
	assert.Equal(t, alice.ID, event.Payload.Sender)
	assert.False(t, event.Payload.IsSender)
}
