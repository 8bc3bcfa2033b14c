package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func team(id uint64) *uint64 { return &id }

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func register(t *testing.T, hub *Hub, userID uint64, teamID *uint64) *Client {
	t.Helper()
	client := NewClient(hub, nil, userID, teamID)
	require.True(t, hub.Join(client))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.clients[client]
	}, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("сообщение не пришло")
		return Envelope{}
	}
}

func TestBroadcastToTeamRespectsScope(t *testing.T) {
	hub := startHub(t)
	manager := register(t, hub, 1, nil)
	mechanic := register(t, hub, 2, team(10))
	electrician := register(t, hub, 3, team(20))

	require.NoError(t, hub.BroadcastToTeam(10, MessageRequestChanged, RequestChangedPayload{Action: "created", RequestID: 5}))

	assert.Equal(t, MessageRequestChanged, receive(t, manager).Type)
	assert.Equal(t, MessageRequestChanged, receive(t, mechanic).Type)
	assert.Empty(t, electrician.Send)
}

func TestSendMessageToUser(t *testing.T) {
	hub := startHub(t)
	first := register(t, hub, 7, nil)
	second := register(t, hub, 7, nil)
	other := register(t, hub, 8, nil)

	require.NoError(t, hub.SendMessageToUser(7, MessageEquipmentScrapped, EquipmentScrappedPayload{EquipmentID: 3}))

	receive(t, first)
	receive(t, second)
	assert.Empty(t, other.Send)
	assert.Equal(t, 3, hub.Count())
}

func TestFullBufferDoesNotBlock(t *testing.T) {
	hub := startHub(t)
	slow := register(t, hub, 1, nil)
	for i := 0; i < sendBufferSize; i++ {
		slow.Send <- []byte("{}")
	}

	done := make(chan struct{})
	go func() {
		_ = hub.BroadcastToTeam(1, MessageRequestChanged, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("рассылка заблокировалась на медленном клиенте")
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	client := register(t, hub, 1, nil)

	cancel()
	<-stopped
	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())
}

func TestStoppedHubDoesNotBlockClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	client := register(t, hub, 1, nil)
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.leave(client)
		assert.False(t, hub.Join(NewClient(hub, nil, 2, nil)))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("клиент заблокировался на остановленном хабе")
	}
	assert.Equal(t, 0, hub.Count())
}
