package listeners

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gearguard/internal/entities"
	"gearguard/internal/events"
	"gearguard/pkg/constants"
	"gearguard/pkg/eventbus"
	"gearguard/pkg/websocket"
)

type cacheMock struct {
	mock.Mock
}

func (m *cacheMock) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *cacheMock) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
func (m *cacheMock) Del(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}
func (m *cacheMock) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}
func (m *cacheMock) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, expiration)
	return args.Bool(0), args.Error(1)
}
func (m *cacheMock) DelByPattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

type broadcast struct {
	teamID      uint64
	messageType string
	payload     interface{}
}

type direct struct {
	userID      uint64
	messageType string
}

type broadcasterStub struct {
	mu     sync.Mutex
	sent   []broadcast
	direct []direct
}

func (b *broadcasterStub) SendMessageToUser(userID uint64, messageType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct = append(b.direct, direct{userID, messageType})
	return nil
}

func (b *broadcasterStub) BroadcastToTeam(teamID uint64, messageType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{teamID, messageType, payload})
	return nil
}

func TestCacheInvalidationOnBothEvents(t *testing.T) {
	cache := new(cacheMock)
	cache.On("DelByPattern", mock.Anything, constants.CacheKeyRequestStatsPattern).Return(nil).Twice()

	bus := eventbus.New(zap.NewNop())
	NewCacheInvalidationListener(cache, zap.NewNop()).Register(bus)

	bus.Publish(context.Background(), events.RequestChangedEvent{Action: events.ActionCreated})
	bus.Publish(context.Background(), events.EquipmentScrappedEvent{EquipmentID: 1})
	require.NoError(t, bus.Wait(context.Background()))

	cache.AssertExpectations(t)
}

func TestCacheInvalidationReportsError(t *testing.T) {
	cache := new(cacheMock)
	cache.On("DelByPattern", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	l := NewCacheInvalidationListener(cache, zap.NewNop())
	assert.Error(t, l.handle(context.Background(), events.RequestChangedEvent{}))
}

func TestBoardListenerBroadcastsToRequestTeam(t *testing.T) {
	hub := &broadcasterStub{}
	l := NewBoardListener(hub, zap.NewNop())

	req := entities.MaintenanceRequest{ID: 5, TeamID: 2, EquipmentID: 9}
	require.NoError(t, l.handleRequestChanged(context.Background(), events.RequestChangedEvent{Action: events.ActionCreated, Request: req, ActorID: 1}))
	require.NoError(t, l.handleRequestChanged(context.Background(), events.RequestChangedEvent{Action: events.ActionDeleted, Request: req, ActorID: 1}))

	require.Len(t, hub.sent, 2)
	assert.Equal(t, uint64(2), hub.sent[0].teamID)
	assert.Equal(t, websocket.MessageRequestChanged, hub.sent[0].messageType)
	created := hub.sent[0].payload.(websocket.RequestChangedPayload)
	assert.Equal(t, uint64(5), created.RequestID)
	assert.NotNil(t, created.Request)

	deleted := hub.sent[1].payload.(websocket.RequestChangedPayload)
	assert.Equal(t, events.ActionDeleted, deleted.Action)
	assert.Nil(t, deleted.Request)
}

func TestBoardListenerAnnouncesScrap(t *testing.T) {
	hub := &broadcasterStub{}
	l := NewBoardListener(hub, zap.NewNop())

	req := entities.MaintenanceRequest{
		ID: 5, TeamID: 2, EquipmentID: 9, Stage: constants.StageScrap,
		Equipment: &entities.EquipmentRef{ID: 9, IsScrapped: true},
	}
	require.NoError(t, l.handleRequestChanged(context.Background(), events.RequestChangedEvent{Action: events.ActionStage, Request: req}))

	require.Len(t, hub.sent, 2)
	assert.Equal(t, websocket.MessageEquipmentScrapped, hub.sent[1].messageType)
	assert.Equal(t, uint64(9), hub.sent[1].payload.(websocket.EquipmentScrappedPayload).EquipmentID)
}

func TestBoardListenerNotifiesAssignedTechnician(t *testing.T) {
	hub := &broadcasterStub{}
	l := NewBoardListener(hub, zap.NewNop())
	tech := uint64(3)
	req := entities.MaintenanceRequest{ID: 5, TeamID: 2, TechnicianID: &tech}

	require.NoError(t, l.handleRequestChanged(context.Background(), events.RequestChangedEvent{Action: events.ActionAssigned, Request: req, ActorID: 1}))
	require.Len(t, hub.direct, 1)
	assert.Equal(t, direct{3, websocket.MessageRequestAssigned}, hub.direct[0])

	// самоназначение и прочие действия без личного сообщения
	require.NoError(t, l.handleRequestChanged(context.Background(), events.RequestChangedEvent{Action: events.ActionAssigned, Request: req, ActorID: 3}))
	require.NoError(t, l.handleRequestChanged(context.Background(), events.RequestChangedEvent{Action: events.ActionUpdated, Request: req, ActorID: 1}))
	assert.Len(t, hub.direct, 1)
	assert.Len(t, hub.sent, 3)
}
