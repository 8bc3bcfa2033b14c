package listeners

import (
	"context"

	"go.uber.org/zap"

	"gearguard/internal/events"
	"gearguard/pkg/eventbus"
	"gearguard/pkg/websocket"
)

// Broadcaster - то, через что доска получает живые обновления.
type Broadcaster interface {
	BroadcastToTeam(teamID uint64, messageType string, payload interface{}) error
	SendMessageToUser(userID uint64, messageType string, payload interface{}) error
}

// BoardListener пересылает изменения заявок подключённым по WebSocket клиентам их команды.
type BoardListener struct {
	hub    Broadcaster
	logger *zap.Logger
}

func NewBoardListener(hub Broadcaster, logger *zap.Logger) *BoardListener {
	return &BoardListener{hub: hub, logger: logger}
}

func (l *BoardListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.RequestChanged, l.handleRequestChanged)
}

func (l *BoardListener) handleRequestChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RequestChangedEvent)
	if !ok {
		return nil
	}
	payload := websocket.RequestChangedPayload{
		Action:    e.Action,
		RequestID: e.Request.ID,
		ActorID:   e.ActorID,
	}
	if e.Action != events.ActionDeleted {
		payload.Request = e.Request
	}
	if err := l.hub.BroadcastToTeam(e.Request.TeamID, websocket.MessageRequestChanged, payload); err != nil {
		return err
	}

	// техника, назначенного кем-то другим, уведомляем лично
	if e.Action == events.ActionAssigned && e.Request.TechnicianID != nil && *e.Request.TechnicianID != e.ActorID {
		if err := l.hub.SendMessageToUser(*e.Request.TechnicianID, websocket.MessageRequestAssigned, payload); err != nil {
			return err
		}
	}

	// о списании оборудования сообщаем отдельным типом, чтобы обновились карточки оборудования
	if e.Action == events.ActionStage && e.Request.Equipment != nil && e.Request.Equipment.IsScrapped {
		return l.hub.BroadcastToTeam(e.Request.TeamID, websocket.MessageEquipmentScrapped, websocket.EquipmentScrappedPayload{
			EquipmentID: e.Request.EquipmentID,
			RequestID:   e.Request.ID,
			ActorID:     e.ActorID,
		})
	}
	return nil
}
