package websocket

import "time"

// Envelope - конверт для всех сообщений. По Type фронтенд понимает, что обновить.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Типы сообщений доски.
const (
	MessageRequestChanged    = "request_changed"
	MessageEquipmentScrapped = "equipment_scrapped"
	// личное уведомление техника о назначении
	MessageRequestAssigned = "request_assigned"
)

// RequestChangedPayload - что изменилось на доске.
type RequestChangedPayload struct {
	Action    string      `json:"action"`
	RequestID uint64      `json:"requestId"`
	ActorID   uint64      `json:"actorId"`
	Request   interface{} `json:"request,omitempty"`
}

type EquipmentScrappedPayload struct {
	EquipmentID uint64 `json:"equipmentId"`
	RequestID   uint64 `json:"requestId"`
	ActorID     uint64 `json:"actorId"`
}
