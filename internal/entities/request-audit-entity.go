package entities

import "time"

// RequestAuditEntry - строка журнала заявки. Журнал только дополняется.
type RequestAuditEntry struct {
	ID        uint64    `json:"id" db:"id"`
	RequestID uint64    `json:"requestId" db:"request_id"`
	ActorID   uint64    `json:"actorId" db:"actor_id"`
	ActorName string    `json:"actorName" db:"actor_name"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
