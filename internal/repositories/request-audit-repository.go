package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gearguard/internal/entities"
)

type RequestAuditRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.RequestAuditEntry) error
	FindByRequestID(ctx context.Context, requestID uint64) ([]entities.RequestAuditEntry, error)
}

type RequestAuditRepository struct {
	storage *pgxpool.Pool
}

func NewRequestAuditRepository(storage *pgxpool.Pool) RequestAuditRepositoryInterface {
	return &RequestAuditRepository{storage: storage}
}

func (r *RequestAuditRepository) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.RequestAuditEntry) error {
	query := `
		INSERT INTO request_audit_log (request_id, actor_id, actor_name, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return using(r.storage, tx).QueryRow(ctx, query,
		entry.RequestID, entry.ActorID, entry.ActorName, entry.Message, entry.CreatedAt,
	).Scan(&entry.ID)
}

// FindByRequestID возвращает журнал заявки от старых записей к новым.
func (r *RequestAuditRepository) FindByRequestID(ctx context.Context, requestID uint64) ([]entities.RequestAuditEntry, error) {
	query := `
		SELECT id, request_id, actor_id, actor_name, message, created_at
		FROM request_audit_log
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.storage.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]entities.RequestAuditEntry, 0)
	for rows.Next() {
		var e entities.RequestAuditEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ActorID, &e.ActorName, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
