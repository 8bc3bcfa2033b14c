package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
)

const requestTable = "maintenance_requests"

var (
	requestColumns = []string{
		"r.id", "r.subject", "r.description", "r.type", "r.priority", "r.stage",
		"r.equipment_id", "r.team_id", "r.created_by_id", "r.technician_id",
		"r.scheduled_date", "r.duration", "r.notes", "r.created_at", "r.updated_at",
	}
	requestJoinedColumns = append(append([]string{}, requestColumns...),
		"e.name", "e.serial_number", "e.is_scrapped",
		"t.name",
		"tech.name", "tech.avatar",
		"cb.name", "cb.avatar",
	)
	openStages = []string{string(constants.StageNew), string(constants.StageInProgress)}
)

type MaintenanceRequestRepositoryInterface interface {
	GetRequests(ctx context.Context, filter dto.RequestFilter) ([]entities.MaintenanceRequest, error)
	GetRecentByEquipment(ctx context.Context, equipmentID uint64, limit uint64) ([]entities.MaintenanceRequest, error)
	FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error)
	FindRequestForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenanceRequest, error)
	CreateRequestInTx(ctx context.Context, tx pgx.Tx, request *entities.MaintenanceRequest) (uint64, error)
	UpdateRequestInTx(ctx context.Context, tx pgx.Tx, request *entities.MaintenanceRequest) error
	DeleteRequestInTx(ctx context.Context, tx pgx.Tx, id uint64) error
	GetStats(ctx context.Context, teamID *uint64, overdueBefore time.Time) (*dto.RequestStatsDTO, error)
}

type MaintenanceRequestRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMaintenanceRequestRepository(storage *pgxpool.Pool, logger *zap.Logger) MaintenanceRequestRepositoryInterface {
	return &MaintenanceRequestRepository{storage: storage, logger: logger}
}

func scanRequest(row pgx.Row) (*entities.MaintenanceRequest, error) {
	var r entities.MaintenanceRequest
	err := row.Scan(&r.ID, &r.Subject, &r.Description, &r.Type, &r.Priority, &r.Stage,
		&r.EquipmentID, &r.TeamID, &r.CreatedByID, &r.TechnicianID,
		&r.ScheduledDate, &r.Duration, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования maintenance_request: %w", err)
	}
	return &r, nil
}

// scanJoinedRequest читает заявку вместе с краткими данными оборудования, команды и людей.
func scanJoinedRequest(row pgx.Row) (*entities.MaintenanceRequest, error) {
	var (
		r                              entities.MaintenanceRequest
		equipment                      entities.EquipmentRef
		teamName, techName, authorName *string
		techAvatar, authorAvatar       *string
	)
	err := row.Scan(&r.ID, &r.Subject, &r.Description, &r.Type, &r.Priority, &r.Stage,
		&r.EquipmentID, &r.TeamID, &r.CreatedByID, &r.TechnicianID,
		&r.ScheduledDate, &r.Duration, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
		&equipment.Name, &equipment.SerialNumber, &equipment.IsScrapped,
		&teamName,
		&techName, &techAvatar,
		&authorName, &authorAvatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования maintenance_request: %w", err)
	}

	equipment.ID = r.EquipmentID
	r.Equipment = &equipment
	if teamName != nil {
		r.Team = &entities.TeamRef{ID: r.TeamID, Name: *teamName}
	}
	if r.TechnicianID != nil && techName != nil {
		r.Technician = &entities.UserRef{ID: *r.TechnicianID, Name: *techName, Avatar: techAvatar}
	}
	if authorName != nil {
		r.CreatedBy = &entities.UserRef{ID: r.CreatedByID, Name: *authorName, Avatar: authorAvatar}
	}
	return &r, nil
}

func selectJoinedRequests() sq.SelectBuilder {
	return sq.Select(requestJoinedColumns...).
		From(requestTable + " r").
		Join("equipment e ON e.id = r.equipment_id").
		LeftJoin("maintenance_teams t ON t.id = r.team_id").
		LeftJoin("users tech ON tech.id = r.technician_id").
		LeftJoin("users cb ON cb.id = r.created_by_id").
		PlaceholderFormat(sq.Dollar)
}

func applyRequestFilter(builder sq.SelectBuilder, filter dto.RequestFilter) sq.SelectBuilder {
	if filter.Type != nil {
		builder = builder.Where(sq.Eq{"r.type": string(*filter.Type)})
	}
	// overdue заменяет фильтр по этапу набором открытых этапов
	overdue := filter.Overdue && filter.CreatedBefore != nil
	if filter.Stage != nil && !overdue {
		builder = builder.Where(sq.Eq{"r.stage": string(*filter.Stage)})
	}
	if filter.TeamID != nil {
		builder = builder.Where(sq.Eq{"r.team_id": *filter.TeamID})
	}
	if filter.EquipmentID != nil {
		builder = builder.Where(sq.Eq{"r.equipment_id": *filter.EquipmentID})
	}
	if filter.TechnicianID != nil {
		builder = builder.Where(sq.Eq{"r.technician_id": *filter.TechnicianID})
	}
	if filter.Priority != nil {
		builder = builder.Where(sq.Eq{"r.priority": *filter.Priority})
	}
	if filter.ScheduledFrom != nil {
		builder = builder.Where(sq.GtOrEq{"r.scheduled_date": *filter.ScheduledFrom})
	}
	if filter.ScheduledTo != nil {
		builder = builder.Where(sq.LtOrEq{"r.scheduled_date": *filter.ScheduledTo})
	}
	if filter.ScheduledOnly {
		builder = builder.Where(sq.Eq{"r.type": string(constants.TypePreventive)}).
			Where(sq.NotEq{"r.scheduled_date": nil})
	}
	if overdue {
		builder = builder.Where(sq.Eq{"r.stage": openStages}).
			Where(sq.Lt{"r.created_at": *filter.CreatedBefore})
	}
	return builder
}

func (r *MaintenanceRequestRepository) queryJoined(ctx context.Context, builder sq.SelectBuilder) ([]entities.MaintenanceRequest, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]entities.MaintenanceRequest, 0)
	for rows.Next() {
		req, err := scanJoinedRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// GetRequests - порядок как на доске: приоритет по убыванию, затем новые выше.
func (r *MaintenanceRequestRepository) GetRequests(ctx context.Context, filter dto.RequestFilter) ([]entities.MaintenanceRequest, error) {
	builder := applyRequestFilter(selectJoinedRequests(), filter).
		OrderBy("r.priority DESC", "r.created_at DESC", "r.id DESC")
	return r.queryJoined(ctx, builder)
}

func (r *MaintenanceRequestRepository) GetRecentByEquipment(ctx context.Context, equipmentID uint64, limit uint64) ([]entities.MaintenanceRequest, error) {
	builder := selectJoinedRequests().
		Where(sq.Eq{"r.equipment_id": equipmentID}).
		OrderBy("r.created_at DESC", "r.id DESC").
		Limit(limit)
	return r.queryJoined(ctx, builder)
}

func (r *MaintenanceRequestRepository) FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	query, args, err := selectJoinedRequests().Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanJoinedRequest(r.storage.QueryRow(ctx, query, args...))
}

// FindRequestForUpdate блокирует строку заявки до конца транзакции.
func (r *MaintenanceRequestRepository) FindRequestForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenanceRequest, error) {
	query, args, err := sq.Select(requestColumns...).
		From(requestTable + " r").
		Where(sq.Eq{"r.id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanRequest(using(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *MaintenanceRequestRepository) CreateRequestInTx(ctx context.Context, tx pgx.Tx, req *entities.MaintenanceRequest) (uint64, error) {
	query := `
		INSERT INTO maintenance_requests
			(subject, description, type, priority, stage, equipment_id, team_id, created_by_id, technician_id, scheduled_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var id uint64
	err := using(r.storage, tx).QueryRow(ctx, query,
		req.Subject, req.Description, string(req.Type), req.Priority, string(req.Stage),
		req.EquipmentID, req.TeamID, req.CreatedByID, req.TechnicianID, req.ScheduledDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать заявку: %w", err)
	}
	return id, nil
}

// UpdateRequestInTx записывает все изменяемые поля заявки. equipment_id и team_id не трогаются.
func (r *MaintenanceRequestRepository) UpdateRequestInTx(ctx context.Context, tx pgx.Tx, req *entities.MaintenanceRequest) error {
	query, args, err := sq.Update(requestTable).
		PlaceholderFormat(sq.Dollar).
		Set("subject", req.Subject).
		Set("description", req.Description).
		Set("priority", req.Priority).
		Set("stage", string(req.Stage)).
		Set("technician_id", req.TechnicianID).
		Set("scheduled_date", req.ScheduledDate).
		Set("duration", req.Duration).
		Set("notes", req.Notes).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": req.ID}).
		ToSql()
	if err != nil {
		return err
	}
	result, err := using(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("не удалось обновить заявку %d: %w", req.ID, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *MaintenanceRequestRepository) DeleteRequestInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := using(r.storage, tx).Exec(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetStats считает заявки по этапам, типам и командам. teamID ограничивает выборку одной командой.
func (r *MaintenanceRequestRepository) GetStats(ctx context.Context, teamID *uint64, overdueBefore time.Time) (*dto.RequestStatsDTO, error) {
	scope := func(b sq.SelectBuilder) sq.SelectBuilder {
		if teamID != nil {
			return b.Where(sq.Eq{"r.team_id": *teamID})
		}
		return b
	}

	stats := &dto.RequestStatsDTO{
		ByStage: make(map[string]int64),
		ByType:  make(map[string]int64),
		ByTeam:  make([]dto.TeamCountDTO, 0),
	}

	groups := []struct {
		column string
		target map[string]int64
	}{
		{"r.stage", stats.ByStage},
		{"r.type", stats.ByType},
	}
	for _, g := range groups {
		builder := scope(sq.Select(g.column, "COUNT(*)").From(requestTable + " r").GroupBy(g.column).PlaceholderFormat(sq.Dollar))
		if err := r.scanCounts(ctx, builder, func(key string, count int64) {
			g.target[key] = count
		}); err != nil {
			return nil, err
		}
	}

	byTeam := scope(sq.Select("COALESCE(t.name, 'Unknown')", "COUNT(*)").
		From(requestTable+" r").
		LeftJoin("maintenance_teams t ON t.id = r.team_id").
		GroupBy("r.team_id", "t.name").
		OrderBy("COUNT(*) DESC", "t.name ASC").
		PlaceholderFormat(sq.Dollar))
	if err := r.scanCounts(ctx, byTeam, func(key string, count int64) {
		stats.ByTeam = append(stats.ByTeam, dto.TeamCountDTO{Team: key, Count: count})
	}); err != nil {
		return nil, err
	}

	overdueQuery, args, err := scope(sq.Select("COUNT(*)").
		From(requestTable + " r").
		Where(sq.Eq{"r.stage": openStages}).
		Where(sq.Lt{"r.created_at": overdueBefore}).
		PlaceholderFormat(sq.Dollar)).ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.storage.QueryRow(ctx, overdueQuery, args...).Scan(&stats.Overdue); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *MaintenanceRequestRepository) scanCounts(ctx context.Context, builder sq.SelectBuilder, fn func(key string, count int64)) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			r.logger.Error("ошибка сканирования статистики", zap.Error(err))
			return err
		}
		fn(key, count)
	}
	return rows.Err()
}
