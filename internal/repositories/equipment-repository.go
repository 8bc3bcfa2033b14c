package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/types"
)

const equipmentTable = "equipment"

var (
	equipmentAllowedFilterFields = map[string]string{
		"department":  "e.department",
		"team_id":     "e.team_id",
		"is_scrapped": "e.is_scrapped",
	}
	equipmentAllowedSortFields = map[string]string{
		"id":            "e.id",
		"name":          "e.name",
		"department":    "e.department",
		"purchase_date": "e.purchase_date",
		"created_at":    "e.created_at",
	}
	equipmentSelectColumns = []string{
		"e.id", "e.name", "e.serial_number", "e.department", "e.location", "e.assigned_employee",
		"e.purchase_date", "e.warranty_end_date", "e.team_id", "e.is_scrapped", "e.created_at", "e.updated_at",
		"t.name",
		"(SELECT COUNT(*) FROM maintenance_requests mr WHERE mr.equipment_id = e.id AND mr.stage IN ('NEW', 'IN_PROGRESS'))",
	}
)

type EquipmentRepositoryInterface interface {
	GetEquipment(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	GetDepartments(ctx context.Context) ([]string, error)
	FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error)
	FindEquipmentInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	CreateEquipment(ctx context.Context, equipment entities.Equipment) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	MarkScrappedInTx(ctx context.Context, tx pgx.Tx, id uint64) error
	DeleteEquipment(ctx context.Context, id uint64) error
	HasRequests(ctx context.Context, id uint64) (bool, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var (
		e        entities.Equipment
		teamName *string
	)
	err := row.Scan(&e.ID, &e.Name, &e.SerialNumber, &e.Department, &e.Location, &e.AssignedEmployee,
		&e.PurchaseDate, &e.WarrantyEndDate, &e.TeamID, &e.IsScrapped, &e.CreatedAt, &e.UpdatedAt,
		&teamName, &e.OpenRequestsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования equipment: %w", err)
	}
	if teamName != nil {
		e.Team = &entities.TeamRef{ID: e.TeamID, Name: *teamName}
	}
	return &e, nil
}

func selectEquipment() sq.SelectBuilder {
	return sq.Select(equipmentSelectColumns...).
		From(equipmentTable + " e").
		LeftJoin("maintenance_teams t ON t.id = e.team_id").
		PlaceholderFormat(sq.Dollar)
}

// applyFilter переводит types.Filter в условия WHERE. Неизвестные ключи игнорируются.
func (r *EquipmentRepository) applyFilter(builder sq.SelectBuilder, filter types.Filter) sq.SelectBuilder {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"e.name": pattern},
			sq.ILike{"e.serial_number": pattern},
			sq.ILike{"e.assigned_employee": pattern},
		})
	}
	for key, value := range filter.Filter {
		dbColumn, ok := equipmentAllowedFilterFields[key]
		if !ok {
			continue
		}
		raw := fmt.Sprintf("%v", value)
		if key == "is_scrapped" {
			if b, err := strconv.ParseBool(raw); err == nil {
				builder = builder.Where(sq.Eq{dbColumn: b})
			}
			continue
		}
		items := strings.Split(raw, ",")
		if len(items) > 1 {
			builder = builder.Where(sq.Eq{dbColumn: items})
		} else {
			builder = builder.Where(sq.Eq{dbColumn: raw})
		}
	}
	return builder
}

func (r *EquipmentRepository) GetEquipment(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	countBuilder := r.applyFilter(sq.Select("COUNT(*)").From(equipmentTable+" e").PlaceholderFormat(sq.Dollar), filter)
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Equipment{}, 0, nil
	}

	builder := r.applyFilter(selectEquipment(), filter)
	sorts := []string{}
	for field, direction := range filter.Sort {
		if dbField, ok := equipmentAllowedSortFields[field]; ok {
			order := "ASC"
			if strings.ToLower(direction) == "desc" {
				order = "DESC"
			}
			sorts = append(sorts, fmt.Sprintf("%s %s", dbField, order))
		}
	}
	if len(sorts) == 0 {
		sorts = []string{"e.created_at DESC", "e.id DESC"}
	}
	builder = builder.OrderBy(sorts...)
	if filter.WithPagination {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

func (r *EquipmentRepository) GetDepartments(ctx context.Context) ([]string, error) {
	rows, err := r.storage.Query(ctx, `SELECT DISTINCT department FROM equipment ORDER BY department ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *EquipmentRepository) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	query, args, err := selectEquipment().Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(r.storage.QueryRow(ctx, query, args...))
}

// FindEquipmentInTx читает оборудование с блокировкой FOR SHARE:
// параллельное списание дождётся конца транзакции.
func (r *EquipmentRepository) FindEquipmentInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	query, args, err := selectEquipment().Where(sq.Eq{"e.id": id}).Suffix("FOR SHARE OF e").ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(using(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *EquipmentRepository) CreateEquipment(ctx context.Context, e entities.Equipment) (*entities.Equipment, error) {
	query := `
		INSERT INTO equipment (name, serial_number, department, location, assigned_employee, purchase_date, warranty_end_date, team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id uint64
	err := r.storage.QueryRow(ctx, query,
		e.Name, e.SerialNumber, e.Department, e.Location, e.AssignedEmployee,
		e.PurchaseDate, e.WarrantyEndDate, e.TeamID,
	).Scan(&id)
	if err != nil {
		return nil, uniqueViolation(err, "equipment with this serial number already exists")
	}
	return r.FindEquipment(ctx, id)
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	updateBuilder := sq.Update(equipmentTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Set("updated_at", sq.Expr("NOW()"))
	if payload.Has("name") && payload.Name.Valid {
		updateBuilder = updateBuilder.Set("name", payload.Name.String)
	}
	if payload.Has("department") && payload.Department.Valid {
		updateBuilder = updateBuilder.Set("department", payload.Department.String)
	}
	if payload.Has("location") && payload.Location.Valid {
		updateBuilder = updateBuilder.Set("location", payload.Location.String)
	}
	if payload.Has("assignedEmployee") {
		updateBuilder = updateBuilder.Set("assigned_employee", payload.AssignedEmployee.Ptr())
	}
	if payload.Has("warrantyEndDate") {
		updateBuilder = updateBuilder.Set("warranty_end_date", payload.WarrantyEndDate.Ptr())
	}
	if payload.Has("teamId") && payload.TeamID.Valid {
		updateBuilder = updateBuilder.Set("team_id", payload.TeamID.Uint64)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return nil, err
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.FindEquipment(ctx, id)
}

// MarkScrappedInTx идемпотентно выставляет флаг списания.
func (r *EquipmentRepository) MarkScrappedInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := using(r.storage, tx).Exec(ctx,
		`UPDATE equipment SET is_scrapped = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) HasRequests(ctx context.Context, id uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM maintenance_requests WHERE equipment_id = $1)`, id).Scan(&exists)
	return exists, err
}
