package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gearguard/internal/entities"
	apperrors "gearguard/pkg/errors"
)

const teamNameTaken = "team with this name already exists"

type TeamRepositoryInterface interface {
	GetTeams(ctx context.Context) ([]entities.Team, error)
	FindTeam(ctx context.Context, id uint64) (*entities.Team, error)
	CreateTeam(ctx context.Context, name string) (*entities.Team, error)
	UpdateTeam(ctx context.Context, id uint64, name string) (*entities.Team, error)
	LockTeamInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error)
	CountDependenciesInTx(ctx context.Context, tx pgx.Tx, id uint64) (*TeamDependencies, error)
	DeleteTeamInTx(ctx context.Context, tx pgx.Tx, id uint64) error
}

// TeamDependencies - сколько строк ссылается на команду.
type TeamDependencies struct {
	Members   uint64
	Equipment uint64
	Requests  uint64
}

type TeamRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTeamRepository(storage *pgxpool.Pool, logger *zap.Logger) TeamRepositoryInterface {
	return &TeamRepository{storage: storage, logger: logger}
}

func scanTeam(row pgx.Row) (*entities.Team, error) {
	var t entities.Team
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования team: %w", err)
	}
	return &t, nil
}

// GetTeams возвращает команды по имени вместе с количеством техников и оборудования.
func (r *TeamRepository) GetTeams(ctx context.Context) ([]entities.Team, error) {
	query := `
		SELECT t.id, t.name, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM users u WHERE u.team_id = t.id) AS member_count,
			(SELECT COUNT(*) FROM equipment e WHERE e.team_id = t.id) AS equipment_count
		FROM maintenance_teams t
		ORDER BY t.name ASC`
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]entities.Team, 0)
	for rows.Next() {
		var t entities.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.MemberCount, &t.EquipmentCount); err != nil {
			r.logger.Error("ошибка сканирования команды", zap.Error(err))
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) FindTeam(ctx context.Context, id uint64) (*entities.Team, error) {
	query := `SELECT id, name, created_at, updated_at FROM maintenance_teams WHERE id = $1`
	return scanTeam(r.storage.QueryRow(ctx, query, id))
}

func (r *TeamRepository) CreateTeam(ctx context.Context, name string) (*entities.Team, error) {
	query := `INSERT INTO maintenance_teams (name) VALUES ($1) RETURNING id, name, created_at, updated_at`
	team, err := scanTeam(r.storage.QueryRow(ctx, query, name))
	if err != nil {
		return nil, uniqueViolation(err, teamNameTaken)
	}
	return team, nil
}

func (r *TeamRepository) UpdateTeam(ctx context.Context, id uint64, name string) (*entities.Team, error) {
	query := `UPDATE maintenance_teams SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING id, name, created_at, updated_at`
	team, err := scanTeam(r.storage.QueryRow(ctx, query, name, id))
	if err != nil {
		return nil, uniqueViolation(err, "another team with this name already exists")
	}
	return team, nil
}

// LockTeamInTx блокирует строку команды до конца транзакции: вставки со ссылкой на неё ждут.
func (r *TeamRepository) LockTeamInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error) {
	query := `SELECT id, name, created_at, updated_at FROM maintenance_teams WHERE id = $1 FOR UPDATE`
	return scanTeam(using(r.storage, tx).QueryRow(ctx, query, id))
}

func (r *TeamRepository) CountDependenciesInTx(ctx context.Context, tx pgx.Tx, id uint64) (*TeamDependencies, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE team_id = $1),
			(SELECT COUNT(*) FROM equipment WHERE team_id = $1),
			(SELECT COUNT(*) FROM maintenance_requests WHERE team_id = $1)`
	var deps TeamDependencies
	if err := using(r.storage, tx).QueryRow(ctx, query, id).Scan(&deps.Members, &deps.Equipment, &deps.Requests); err != nil {
		return nil, err
	}
	return &deps, nil
}

func (r *TeamRepository) DeleteTeamInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := using(r.storage, tx).Exec(ctx, `DELETE FROM maintenance_teams WHERE id = $1`, id)
	if err != nil {
		return foreignKeyViolation(err, "team is still referenced by users, equipment, or requests")
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
