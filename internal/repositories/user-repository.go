package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
)

const userTable = "users"

var userSelectColumns = []string{
	"u.id", "u.email", "u.password", "u.name", "u.avatar", "u.role", "u.team_id",
	"u.created_at", "u.updated_at", "t.name",
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter dto.UserFilter) ([]entities.User, error)
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	FindTechnicianInTeam(ctx context.Context, tx pgx.Tx, userID, teamID uint64) (*entities.User, error)
	CreateUser(ctx context.Context, user entities.User) (*entities.User, error)
	UpdateProfile(ctx context.Context, id uint64, payload dto.UpdateProfileDTO) (*entities.User, error)
	UpdateRole(ctx context.Context, id uint64, role constants.Role, teamID *uint64) (*entities.User, error)
	SetTeam(ctx context.Context, id uint64, teamID *uint64) error
	CountAssignedRequests(ctx context.Context, id uint64) (uint64, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		u        entities.User
		teamName *string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Avatar, &u.Role, &u.TeamID,
		&u.CreatedAt, &u.UpdatedAt, &teamName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования user: %w", err)
	}
	if u.TeamID != nil && teamName != nil {
		u.Team = &entities.TeamRef{ID: *u.TeamID, Name: *teamName}
	}
	return &u, nil
}

func selectUsers() sq.SelectBuilder {
	return sq.Select(userSelectColumns...).
		From(userTable + " u").
		LeftJoin("maintenance_teams t ON t.id = u.team_id").
		PlaceholderFormat(sq.Dollar)
}

func (r *UserRepository) findOne(ctx context.Context, q querier, builder sq.SelectBuilder) (*entities.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(q.QueryRow(ctx, query, args...))
}

func (r *UserRepository) GetUsers(ctx context.Context, filter dto.UserFilter) ([]entities.User, error) {
	builder := selectUsers().OrderBy("u.name ASC")
	if filter.Role != nil {
		builder = builder.Where(sq.Eq{"u.role": string(*filter.Role)})
	}
	if filter.TeamID != nil {
		builder = builder.Where(sq.Eq{"u.team_id": *filter.TeamID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, r.storage, selectUsers().Where(sq.Eq{"u.id": id}))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, r.storage, selectUsers().Where(sq.Eq{"u.email": email}))
}

// FindTechnicianInTeam ищет пользователя с ролью TECHNICIAN в указанной команде.
func (r *UserRepository) FindTechnicianInTeam(ctx context.Context, tx pgx.Tx, userID, teamID uint64) (*entities.User, error) {
	builder := selectUsers().Where(sq.Eq{
		"u.id":      userID,
		"u.team_id": teamID,
		"u.role":    string(constants.RoleTechnician),
	})
	return r.findOne(ctx, using(r.storage, tx), builder)
}

func (r *UserRepository) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	var id uint64
	query := `INSERT INTO users (email, password, name, avatar, role, team_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.storage.QueryRow(ctx, query, user.Email, user.Password, user.Name, user.Avatar, string(user.Role), user.TeamID).Scan(&id)
	if err != nil {
		return nil, uniqueViolation(err, "user with this email already exists")
	}
	return r.FindUserByID(ctx, id)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, payload dto.UpdateProfileDTO) (*entities.User, error) {
	updateBuilder := sq.Update(userTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Set("updated_at", sq.Expr("NOW()"))
	if payload.Has("name") && payload.Name.Valid {
		updateBuilder = updateBuilder.Set("name", payload.Name.String)
	}
	if payload.Has("avatar") {
		updateBuilder = updateBuilder.Set("avatar", payload.Avatar.Ptr())
	}
	if err := r.exec(ctx, updateBuilder); err != nil {
		return nil, err
	}
	return r.FindUserByID(ctx, id)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uint64, role constants.Role, teamID *uint64) (*entities.User, error) {
	updateBuilder := sq.Update(userTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Set("role", string(role)).
		Set("team_id", teamID).
		Set("updated_at", sq.Expr("NOW()"))
	if err := r.exec(ctx, updateBuilder); err != nil {
		return nil, err
	}
	return r.FindUserByID(ctx, id)
}

func (r *UserRepository) SetTeam(ctx context.Context, id uint64, teamID *uint64) error {
	updateBuilder := sq.Update(userTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Set("team_id", teamID).
		Set("updated_at", sq.Expr("NOW()"))
	return r.exec(ctx, updateBuilder)
}

func (r *UserRepository) CountAssignedRequests(ctx context.Context, id uint64) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM maintenance_requests WHERE technician_id = $1`, id).Scan(&count)
	return count, err
}

func (r *UserRepository) exec(ctx context.Context, builder sq.UpdateBuilder) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
