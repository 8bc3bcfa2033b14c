package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter dto.UserFilter) ([]entities.User, error)
	GetTechnicians(ctx context.Context, teamID *uint64) ([]entities.User, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDetailsDTO, error)
	UpdateRole(ctx context.Context, id uint64, payload dto.UpdateUserRoleDTO) (*entities.User, error)
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	teamRepo repositories.TeamRepositoryInterface
	logger   *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{userRepo: userRepo, teamRepo: teamRepo, logger: logger}
}

func userNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("user not found")
	}
	return err
}

func (s *UserService) GetUsers(ctx context.Context, filter dto.UserFilter) ([]entities.User, error) {
	users, err := s.userRepo.GetUsers(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка при получении списка пользователей", zap.Error(err))
		return nil, err
	}
	return users, nil
}

func (s *UserService) GetTechnicians(ctx context.Context, teamID *uint64) ([]entities.User, error) {
	role := constants.RoleTechnician
	return s.GetUsers(ctx, dto.UserFilter{Role: &role, TeamID: teamID})
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDetailsDTO, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, userNotFound(err)
	}
	count, err := s.userRepo.CountAssignedRequests(ctx, id)
	if err != nil {
		s.logger.Error("Ошибка при подсчёте заявок пользователя", zap.Uint64("userID", id), zap.Error(err))
		return nil, err
	}
	return &dto.UserDetailsDTO{User: *user, AssignedRequestsCount: count}, nil
}

// UpdateRole: техник обязан состоять в команде, у остальных ролей команда сбрасывается.
func (s *UserService) UpdateRole(ctx context.Context, id uint64, payload dto.UpdateUserRoleDTO) (*entities.User, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.CanManage(actor, authz.UsersRoleUpdate).Err(); err != nil {
		return nil, err
	}

	role := constants.Role(payload.Role)
	if !role.IsValid() {
		return nil, apperrors.NewInvalidInputError("invalid role")
	}
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, userNotFound(err)
	}
	if user.ID == actor.ID {
		return nil, apperrors.NewInvalidInputError("cannot change your own role")
	}

	var teamID *uint64
	if role == constants.RoleTechnician {
		switch {
		case payload.TeamID.Valid:
			if _, err := s.teamRepo.FindTeam(ctx, payload.TeamID.Uint64); err != nil {
				return nil, teamNotFound(err)
			}
			teamID = &payload.TeamID.Uint64
		case user.TeamID != nil:
			teamID = user.TeamID
		default:
			return nil, apperrors.NewInvalidInputError("team ID is required for technicians")
		}
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, role, teamID)
	if err != nil {
		s.logger.Error("Ошибка при смене роли", zap.Uint64("userID", id), zap.Error(err))
		return nil, userNotFound(err)
	}
	s.logger.Info("Роль пользователя изменена", zap.Uint64("userID", id), zap.String("role", string(role)), zap.Uint64("actorID", actor.ID))
	return updated, nil
}
