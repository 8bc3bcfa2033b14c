package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/types"
)

type TeamServiceInterface interface {
	GetTeams(ctx context.Context) ([]entities.Team, error)
	FindTeam(ctx context.Context, id uint64) (*dto.TeamDetailsDTO, error)
	CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (*entities.Team, error)
	UpdateTeam(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*entities.Team, error)
	DeleteTeam(ctx context.Context, id uint64) error
	AddMember(ctx context.Context, teamID uint64, payload dto.AddTeamMemberDTO) (*entities.User, error)
	RemoveMember(ctx context.Context, teamID, userID uint64) error
}

type TeamService struct {
	txManager     repositories.TxManagerInterface
	teamRepo      repositories.TeamRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	requestRepo   repositories.MaintenanceRequestRepositoryInterface
	logger        *zap.Logger
	now           func() time.Time
}

func NewTeamService(
	txManager repositories.TxManagerInterface,
	teamRepo repositories.TeamRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	requestRepo repositories.MaintenanceRequestRepositoryInterface,
	logger *zap.Logger,
) TeamServiceInterface {
	return &TeamService{
		txManager:     txManager,
		teamRepo:      teamRepo,
		userRepo:      userRepo,
		equipmentRepo: equipmentRepo,
		requestRepo:   requestRepo,
		logger:        logger,
		now:           time.Now,
	}
}

func teamNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("maintenance team not found")
	}
	return err
}

func (s *TeamService) authorize(ctx context.Context) (authz.Actor, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return authz.Actor{}, err
	}
	return actor, authz.CanManage(actor, authz.TeamsManage).Err()
}

func (s *TeamService) GetTeams(ctx context.Context) ([]entities.Team, error) {
	teams, err := s.teamRepo.GetTeams(ctx)
	if err != nil {
		s.logger.Error("Ошибка при получении списка команд", zap.Error(err))
		return nil, err
	}
	return teams, nil
}

// FindTeam возвращает команду с техниками, оборудованием и открытыми заявками.
func (s *TeamService) FindTeam(ctx context.Context, id uint64) (*dto.TeamDetailsDTO, error) {
	team, err := s.teamRepo.FindTeam(ctx, id)
	if err != nil {
		return nil, teamNotFound(err)
	}
	members, err := s.userRepo.GetUsers(ctx, dto.UserFilter{TeamID: &id})
	if err != nil {
		return nil, err
	}
	equipment, _, err := s.equipmentRepo.GetEquipment(ctx, types.Filter{Filter: map[string]interface{}{"team_id": id}})
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.GetRequests(ctx, dto.RequestFilter{TeamID: &id})
	if err != nil {
		return nil, err
	}
	open := make([]entities.MaintenanceRequest, 0, len(requests))
	for _, r := range requests {
		if r.Stage.IsOpen() {
			open = append(open, r)
		}
	}

	team.MemberCount = uint64(len(members))
	team.EquipmentCount = uint64(len(equipment))
	return &dto.TeamDetailsDTO{
		Team:         *team,
		Members:      members,
		Equipment:    equipment,
		OpenRequests: toRequestDTOs(open, s.now()),
	}, nil
}

func (s *TeamService) CreateTeam(ctx context.Context, payload dto.CreateTeamDTO) (*entities.Team, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, apperrors.NewInvalidInputError("team name is required")
	}
	team, err := s.teamRepo.CreateTeam(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Команда создана", zap.Uint64("teamID", team.ID))
	return team, nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, id uint64, payload dto.UpdateTeamDTO) (*entities.Team, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, apperrors.NewInvalidInputError("team name is required")
	}
	team, err := s.teamRepo.UpdateTeam(ctx, id, name)
	if err != nil {
		return nil, teamNotFound(err)
	}
	s.logger.Info("Команда обновлена", zap.Uint64("teamID", id))
	return team, nil
}

// DeleteTeam удаляет команду без техников, оборудования и истории заявок.
// Строка команды заблокирована на время проверки, поэтому новые ссылки не появятся.
func (s *TeamService) DeleteTeam(ctx context.Context, id uint64) error {
	if _, err := s.authorize(ctx); err != nil {
		return err
	}
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.teamRepo.LockTeamInTx(ctx, tx, id); err != nil {
			return teamNotFound(err)
		}
		deps, err := s.teamRepo.CountDependenciesInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if deps.Members > 0 || deps.Equipment > 0 {
			return apperrors.NewConflictError("cannot delete team with members or assigned equipment")
		}
		if deps.Requests > 0 {
			return apperrors.NewConflictError("cannot delete team with maintenance request history")
		}
		return teamNotFound(s.teamRepo.DeleteTeamInTx(ctx, tx, id))
	})
	if err != nil {
		s.logger.Warn("Не удалось удалить команду", zap.Uint64("teamID", id), zap.Error(err))
		return err
	}
	s.logger.Info("Команда удалена", zap.Uint64("teamID", id))
	return nil
}

func (s *TeamService) AddMember(ctx context.Context, teamID uint64, payload dto.AddTeamMemberDTO) (*entities.User, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if payload.UserID == 0 {
		return nil, apperrors.NewInvalidInputError("user ID is required")
	}
	if _, err := s.teamRepo.FindTeam(ctx, teamID); err != nil {
		return nil, teamNotFound(err)
	}
	user, err := s.userRepo.FindUserByID(ctx, payload.UserID)
	if err != nil {
		return nil, userNotFound(err)
	}
	if user.Role != constants.RoleTechnician {
		return nil, apperrors.NewInvalidInputError("only technicians can be added to maintenance teams")
	}
	if err := s.userRepo.SetTeam(ctx, user.ID, &teamID); err != nil {
		return nil, userNotFound(err)
	}
	s.logger.Info("Техник добавлен в команду", zap.Uint64("teamID", teamID), zap.Uint64("userID", user.ID))
	return s.userRepo.FindUserByID(ctx, user.ID)
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID uint64) error {
	if _, err := s.authorize(ctx); err != nil {
		return err
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil || !user.InTeam(teamID) {
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.NewNotFoundError("user not found in this team")
	}
	if err := s.userRepo.SetTeam(ctx, userID, nil); err != nil {
		return userNotFound(err)
	}
	s.logger.Info("Техник исключён из команды", zap.Uint64("teamID", teamID), zap.Uint64("userID", userID))
	return nil
}
