package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/types"
	"gearguard/pkg/utils"
)

const recentRequestsLimit = 10

type EquipmentServiceInterface interface {
	GetEquipment(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)
	GetDepartments(ctx context.Context) ([]string, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDetailsDTO, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint64) error
}

type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	teamRepo      repositories.TeamRepositoryInterface
	requestRepo   repositories.MaintenanceRequestRepositoryInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	teamRepo repositories.TeamRepositoryInterface,
	requestRepo repositories.MaintenanceRequestRepositoryInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		teamRepo:      teamRepo,
		requestRepo:   requestRepo,
		logger:        logger,
	}
}

func equipmentNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("equipment not found")
	}
	return err
}

func (s *EquipmentService) authorize(ctx context.Context) error {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	return authz.CanManage(actor, authz.EquipmentManage).Err()
}

func (s *EquipmentService) GetEquipment(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	list, total, err := s.equipmentRepo.GetEquipment(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка при получении списка оборудования", zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}

func (s *EquipmentService) GetDepartments(ctx context.Context) ([]string, error) {
	return s.equipmentRepo.GetDepartments(ctx)
}

// FindEquipment дополняет карточку десятью последними заявками.
func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDetailsDTO, error) {
	equipment, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, equipmentNotFound(err)
	}
	recent, err := s.requestRepo.GetRecentByEquipment(ctx, id, recentRequestsLimit)
	if err != nil {
		s.logger.Error("Ошибка при получении заявок оборудования", zap.Uint64("equipmentID", id), zap.Error(err))
		return nil, err
	}
	return &dto.EquipmentDetailsDTO{Equipment: *equipment, RecentRequests: recent}, nil
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	for _, v := range []string{payload.Name, payload.SerialNumber, payload.Department, payload.Location} {
		if strings.TrimSpace(v) == "" {
			return nil, apperrors.NewInvalidInputError("name, serial number, department, location, team, and purchase date are required")
		}
	}
	if payload.TeamID == 0 || payload.PurchaseDate.IsZero() {
		return nil, apperrors.NewInvalidInputError("name, serial number, department, location, team, and purchase date are required")
	}
	if _, err := s.teamRepo.FindTeam(ctx, payload.TeamID); err != nil {
		return nil, teamNotFound(err)
	}

	equipment, err := s.equipmentRepo.CreateEquipment(ctx, entities.Equipment{
		Name:             strings.TrimSpace(payload.Name),
		SerialNumber:     strings.TrimSpace(payload.SerialNumber),
		Department:       strings.TrimSpace(payload.Department),
		Location:         strings.TrimSpace(payload.Location),
		AssignedEmployee: utils.StringPtr(payload.AssignedEmployee),
		PurchaseDate:     payload.PurchaseDate.UTC(),
		WarrantyEndDate:  utils.TimePtr(payload.WarrantyEndDate),
		TeamID:           payload.TeamID,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error("Ошибка при создании оборудования", zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("Оборудование создано", zap.Uint64("equipmentID", equipment.ID))
	return equipment, nil
}

// UpdateEquipment: списанное оборудование не редактируется.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	existing, err := s.equipmentRepo.FindEquipment(ctx, id)
	if err != nil {
		return nil, equipmentNotFound(err)
	}
	if existing.IsScrapped {
		return nil, apperrors.NewConflictError("cannot update scrapped equipment")
	}
	if payload.Has("teamId") && payload.TeamID.Valid {
		if _, err := s.teamRepo.FindTeam(ctx, payload.TeamID.Uint64); err != nil {
			return nil, teamNotFound(err)
		}
	}

	equipment, err := s.equipmentRepo.UpdateEquipment(ctx, id, payload)
	if err != nil {
		s.logger.Error("Ошибка при обновлении оборудования", zap.Uint64("equipmentID", id), zap.Error(err))
		return nil, equipmentNotFound(err)
	}
	s.logger.Info("Оборудование обновлено", zap.Uint64("equipmentID", id))
	return equipment, nil
}

// DeleteEquipment: оборудование с историей заявок не удаляется, его можно только списать.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}
	if _, err := s.equipmentRepo.FindEquipment(ctx, id); err != nil {
		return equipmentNotFound(err)
	}
	hasRequests, err := s.equipmentRepo.HasRequests(ctx, id)
	if err != nil {
		return err
	}
	if hasRequests {
		return apperrors.NewConflictError("cannot delete equipment with maintenance history, consider marking it as scrapped instead")
	}
	if err := s.equipmentRepo.DeleteEquipment(ctx, id); err != nil {
		return equipmentNotFound(err)
	}
	s.logger.Info("Оборудование удалено", zap.Uint64("equipmentID", id))
	return nil
}
