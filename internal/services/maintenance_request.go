package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/events"
	"gearguard/internal/repositories"
	"gearguard/pkg/config"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/eventbus"
	"gearguard/pkg/utils"
)

// EventPublisher - то, через что сервис сообщает об изменениях после коммита.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type MaintenanceRequestServiceInterface interface {
	GetRequests(ctx context.Context, filter dto.RequestFilter) ([]dto.RequestDTO, error)
	GetKanban(ctx context.Context) (dto.KanbanDTO, error)
	GetCalendar(ctx context.Context, start, end *time.Time) ([]dto.CalendarEventDTO, error)
	GetStats(ctx context.Context) (*dto.RequestStatsDTO, error)
	FindRequest(ctx context.Context, id uint64) (*dto.RequestDetailsDTO, error)
	CreateRequest(ctx context.Context, payload dto.CreateRequestDTO) (*dto.RequestDTO, error)
	SetStage(ctx context.Context, id uint64, stage constants.RequestStage) (*dto.RequestDTO, error)
	AssignTechnician(ctx context.Context, id uint64, technicianID *uint64) (*dto.RequestDTO, error)
	CompleteRequest(ctx context.Context, id uint64, payload dto.CompleteRequestDTO) (*dto.RequestDTO, error)
	UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) (*dto.RequestDTO, error)
	DeleteRequest(ctx context.Context, id uint64) error
	ExportRequests(ctx context.Context, filter dto.RequestFilter) ([]byte, error)
}

type MaintenanceRequestService struct {
	txManager     repositories.TxManagerInterface
	requestRepo   repositories.MaintenanceRequestRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	auditRepo     repositories.RequestAuditRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	bus           EventPublisher
	cacheCfg      config.CacheConfig
	logger        *zap.Logger
	now           func() time.Time
}

func NewMaintenanceRequestService(
	txManager repositories.TxManagerInterface,
	requestRepo repositories.MaintenanceRequestRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	auditRepo repositories.RequestAuditRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	bus EventPublisher,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) *MaintenanceRequestService {
	return &MaintenanceRequestService{
		txManager:     txManager,
		requestRepo:   requestRepo,
		equipmentRepo: equipmentRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		cacheRepo:     cacheRepo,
		bus:           bus,
		cacheCfg:      cacheCfg,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock подменяет источник времени (просрочка, отметки в журнале).
func (s *MaintenanceRequestService) WithClock(now func() time.Time) *MaintenanceRequestService {
	s.now = now
	return s
}

func requestNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("maintenance request not found")
	}
	return err
}

// ---------- Чтение ----------

// scopeFilter: техник с командой видит только заявки своей команды, его фильтр по команде игнорируется.
func (s *MaintenanceRequestService) scopeFilter(actor authz.Actor, filter dto.RequestFilter) dto.RequestFilter {
	if teamID := actor.TeamScope(); teamID != nil {
		filter.TeamID = teamID
	}
	if filter.Overdue {
		before := s.now().Add(-constants.OverdueAfter)
		filter.CreatedBefore = &before
	}
	return filter
}

func (s *MaintenanceRequestService) GetRequests(ctx context.Context, filter dto.RequestFilter) ([]dto.RequestDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.GetRequests(ctx, s.scopeFilter(actor, filter))
	if err != nil {
		s.logger.Error("Ошибка при получении списка заявок", zap.Error(err))
		return nil, err
	}
	result := toRequestDTOs(requests, s.now())
	SortRequests(result)
	return result, nil
}

func (s *MaintenanceRequestService) GetKanban(ctx context.Context) (dto.KanbanDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.GetRequests(ctx, s.scopeFilter(actor, dto.RequestFilter{}))
	if err != nil {
		s.logger.Error("Ошибка при получении заявок для канбана", zap.Error(err))
		return nil, err
	}
	return GroupKanban(requests, s.now()), nil
}

// GetCalendar возвращает плановые работы в диапазоне [start, end]; границы включительно.
func (s *MaintenanceRequestService) GetCalendar(ctx context.Context, start, end *time.Time) ([]dto.CalendarEventDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter := s.scopeFilter(actor, dto.RequestFilter{
		ScheduledOnly: true,
		ScheduledFrom: start,
		ScheduledTo:   end,
	})
	requests, err := s.requestRepo.GetRequests(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка при получении календаря", zap.Error(err))
		return nil, err
	}
	return ToCalendarEvents(requests), nil
}

// GetStats кеширует результат в Redis на Cache.StatsTTL для каждой области видимости.
func (s *MaintenanceRequestService) GetStats(ctx context.Context) (*dto.RequestStatsDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	teamID := actor.TeamScope()
	scope := "all"
	if teamID != nil {
		scope = fmt.Sprintf("team:%d", *teamID)
	}
	cacheKey := fmt.Sprintf(constants.CacheKeyRequestStats, scope)

	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil {
		var stats dto.RequestStatsDTO
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
		s.logger.Warn("Повреждённый кеш статистики", zap.String("key", cacheKey))
	}

	stats, err := s.requestRepo.GetStats(ctx, teamID, s.now().Add(-constants.OverdueAfter))
	if err != nil {
		s.logger.Error("Ошибка при подсчёте статистики заявок", zap.Error(err))
		return nil, err
	}
	if payload, err := json.Marshal(stats); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, payload, s.cacheCfg.StatsTTL); err != nil {
			s.logger.Warn("Не удалось сохранить статистику в кеш", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *MaintenanceRequestService) FindRequest(ctx context.Context, id uint64) (*dto.RequestDetailsDTO, error) {
	request, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, requestNotFound(err)
	}
	trail, err := s.auditRepo.FindByRequestID(ctx, id)
	if err != nil {
		s.logger.Error("Ошибка при получении журнала заявки", zap.Uint64("requestID", id), zap.Error(err))
		return nil, err
	}
	return &dto.RequestDetailsDTO{
		RequestDTO: toRequestDTO(*request, s.now()),
		AuditTrail: trail,
	}, nil
}

// ---------- Изменение ----------

func (s *MaintenanceRequestService) CreateRequest(ctx context.Context, payload dto.CreateRequestDTO) (*dto.RequestDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(payload.Subject)
	if subject == "" || payload.Type == "" || payload.EquipmentID == 0 {
		return nil, apperrors.NewInvalidInputError("subject, type, and equipment are required")
	}
	requestType := constants.RequestType(payload.Type)
	if !requestType.IsValid() {
		return nil, apperrors.NewInvalidInputError("type must be CORRECTIVE or PREVENTIVE")
	}
	if err := authz.CanCreateRequest(actor, requestType).Err(); err != nil {
		return nil, err
	}
	if requestType == constants.TypePreventive && !payload.ScheduledDate.Valid {
		return nil, apperrors.NewInvalidInputError("preventive maintenance requires a scheduled date")
	}
	priority := constants.DefaultPriority
	if payload.Priority.Valid {
		if !constants.IsValidPriority(payload.Priority.Int) {
			return nil, apperrors.NewInvalidInputError("priority must be between 1 and 4")
		}
		priority = payload.Priority.Int
	}

	var requestID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		equipment, err := s.equipmentRepo.FindEquipmentInTx(ctx, tx, payload.EquipmentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("equipment not found")
			}
			return err
		}
		if equipment.IsScrapped {
			return apperrors.NewConflictError("cannot create maintenance request for scrapped equipment")
		}
		if payload.TechnicianID.Valid {
			if err := s.ensureTechnicianInTeam(ctx, tx, payload.TechnicianID.Uint64, equipment.TeamID,
				"technician must be a member of the equipment's maintenance team"); err != nil {
				return err
			}
		}

		// команда всегда берётся из оборудования
		request := &entities.MaintenanceRequest{
			Subject:       subject,
			Description:   utils.StringPtr(payload.Description),
			Type:          requestType,
			Priority:      priority,
			Stage:         constants.StageNew,
			EquipmentID:   equipment.ID,
			TeamID:        equipment.TeamID,
			CreatedByID:   actor.ID,
			TechnicianID:  utils.Uint64Ptr(payload.TechnicianID),
			ScheduledDate: utils.TimePtr(payload.ScheduledDate),
		}
		requestID, err = s.requestRepo.CreateRequestInTx(ctx, tx, request)
		return err
	})
	if err != nil {
		s.logger.Warn("Не удалось создать заявку", zap.Uint64("actorID", actor.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Заявка создана", zap.Uint64("requestID", requestID), zap.Uint64("actorID", actor.ID))
	return s.afterCommit(ctx, actor, requestID, events.ActionCreated)
}

// SetStage переводит открытую заявку на любой этап. Переход в SCRAP списывает оборудование
// и пишет строку в журнал, даже если заявка уже была в SCRAP.
func (s *MaintenanceRequestService) SetStage(ctx context.Context, id uint64, stage constants.RequestStage) (*dto.RequestDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !stage.IsValid() {
		return nil, apperrors.NewInvalidInputError("invalid stage")
	}

	var equipmentID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		request, err := s.requestRepo.FindRequestForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if err := authz.CanSetStage(actor, request).Err(); err != nil {
			return err
		}
		// из REPAIRED и SCRAP уйти нельзя, повтор того же этапа допустим
		if request.Stage.IsTerminal() && stage != request.Stage {
			return apperrors.NewConflictError(fmt.Sprintf("cannot move request from %s to %s", request.Stage, stage))
		}

		if stage == constants.StageScrap {
			if err := s.equipmentRepo.MarkScrappedInTx(ctx, tx, request.EquipmentID); err != nil {
				return fmt.Errorf("не удалось списать оборудование %d: %w", request.EquipmentID, err)
			}
			if err := s.appendNote(ctx, tx, request, actor, "Equipment marked as scrapped by "+actor.Name); err != nil {
				return err
			}
			equipmentID = request.EquipmentID
		}
		request.Stage = stage
		return s.requestRepo.UpdateRequestInTx(ctx, tx, request)
	})
	if err != nil {
		s.logger.Warn("Не удалось сменить этап заявки", zap.Uint64("requestID", id), zap.String("stage", string(stage)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Этап заявки изменён", zap.Uint64("requestID", id), zap.String("stage", string(stage)))
	if equipmentID != 0 {
		s.publish(ctx, events.EquipmentScrappedEvent{EquipmentID: equipmentID, RequestID: id, ActorID: actor.ID})
	}
	return s.afterCommit(ctx, actor, id, events.ActionStage)
}

// AssignTechnician назначает или снимает (technicianID == nil) исполнителя.
// Назначение на заявку в NEW переводит её в IN_PROGRESS; снятие этап не меняет.
func (s *MaintenanceRequestService) AssignTechnician(ctx context.Context, id uint64, technicianID *uint64) (*dto.RequestDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		request, err := s.requestRepo.FindRequestForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if err := authz.CanAssignTechnician(actor, request, technicianID).Err(); err != nil {
			return err
		}
		if technicianID != nil {
			if err := s.ensureTechnicianInTeam(ctx, tx, *technicianID, request.TeamID,
				"technician must be a member of the assigned maintenance team"); err != nil {
				return err
			}
			if request.Stage == constants.StageNew {
				request.Stage = constants.StageInProgress
			}
		}
		request.TechnicianID = technicianID
		return s.requestRepo.UpdateRequestInTx(ctx, tx, request)
	})
	if err != nil {
		s.logger.Warn("Не удалось назначить исполнителя", zap.Uint64("requestID", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Исполнитель заявки изменён", zap.Uint64("requestID", id), zap.Any("technicianID", technicianID))
	return s.afterCommit(ctx, actor, id, events.ActionAssigned)
}

// CompleteRequest переводит заявку в REPAIRED. Для уже завершённой заявки обновляет
// длительность и заметки; списанную завершить нельзя.
func (s *MaintenanceRequestService) CompleteRequest(ctx context.Context, id uint64, payload dto.CompleteRequestDTO) (*dto.RequestDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		request, err := s.requestRepo.FindRequestForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if err := authz.CanComplete(actor, request).Err(); err != nil {
			return err
		}
		if request.Stage == constants.StageScrap {
			return apperrors.NewConflictError("cannot complete a scrapped request")
		}
		if payload.Duration.Valid {
			if payload.Duration.Float64 < 0 {
				return apperrors.NewInvalidInputError("duration must not be negative")
			}
			request.Duration = utils.ToPtr(payload.Duration.Float64)
		}
		if payload.Notes.Valid && strings.TrimSpace(payload.Notes.String) != "" {
			if err := s.appendNote(ctx, tx, request, actor, strings.TrimSpace(payload.Notes.String)); err != nil {
				return err
			}
		}
		request.Stage = constants.StageRepaired
		return s.requestRepo.UpdateRequestInTx(ctx, tx, request)
	})
	if err != nil {
		s.logger.Warn("Не удалось завершить заявку", zap.Uint64("requestID", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Заявка завершена", zap.Uint64("requestID", id), zap.Uint64("actorID", actor.ID))
	return s.afterCommit(ctx, actor, id, events.ActionCompleted)
}

// UpdateRequest меняет только переданные поля. description и scheduledDate можно очистить через null.
func (s *MaintenanceRequestService) UpdateRequest(ctx context.Context, id uint64, payload dto.UpdateRequestDTO) (*dto.RequestDTO, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		request, err := s.requestRepo.FindRequestForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if err := authz.CanUpdateDetails(actor, request).Err(); err != nil {
			return err
		}
		if request.Stage.IsTerminal() {
			return apperrors.NewConflictError("cannot update completed or scrapped requests")
		}

		if payload.Has("subject") && payload.Subject.Valid {
			subject := strings.TrimSpace(payload.Subject.String)
			if subject == "" {
				return apperrors.NewInvalidInputError("subject must not be empty")
			}
			request.Subject = subject
		}
		if payload.Has("description") {
			request.Description = utils.StringPtr(payload.Description)
		}
		if payload.Has("priority") && payload.Priority.Valid {
			if !constants.IsValidPriority(payload.Priority.Int) {
				return apperrors.NewInvalidInputError("priority must be between 1 and 4")
			}
			request.Priority = payload.Priority.Int
		}
		if payload.Has("scheduledDate") {
			if !payload.ScheduledDate.Valid && request.Type == constants.TypePreventive {
				return apperrors.NewInvalidInputError("preventive maintenance requires a scheduled date")
			}
			request.ScheduledDate = utils.TimePtr(payload.ScheduledDate)
		}
		return s.requestRepo.UpdateRequestInTx(ctx, tx, request)
	})
	if err != nil {
		s.logger.Warn("Не удалось обновить заявку", zap.Uint64("requestID", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Заявка обновлена", zap.Uint64("requestID", id))
	return s.afterCommit(ctx, actor, id, events.ActionUpdated)
}

// DeleteRequest: только менеджер и только заявки в NEW.
func (s *MaintenanceRequestService) DeleteRequest(ctx context.Context, id uint64) error {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return err
	}

	var deleted *entities.MaintenanceRequest
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		request, err := s.requestRepo.FindRequestForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if err := authz.CanDeleteRequest(actor, request).Err(); err != nil {
			return err
		}
		if request.Stage != constants.StageNew {
			return apperrors.NewConflictError("can only delete requests in NEW stage")
		}
		if err := s.requestRepo.DeleteRequestInTx(ctx, tx, id); err != nil {
			return err
		}
		deleted = request
		return nil
	})
	if err != nil {
		s.logger.Warn("Не удалось удалить заявку", zap.Uint64("requestID", id), zap.Error(err))
		return err
	}

	s.logger.Info("Заявка удалена", zap.Uint64("requestID", id), zap.Uint64("actorID", actor.ID))
	s.publish(ctx, events.RequestChangedEvent{Action: events.ActionDeleted, Request: *deleted, ActorID: actor.ID})
	return nil
}

// ---------- Вспомогательное ----------

func (s *MaintenanceRequestService) ensureTechnicianInTeam(ctx context.Context, tx pgx.Tx, userID, teamID uint64, message string) error {
	if _, err := s.userRepo.FindTechnicianInTeam(ctx, tx, userID, teamID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewInvalidInputError("%s", message)
		}
		return err
	}
	return nil
}

// appendNote дописывает строку в заметки заявки и сохраняет ту же запись в журнал.
func (s *MaintenanceRequestService) appendNote(ctx context.Context, tx pgx.Tx, request *entities.MaintenanceRequest, actor authz.Actor, message string) error {
	at := s.now().UTC()
	notes := AppendNote(request.Notes, RenderNoteLine(at, message))
	request.Notes = &notes
	entry := &entities.RequestAuditEntry{
		RequestID: request.ID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Message:   message,
		CreatedAt: at,
	}
	if err := s.auditRepo.CreateInTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("не удалось записать журнал заявки %d: %w", request.ID, err)
	}
	return nil
}

// afterCommit перечитывает заявку со связанными данными и публикует событие.
func (s *MaintenanceRequestService) afterCommit(ctx context.Context, actor authz.Actor, id uint64, action string) (*dto.RequestDTO, error) {
	request, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		s.logger.Error("Не удалось перечитать заявку после изменения", zap.Uint64("requestID", id), zap.Error(err))
		return nil, requestNotFound(err)
	}
	s.publish(ctx, events.RequestChangedEvent{Action: action, Request: *request, ActorID: actor.ID})
	result := toRequestDTO(*request, s.now())
	return &result, nil
}

func (s *MaintenanceRequestService) publish(ctx context.Context, event eventbus.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}
