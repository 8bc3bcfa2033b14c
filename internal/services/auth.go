package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/config"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/service"
	"gearguard/pkg/utils"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error)
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.AuthResponseDTO, error)
	Me(ctx context.Context) (*entities.User, error)
	UpdateProfile(ctx context.Context, payload dto.UpdateProfileDTO) (*entities.User, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
	cfg        config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
	cfg config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		logger:     logger,
		cfg:        cfg,
	}
}

// Register всегда создаёт пользователя с ролью USER; роли раздаёт менеджер.
func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	name := strings.TrimSpace(payload.Name)
	if email == "" || payload.Password == "" || name == "" {
		return nil, apperrors.NewInvalidInputError("email, password, and name are required")
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}
	avatar := fmt.Sprintf(constants.AvatarURLTemplate, name)

	user, err := s.userRepo.CreateUser(ctx, entities.User{
		Email:    email,
		Password: hash,
		Name:     name,
		Avatar:   &avatar,
		Role:     constants.RoleUser,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error("Ошибка при регистрации", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Пользователь зарегистрирован", zap.Uint64("userID", user.ID))
	return s.issueTokens(user)
}

// Login считает неудачные попытки в Redis. После MaxLoginAttempts вход блокируется на LockoutDuration.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || payload.Password == "" {
		return nil, apperrors.NewInvalidInputError("email and password are required")
	}
	logger := s.logger.With(zap.String("email", email))

	lockoutKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, email)
	attemptsStr, _ := s.cacheRepo.Get(ctx, lockoutKey)
	if attempts, _ := strconv.Atoi(attemptsStr); s.cfg.MaxLoginAttempts > 0 && attempts >= s.cfg.MaxLoginAttempts {
		logger.Warn("Вход заблокирован: слишком много попыток")
		return nil, apperrors.NewTooManyRequestsError("too many login attempts, try again in %d minutes", int(s.cfg.LockoutDuration.Minutes()))
	}

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Ошибка поиска пользователя при входе", zap.Error(err))
		return nil, err
	}
	if user == nil || utils.ComparePasswords(user.Password, payload.Password) != nil {
		s.registerFailedAttempt(ctx, lockoutKey)
		logger.Warn("Неудачная попытка входа")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.cacheRepo.Del(ctx, lockoutKey); err != nil {
		logger.Warn("Не удалось сбросить счётчик попыток", zap.Error(err))
	}
	logger.Info("Успешный вход", zap.Uint64("userID", user.ID))
	return s.issueTokens(user)
}

func (s *AuthService) registerFailedAttempt(ctx context.Context, key string) {
	attempts, err := s.cacheRepo.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("Не удалось увеличить счётчик попыток", zap.Error(err))
		return
	}
	if attempts == 1 {
		if _, err := s.cacheRepo.Expire(ctx, key, s.cfg.LockoutDuration); err != nil {
			s.logger.Warn("Не удалось выставить TTL счётчика попыток", zap.Error(err))
		}
	}
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.AuthResponseDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}
	user, err := s.userRepo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewUnauthorizedError("user not found")
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *AuthService) Me(ctx context.Context) (*entities.User, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, payload dto.UpdateProfileDTO) (*entities.User, error) {
	actor, err := authz.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if payload.Has("name") && payload.Name.Valid {
		payload.Name.String = strings.TrimSpace(payload.Name.String)
		if payload.Name.String == "" {
			return nil, apperrors.NewInvalidInputError("name must not be empty")
		}
	}
	user, err := s.userRepo.UpdateProfile(ctx, actor.ID, payload)
	if err != nil {
		s.logger.Error("Ошибка при обновлении профиля", zap.Uint64("userID", actor.ID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *entities.User) (*dto.AuthResponseDTO, error) {
	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		s.logger.Error("Не удалось сгенерировать токены", zap.Uint64("userID", user.ID), zap.Error(err))
		return nil, err
	}
	return &dto.AuthResponseDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	}, nil
}
