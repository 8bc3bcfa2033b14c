package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/pkg/config"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/service"
)

var authCfg = config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute}

func newAuthFixture() (*memStore, service.JWTService, AuthServiceInterface) {
	store := newMemStore(time.Now)
	jwtService := service.NewJWTService("test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
	return store, jwtService, NewAuthService(store, store, jwtService, zap.NewNop(), authCfg)
}

func TestRegisterAndLogin(t *testing.T) {
	store, jwtService, auth := newAuthFixture()
	ctx := context.Background()

	registered, err := auth.Register(ctx, dto.RegisterDTO{Email: " Bob@Plant.io ", Password: "secret1", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob@plant.io", registered.User.Email)
	assert.Equal(t, constants.RoleUser, registered.User.Role)
	require.NotNil(t, registered.User.Avatar)
	assert.Contains(t, *registered.User.Avatar, "seed=Bob")
	assert.NotEqual(t, "secret1", store.users[registered.User.ID].Password)

	claims, err := jwtService.ValidateToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.False(t, claims.IsRefreshToken)

	_, err = auth.Register(ctx, dto.RegisterDTO{Email: "bob@plant.io", Password: "other1", Name: "Bob 2"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	loggedIn, err := auth.Login(ctx, dto.LoginDTO{Email: "BOB@plant.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = auth.Login(ctx, dto.LoginDTO{Email: "bob@plant.io", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = auth.Login(ctx, dto.LoginDTO{Email: "nobody@plant.io", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRegisterRequiresFields(t *testing.T) {
	_, _, auth := newAuthFixture()
	_, err := auth.Register(context.Background(), dto.RegisterDTO{Email: "a@b.io", Password: "secret1", Name: "  "})
	require.Error(t, err)
	assert.Equal(t, "email, password, and name are required", err.Error())
}

func TestLoginLockout(t *testing.T) {
	store, _, auth := newAuthFixture()
	ctx := context.Background()
	_, err := auth.Register(ctx, dto.RegisterDTO{Email: "mike@plant.io", Password: "secret1", Name: "Mike"})
	require.NoError(t, err)

	for i := 0; i < authCfg.MaxLoginAttempts; i++ {
		_, err := auth.Login(ctx, dto.LoginDTO{Email: "mike@plant.io", Password: "bad"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	// даже верный пароль не помогает, пока действует блокировка
	_, err = auth.Login(ctx, dto.LoginDTO{Email: "mike@plant.io", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)

	require.NoError(t, store.Del(ctx, "login_attempts:mike@plant.io"))
	_, err = auth.Login(ctx, dto.LoginDTO{Email: "mike@plant.io", Password: "secret1"})
	assert.NoError(t, err)
}

func TestLoginSetsLockoutTTLOnFirstFailure(t *testing.T) {
	store := newMemStore(time.Now)
	cache := new(cacheRepositoryMock)
	jwtService := service.NewJWTService("test-secret", time.Minute, time.Hour, zap.NewNop())
	auth := NewAuthService(store, cache, jwtService, zap.NewNop(), authCfg)
	key := "login_attempts:ghost@plant.io"

	cache.On("Get", mock.Anything, key).Return("", errors.New("miss")).Twice()
	cache.On("Incr", mock.Anything, key).Return(int64(1), nil).Once()
	cache.On("Incr", mock.Anything, key).Return(int64(2), nil).Once()
	cache.On("Expire", mock.Anything, key, authCfg.LockoutDuration).Return(true, nil).Once()

	for i := 0; i < 2; i++ {
		_, err := auth.Login(context.Background(), dto.LoginDTO{Email: "ghost@plant.io", Password: "x"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	cache.AssertExpectations(t)
	cache.AssertNumberOfCalls(t, "Expire", 1)
}

func TestRefresh(t *testing.T) {
	_, _, auth := newAuthFixture()
	ctx := context.Background()
	registered, err := auth.Register(ctx, dto.RegisterDTO{Email: "emma@plant.io", Password: "secret1", Name: "Emma"})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, dto.RefreshTokenDTO{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = auth.Refresh(ctx, dto.RefreshTokenDTO{RefreshToken: registered.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)

	_, err = auth.Refresh(ctx, dto.RefreshTokenDTO{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestMeAndUpdateProfile(t *testing.T) {
	store, _, auth := newAuthFixture()
	actor := store.addUser("Tom", constants.RoleTechnician, nil)
	ctx := authz.WithActor(context.Background(), actor)

	me, err := auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tom", me.Name)

	updated, err := auth.UpdateProfile(ctx, dto.UpdateProfileDTO{
		Name:   null.StringFrom(" Tommy "),
		Fields: map[string]bool{"name": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tommy", updated.Name)

	_, err = auth.UpdateProfile(ctx, dto.UpdateProfileDTO{Name: null.StringFrom(" ")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = auth.Me(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrActorNotFoundInContext)
}
