package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gearguard/internal/dto"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
)

func TestEquipmentLifecycle(t *testing.T) {
	f := newRequestFixture(t)
	svc := NewEquipmentService(f.store, f.store, f.store, zap.NewNop())
	ctx := as(f.manager)

	created, err := svc.CreateEquipment(ctx, dto.CreateEquipmentDTO{
		Name:         "Lathe",
		SerialNumber: "LT-001",
		Department:   "Workshop",
		Location:     "Hall B",
		PurchaseDate: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		TeamID:       f.mechanics,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lathe", created.Name)
	assert.Nil(t, created.AssignedEmployee)

	_, err = svc.CreateEquipment(ctx, dto.CreateEquipmentDTO{
		Name: "Lathe 2", SerialNumber: "LT-001", Department: "Workshop", Location: "Hall B",
		PurchaseDate: time.Now(), TeamID: f.mechanics,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	updated, err := svc.UpdateEquipment(ctx, created.ID, dto.UpdateEquipmentDTO{
		AssignedEmployee: null.StringFrom("John"),
		TeamID:           null.Uint64From(f.electrical),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedEmployee)
	assert.Equal(t, "John", *updated.AssignedEmployee)
	assert.Equal(t, f.electrical, updated.TeamID)

	// явный null очищает сотрудника
	updated, err = svc.UpdateEquipment(ctx, created.ID, dto.UpdateEquipmentDTO{
		Fields: map[string]bool{"assignedEmployee": true},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedEmployee)

	require.NoError(t, svc.DeleteEquipment(ctx, created.ID))
	_, err = svc.FindEquipment(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "equipment not found", err.Error())
}

func TestCreateEquipmentValidation(t *testing.T) {
	f := newRequestFixture(t)
	svc := NewEquipmentService(f.store, f.store, f.store, zap.NewNop())

	_, err := svc.CreateEquipment(as(f.manager), dto.CreateEquipmentDTO{Name: "Lathe"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateEquipment(as(f.manager), dto.CreateEquipmentDTO{
		Name: "Lathe", SerialNumber: "X", Department: "D", Location: "L",
		PurchaseDate: time.Now(), TeamID: 404,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.CreateEquipment(as(f.mike), dto.CreateEquipmentDTO{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestEquipmentWithHistory(t *testing.T) {
	f := newRequestFixture(t)
	svc := NewEquipmentService(f.store, f.store, f.store, zap.NewNop())
	req := f.corrective(t, f.cnc)

	details, err := svc.FindEquipment(context.Background(), f.cnc)
	require.NoError(t, err)
	require.Len(t, details.RecentRequests, 1)
	assert.Equal(t, req.ID, details.RecentRequests[0].ID)

	err = svc.DeleteEquipment(as(f.manager), f.cnc)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.service.SetStage(as(f.manager), req.ID, constants.StageScrap)
	require.NoError(t, err)
	_, err = svc.UpdateEquipment(as(f.manager), f.cnc, dto.UpdateEquipmentDTO{Name: null.StringFrom("Renamed")})
	require.Error(t, err)
	assert.Equal(t, "cannot update scrapped equipment", err.Error())
}

func TestGetDepartments(t *testing.T) {
	f := newRequestFixture(t)
	svc := NewEquipmentService(f.store, f.store, f.store, zap.NewNop())
	departments, err := svc.GetDepartments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Production"}, departments)
}
