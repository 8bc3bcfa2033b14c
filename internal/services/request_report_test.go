package services

import (
	"bytes"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gearguard/internal/dto"
	apperrors "gearguard/pkg/errors"
)

func TestExportRequests(t *testing.T) {
	f := newRequestFixture(t)
	low := f.corrective(t, f.cnc)
	f.create(t, f.bob, dto.CreateRequestDTO{Subject: "Smoke", Type: "CORRECTIVE", EquipmentID: f.printer, Priority: null.IntFrom(4)})
	_, err := f.service.CompleteRequest(as(f.manager), low.ID, dto.CompleteRequestDTO{Duration: null.Float64From(1.5)})
	require.NoError(t, err)

	content, err := f.service.ExportRequests(as(f.manager), dto.RequestFilter{})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Overdue", rows[0][11])

	assert.Equal(t, "Smoke", rows[1][1])
	assert.Equal(t, "4", rows[1][4])
	assert.Equal(t, "Printer", rows[1][5])
	assert.Equal(t, "Electricians", rows[1][6])

	assert.Equal(t, "REPAIRED", rows[2][3])
	assert.Equal(t, "1.50", rows[2][9])
	assert.Equal(t, "no", rows[2][11])
}

func TestExportRequestsManagerOnly(t *testing.T) {
	f := newRequestFixture(t)
	_, err := f.service.ExportRequests(as(f.mike), dto.RequestFilter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
