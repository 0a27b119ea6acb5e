package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-roster/pkg/errors"
	"github.com/noah-isme/school-roster/pkg/storage"
)

func TestSupplyCheckIssuesOrderOnShortfall(t *testing.T) {
	roster := newDocumentRoster(t, t.TempDir())
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	supply := NewSupplyService(roster, files, nil).WithClock(fixedClock)
	room := mustClassroom(t, roster, "Room A", 20)

	result, err := supply.Check(context.Background(), room.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Shortfall)
	require.NotNil(t, result.Order)
	assert.Equal(t, "supplier_order_Room_A_10-01-2024.txt", result.Order.TextFile)
	assert.Equal(t, 5, result.Order.Quantity)
	assert.NotEmpty(t, result.Order.Reference)

	text, err := files.Read(result.Order.TextFile)
	require.NoError(t, err)
	assert.Contains(t, string(text), "We kindly request the supply of 5 additional chairs for classroom 'Room A'.")
	pdf, err := files.Read(result.Order.PDFFile)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}

func TestSupplyCheckWithoutShortfall(t *testing.T) {
	roster := newDocumentRoster(t, t.TempDir())
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	supply := NewSupplyService(roster, files, nil).WithClock(fixedClock)
	room := mustClassroom(t, roster, "Room A", 20)

	result, err := supply.Check(context.Background(), room.ID, 20)
	require.NoError(t, err)
	assert.Zero(t, result.Shortfall)
	assert.Nil(t, result.Order)

	_, err = supply.Check(context.Background(), room.ID+10, 20)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
