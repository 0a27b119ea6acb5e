package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/dto"
	"github.com/noah-isme/school-roster/pkg/config"
)

func TestOpenRosterDocumentRoundTrip(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendDocument, DataDir: t.TempDir()}}
	ctx := context.Background()

	roster, closer, err := OpenRoster(ctx, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer closer() //nolint:errcheck
	assert.Equal(t, "document", roster.Backend())

	_, err = roster.CreateStudent(ctx, dto.CreateStudentRequest{Name: "Alice", LastName: "Smith", DateOfBirth: "2008-03-01"})
	require.NoError(t, err)
	require.NoError(t, roster.Save(ctx))

	reopened, _, err := OpenRoster(ctx, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, reopened.ListStudents(), 1)
	assert.Equal(t, "Alice", reopened.ListStudents()[0].Name)
}

func TestOpenBackendUnknown(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "sqlite"}}
	_, _, err := OpenBackend(context.Background(), cfg, nil, zap.NewNop())
	assert.ErrorContains(t, err, `unknown store backend "sqlite"`)
}
