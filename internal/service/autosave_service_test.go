package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster/internal/document"
	"github.com/noah-isme/school-roster/pkg/jobs"
	"github.com/noah-isme/school-roster/pkg/storage"
)

func TestAutosaveFlushesAfterMutation(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	roster := NewRosterService(document.NewBackend(files, nil), RosterOptions{}, nil, nil)

	autosave := NewAutosaveService(roster, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	autosave.Start(ctx)
	defer autosave.Stop()

	mustStudent(t, roster, "Alice", "Smith")

	assert.Eventually(t, func() bool {
		raw, err := files.Read(document.StudentsFile)
		return err == nil && len(raw) > 0 && string(raw) != "[]"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAutosaveIgnoresLoad(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	roster := NewRosterService(document.NewBackend(files, nil), RosterOptions{}, nil, nil)
	autosave := NewAutosaveService(roster, jobs.QueueConfig{Workers: 1}, nil, nil)
	autosave.Start(context.Background())
	defer autosave.Stop()

	_, err = roster.Load(context.Background())
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = files.Read(document.StudentsFile)
	assert.ErrorIs(t, err, storage.ErrNotExist)
}
