package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster/internal/models"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
	"github.com/noah-isme/school-roster/pkg/storage"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	cleared []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = payload
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

var fixedClock = func() time.Time { return time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC) }

func TestRenderCalendar(t *testing.T) {
	classrooms := []models.Classroom{
		{ID: 2, Name: "Room B", Schedule: models.Schedule{}},
		{ID: 1, Name: "Room A", Schedule: models.Schedule{"Tuesday 10:00": "Art", "Monday 09:00": "Math"}},
	}

	got := RenderCalendar(classrooms, fixedClock())
	want := "--- School Calendar ---\n" +
		"Generated On: 2024-01-10 08:30:00\n\n" +
		"=== Classroom: Room A ===\n" +
		"  Monday 09:00: Math\n" +
		"  Tuesday 10:00: Art\n\n" +
		"=== Classroom: Room B ===\n" +
		"  No schedule for this classroom.\n\n"
	assert.Equal(t, want, got)

	reversed := []models.Classroom{classrooms[1], classrooms[0]}
	assert.Equal(t, got, RenderCalendar(reversed, fixedClock()))
}

func TestRenderCalendarEmpty(t *testing.T) {
	got := RenderCalendar(nil, fixedClock())
	assert.True(t, strings.HasSuffix(got, "No classroom schedules defined.\n"))
}

func newCalendarFixture(t *testing.T) (*RosterService, *CalendarService, *memoryCache) {
	t.Helper()
	roster := newDocumentRoster(t, t.TempDir())
	exports, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mem := newMemoryCache()
	cache := NewCacheService(mem, NewMetricsService(), time.Minute, nil, true)
	calendar := NewCalendarService(roster, cache, exports, time.Minute, nil).WithClock(fixedClock)
	return roster, calendar, mem
}

func TestCalendarExportCSVUsesCache(t *testing.T) {
	ctx := context.Background()
	roster, calendar, mem := newCalendarFixture(t)
	room := mustClassroom(t, roster, "Room A", 20)
	math := mustCourse(t, roster, "Math")
	require.NoError(t, roster.SetScheduleSlot(ctx, room.ID, math.ID, "Monday 09:00"))

	first, err := calendar.Export(ctx, CalendarFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", first.ContentType)
	assert.Equal(t, "Classroom,Slot,Course\nRoom A,Monday 09:00,Math\n", string(first.Content))
	assert.Len(t, mem.entries, 1)

	second, err := calendar.Export(ctx, CalendarFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)

	require.NoError(t, roster.SetScheduleSlot(ctx, room.ID, math.ID, "Friday 14:00"))
	assert.Empty(t, mem.entries)
	third, err := calendar.Export(ctx, CalendarFormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(third.Content), "Friday 14:00")
}

func TestNewCalendarServiceDropsExportsFromEarlierRuns(t *testing.T) {
	ctx := context.Background()
	roster := newDocumentRoster(t, t.TempDir())
	room := mustClassroom(t, roster, "Room A", 20)
	math := mustCourse(t, roster, "Math")
	require.NoError(t, roster.SetScheduleSlot(ctx, room.ID, math.ID, "Monday 09:00"))

	mem := newMemoryCache()
	mem.entries["calendar:v0:csv"] = []byte("Classroom,Slot,Course\nOld Room,Sunday 08:00,Stale\n")
	exports, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	cache := NewCacheService(mem, NewMetricsService(), time.Minute, nil, true)
	calendar := NewCalendarService(roster, cache, exports, time.Minute, nil)

	assert.Equal(t, []string{calendarCachePattern}, mem.cleared)
	got, err := calendar.Export(ctx, CalendarFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Classroom,Slot,Course\nRoom A,Monday 09:00,Math\n", string(got.Content))
}

func TestCalendarExportPDFAndUnknownFormat(t *testing.T) {
	_, calendar, _ := newCalendarFixture(t)

	pdf, err := calendar.Export(context.Background(), CalendarFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Content), "%PDF"))

	_, err = calendar.Export(context.Background(), "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCalendarWriteFile(t *testing.T) {
	roster, calendar, _ := newCalendarFixture(t)
	mustClassroom(t, roster, "Room A", 20)

	path, err := calendar.WriteFile(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, CalendarFileName))

	text, err := calendar.Export(context.Background(), CalendarFormatText)
	require.NoError(t, err)
	assert.Contains(t, string(text.Content), "=== Classroom: Room A ===")
}
