package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/models"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
	"github.com/noah-isme/school-roster/pkg/export"
	"github.com/noah-isme/school-roster/pkg/storage"
)

const (
	// CalendarFileName is the name of the written calendar under the exports directory.
	CalendarFileName = "school_calendar.txt"

	calendarCachePattern = "calendar:*"
	calendarTimeLayout   = "2006-01-02 15:04:05"
)

// Calendar export formats.
const (
	CalendarFormatText = "text"
	CalendarFormatCSV  = "csv"
	CalendarFormatPDF  = "pdf"
)

// CalendarExport is a rendered calendar document.
type CalendarExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// RenderCalendar renders every classroom schedule as plain text. Classrooms
// are ordered by name and slots by label; only the Generated On line depends
// on generatedAt.
func RenderCalendar(classrooms []models.Classroom, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString("--- School Calendar ---\n")
	fmt.Fprintf(&b, "Generated On: %s\n\n", generatedAt.Format(calendarTimeLayout))

	if len(classrooms) == 0 {
		b.WriteString("No classroom schedules defined.\n")
		return b.String()
	}

	for _, room := range sortClassrooms(classrooms) {
		fmt.Fprintf(&b, "=== Classroom: %s ===\n", room.Name)
		slots := sortedSlots(room.Schedule)
		if len(slots) == 0 {
			b.WriteString("  No schedule for this classroom.\n")
		}
		for _, slot := range slots {
			fmt.Fprintf(&b, "  %s: %s\n", slot, room.Schedule[slot])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CalendarDataset flattens the schedules into one row per booked slot.
func CalendarDataset(classrooms []models.Classroom) export.Dataset {
	data := export.Dataset{Headers: []string{"Classroom", "Slot", "Course"}}
	for _, room := range sortClassrooms(classrooms) {
		for _, slot := range sortedSlots(room.Schedule) {
			data.Rows = append(data.Rows, []string{room.Name, slot, room.Schedule[slot]})
		}
	}
	return data
}

func sortClassrooms(classrooms []models.Classroom) []models.Classroom {
	sorted := append([]models.Classroom{}, classrooms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name == sorted[j].Name {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

func sortedSlots(schedule models.Schedule) []string {
	slots := make([]string, 0, len(schedule))
	for slot := range schedule {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	return slots
}

// CalendarService renders, exports and writes the school calendar.
type CalendarService struct {
	roster  *RosterService
	cache   *CacheService
	files   *storage.LocalStorage
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
	version atomic.Int64
}

// NewCalendarService wires the calendar over the roster. Cached exports are
// keyed by a version that moves whenever classrooms or schedules change. The
// version restarts at zero, so exports cached by an earlier process are
// dropped here.
func NewCalendarService(roster *RosterService, cache *CacheService, files *storage.LocalStorage, ttl time.Duration, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CalendarService{
		roster: roster,
		cache:  cache,
		files:  files,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	_ = cache.Invalidate(context.Background(), calendarCachePattern)
	roster.Subscribe(s.onRosterChange)
	return s
}

// WithClock replaces the time source; used by tests.
func (s *CalendarService) WithClock(now func() time.Time) *CalendarService {
	s.now = now
	return s
}

func (s *CalendarService) onRosterChange(kind ChangeKind) {
	switch kind {
	case ChangeClassrooms, ChangeSchedule, ChangeLoad:
		s.version.Add(1)
		_ = s.cache.Invalidate(context.Background(), calendarCachePattern)
	}
}

// Render returns the plain-text calendar.
func (s *CalendarService) Render(ctx context.Context) (string, error) {
	return RenderCalendar(s.roster.ListClassrooms(), s.now()), nil
}

// Export renders the calendar in the requested format, serving csv and pdf
// from cache when possible.
func (s *CalendarService) Export(ctx context.Context, format string) (*CalendarExport, error) {
	switch format {
	case "", CalendarFormatText:
		text, err := s.Render(ctx)
		if err != nil {
			return nil, err
		}
		return &CalendarExport{Filename: CalendarFileName, ContentType: "text/plain; charset=utf-8", Content: []byte(text)}, nil
	case CalendarFormatCSV, CalendarFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported calendar format %q", format))
	}

	key := fmt.Sprintf("calendar:v%d:%s", s.version.Load(), format)
	out := &CalendarExport{Filename: "school_calendar." + format, ContentType: "text/csv"}
	if format == CalendarFormatPDF {
		out.ContentType = "application/pdf"
	}
	if cached, ok := s.cache.Get(ctx, key); ok {
		out.Content = cached
		return out, nil
	}

	classrooms := s.roster.ListClassrooms()
	var (
		content []byte
		err     error
	)
	if format == CalendarFormatCSV {
		content, err = s.csv.Render(CalendarDataset(classrooms))
	} else {
		content, err = s.pdf.Render(CalendarDataset(classrooms), "School Calendar")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	_ = s.cache.Set(ctx, key, content, s.ttl)
	out.Content = content
	return out, nil
}

// WriteFile stores the text calendar under the exports directory and returns its path.
func (s *CalendarService) WriteFile(ctx context.Context) (string, error) {
	text, err := s.Render(ctx)
	if err != nil {
		return "", err
	}
	if _, err := s.files.Save(CalendarFileName, []byte(text)); err != nil {
		s.logger.Error("failed to write calendar", zap.Error(err))
		return "", appErrors.Persistence(err, "failed to write calendar file")
	}
	return s.files.Path(CalendarFileName), nil
}
