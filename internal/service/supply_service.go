package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/models"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
	"github.com/noah-isme/school-roster/pkg/export"
	"github.com/noah-isme/school-roster/pkg/storage"
)

const orderDateLayout = "02-01-2006"

// SupplyService compares classroom chairs against expected attendance and
// issues a supplier order when chairs are missing.
type SupplyService struct {
	roster *RosterService
	files  *storage.LocalStorage
	pdf    *export.PDFExporter
	logger *zap.Logger
	now    func() time.Time
}

// NewSupplyService constructs a supply service writing orders to files.
func NewSupplyService(roster *RosterService, files *storage.LocalStorage, logger *zap.Logger) *SupplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplyService{roster: roster, files: files, pdf: export.NewPDFExporter(), logger: logger, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *SupplyService) WithClock(now func() time.Time) *SupplyService {
	s.now = now
	return s
}

// Check reports the shortfall for the classroom and, when it is positive,
// writes the supplier order as text and PDF.
func (s *SupplyService) Check(ctx context.Context, classroomID int64, expected int) (*models.SupplyCheck, error) {
	classroom, err := s.roster.GetClassroom(classroomID)
	if err != nil {
		return nil, err
	}
	shortfall, err := s.roster.CheckCapacity(classroomID, expected)
	if err != nil {
		return nil, err
	}

	result := &models.SupplyCheck{
		ClassroomID:   classroom.ID,
		ClassroomName: classroom.Name,
		Expected:      expected,
		Capacity:      classroom.ChairCapacity,
		Shortfall:     shortfall,
	}
	if shortfall <= 0 {
		return result, nil
	}

	order, err := s.issueOrder(classroom.Name, shortfall)
	if err != nil {
		return nil, err
	}
	result.Order = order
	return result, nil
}

func (s *SupplyService) issueOrder(classroomName string, quantity int) (*models.SupplyOrder, error) {
	issued := s.now()
	date := issued.Format(orderDateLayout)
	base := fmt.Sprintf("supplier_order_%s_%s", strings.ReplaceAll(classroomName, " ", "_"), date)
	order := &models.SupplyOrder{
		Reference: uuid.NewString(),
		Quantity:  quantity,
		TextFile:  base + ".txt",
		PDFFile:   base + ".pdf",
		IssuedAt:  issued.UTC(),
	}

	lines := orderLetter(classroomName, quantity, date, order.Reference)
	if _, err := s.files.Save(order.TextFile, []byte(strings.Join(lines, "\n")+"\n")); err != nil {
		return nil, appErrors.Persistence(err, "failed to write supplier order")
	}
	pdf, err := s.pdf.RenderLetter("Supplier Order Form", lines[1:])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render supplier order")
	}
	if _, err := s.files.Save(order.PDFFile, pdf); err != nil {
		return nil, appErrors.Persistence(err, "failed to write supplier order")
	}

	s.logger.Info("supplier order issued",
		zap.String("classroom", classroomName),
		zap.Int("quantity", quantity),
		zap.String("reference", order.Reference),
	)
	return order, nil
}

func orderLetter(classroomName string, quantity int, date, reference string) []string {
	return []string{
		"--- SUPPLIER ORDER FORM ---",
		"Date: " + date,
		"Reference: " + reference,
		"Recipient: School Material Supplier",
		"",
		"Subject: Additional Chair Order",
		"",
		"Dear Supplier,",
		fmt.Sprintf("We kindly request the supply of %d additional chairs for classroom '%s'.", quantity, classroomName),
		"Please confirm availability and delivery times.",
		"",
		"Sincerely,",
		"The School Secretariat",
	}
}
