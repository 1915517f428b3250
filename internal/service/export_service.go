package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
	"github.com/noah-isme/exam-scheduler/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type arrangementLister interface {
	ListArrangements(ctx context.Context) ([]models.ExamArrangementDetail, error)
}

type csvRenderer interface {
	Render(rows interface{}) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the current exam arrangements as CSV or PDF.
type ExportService struct {
	arrangements arrangementLister
	csv          csvRenderer
	pdf          pdfRenderer
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewExportService wires export dependencies. Nil renderers use the defaults.
func NewExportService(arrangements arrangementLister, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{arrangements: arrangements, csv: csv, pdf: pdf, validator: validate, logger: logger, now: time.Now}
}

// Export renders every arrangement in the requested format.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := query.Format
	if format == "" {
		format = ExportFormatCSV
	}

	list, err := s.arrangements.ListArrangements(ctx)
	if err != nil {
		return nil, err
	}
	rows := exportRows(list)
	stamp := s.now().Format("20060102_150405")

	var file *ExportFile
	switch format {
	case ExportFormatPDF:
		body, err := s.pdf.Render(arrangementDataset(rows), "Exam Arrangements", fmt.Sprintf("%d arrangement(s), generated %s", len(rows), s.now().Format("2006-01-02 15:04")))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		file = &ExportFile{Filename: "exam_arrangements_" + stamp + ".pdf", ContentType: "application/pdf", Body: body}
	default:
		body, err := s.csv.Render(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		file = &ExportFile{Filename: "exam_arrangements_" + stamp + ".csv", ContentType: "text/csv", Body: body}
	}

	s.logger.Info("exam arrangements exported", zap.String("format", format), zap.Int("rows", len(rows)), zap.Int("bytes", len(file.Body)))
	return file, nil
}

func exportRows(list []models.ExamArrangementDetail) []dto.ArrangementExportRow {
	return lo.Map(list, func(a models.ExamArrangementDetail, _ int) dto.ArrangementExportRow {
		return dto.ArrangementExportRow{
			ArrangementID: a.ID,
			CourseID:      a.CourseID,
			CourseTitle:   a.CourseTitle,
			Teacher:       a.Teacher,
			ClassSection:  a.ClassSection,
			Department:    a.Department,
			Major:         a.Major,
			Level:         a.Level,
			ExamDate:      a.ExamDate,
			ExamTime:      a.ExamTime,
			RoomID:        a.RoomID,
			RoomName:      a.RoomName,
			StudentCount:  a.StudentCount,
			Session:       fmt.Sprintf("%d/%d", a.SessionNo, a.SessionTotal),
		}
	})
}

func arrangementDataset(rows []dto.ArrangementExportRow) export.Dataset {
	return export.Dataset{
		Headers: []string{"Date", "Time", "Course", "Teacher", "Class", "Room", "Students", "Session"},
		Rows: lo.Map(rows, func(r dto.ArrangementExportRow, _ int) map[string]string {
			return map[string]string{
				"Date":     r.ExamDate,
				"Time":     r.ExamTime,
				"Course":   r.CourseTitle,
				"Teacher":  r.Teacher,
				"Class":    r.ClassSection,
				"Room":     r.RoomName,
				"Students": strconv.Itoa(r.StudentCount),
				"Session":  r.Session,
			}
		}),
	}
}
