package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

type courseUpserter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error
}

type roomUpserter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, room *models.Room) error
}

// SeedSource names the CSV inputs of an import. Either reader may be nil.
type SeedSource struct {
	CoursesName string
	Courses     io.Reader
	RoomsName   string
	Rooms       io.Reader
}

// SeedService imports courses and rooms from CSV files in one transaction.
type SeedService struct {
	courses   courseUpserter
	rooms     roomUpserter
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSeedService wires import dependencies.
func NewSeedService(courses courseUpserter, rooms roomUpserter, tx txProvider, validate *validator.Validate, logger *zap.Logger) *SeedService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{courses: courses, rooms: rooms, tx: tx, validator: validate, logger: logger}
}

// Import parses both files, skips rows that fail validation and upserts the rest.
// Rooms are written before courses so home rooms exist first.
func (s *SeedService) Import(ctx context.Context, src SeedSource) (*dto.SeedReport, error) {
	report := &dto.SeedReport{Skipped: []dto.SeedRowError{}}

	var rooms []*dto.RoomSeedRow
	if src.Rooms != nil {
		if err := gocsv.Unmarshal(src.Rooms, &rooms); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("cannot parse %s", seedName(src.RoomsName, "rooms")))
		}
	}
	var courses []*dto.CourseSeedRow
	if src.Courses != nil {
		if err := gocsv.Unmarshal(src.Courses, &courses); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("cannot parse %s", seedName(src.CoursesName, "courses")))
		}
	}

	validRooms := make([]models.Room, 0, len(rooms))
	seenRooms := map[string]bool{}
	for i, row := range rooms {
		if reason := s.checkRow(row, row.ID, seenRooms); reason != "" {
			report.Skipped = append(report.Skipped, dto.SeedRowError{File: seedName(src.RoomsName, "rooms"), Line: i + 2, Reason: reason})
			continue
		}
		validRooms = append(validRooms, models.Room{
			ID:             strings.TrimSpace(row.ID),
			Name:           row.Name,
			Capacity:       row.Capacity,
			Building:       row.Building,
			Floor:          row.Floor,
			AvailableDays:  row.AvailableDays,
			AvailableTimes: row.AvailableTimes,
		})
	}

	validCourses := make([]models.Course, 0, len(courses))
	seenCourses := map[string]bool{}
	for i, row := range courses {
		if reason := s.checkRow(row, row.ID, seenCourses); reason != "" {
			report.Skipped = append(report.Skipped, dto.SeedRowError{File: seedName(src.CoursesName, "courses"), Line: i + 2, Reason: reason})
			continue
		}
		validCourses = append(validCourses, models.Course{
			ID:            strings.TrimSpace(row.ID),
			HomeRoomID:    strings.TrimSpace(row.HomeRoomID),
			Title:         row.Title,
			ClassTime:     row.ClassTime,
			ClassDate:     row.ClassDate,
			Level:         row.Level,
			Department:    row.Department,
			Major:         row.Major,
			ClassSection:  row.ClassSection,
			EnrolledCount: row.EnrolledCount,
			ExamLocation:  row.ExamLocation,
			Teacher:       strings.TrimSpace(row.Teacher),
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range validRooms {
		if err = s.rooms.Upsert(ctx, tx, &validRooms[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import rooms")
		}
	}
	for i := range validCourses {
		if err = s.courses.Upsert(ctx, tx, &validCourses[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import courses")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit import")
	}

	report.Rooms = len(validRooms)
	report.Courses = len(validCourses)
	s.logger.Info("seed import finished",
		zap.Int("rooms", report.Rooms),
		zap.Int("courses", report.Courses),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func (s *SeedService) checkRow(row interface{}, id string, seen map[string]bool) string {
	if err := s.validator.Struct(row); err != nil {
		return err.Error()
	}
	id = strings.TrimSpace(id)
	if seen[id] {
		return fmt.Sprintf("duplicate id %s", id)
	}
	seen[id] = true
	return ""
}

func seedName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
