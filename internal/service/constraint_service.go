package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

// Constraint rules, also used as metric labels.
const (
	RuleDailyCap        = "daily_cap"
	RuleEvening         = "evening"
	RuleWeekend         = "weekend"
	RuleUnavailableDate = "unavailable_date"
	RuleUnavailableTime = "unavailable_time"
	RuleDoubleBooked    = "double_booked"
	RuleInvalidInput    = "invalid_input"
	RuleStorage         = "storage_error"
)

type teacherConstraintStore interface {
	GetByTeacher(ctx context.Context, exec sqlx.ExtContext, teacher string) (*models.TeacherConstraint, error)
	Upsert(ctx context.Context, constraint *models.TeacherConstraint) error
}

type teacherBookingReader interface {
	CountByTeacherDate(ctx context.Context, exec sqlx.ExtContext, teacher, date string) (int, error)
	ExistsTeacherSlot(ctx context.Context, exec sqlx.ExtContext, teacher, date, slot string) (bool, error)
	ListByTeacherBetween(ctx context.Context, teacher, start, end string) ([]models.ExamArrangementDetail, error)
}

type rejectionRecorder interface {
	ObserveConstraintRejection(rule string)
}

// Verdict is the outcome of evaluating one candidate slot for a teacher.
type Verdict struct {
	Accepted bool
	Rule     string
	Reason   string
}

// ConstraintService evaluates and manages teacher exam constraints.
type ConstraintService struct {
	constraints teacherConstraintStore
	bookings    teacherBookingReader
	metrics     rejectionRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewConstraintService wires constraint dependencies. metrics may be nil.
func NewConstraintService(constraints teacherConstraintStore, bookings teacherBookingReader, metrics rejectionRecorder, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{
		constraints: constraints,
		bookings:    bookings,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Constraints returns the teacher's stored record or the implicit default.
func (s *ConstraintService) Constraints(ctx context.Context, exec sqlx.ExtContext, teacher string) (*models.TeacherConstraint, error) {
	constraint, err := s.constraints.GetByTeacher(ctx, exec, teacher)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultTeacherConstraint(teacher), nil
		}
		return nil, fmt.Errorf("load constraints for %s: %w", teacher, err)
	}
	if constraint.MaxExamsPerDay <= 0 {
		constraint.MaxExamsPerDay = models.DefaultMaxExamsPerDay
	}
	return constraint, nil
}

// Validate decides whether teacher may sit an exam at date and slot. A storage
// failure never accepts.
func (s *ConstraintService) Validate(ctx context.Context, exec sqlx.ExtContext, teacher, date, slot string) (bool, string) {
	constraint, err := s.Constraints(ctx, exec, teacher)
	if err != nil {
		v := s.reject(RuleStorage, fmt.Sprintf("constraint check failed: %v", err))
		return v.Accepted, v.Reason
	}
	v := s.Evaluate(ctx, exec, constraint, date, slot)
	return v.Accepted, v.Reason
}

// Evaluate runs the ordered checks against an already loaded constraint. The
// first failing check wins.
func (s *ConstraintService) Evaluate(ctx context.Context, exec sqlx.ExtContext, constraint *models.TeacherConstraint, date, slot string) Verdict {
	teacher := constraint.Teacher
	day, err := models.ParseDate(date)
	if err != nil {
		return s.reject(RuleInvalidInput, err.Error())
	}
	start, end, err := models.ParseTimeRange(slot)
	if err != nil {
		return s.reject(RuleInvalidInput, err.Error())
	}

	count, err := s.bookings.CountByTeacherDate(ctx, exec, teacher, date)
	if err != nil {
		return s.reject(RuleStorage, fmt.Sprintf("constraint check failed: %v", err))
	}
	if count >= constraint.MaxExamsPerDay {
		return s.reject(RuleDailyCap, fmt.Sprintf("teacher %s already has %d exam(s) on %s (daily limit %d)", teacher, count, date, constraint.MaxExamsPerDay))
	}

	if constraint.NoEveningExams && start/60 >= models.EveningStartHour {
		return s.reject(RuleEvening, fmt.Sprintf("teacher %s does not accept evening exams", teacher))
	}

	if constraint.NoWeekendExams && models.IsWeekend(day) {
		return s.reject(RuleWeekend, fmt.Sprintf("teacher %s does not accept weekend exams (%s is a %s)", teacher, date, day.Weekday()))
	}

	if constraint.UnavailableDates.Contains(date) {
		return s.reject(RuleUnavailableDate, fmt.Sprintf("teacher %s is unavailable on %s", teacher, date))
	}

	for _, blocked := range constraint.UnavailableTimes {
		bStart, bEnd, parseErr := models.ParseTimeRange(blocked)
		if parseErr != nil {
			s.logger.Warn("ignoring malformed unavailable time", zap.String("teacher", teacher), zap.String("range", blocked), zap.Error(parseErr))
			continue
		}
		if models.RangesOverlap(start, end, bStart, bEnd) {
			return s.reject(RuleUnavailableTime, fmt.Sprintf("teacher %s is unavailable during %s", teacher, blocked))
		}
	}

	booked, err := s.bookings.ExistsTeacherSlot(ctx, exec, teacher, date, slot)
	if err != nil {
		return s.reject(RuleStorage, fmt.Sprintf("constraint check failed: %v", err))
	}
	if booked {
		return s.reject(RuleDoubleBooked, fmt.Sprintf("teacher %s already has an exam at %s %s", teacher, date, slot))
	}

	return Verdict{Accepted: true}
}

func (s *ConstraintService) reject(rule, reason string) Verdict {
	if s.metrics != nil {
		s.metrics.ObserveConstraintRejection(rule)
	}
	return Verdict{Rule: rule, Reason: reason}
}

// Get returns the teacher's constraints, defaults included.
func (s *ConstraintService) Get(ctx context.Context, teacher string) (*models.TeacherConstraint, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	constraint, err := s.Constraints(ctx, nil, teacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher constraints")
	}
	return constraint, nil
}

// Set replaces the teacher's constraints.
func (s *ConstraintService) Set(ctx context.Context, teacher string, req dto.TeacherConstraintRequest) (*models.TeacherConstraint, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher constraint payload")
	}
	for _, r := range req.UnavailableTimes {
		if _, _, err := models.ParseTimeRange(r); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}

	constraint := &models.TeacherConstraint{
		Teacher:          teacher,
		MaxExamsPerDay:   req.MaxExamsPerDay,
		NoEveningExams:   req.NoEveningExams,
		NoWeekendExams:   req.NoWeekendExams,
		UnavailableDates: models.CommaList(lo.Uniq(req.UnavailableDates)),
		UnavailableTimes: models.CommaList(lo.Uniq(req.UnavailableTimes)),
	}
	if err := s.constraints.Upsert(ctx, constraint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save teacher constraints")
	}
	s.logger.Info("teacher constraints updated",
		zap.String("teacher", teacher),
		zap.Int("max_exams_per_day", constraint.MaxExamsPerDay),
		zap.Bool("no_evening", constraint.NoEveningExams),
		zap.Bool("no_weekend", constraint.NoWeekendExams),
	)
	return constraint, nil
}

// Summary groups a teacher's arrangements by exam date.
func (s *ConstraintService) Summary(ctx context.Context, teacher string, query dto.TeacherSummaryQuery) ([]models.TeacherDaySchedule, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary query")
	}
	list, err := s.bookings.ListByTeacherBetween(ctx, teacher, query.StartDate, query.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher arrangements")
	}

	byDate := lo.GroupBy(list, func(a models.ExamArrangementDetail) string { return a.ExamDate })
	dates := lo.Uniq(lo.Map(list, func(a models.ExamArrangementDetail, _ int) string { return a.ExamDate }))
	days := make([]models.TeacherDaySchedule, 0, len(dates))
	for _, date := range dates {
		days = append(days, models.TeacherDaySchedule{Date: date, Count: len(byDate[date]), Arrangements: byDate[date]})
	}
	return days, nil
}

// SuggestTimes reports, for every canonical slot, whether the teacher's rules
// allow an exam on date.
func (s *ConstraintService) SuggestTimes(ctx context.Context, teacher string, query dto.SuggestedTimesQuery) ([]dto.SuggestedTime, error) {
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggested times query")
	}
	constraint, err := s.Constraints(ctx, nil, teacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher constraints")
	}

	slots := models.AllTimeSlots()
	out := make([]dto.SuggestedTime, 0, len(slots))
	for _, slot := range slots {
		v := s.Evaluate(ctx, nil, constraint, query.Date, slot)
		out = append(out, dto.SuggestedTime{TimeSlot: slot, Allowed: v.Accepted, Reason: v.Reason})
	}
	return out, nil
}
