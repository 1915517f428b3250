package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

type conflictFinder interface {
	FindRoomConflicts(ctx context.Context, roomID, date, slot, excludeID string) ([]models.ConflictEntry, error)
	FindTeacherConflicts(ctx context.Context, teacher, date, slot, excludeID string) ([]models.ConflictEntry, error)
	FindClassConflicts(ctx context.Context, classSection, date, slot, excludeID string) ([]models.ConflictEntry, error)
}

type roomCatalog interface {
	ListByMinCapacity(ctx context.Context, minCapacity int) ([]models.Room, error)
}

type conflictRecorder interface {
	ObserveConflictCheck(hasConflict bool)
}

// ConflictService detects room, teacher and class double-bookings against
// persisted arrangements.
type ConflictService struct {
	finder    conflictFinder
	rooms     roomCatalog
	metrics   conflictRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService wires detector dependencies. metrics may be nil.
func NewConflictService(finder conflictFinder, rooms roomCatalog, metrics conflictRecorder, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{finder: finder, rooms: rooms, metrics: metrics, validator: validate, logger: logger}
}

// CheckAll runs the three independent checks. A failed lookup is reported as a
// conflict entry carrying the error so it can never pass silently.
func (s *ConflictService) CheckAll(ctx context.Context, roomID, teacher, classSection, date, slot, excludeID string) (bool, models.ConflictReport) {
	report := models.ConflictReport{
		Room:    s.collect("room", excludeID, func() ([]models.ConflictEntry, error) { return s.finder.FindRoomConflicts(ctx, roomID, date, slot, excludeID) }),
		Teacher: s.collect("teacher", excludeID, func() ([]models.ConflictEntry, error) { return s.finder.FindTeacherConflicts(ctx, teacher, date, slot, excludeID) }),
		Class:   s.collect("class", excludeID, func() ([]models.ConflictEntry, error) { return s.finder.FindClassConflicts(ctx, classSection, date, slot, excludeID) }),
	}

	for i := range report.Room {
		report.Room[i].RoomName = ""
	}
	for i := range report.Teacher {
		report.Teacher[i].Teacher = ""
	}
	for i := range report.Class {
		report.Class[i].ClassName = ""
	}

	has := report.HasConflict()
	if s.metrics != nil {
		s.metrics.ObserveConflictCheck(has)
	}
	return has, report
}

func (s *ConflictService) collect(dimension, excludeID string, find func() ([]models.ConflictEntry, error)) []models.ConflictEntry {
	entries, err := find()
	if err != nil {
		s.logger.Error("conflict lookup failed", zap.String("dimension", dimension), zap.Error(err))
		return []models.ConflictEntry{{Error: fmt.Sprintf("%s conflict check failed: %v", dimension, err)}}
	}
	if excludeID != "" {
		entries = lo.Filter(entries, func(e models.ConflictEntry, _ int) bool { return e.ArrangementID != excludeID })
	}
	if entries == nil {
		entries = []models.ConflictEntry{}
	}
	return entries
}

// Check validates a request and runs CheckAll.
func (s *ConflictService) Check(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	if !models.IsCanonicalSlot(req.TimeSlot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", req.TimeSlot))
	}
	has, report := s.CheckAll(ctx, req.RoomID, req.Teacher, req.ClassSection, req.Date, req.TimeSlot, req.ExcludeID)
	return &dto.ConflictCheckResponse{HasConflict: has, Conflicts: report, Summary: FormatConflicts(report)}, nil
}

// AvailableRooms lists rooms seating at least minCapacity with no booking at
// date and slot. Rooms whose lookup fails are left out.
func (s *ConflictService) AvailableRooms(ctx context.Context, date, slot string, minCapacity int) ([]models.Room, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.IsCanonicalSlot(slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", slot))
	}
	rooms, err := s.rooms.ListByMinCapacity(ctx, minCapacity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	available := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		taken, err := s.finder.FindRoomConflicts(ctx, room.ID, date, slot, "")
		if err != nil {
			s.logger.Warn("skipping room with failed availability check", zap.String("room_id", room.ID), zap.Error(err))
			continue
		}
		if len(taken) == 0 {
			available = append(available, room)
		}
	}
	return available, nil
}

// SuggestAlternatives returns the canonical slots on date where neither the
// teacher nor the class is booked and at least one room is free.
func (s *ConflictService) SuggestAlternatives(ctx context.Context, teacher, classSection, date string, minCapacity int) ([]models.SlotSuggestion, error) {
	if teacher == "" || classSection == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher and classSection are required")
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	suggestions := make([]models.SlotSuggestion, 0)
	for _, slot := range models.AllTimeSlots() {
		teacherHits, err := s.finder.FindTeacherConflicts(ctx, teacher, date, slot, "")
		if err != nil || len(teacherHits) > 0 {
			continue
		}
		classHits, err := s.finder.FindClassConflicts(ctx, classSection, date, slot, "")
		if err != nil || len(classHits) > 0 {
			continue
		}
		rooms, err := s.AvailableRooms(ctx, date, slot, minCapacity)
		if err != nil {
			return nil, err
		}
		if len(rooms) > 0 {
			suggestions = append(suggestions, models.SlotSuggestion{TimeSlot: slot, AvailableRooms: rooms})
		}
	}
	return suggestions, nil
}

// FormatConflicts renders a report for display, one section per dimension.
func FormatConflicts(report models.ConflictReport) string {
	var lines []string
	section := func(title string, entries []models.ConflictEntry, describe func(models.ConflictEntry) string) {
		if len(entries) == 0 {
			return
		}
		lines = append(lines, title)
		for _, e := range entries {
			if e.Error != "" {
				lines = append(lines, "  - check failed: "+e.Error)
				continue
			}
			lines = append(lines, "  - "+describe(e))
		}
	}
	section("Room conflicts:", report.Room, func(e models.ConflictEntry) string {
		return fmt.Sprintf("%s (%s, teacher: %s)", e.CourseName, e.ClassName, e.Teacher)
	})
	section("Teacher conflicts:", report.Teacher, func(e models.ConflictEntry) string {
		return fmt.Sprintf("%s (%s, room: %s)", e.CourseName, e.ClassName, e.RoomName)
	})
	section("Class conflicts:", report.Class, func(e models.ConflictEntry) string {
		return fmt.Sprintf("%s (teacher: %s, room: %s)", e.CourseName, e.Teacher, e.RoomName)
	})
	return strings.Join(lines, "\n")
}
