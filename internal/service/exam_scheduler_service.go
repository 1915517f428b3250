package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	"github.com/noah-isme/exam-scheduler/internal/repository"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

const (
	defaultSlotsPerDay = 4
	defaultWindowDays  = 7
	maxWindowDays      = 366
)

type schedulerCourseReader interface {
	List(ctx context.Context, exec sqlx.ExtContext) ([]models.Course, error)
}

type schedulerRoomReader interface {
	List(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type arrangementStore interface {
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) (int64, error)
	Create(ctx context.Context, exec sqlx.ExtContext, arrangement *models.ExamArrangement) error
	FindDetailByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExamArrangementDetail, error)
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, patch models.ExamArrangementPatch) error
	ListDetailed(ctx context.Context) ([]models.ExamArrangementDetail, error)
}

type placementEvaluator interface {
	Constraints(ctx context.Context, exec sqlx.ExtContext, teacher string) (*models.TeacherConstraint, error)
	Evaluate(ctx context.Context, exec sqlx.ExtContext, constraint *models.TeacherConstraint, date, slot string) Verdict
}

type arrangementConflictChecker interface {
	CheckAll(ctx context.Context, roomID, teacher, classSection, date, slot, excludeID string) (bool, models.ConflictReport)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RunLocker serialises scheduling runs and adjustments.
type RunLocker interface {
	Acquire(ctx context.Context) (func(), error)
}

type scheduleRunRecorder interface {
	ObserveScheduleRun(outcome string, duration time.Duration, placed, failed int)
}

// ArrangementConflictError carries the detector report for a rejected move.
type ArrangementConflictError struct {
	Report models.ConflictReport
}

func (e *ArrangementConflictError) Error() string {
	return FormatConflicts(e.Report)
}

// ExamSchedulerConfig governs scheduler behaviour.
type ExamSchedulerConfig struct {
	// RandomSeed fixes the fallback room order. Zero seeds from the clock.
	RandomSeed int64
	Now        func() time.Time
}

// ExamSchedulerService places every course's exam into rooms, dates and slots.
type ExamSchedulerService struct {
	courses      schedulerCourseReader
	rooms        schedulerRoomReader
	arrangements arrangementStore
	evaluator    placementEvaluator
	conflicts    arrangementConflictChecker
	tx           txProvider
	lock         RunLocker
	metrics      scheduleRunRecorder
	validator    *validator.Validate
	logger       *zap.Logger
	seed         int64
	now          func() time.Time
}

// NewExamSchedulerService wires scheduler dependencies. A nil lock falls back to
// an in-process mutex; metrics may be nil.
func NewExamSchedulerService(
	courses schedulerCourseReader,
	rooms schedulerRoomReader,
	arrangements arrangementStore,
	evaluator placementEvaluator,
	conflicts arrangementConflictChecker,
	tx txProvider,
	lock RunLocker,
	metrics scheduleRunRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExamSchedulerConfig,
) *ExamSchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = &localRunLock{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ExamSchedulerService{
		courses:      courses,
		rooms:        rooms,
		arrangements: arrangements,
		evaluator:    evaluator,
		conflicts:    conflicts,
		tx:           tx,
		lock:         lock,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		seed:         cfg.RandomSeed,
		now:          cfg.Now,
	}
}

// Schedule replaces every arrangement with a fresh plan for the window. Only
// invalid input and a concurrent run are errors; infeasibility and run faults
// are reported in the result.
func (s *ExamSchedulerService) Schedule(ctx context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleResult, error) {
	window, err := s.resolveWindow(req)
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a scheduling run is already in progress")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to acquire scheduling lock")
	}
	defer release()

	started := s.now()
	s.logger.Info("scheduling run started",
		zap.String("start_date", window.StartDate),
		zap.String("end_date", window.EndDate),
		zap.Int("slots_per_day", window.SlotsPerDay),
	)

	result := s.run(ctx, window)

	elapsed := s.now().Sub(started)
	if s.metrics != nil {
		s.metrics.ObserveScheduleRun(runOutcome(result), elapsed, result.Placed, len(result.Failed))
	}
	s.logger.Info("scheduling run finished",
		zap.Bool("success", result.Success),
		zap.Bool("aborted", result.Aborted),
		zap.Bool("cancelled", result.Cancelled),
		zap.Int("placed", result.Placed),
		zap.Int("failed", len(result.Failed)),
		zap.Int("arrangements", result.Arrangements),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *ExamSchedulerService) resolveWindow(req dto.ScheduleExamsRequest) (dto.ScheduleWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ScheduleWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}

	start := models.NextMonday(s.now())
	if req.StartDate != "" {
		parsed, err := models.ParseDate(req.StartDate)
		if err != nil {
			return dto.ScheduleWindow{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		start = parsed
	}
	end := start.AddDate(0, 0, defaultWindowDays-1)
	if req.EndDate != "" {
		parsed, err := models.ParseDate(req.EndDate)
		if err != nil {
			return dto.ScheduleWindow{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		end = parsed
	}
	if end.Before(start) {
		return dto.ScheduleWindow{}, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxWindowDays {
		return dto.ScheduleWindow{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exam window may span at most %d days", maxWindowDays))
	}

	slotsPerDay := req.SlotsPerDay
	if slotsPerDay == 0 {
		slotsPerDay = defaultSlotsPerDay
	}
	return dto.ScheduleWindow{
		StartDate:   start.Format(models.DateLayout),
		EndDate:     end.Format(models.DateLayout),
		Days:        days,
		SlotsPerDay: slotsPerDay,
		TimeSlots:   models.TimeSlots(slotsPerDay),
	}, nil
}

// run executes one scheduling pass inside a single transaction. The caller's
// context only signals cancellation between courses; storage calls use a
// detached context so a cancelled run can still commit what it placed.
func (s *ExamSchedulerService) run(ctx context.Context, window dto.ScheduleWindow) *dto.ScheduleResult {
	dbCtx := context.WithoutCancel(ctx)

	tx, err := s.tx.BeginTxx(dbCtx, nil)
	if err != nil {
		return s.aborted(window, "begin transaction", err)
	}
	abort := func(stage string, cause error) *dto.ScheduleResult {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", zap.String("stage", stage), zap.Error(rbErr))
		}
		return s.aborted(window, stage, cause)
	}

	removed, err := s.arrangements.DeleteAll(dbCtx, tx)
	if err != nil {
		return abort("clear arrangements", err)
	}
	s.logger.Debug("previous arrangements removed", zap.Int64("count", removed))

	courses, err := s.courses.List(dbCtx, tx)
	if err != nil {
		return abort("load courses", err)
	}
	rooms, err := s.rooms.List(dbCtx, tx)
	if err != nil {
		return abort("load rooms", err)
	}

	result := &dto.ScheduleResult{Total: len(courses), Failed: []dto.FailedCourse{}, Window: window}
	state := newRunState(window, rooms, s.runRand())
	groups := groupCoursesByTeacher(courses, state.roomsByID)

	processed := 0
	for _, group := range groups {
		constraint, cerr := s.evaluator.Constraints(dbCtx, tx, group.teacher)
		if cerr != nil {
			s.logger.Warn("teacher constraints unavailable", zap.String("teacher", group.teacher), zap.Error(cerr))
		}
		for _, course := range group.courses {
			if ctx.Err() != nil {
				result.Cancelled = true
				break
			}
			processed++
			if cerr != nil {
				result.Failed = append(result.Failed, failedCourse(course, fmt.Sprintf("could not load constraints for teacher %s", group.teacher)))
				continue
			}

			placement, err := s.placeCourse(dbCtx, tx, state, constraint, group.preferred, course)
			if err != nil {
				return abort("save arrangement", err)
			}
			if placement.placed {
				result.Placed++
				result.Arrangements += placement.sessions
				continue
			}
			result.Failed = append(result.Failed, failedCourse(course, placement.reason))
		}
		if result.Cancelled {
			break
		}
	}

	if result.Cancelled {
		remaining := lo.Flatten(lo.Map(groups, func(g teacherGroup, _ int) []models.Course { return g.courses }))[processed:]
		for _, course := range remaining {
			result.Failed = append(result.Failed, failedCourse(course, "run cancelled before this course was scheduled"))
		}
		s.logger.Warn("scheduling run cancelled", zap.Int("placed", result.Placed), zap.Int("unprocessed", len(remaining)))
	}

	if err := tx.Commit(); err != nil {
		return abort("commit", err)
	}

	result.Success = !result.Cancelled && len(result.Failed) == 0
	result.Message = buildRunMessage(result)
	return result
}

func (s *ExamSchedulerService) aborted(window dto.ScheduleWindow, stage string, cause error) *dto.ScheduleResult {
	s.logger.Error("scheduling run aborted", zap.String("stage", stage), zap.Error(cause))
	return &dto.ScheduleResult{
		Aborted: true,
		Message: fmt.Sprintf("scheduling aborted (%s): %v; no changes were saved", stage, cause),
		Failed:  []dto.FailedCourse{},
		Window:  window,
	}
}

func (s *ExamSchedulerService) runRand() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func runOutcome(result *dto.ScheduleResult) string {
	switch {
	case result.Aborted:
		return RunOutcomeAborted
	case result.Cancelled:
		return RunOutcomeCancelled
	case result.Success:
		return RunOutcomeSuccess
	default:
		return RunOutcomePartial
	}
}

func failedCourse(course models.Course, reason string) dto.FailedCourse {
	return dto.FailedCourse{
		CourseID:     course.ID,
		Title:        course.Title,
		Teacher:      course.Teacher,
		ClassSection: course.ClassSection,
		StudentCount: course.Headcount(),
		Reason:       reason,
	}
}

type teacherGroup struct {
	teacher   string
	courses   []models.Course
	preferred []models.Room
}

// groupCoursesByTeacher keeps teachers in first-appearance order and ranks each
// teacher's known home rooms by how many of their courses use them.
func groupCoursesByTeacher(courses []models.Course, rooms map[string]models.Room) []teacherGroup {
	byTeacher := lo.GroupBy(courses, func(c models.Course) string { return c.Teacher })
	teachers := lo.Uniq(lo.Map(courses, func(c models.Course, _ int) string { return c.Teacher }))

	groups := make([]teacherGroup, 0, len(teachers))
	for _, teacher := range teachers {
		list := byTeacher[teacher]
		homeRooms := lo.FilterMap(list, func(c models.Course, _ int) (string, bool) {
			_, ok := rooms[c.HomeRoomID]
			return c.HomeRoomID, ok
		})
		counts := lo.CountValues(homeRooms)
		ranked := lo.Uniq(homeRooms)
		sort.SliceStable(ranked, func(i, j int) bool { return counts[ranked[i]] > counts[ranked[j]] })

		groups = append(groups, teacherGroup{
			teacher:   teacher,
			courses:   list,
			preferred: lo.Map(ranked, func(id string, _ int) models.Room { return rooms[id] }),
		})
	}
	return groups
}

// splitSessions divides headcount into the fewest near-equal sessions that each
// fit capacity.
func splitSessions(headcount, capacity int) []int {
	if capacity <= 0 || headcount <= 0 {
		return nil
	}
	sessions := (headcount + capacity - 1) / capacity
	per := (headcount + sessions - 1) / sessions
	out := make([]int, 0, sessions)
	for i := 0; i < sessions; i++ {
		n := headcount - i*per
		if n > per {
			n = per
		}
		if n <= 0 {
			break
		}
		out = append(out, n)
	}
	return out
}

// runState is the per-run usage ledger. It mirrors what the transaction has
// written so far.
type runState struct {
	dates        []string
	slots        []string
	rooms        []models.Room
	roomsByID    map[string]models.Room
	roomUsed     map[string]struct{}
	classUsed    map[string]struct{}
	teacherDaily map[string]int
	rng          *rand.Rand
}

func newRunState(window dto.ScheduleWindow, rooms []models.Room, rng *rand.Rand) *runState {
	start, _ := models.ParseDate(window.StartDate)
	end, _ := models.ParseDate(window.EndDate)
	return &runState{
		dates:        models.DateRange(start, end),
		slots:        window.TimeSlots,
		rooms:        rooms,
		roomsByID:    lo.KeyBy(rooms, func(r models.Room) string { return r.ID }),
		roomUsed:     make(map[string]struct{}),
		classUsed:    make(map[string]struct{}),
		teacherDaily: make(map[string]int),
		rng:          rng,
	}
}

func slotKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// tentativePlan overlays sessions chosen for one course before any is written.
type tentativePlan struct {
	sessions     []models.ExamArrangement
	roomKeys     map[string]struct{}
	classKeys    map[string]struct{}
	teacherSlots map[string]struct{}
	teacherDaily map[string]int
}

func newTentativePlan() *tentativePlan {
	return &tentativePlan{
		roomKeys:     make(map[string]struct{}),
		classKeys:    make(map[string]struct{}),
		teacherSlots: make(map[string]struct{}),
		teacherDaily: make(map[string]int),
	}
}

func (p *tentativePlan) add(a models.ExamArrangement) {
	p.sessions = append(p.sessions, a)
	p.roomKeys[slotKey(a.ExamDate, a.ExamTime, a.RoomID)] = struct{}{}
	p.classKeys[slotKey(a.ExamDate, a.ExamTime, a.ClassSection)] = struct{}{}
	p.teacherSlots[slotKey(a.ExamDate, a.ExamTime)] = struct{}{}
	p.teacherDaily[a.ExamDate]++
}

// rejectionTally remembers why candidate slots were turned down for a course.
type rejectionTally struct {
	counts  map[string]int
	reasons map[string]string
	order   []string
}

func newRejectionTally() *rejectionTally {
	return &rejectionTally{counts: make(map[string]int), reasons: make(map[string]string)}
}

func (t *rejectionTally) add(rule, reason string) {
	if _, seen := t.counts[rule]; !seen {
		t.order = append(t.order, rule)
		t.reasons[rule] = reason
	}
	t.counts[rule]++
}

func (t *rejectionTally) dominant() string {
	best := ""
	for _, rule := range t.order {
		if best == "" || t.counts[rule] > t.counts[best] {
			best = rule
		}
	}
	if best == "" {
		return ""
	}
	return t.reasons[best]
}

type coursePlacement struct {
	placed   bool
	sessions int
	reason   string
}

// courseAttempt evaluates candidate slots for a single course.
type courseAttempt struct {
	svc        *ExamSchedulerService
	ctx        context.Context
	tx         sqlx.ExtContext
	state      *runState
	constraint *models.TeacherConstraint
	course     models.Course
	verdicts   map[string]Verdict
	tally      *rejectionTally
}

// dateOpen applies the daily cap from the ledger plus the tentative overlay.
func (a *courseAttempt) dateOpen(plan *tentativePlan, date string) bool {
	used := a.state.teacherDaily[slotKey(a.course.Teacher, date)]
	if plan != nil {
		used += plan.teacherDaily[date]
	}
	if used >= a.constraint.MaxExamsPerDay {
		a.tally.add(RuleDailyCap, fmt.Sprintf("teacher %s already has %d exam(s) on %s (daily limit %d)", a.course.Teacher, used, date, a.constraint.MaxExamsPerDay))
		return false
	}
	return true
}

// slotOpen checks everything about date and slot that does not depend on the
// room: tentative teacher clash, teacher rules and the class ledger.
func (a *courseAttempt) slotOpen(plan *tentativePlan, date, slot string) bool {
	if plan != nil {
		if _, clash := plan.teacherSlots[slotKey(date, slot)]; clash {
			return false
		}
	}

	key := slotKey(date, slot)
	verdict, ok := a.verdicts[key]
	if !ok {
		verdict = a.svc.evaluator.Evaluate(a.ctx, a.tx, a.constraint, date, slot)
		a.verdicts[key] = verdict
	}
	if !verdict.Accepted {
		a.tally.add(verdict.Rule, verdict.Reason)
		return false
	}

	classKey := slotKey(date, slot, a.course.ClassSection)
	if _, busy := a.state.classUsed[classKey]; busy {
		a.tally.add("class_busy", fmt.Sprintf("class %s already sits another exam at %s %s", a.course.ClassSection, date, slot))
		return false
	}
	if plan != nil {
		if _, busy := plan.classKeys[classKey]; busy {
			return false
		}
	}
	return true
}

func (a *courseAttempt) roomFree(plan *tentativePlan, date, slot, roomID string) bool {
	key := slotKey(date, slot, roomID)
	if _, used := a.state.roomUsed[key]; used {
		return false
	}
	if plan != nil {
		if _, used := plan.roomKeys[key]; used {
			return false
		}
	}
	return true
}

func (a *courseAttempt) arrangement(room models.Room, date, slot string, students int) models.ExamArrangement {
	return models.ExamArrangement{
		CourseID:     a.course.ID,
		RoomID:       room.ID,
		ExamDate:     date,
		ExamTime:     slot,
		ClassSection: a.course.ClassSection,
		StudentCount: students,
		Department:   a.course.Department,
		Major:        a.course.Major,
		Level:        a.course.Level,
	}
}

// planInRoom finds a slot for every session in room. No session is written
// unless all of them fit.
func (a *courseAttempt) planInRoom(room models.Room) (*tentativePlan, bool) {
	sessions := splitSessions(a.course.Headcount(), room.Capacity)
	if len(sessions) == 0 {
		return nil, false
	}
	plan := newTentativePlan()
	for _, students := range sessions {
		found := false
		for _, date := range a.state.dates {
			if !a.dateOpen(plan, date) {
				continue
			}
			for _, slot := range a.state.slots {
				if !a.slotOpen(plan, date, slot) || !a.roomFree(plan, date, slot, room.ID) {
					continue
				}
				plan.add(a.arrangement(room, date, slot, students))
				found = true
				break
			}
			if found {
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return plan, true
}

// planFallback books the whole headcount into the first free suitable room.
func (a *courseAttempt) planFallback() (*tentativePlan, bool) {
	headcount := a.course.Headcount()
	candidates := lo.Filter(a.state.rooms, func(r models.Room, _ int) bool { return r.Capacity >= headcount })
	if len(candidates) == 0 {
		a.tally.add("capacity", fmt.Sprintf("no room seats %d students", headcount))
		return nil, false
	}
	a.state.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	for _, date := range a.state.dates {
		if !a.dateOpen(nil, date) {
			continue
		}
		for _, slot := range a.state.slots {
			if !a.slotOpen(nil, date, slot) {
				continue
			}
			for _, room := range candidates {
				if a.roomFree(nil, date, slot, room.ID) {
					plan := newTentativePlan()
					plan.add(a.arrangement(room, date, slot, headcount))
					return plan, true
				}
			}
		}
	}
	return nil, false
}

func (s *ExamSchedulerService) placeCourse(ctx context.Context, tx sqlx.ExtContext, state *runState, constraint *models.TeacherConstraint, preferred []models.Room, course models.Course) (coursePlacement, error) {
	attempt := &courseAttempt{
		svc:        s,
		ctx:        ctx,
		tx:         tx,
		state:      state,
		constraint: constraint,
		course:     course,
		verdicts:   make(map[string]Verdict),
		tally:      newRejectionTally(),
	}

	var plan *tentativePlan
	ok := false
	for _, room := range preferred {
		if plan, ok = attempt.planInRoom(room); ok {
			break
		}
	}
	if !ok {
		plan, ok = attempt.planFallback()
	}
	if !ok {
		reason := "no suitable time/room found"
		if dominant := attempt.tally.dominant(); dominant != "" {
			reason += "; most common rejection: " + dominant
		}
		s.logger.Debug("course not placed", zap.String("course_id", course.ID), zap.String("reason", reason))
		return coursePlacement{reason: reason}, nil
	}

	total := len(plan.sessions)
	for i := range plan.sessions {
		arrangement := plan.sessions[i]
		arrangement.SessionNo = i + 1
		arrangement.SessionTotal = total
		if err := s.arrangements.Create(ctx, tx, &arrangement); err != nil {
			return coursePlacement{}, fmt.Errorf("course %s session %d: %w", course.ID, i+1, err)
		}
		state.roomUsed[slotKey(arrangement.ExamDate, arrangement.ExamTime, arrangement.RoomID)] = struct{}{}
		state.classUsed[slotKey(arrangement.ExamDate, arrangement.ExamTime, arrangement.ClassSection)] = struct{}{}
		state.teacherDaily[slotKey(course.Teacher, arrangement.ExamDate)]++
	}
	return coursePlacement{placed: true, sessions: total}, nil
}

// Adjust moves one arrangement. It returns false without error when the request
// changes nothing.
func (s *ExamSchedulerService) Adjust(ctx context.Context, id string, req dto.AdjustArrangementRequest) (bool, error) {
	return s.AdjustTx(ctx, nil, id, req)
}

// AdjustTx is Adjust with the arrangement read and write running on exec, so a
// caller can fold the move into its own transaction. A nil exec uses the pool.
func (s *ExamSchedulerService) AdjustTx(ctx context.Context, exec sqlx.ExtContext, id string, req dto.AdjustArrangementRequest) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment payload")
	}
	patch := models.ExamArrangementPatch{RoomID: req.RoomID, ExamDate: req.Date, ExamTime: req.TimeSlot}
	if patch.Empty() {
		return false, nil
	}
	if req.TimeSlot != nil && !models.IsCanonicalSlot(*req.TimeSlot) {
		return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", *req.TimeSlot))
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			return false, appErrors.Clone(appErrors.ErrConflict, "a scheduling run is in progress; try again later")
		}
		return false, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to acquire scheduling lock")
	}
	defer release()

	current, err := s.arrangements.FindDetailByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "exam arrangement not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam arrangement")
	}

	roomID, date, slot := current.RoomID, current.ExamDate, current.ExamTime
	if patch.RoomID != nil {
		room, err := s.rooms.FindByID(ctx, *patch.RoomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s does not exist", *patch.RoomID))
			}
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
		if room.Capacity < current.StudentCount {
			return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s seats %d, session needs %d", room.ID, room.Capacity, current.StudentCount))
		}
		roomID = room.ID
	}
	if patch.ExamDate != nil {
		date = *patch.ExamDate
	}
	if patch.ExamTime != nil {
		slot = *patch.ExamTime
	}

	if has, report := s.conflicts.CheckAll(ctx, roomID, current.Teacher, current.ClassSection, date, slot, id); has {
		return false, appErrors.Wrap(&ArrangementConflictError{Report: report}, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "the new placement conflicts with existing arrangements")
	}

	if err := s.arrangements.UpdatePlacement(ctx, exec, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "exam arrangement not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam arrangement")
	}

	s.logger.Info("exam arrangement adjusted",
		zap.String("arrangement_id", id),
		zap.String("room_id", roomID),
		zap.String("date", date),
		zap.String("slot", slot),
	)
	return true, nil
}

// ListArrangements returns every arrangement joined with its course and room.
func (s *ExamSchedulerService) ListArrangements(ctx context.Context) ([]models.ExamArrangementDetail, error) {
	list, err := s.arrangements.ListDetailed(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam arrangements")
	}
	if list == nil {
		list = []models.ExamArrangementDetail{}
	}
	return list, nil
}

// localRunLock serialises runs within one process.
type localRunLock struct {
	mu sync.Mutex
}

func (l *localRunLock) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, repository.ErrLockHeld
	}
	return l.mu.Unlock, nil
}
