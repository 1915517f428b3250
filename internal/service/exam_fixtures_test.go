package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

// examWorld is an in-memory stand-in for the course, room, constraint and
// arrangement tables.
type examWorld struct {
	mu           sync.Mutex
	courses      []models.Course
	rooms        []models.Room
	constraints  map[string]*models.TeacherConstraint
	arrangements []models.ExamArrangement
	nextID       int

	createErr     error
	createHook    func(models.ExamArrangement)
	constraintErr map[string]error
	conflictErr   error
	// executors handed to UpdatePlacement, in call order
	updateExecs []sqlx.ExtContext
}

func newExamWorld() *examWorld {
	return &examWorld{constraints: map[string]*models.TeacherConstraint{}, constraintErr: map[string]error{}}
}

func (w *examWorld) courseByID(id string) models.Course {
	for _, c := range w.courses {
		if c.ID == id {
			return c
		}
	}
	return models.Course{}
}

func (w *examWorld) roomByID(id string) (models.Room, bool) {
	for _, r := range w.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return models.Room{}, false
}

func (w *examWorld) detail(a models.ExamArrangement) models.ExamArrangementDetail {
	course := w.courseByID(a.CourseID)
	room, _ := w.roomByID(a.RoomID)
	return models.ExamArrangementDetail{
		ExamArrangement: a,
		CourseTitle:     course.Title,
		Teacher:         course.Teacher,
		RoomName:        room.Name,
		RoomCapacity:    room.Capacity,
		Building:        room.Building,
	}
}

func (w *examWorld) snapshot() []models.ExamArrangementDetail {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.ExamArrangementDetail, 0, len(w.arrangements))
	for _, a := range w.arrangements {
		out = append(out, w.detail(a))
	}
	return out
}

// course reader

type worldCourses struct{ w *examWorld }

func (c worldCourses) List(context.Context, sqlx.ExtContext) ([]models.Course, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	return append([]models.Course(nil), c.w.courses...), nil
}

// room reader

type worldRooms struct{ w *examWorld }

func (r worldRooms) List(context.Context, sqlx.ExtContext) ([]models.Room, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return append([]models.Room(nil), r.w.rooms...), nil
}

func (r worldRooms) FindByID(_ context.Context, id string) (*models.Room, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	room, ok := r.w.roomByID(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (r worldRooms) ListByMinCapacity(_ context.Context, min int) ([]models.Room, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	var out []models.Room
	for _, room := range r.w.rooms {
		if room.Capacity >= min {
			out = append(out, room)
		}
	}
	return out, nil
}

// teacher constraints

type worldConstraints struct{ w *examWorld }

func (c worldConstraints) GetByTeacher(_ context.Context, _ sqlx.ExtContext, teacher string) (*models.TeacherConstraint, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if err := c.w.constraintErr[teacher]; err != nil {
		return nil, err
	}
	found, ok := c.w.constraints[teacher]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *found
	return &clone, nil
}

func (c worldConstraints) Upsert(_ context.Context, constraint *models.TeacherConstraint) error {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	clone := *constraint
	c.w.constraints[constraint.Teacher] = &clone
	return nil
}

// arrangements

type worldArrangements struct{ w *examWorld }

func (a worldArrangements) DeleteAll(context.Context, sqlx.ExtContext) (int64, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	n := int64(len(a.w.arrangements))
	a.w.arrangements = nil
	return n, nil
}

func (a worldArrangements) Create(_ context.Context, _ sqlx.ExtContext, arrangement *models.ExamArrangement) error {
	a.w.mu.Lock()
	if a.w.createErr != nil {
		a.w.mu.Unlock()
		return a.w.createErr
	}
	a.w.nextID++
	arrangement.ID = fmt.Sprintf("arr-%d", a.w.nextID)
	a.w.arrangements = append(a.w.arrangements, *arrangement)
	hook := a.w.createHook
	a.w.mu.Unlock()
	if hook != nil {
		hook(*arrangement)
	}
	return nil
}

func (a worldArrangements) FindDetailByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.ExamArrangementDetail, error) {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	for _, item := range a.w.arrangements {
		if item.ID == id {
			d := a.w.detail(item)
			return &d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (a worldArrangements) UpdatePlacement(_ context.Context, exec sqlx.ExtContext, id string, patch models.ExamArrangementPatch) error {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	a.w.updateExecs = append(a.w.updateExecs, exec)
	for i := range a.w.arrangements {
		if a.w.arrangements[i].ID != id {
			continue
		}
		if patch.RoomID != nil {
			a.w.arrangements[i].RoomID = *patch.RoomID
		}
		if patch.ExamDate != nil {
			a.w.arrangements[i].ExamDate = *patch.ExamDate
		}
		if patch.ExamTime != nil {
			a.w.arrangements[i].ExamTime = *patch.ExamTime
		}
		return nil
	}
	return sql.ErrNoRows
}

func (a worldArrangements) ListDetailed(context.Context) ([]models.ExamArrangementDetail, error) {
	list := a.w.snapshot()
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ExamDate != list[j].ExamDate {
			return list[i].ExamDate < list[j].ExamDate
		}
		return list[i].ExamTime < list[j].ExamTime
	})
	return list, nil
}

func (a worldArrangements) CountByTeacherDate(_ context.Context, _ sqlx.ExtContext, teacher, date string) (int, error) {
	n := 0
	for _, d := range a.w.snapshot() {
		if d.Teacher == teacher && d.ExamDate == date {
			n++
		}
	}
	return n, nil
}

func (a worldArrangements) ExistsTeacherSlot(_ context.Context, _ sqlx.ExtContext, teacher, date, slot string) (bool, error) {
	for _, d := range a.w.snapshot() {
		if d.Teacher == teacher && d.ExamDate == date && d.ExamTime == slot {
			return true, nil
		}
	}
	return false, nil
}

func (a worldArrangements) ListByTeacherBetween(_ context.Context, teacher, start, end string) ([]models.ExamArrangementDetail, error) {
	var out []models.ExamArrangementDetail
	list, _ := a.ListDetailed(context.Background())
	for _, d := range list {
		if d.Teacher != teacher {
			continue
		}
		if (start != "" && d.ExamDate < start) || (end != "" && d.ExamDate > end) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (a worldArrangements) find(match func(models.ExamArrangementDetail) bool, excludeID string) ([]models.ConflictEntry, error) {
	if a.w.conflictErr != nil {
		return nil, a.w.conflictErr
	}
	var out []models.ConflictEntry
	for _, d := range a.w.snapshot() {
		if d.ID == excludeID || !match(d) {
			continue
		}
		out = append(out, models.ConflictEntry{
			ArrangementID: d.ID,
			CourseName:    d.CourseTitle,
			ClassName:     d.ClassSection,
			Teacher:       d.Teacher,
			RoomName:      d.RoomName,
		})
	}
	return out, nil
}

func (a worldArrangements) FindRoomConflicts(_ context.Context, roomID, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	return a.find(func(d models.ExamArrangementDetail) bool {
		return d.RoomID == roomID && d.ExamDate == date && d.ExamTime == slot
	}, excludeID)
}

func (a worldArrangements) FindTeacherConflicts(_ context.Context, teacher, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	return a.find(func(d models.ExamArrangementDetail) bool {
		return d.Teacher == teacher && d.ExamDate == date && d.ExamTime == slot
	}, excludeID)
}

func (a worldArrangements) FindClassConflicts(_ context.Context, classSection, date, slot, excludeID string) ([]models.ConflictEntry, error) {
	return a.find(func(d models.ExamArrangementDetail) bool {
		return d.ClassSection == classSection && d.ExamDate == date && d.ExamTime == slot
	}, excludeID)
}

// sqlmock-backed transaction source

type mockTxSource struct {
	db *sqlx.DB
}

func (m *mockTxSource) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

func newMockTxSource(t *testing.T) (*mockTxSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &mockTxSource{db: sqlx.NewDb(db, "sqlmock")}, mock
}

type examFixture struct {
	world       *examWorld
	constraints *ConstraintService
	conflicts   *ConflictService
	scheduler   *ExamSchedulerService
	mock        sqlmock.Sqlmock
}

func newExamFixture(t *testing.T, world *examWorld) *examFixture {
	t.Helper()
	tx, mock := newMockTxSource(t)
	arrangements := worldArrangements{w: world}
	constraints := NewConstraintService(worldConstraints{w: world}, arrangements, nil, nil, nil)
	conflicts := NewConflictService(arrangements, worldRooms{w: world}, nil, nil, nil)
	scheduler := NewExamSchedulerService(
		worldCourses{w: world},
		worldRooms{w: world},
		arrangements,
		constraints,
		conflicts,
		tx,
		nil,
		nil,
		nil,
		nil,
		ExamSchedulerConfig{RandomSeed: 42},
	)
	return &examFixture{world: world, constraints: constraints, conflicts: conflicts, scheduler: scheduler, mock: mock}
}

func testCourse(id, teacher, class, homeRoom string, enrolled int) models.Course {
	return models.Course{
		ID:            id,
		Title:         "Course " + id,
		Teacher:       teacher,
		ClassSection:  class,
		HomeRoomID:    homeRoom,
		EnrolledCount: enrolled,
		Department:    "Science",
		Major:         "Physics",
		Level:         "2023",
	}
}

func testRoom(id string, capacity int) models.Room {
	return models.Room{ID: id, Name: "Room " + id, Capacity: capacity, Building: "Main"}
}
