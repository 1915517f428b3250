package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

type adjustmentRequestStoreStub struct {
	mu    sync.Mutex
	items map[string]*models.AdjustmentRequest
	seq   int

	reviewExecs []sqlx.ExtContext
}

func newAdjustmentRequestStoreStub() *adjustmentRequestStoreStub {
	return &adjustmentRequestStoreStub{items: map[string]*models.AdjustmentRequest{}}
}

func (s *adjustmentRequestStoreStub) Create(_ context.Context, req *models.AdjustmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	req.ID = fmt.Sprintf("req-%d", s.seq)
	req.RequestedAt = time.Date(2025, 5, 1, 8, 0, s.seq, 0, time.UTC)
	clone := *req
	s.items[req.ID] = &clone
	return nil
}

func (s *adjustmentRequestStoreStub) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.AdjustmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (s *adjustmentRequestStoreStub) List(_ context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdjustmentRequest
	for _, item := range s.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Requester != "" && item.Requester != filter.Requester {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (s *adjustmentRequestStoreStub) MarkReviewed(_ context.Context, exec sqlx.ExtContext, id string, status models.AdjustmentRequestStatus, reviewer, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewExecs = append(s.reviewExecs, exec)
	item, ok := s.items[id]
	if !ok || item.Status != models.AdjustmentRequestPending {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	item.Status = status
	item.Reviewer = &reviewer
	item.ReviewNote = &note
	item.ReviewedAt = &now
	return nil
}

type adjustmentFixture struct {
	*examFixture
	store   *adjustmentRequestStoreStub
	service *AdjustmentRequestService
}

func newAdjustmentFixture(t *testing.T) *adjustmentFixture {
	t.Helper()
	f := newExamFixture(t, seedAdjustWorld())
	store := newAdjustmentRequestStoreStub()
	svc := NewAdjustmentRequestService(
		store,
		worldArrangements{w: f.world},
		worldRooms{w: f.world},
		f.conflicts,
		f.scheduler,
		f.scheduler.tx,
		nil,
		nil,
	)
	return &adjustmentFixture{examFixture: f, store: store, service: svc}
}

func validSubmission() dto.CreateAdjustmentRequest {
	return dto.CreateAdjustmentRequest{
		ArrangementID: "arr-1",
		Requester:     "T1",
		NewDate:       tuesday,
		NewTime:       "14:00-16:00",
		NewRoomID:     "R2",
		Reason:        "clashes with a conference",
	}
}

func TestAdjustmentRequestSubmit(t *testing.T) {
	f := newAdjustmentFixture(t)

	resp, err := f.service.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.False(t, resp.HasConflict)
	assert.Equal(t, models.AdjustmentRequestPending, resp.Request.Status)
	assert.Equal(t, monday, resp.Request.OriginalDate)
	assert.Equal(t, "08:00-10:00", resp.Request.OriginalTime)
	assert.Equal(t, "R1", resp.Request.OriginalRoomID)

	clash := validSubmission()
	clash.NewDate = monday
	clash.NewTime = "10:30-12:30"
	resp, err = f.service.Submit(context.Background(), clash)
	require.NoError(t, err)
	assert.True(t, resp.HasConflict)
	assert.Len(t, resp.Conflicts.Room, 1)

	list, err := f.service.List(context.Background(), dto.AdjustmentRequestQuery{Requester: "T1"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAdjustmentRequestSubmitRejectsBadInput(t *testing.T) {
	f := newAdjustmentFixture(t)

	other := validSubmission()
	other.Requester = "T2"
	_, err := f.service.Submit(context.Background(), other)
	requireAppError(t, err, appErrors.ErrForbidden)

	missing := validSubmission()
	missing.ArrangementID = "nope"
	_, err = f.service.Submit(context.Background(), missing)
	requireAppError(t, err, appErrors.ErrNotFound)

	badSlot := validSubmission()
	badSlot.NewTime = "07:00-09:00"
	_, err = f.service.Submit(context.Background(), badSlot)
	requireAppError(t, err, appErrors.ErrValidation)

	small := validSubmission()
	small.NewRoomID = "R3"
	_, err = f.service.Submit(context.Background(), small)
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = f.service.Submit(context.Background(), dto.CreateAdjustmentRequest{})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestAdjustmentRequestApproveMovesArrangement(t *testing.T) {
	f := newAdjustmentFixture(t)
	resp, err := f.service.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	approved, err := f.service.Approve(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{Reviewer: "admin", Note: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.AdjustmentRequestApproved, approved.Status)
	require.NotNil(t, approved.Reviewer)
	assert.Equal(t, "admin", *approved.Reviewer)

	moved, err := worldArrangements{w: f.world}.FindDetailByID(context.Background(), nil, "arr-1")
	require.NoError(t, err)
	assert.Equal(t, "R2", moved.RoomID)
	assert.Equal(t, tuesday, moved.ExamDate)
	assert.Equal(t, "14:00-16:00", moved.ExamTime)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	_, err = f.service.Approve(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{Reviewer: "admin"})
	requireAppError(t, err, appErrors.ErrPreconditionFailed)
}

func TestAdjustmentRequestApproveSharesTransaction(t *testing.T) {
	f := newAdjustmentFixture(t)
	resp, err := f.service.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit().WillReturnError(errors.New("commit lost"))

	_, err = f.service.Approve(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{Reviewer: "admin"})
	requireAppError(t, err, appErrors.ErrInternal)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	require.Len(t, f.store.reviewExecs, 1)
	require.Len(t, f.world.updateExecs, 1)
	tx, ok := f.world.updateExecs[0].(*sqlx.Tx)
	require.True(t, ok, "arrangement write must run on the approval transaction")
	assert.Same(t, f.store.reviewExecs[0], tx)
}

func TestAdjustmentRequestApproveRevalidates(t *testing.T) {
	f := newAdjustmentFixture(t)
	resp, err := f.service.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	require.False(t, resp.HasConflict)

	// the target slot is taken after submission
	f.world.arrangements = append(f.world.arrangements, models.ExamArrangement{
		ID: "arr-9", CourseID: "c2", RoomID: "R2", ExamDate: tuesday, ExamTime: "14:00-16:00", ClassSection: "B",
	})

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err = f.service.Approve(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{Reviewer: "admin"})
	requireAppError(t, err, appErrors.ErrConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	unchanged, err := worldArrangements{w: f.world}.FindDetailByID(context.Background(), nil, "arr-1")
	require.NoError(t, err)
	assert.Equal(t, "R1", unchanged.RoomID)
}

func TestAdjustmentRequestReject(t *testing.T) {
	f := newAdjustmentFixture(t)
	resp, err := f.service.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	rejected, err := f.service.Reject(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{Reviewer: "admin", Note: "no rooms"})
	require.NoError(t, err)
	assert.Equal(t, models.AdjustmentRequestRejected, rejected.Status)

	pending, err := f.service.List(context.Background(), dto.AdjustmentRequestQuery{Status: "PENDING"})
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.service.Reject(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{Reviewer: "admin"})
	requireAppError(t, err, appErrors.ErrPreconditionFailed)
	_, err = f.service.Reject(context.Background(), resp.Request.ID, dto.ReviewAdjustmentRequest{})
	requireAppError(t, err, appErrors.ErrValidation)
	_, err = f.service.Get(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound)
}
