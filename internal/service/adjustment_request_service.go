package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

type adjustmentRequestStore interface {
	Create(ctx context.Context, req *models.AdjustmentRequest) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.AdjustmentRequest, error)
	List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, error)
	MarkReviewed(ctx context.Context, exec sqlx.ExtContext, id string, status models.AdjustmentRequestStatus, reviewer, note string) error
}

type arrangementLookup interface {
	FindDetailByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ExamArrangementDetail, error)
}

type roomLookup interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type arrangementAdjuster interface {
	AdjustTx(ctx context.Context, exec sqlx.ExtContext, id string, req dto.AdjustArrangementRequest) (bool, error)
}

// AdjustmentRequestService handles teacher-submitted change requests and their review.
type AdjustmentRequestService struct {
	requests     adjustmentRequestStore
	arrangements arrangementLookup
	rooms        roomLookup
	conflicts    arrangementConflictChecker
	adjuster     arrangementAdjuster
	tx           txProvider
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAdjustmentRequestService wires request dependencies.
func NewAdjustmentRequestService(
	requests adjustmentRequestStore,
	arrangements arrangementLookup,
	rooms roomLookup,
	conflicts arrangementConflictChecker,
	adjuster arrangementAdjuster,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *AdjustmentRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentRequestService{
		requests:     requests,
		arrangements: arrangements,
		rooms:        rooms,
		conflicts:    conflicts,
		adjuster:     adjuster,
		tx:           tx,
		validator:    validate,
		logger:       logger,
	}
}

// Submit stores a pending request. Conflicts do not block submission; they are
// returned so the requester can decide whether to follow up.
func (s *AdjustmentRequestService) Submit(ctx context.Context, req dto.CreateAdjustmentRequest) (*dto.AdjustmentRequestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment request payload")
	}
	if !models.IsCanonicalSlot(req.NewTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", req.NewTime))
	}

	current, err := s.arrangements.FindDetailByID(ctx, nil, req.ArrangementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam arrangement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam arrangement")
	}
	if current.Teacher != req.Requester {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the course teacher may request a change")
	}

	room, err := s.rooms.FindByID(ctx, req.NewRoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s does not exist", req.NewRoomID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if room.Capacity < current.StudentCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s seats %d, session needs %d", room.ID, room.Capacity, current.StudentCount))
	}

	has, report := s.conflicts.CheckAll(ctx, req.NewRoomID, current.Teacher, current.ClassSection, req.NewDate, req.NewTime, current.ID)

	record := &models.AdjustmentRequest{
		ArrangementID:  current.ID,
		Requester:      req.Requester,
		OriginalDate:   current.ExamDate,
		OriginalTime:   current.ExamTime,
		OriginalRoomID: current.RoomID,
		NewDate:        req.NewDate,
		NewTime:        req.NewTime,
		NewRoomID:      req.NewRoomID,
		Reason:         req.Reason,
		Status:         models.AdjustmentRequestPending,
	}
	if err := s.requests.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save adjustment request")
	}

	s.logger.Info("adjustment request submitted",
		zap.String("request_id", record.ID),
		zap.String("arrangement_id", record.ArrangementID),
		zap.String("requester", record.Requester),
		zap.Bool("has_conflict", has),
	)
	return &dto.AdjustmentRequestResponse{Request: record, HasConflict: has, Conflicts: report}, nil
}

// List returns requests matching the query.
func (s *AdjustmentRequestService) List(ctx context.Context, query dto.AdjustmentRequestQuery) ([]models.AdjustmentRequest, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment request filter")
	}
	list, err := s.requests.List(ctx, models.AdjustmentRequestFilter{
		Status:    models.AdjustmentRequestStatus(query.Status),
		Requester: query.Requester,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list adjustment requests")
	}
	if list == nil {
		list = []models.AdjustmentRequest{}
	}
	return list, nil
}

// Get returns one request.
func (s *AdjustmentRequestService) Get(ctx context.Context, id string) (*models.AdjustmentRequest, error) {
	req, err := s.requests.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "adjustment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load adjustment request")
	}
	return req, nil
}

// Approve applies the requested move and marks the request approved in one
// transaction. The move is re-checked at approval time; a collision leaves the
// request pending and the arrangement where it was.
func (s *AdjustmentRequestService) Approve(ctx context.Context, id string, review dto.ReviewAdjustmentRequest) (*models.AdjustmentRequest, error) {
	if err := s.validator.Struct(review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	pending, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
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

	if err = s.requests.MarkReviewed(ctx, tx, id, models.AdjustmentRequestApproved, review.Reviewer, review.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "adjustment request is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve adjustment request")
	}

	if _, err = s.adjuster.AdjustTx(ctx, tx, pending.ArrangementID, dto.AdjustArrangementRequest{
		RoomID:   &pending.NewRoomID,
		Date:     &pending.NewDate,
		TimeSlot: &pending.NewTime,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit approval")
	}

	s.logger.Info("adjustment request approved", zap.String("request_id", id), zap.String("reviewer", review.Reviewer))
	return s.Get(ctx, id)
}

// Reject closes a pending request without touching the arrangement.
func (s *AdjustmentRequestService) Reject(ctx context.Context, id string, review dto.ReviewAdjustmentRequest) (*models.AdjustmentRequest, error) {
	if err := s.validator.Struct(review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if _, err := s.loadPending(ctx, id); err != nil {
		return nil, err
	}
	if err := s.requests.MarkReviewed(ctx, nil, id, models.AdjustmentRequestRejected, review.Reviewer, review.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "adjustment request is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject adjustment request")
	}
	s.logger.Info("adjustment request rejected", zap.String("request_id", id), zap.String("reviewer", review.Reviewer))
	return s.Get(ctx, id)
}

func (s *AdjustmentRequestService) loadPending(ctx context.Context, id string) (*models.AdjustmentRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.AdjustmentRequestPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("adjustment request is already %s", req.Status))
	}
	return req, nil
}
