package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

const adjustmentRequestColumns = `id, arrangement_id, requester, requested_at, original_date, original_time, original_room_id,
	new_date, new_time, new_room_id, reason, status, reviewer, review_note, reviewed_at`

// AdjustmentRequestRepository persists teacher adjustment requests.
type AdjustmentRequestRepository struct {
	db *sqlx.DB
}

// NewAdjustmentRequestRepository constructs the repository.
func NewAdjustmentRequestRepository(db *sqlx.DB) *AdjustmentRequestRepository {
	return &AdjustmentRequestRepository{db: db}
}

func (r *AdjustmentRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create stores a new pending request.
func (r *AdjustmentRequestRepository) Create(ctx context.Context, req *models.AdjustmentRequest) error {
	if req == nil {
		return fmt.Errorf("adjustment request payload is nil")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = models.AdjustmentRequestPending
	}

	const query = `
INSERT INTO exam_adjustment_requests (id, arrangement_id, requester, requested_at, original_date, original_time, original_room_id, new_date, new_time, new_room_id, reason, status)
VALUES (:id, :arrangement_id, :requester, :requested_at, :original_date, :original_time, :original_room_id, :new_date, :new_time, :new_room_id, :reason, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("insert adjustment request: %w", err)
	}
	return nil
}

// FindByID loads a request or returns sql.ErrNoRows.
func (r *AdjustmentRequestRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.AdjustmentRequest, error) {
	const query = `SELECT ` + adjustmentRequestColumns + ` FROM exam_adjustment_requests WHERE id = $1`
	var req models.AdjustmentRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests newest first.
func (r *AdjustmentRequestRepository) List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, error) {
	query := `SELECT ` + adjustmentRequestColumns + ` FROM exam_adjustment_requests WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Requester != "" {
		args = append(args, filter.Requester)
		query += fmt.Sprintf(` AND requester = $%d`, len(args))
	}
	query += ` ORDER BY requested_at DESC`

	var list []models.AdjustmentRequest
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("list adjustment requests: %w", err)
	}
	return list, nil
}

// MarkReviewed moves a pending request to status. It returns sql.ErrNoRows when
// the request is missing or no longer pending.
func (r *AdjustmentRequestRepository) MarkReviewed(ctx context.Context, exec sqlx.ExtContext, id string, status models.AdjustmentRequestStatus, reviewer, note string) error {
	const query = `UPDATE exam_adjustment_requests
SET status = $1, reviewer = $2, review_note = $3, reviewed_at = $4
WHERE id = $5 AND status = 'PENDING'`
	result, err := r.exec(exec).ExecContext(ctx, query, status, reviewer, note, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("review adjustment request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjustment request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
