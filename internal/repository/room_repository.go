package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

const roomColumns = `id, name, capacity, building, floor, available_days, available_times`

// RoomRepository reads and imports exam rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns every room ordered by id.
func (r *RoomRepository) List(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM exam_rooms ORDER BY id`
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListByMinCapacity returns rooms seating at least minCapacity, smallest first.
func (r *RoomRepository) ListByMinCapacity(ctx context.Context, minCapacity int) ([]models.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM exam_rooms WHERE capacity >= $1 ORDER BY capacity, id`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, minCapacity); err != nil {
		return nil, fmt.Errorf("list rooms by capacity: %w", err)
	}
	return rooms, nil
}

// FindByID loads one room.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM exam_rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Upsert inserts or replaces a room by id.
func (r *RoomRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, room *models.Room) error {
	if room == nil || room.ID == "" {
		return fmt.Errorf("room id is required")
	}
	const query = `INSERT INTO exam_rooms (` + roomColumns + `)
		VALUES (:id, :name, :capacity, :building, :floor, :available_days, :available_times)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    capacity = EXCLUDED.capacity,
		    building = EXCLUDED.building,
		    floor = EXCLUDED.floor,
		    available_days = EXCLUDED.available_days,
		    available_times = EXCLUDED.available_times`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, room); err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}
	return nil
}
