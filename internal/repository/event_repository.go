package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/event-service/internal/dbx"
	"github.com/spec-kit/event-service/internal/domain"
)

// EventRepository manages event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	List(ctx context.Context) ([]domain.Event, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	Update(ctx context.Context, id int64, patch domain.EventPatch) error
	Delete(ctx context.Context, id int64) error
}

type eventRepository struct {
	db dbx.DBTX
}

// NewEventRepository builds the repository.
func NewEventRepository(db dbx.DBTX) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, name, description, event_date, venue, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (name, description, event_date, venue)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.Date,
		event.Venue,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepository) List(ctx context.Context) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY event_date, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Event, 0)
	for rows.Next() {
		var event domain.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id=$1`
	var event domain.Event
	if err := scanEvent(r.db.QueryRowContext(ctx, query, id), &event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return &event, nil
}

// Update writes only the fields present in patch.
func (r *eventRepository) Update(ctx context.Context, id int64, patch domain.EventPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 5)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Date != nil {
		add("event_date", *patch.Date)
	}
	if patch.Venue != nil {
		add("venue", *patch.Venue)
	}
	if len(sets) == 0 {
		return errors.New("update event: empty patch")
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE events SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(res)
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, event *domain.Event) error {
	return row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.Venue,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
