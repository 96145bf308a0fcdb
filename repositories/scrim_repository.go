package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/scrim-system/models"
	"github.com/lib/pq"
)

var (
	ErrScrimNotFound    = errors.New("scrim not found")
	ErrScrimTeamInvalid = errors.New("invalid scrim team reference")
)

// ListScrimsFilter сужает выборку скримов. VisibleTiers обязателен для
// выборок от имени аккаунта: он уже учитывает тировую видимость.
type ListScrimsFilter struct {
	VisibleTiers []models.Tier
	Tier         *models.Tier
	Status       *models.ScrimStatus
	TeamID       *int
	MaxRounds    *int
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

type ScrimRepository interface {
	Create(ctx context.Context, scrim *models.Scrim) error
	GetByID(ctx context.Context, id int) (*models.Scrim, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Scrim, error)
	List(ctx context.Context, filter ListScrimsFilter) ([]models.Scrim, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ScrimStatus) error
	// MarkFilled атомарно переводит скрим в filled и запоминает принятую заявку.
	MarkFilled(ctx context.Context, exec SQLExecutor, id int, acceptedApplicationID int) error
	// ExpireDue переводит в expired все open/filled скримы с прошедшим
	// временем. Идемпотентна; возвращает ID затронутых скримов.
	ExpireDue(ctx context.Context, now time.Time) ([]int, error)
}

type postgresScrimRepository struct {
	db *sql.DB
}

func NewPostgresScrimRepository(db *sql.DB) ScrimRepository {
	return &postgresScrimRepository{db: db}
}

func (r *postgresScrimRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const scrimColumns = `id, team_id, title, description, maps, max_rounds, num_games, scheduled_time, max_participants, tier, status, accepted_application_id, created_at`

func scanScrimRow(row *sql.Row) (*models.Scrim, error) {
	s := &models.Scrim{}
	err := row.Scan(
		&s.ID, &s.TeamID, &s.Title, &s.Description, pq.Array(&s.Maps),
		&s.MaxRounds, &s.NumGames, &s.ScheduledTime, &s.MaxParticipants,
		&s.Tier, &s.Status, &s.AcceptedApplicationID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScrimNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresScrimRepository) Create(ctx context.Context, s *models.Scrim) error {
	query := `
		INSERT INTO scrims (team_id, title, description, maps, max_rounds, num_games, scheduled_time, max_participants, tier, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		s.TeamID, s.Title, s.Description, pq.Array(s.Maps),
		s.MaxRounds, s.NumGames, s.ScheduledTime, s.MaxParticipants,
		s.Tier, s.Status,
	).Scan(&s.ID, &s.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" && pqErr.Constraint == "scrims_team_id_fkey" { // foreign_key_violation
				return ErrScrimTeamInvalid
			}
		}
		return fmt.Errorf("failed to create scrim: %w", err)
	}
	return nil
}

func (r *postgresScrimRepository) GetByID(ctx context.Context, id int) (*models.Scrim, error) {
	query := `SELECT ` + scrimColumns + ` FROM scrims WHERE id = $1`
	return scanScrimRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresScrimRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Scrim, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + scrimColumns + ` FROM scrims WHERE id = $1 FOR UPDATE`
	return scanScrimRow(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresScrimRepository) List(ctx context.Context, filter ListScrimsFilter) ([]models.Scrim, error) {
	query := `SELECT ` + scrimColumns + ` FROM scrims WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if len(filter.VisibleTiers) > 0 {
		tiers := make([]string, len(filter.VisibleTiers))
		for i, t := range filter.VisibleTiers {
			tiers[i] = string(t)
		}
		query += fmt.Sprintf(" AND tier = ANY($%d)", argID)
		args = append(args, pq.Array(tiers))
		argID++
	}
	if filter.Tier != nil {
		query += fmt.Sprintf(" AND tier = $%d", argID)
		args = append(args, *filter.Tier)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.TeamID != nil {
		query += fmt.Sprintf(" AND team_id = $%d", argID)
		args = append(args, *filter.TeamID)
		argID++
	}
	if filter.MaxRounds != nil {
		query += fmt.Sprintf(" AND max_rounds = $%d", argID)
		args = append(args, *filter.MaxRounds)
		argID++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND scheduled_time >= $%d", argID)
		args = append(args, *filter.From)
		argID++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND scheduled_time < $%d", argID)
		args = append(args, *filter.To)
		argID++
	}

	// Детерминированный порядок: ближайшие скримы первыми, равные времена
	// разрешаются по id.
	query += " ORDER BY scheduled_time ASC, id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scrims := make([]models.Scrim, 0)
	for rows.Next() {
		var s models.Scrim
		if scanErr := rows.Scan(
			&s.ID, &s.TeamID, &s.Title, &s.Description, pq.Array(&s.Maps),
			&s.MaxRounds, &s.NumGames, &s.ScheduledTime, &s.MaxParticipants,
			&s.Tier, &s.Status, &s.AcceptedApplicationID, &s.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		scrims = append(scrims, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return scrims, nil
}

func (r *postgresScrimRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ScrimStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE scrims SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update scrim %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrScrimNotFound)
}

func (r *postgresScrimRepository) MarkFilled(ctx context.Context, exec SQLExecutor, id int, acceptedApplicationID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE scrims SET status = $1, accepted_application_id = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.ScrimStatusFilled, acceptedApplicationID, id)
	if err != nil {
		return fmt.Errorf("failed to mark scrim %d filled: %w", id, err)
	}
	return checkAffectedRows(result, ErrScrimNotFound)
}

func (r *postgresScrimRepository) ExpireDue(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		UPDATE scrims SET status = $1
		WHERE status IN ($2, $3) AND scheduled_time < $4
		RETURNING id`

	rows, err := r.db.QueryContext(ctx, query,
		models.ScrimStatusExpired, models.ScrimStatusOpen, models.ScrimStatusFilled, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire due scrims: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
