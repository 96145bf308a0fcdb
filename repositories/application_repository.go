package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/scrim-system/models"
	"github.com/lib/pq"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	// Пара (scrim_id, team_id) уникальна: повторная заявка не создаётся.
	ErrApplicationConflict     = errors.New("team already applied to this scrim")
	ErrApplicationScrimInvalid = errors.New("invalid application scrim reference")
	ErrApplicationTeamInvalid  = errors.New("invalid application team reference")
)

type ApplicationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, app *models.Application) error
	GetByID(ctx context.Context, id int) (*models.Application, error)
	FindByScrimAndTeam(ctx context.Context, scrimID, teamID int) (*models.Application, error)
	ListByScrim(ctx context.Context, scrimID int) ([]models.Application, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApplicationStatus) error
	// RejectPendingExcept отклоняет все pending-заявки скрима, кроме принятой.
	RejectPendingExcept(ctx context.Context, exec SQLExecutor, scrimID, acceptedID int) error
}

type postgresApplicationRepository struct {
	db *sql.DB
}

func NewPostgresApplicationRepository(db *sql.DB) ApplicationRepository {
	return &postgresApplicationRepository{db: db}
}

func (r *postgresApplicationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const applicationColumns = `id, scrim_id, team_id, selected_maps, preferred_rounds, preferred_games, message, status, created_at`

func scanApplicationRow(row *sql.Row) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(
		&a.ID, &a.ScrimID, &a.TeamID, pq.Array(&a.SelectedMaps),
		&a.PreferredRounds, &a.PreferredGames, &a.Message, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresApplicationRepository) Create(ctx context.Context, exec SQLExecutor, app *models.Application) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO applications (scrim_id, team_id, selected_maps, preferred_rounds, preferred_games, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		app.ScrimID, app.TeamID, pq.Array(app.SelectedMaps),
		app.PreferredRounds, app.PreferredGames, app.Message, app.Status,
	).Scan(&app.ID, &app.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "applications_scrim_id_team_id_key" {
					return ErrApplicationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "applications_scrim_id_fkey":
					return ErrApplicationScrimInvalid
				case "applications_team_id_fkey":
					return ErrApplicationTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (r *postgresApplicationRepository) GetByID(ctx context.Context, id int) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplicationRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresApplicationRepository) FindByScrimAndTeam(ctx context.Context, scrimID, teamID int) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE scrim_id = $1 AND team_id = $2`
	return scanApplicationRow(r.db.QueryRowContext(ctx, query, scrimID, teamID))
}

func (r *postgresApplicationRepository) ListByScrim(ctx context.Context, scrimID int) ([]models.Application, error) {
	// Порядок прибытия - tie-break для политики "первый пришёл".
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE scrim_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, scrimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		var a models.Application
		if scanErr := rows.Scan(
			&a.ID, &a.ScrimID, &a.TeamID, pq.Array(&a.SelectedMaps),
			&a.PreferredRounds, &a.PreferredGames, &a.Message, &a.Status, &a.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		apps = append(apps, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *postgresApplicationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApplicationStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE applications SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update application %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrApplicationNotFound)
}

func (r *postgresApplicationRepository) RejectPendingExcept(ctx context.Context, exec SQLExecutor, scrimID, acceptedID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE applications SET status = $1 WHERE scrim_id = $2 AND id <> $3 AND status = $4`
	_, err := executor.ExecContext(ctx, query,
		models.ApplicationStatusRejected, scrimID, acceptedID, models.ApplicationStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to reject pending applications for scrim %d: %w", scrimID, err)
	}
	return nil
}
