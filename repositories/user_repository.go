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
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserUsernameConflict = errors.New("user username conflict")
	ErrUserTeamInvalid      = errors.New("user team conflict or invalid")
	// Аккаунт уже состоит в команде; членство строго одно.
	ErrUserAlreadyInTeam = errors.New("user already belongs to a team")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByIDForUpdate блокирует строку аккаунта на время транзакции.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	// AssignTeam выставляет team_id только если аккаунт ещё без команды.
	AssignTeam(ctx context.Context, exec SQLExecutor, userID, teamID int) error
	ClearTeam(ctx context.Context, exec SQLExecutor, userID int) error
	UpdateTier(ctx context.Context, exec SQLExecutor, userID int, tier models.Tier) error
	ListByTeamID(ctx context.Context, teamID int) ([]models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, username, email, password_hash, valorant_username, valorant_tag, tier, rank, role, team_id, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ValorantUsername, &u.ValorantTag,
		&u.Tier, &u.Rank, &u.Role, &u.TeamID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, valorant_username, valorant_tag, tier, rank, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ValorantUsername,
		user.ValorantTag,
		user.Tier,
		user.Rank,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				if pqErr.Constraint == "users_email_key" {
					return ErrUserEmailConflict
				}
				if pqErr.Constraint == "users_username_key" {
					return ErrUserUsernameConflict
				}
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *postgresUserRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) AssignTeam(ctx context.Context, exec SQLExecutor, userID, teamID int) error {
	executor := r.getExecutor(exec)
	// Условный UPDATE гарантирует единственность членства даже при гонках.
	query := `UPDATE users SET team_id = $1 WHERE id = $2 AND team_id IS NULL`
	result, err := executor.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" && pqErr.Constraint == "users_team_id_fkey" { // foreign_key_violation
				return ErrUserTeamInvalid
			}
		}
		return fmt.Errorf("failed to assign team %d to user %d: %w", teamID, userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Либо аккаунта нет, либо он уже в команде - различаем отдельным чтением.
		var exists bool
		if scanErr := executor.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); scanErr != nil {
			return fmt.Errorf("failed to verify user %d: %w", userID, scanErr)
		}
		if !exists {
			return ErrUserNotFound
		}
		return ErrUserAlreadyInTeam
	}
	return nil
}

func (r *postgresUserRepository) ClearTeam(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET team_id = NULL WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear team for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateTier(ctx context.Context, exec SQLExecutor, userID int, tier models.Tier) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET tier = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, tier, userID)
	if err != nil {
		return fmt.Errorf("failed to update tier for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.ValorantUsername, &u.ValorantTag,
			&u.Tier, &u.Rank, &u.Role, &u.TeamID, &u.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
