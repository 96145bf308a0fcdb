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
	ErrTierRequestNotFound = errors.New("tier request not found")
	// У аккаунта может быть не более одного pending-запроса.
	ErrTierRequestPendingExists = errors.New("account already has a pending tier request")
	ErrTierRequestUserInvalid   = errors.New("invalid tier request user reference")
)

type TierRequestRepository interface {
	Create(ctx context.Context, req *models.TierRequest) error
	GetByID(ctx context.Context, id int) (*models.TierRequest, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TierRequest, error)
	FindPendingByUser(ctx context.Context, userID int) (*models.TierRequest, error)
	// ListPending возвращает запросы в порядке поступления (старые первыми).
	ListPending(ctx context.Context) ([]models.TierRequest, error)
	Resolve(ctx context.Context, exec SQLExecutor, id int, status models.TierRequestStatus, processedAt time.Time) error
}

type postgresTierRequestRepository struct {
	db *sql.DB
}

func NewPostgresTierRequestRepository(db *sql.DB) TierRequestRepository {
	return &postgresTierRequestRepository{db: db}
}

func (r *postgresTierRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tierRequestColumns = `id, user_id, current_tier, requested_tier, status, created_at, processed_at`

func scanTierRequestRow(row *sql.Row) (*models.TierRequest, error) {
	req := &models.TierRequest{}
	err := row.Scan(
		&req.ID, &req.UserID, &req.CurrentTier, &req.RequestedTier,
		&req.Status, &req.CreatedAt, &req.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTierRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *postgresTierRequestRepository) Create(ctx context.Context, req *models.TierRequest) error {
	query := `
		INSERT INTO tier_requests (user_id, current_tier, requested_tier, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		req.UserID, req.CurrentTier, req.RequestedTier, req.Status,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation (partial index по pending)
				if pqErr.Constraint == "tier_requests_user_id_pending_key" {
					return ErrTierRequestPendingExists
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "tier_requests_user_id_fkey" {
					return ErrTierRequestUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create tier request: %w", err)
	}
	return nil
}

func (r *postgresTierRequestRepository) GetByID(ctx context.Context, id int) (*models.TierRequest, error) {
	query := `SELECT ` + tierRequestColumns + ` FROM tier_requests WHERE id = $1`
	return scanTierRequestRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTierRequestRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TierRequest, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tierRequestColumns + ` FROM tier_requests WHERE id = $1 FOR UPDATE`
	return scanTierRequestRow(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresTierRequestRepository) FindPendingByUser(ctx context.Context, userID int) (*models.TierRequest, error) {
	query := `SELECT ` + tierRequestColumns + ` FROM tier_requests WHERE user_id = $1 AND status = $2`
	return scanTierRequestRow(r.db.QueryRowContext(ctx, query, userID, models.TierRequestStatusPending))
}

func (r *postgresTierRequestRepository) ListPending(ctx context.Context) ([]models.TierRequest, error) {
	query := `SELECT ` + tierRequestColumns + ` FROM tier_requests WHERE status = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, models.TierRequestStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.TierRequest, 0)
	for rows.Next() {
		var req models.TierRequest
		if scanErr := rows.Scan(
			&req.ID, &req.UserID, &req.CurrentTier, &req.RequestedTier,
			&req.Status, &req.CreatedAt, &req.ProcessedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresTierRequestRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, status models.TierRequestStatus, processedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tier_requests SET status = $1, processed_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, status, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to resolve tier request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTierRequestNotFound)
}
