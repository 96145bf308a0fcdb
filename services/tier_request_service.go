package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/repositories"
)

type TierRequestService interface {
	// RequestUpgrade создаёт pending-запрос на строго более высокий тир.
	RequestUpgrade(ctx context.Context, userID int, requestedTier models.Tier) (*models.TierRequest, error)
	// ListPending возвращает запросы в порядке поступления. Только админ.
	ListPending(ctx context.Context, adminID int) ([]models.TierRequest, error)
	// Approve атомарно помечает запрос approved и повышает тир аккаунта.
	Approve(ctx context.Context, requestID, adminID int) (*models.TierRequest, error)
	// Reject помечает запрос rejected; тир аккаунта не меняется.
	Reject(ctx context.Context, requestID, adminID int) (*models.TierRequest, error)
}

type tierRequestService struct {
	tx       repositories.Transactor
	reqRepo  repositories.TierRequestRepository
	userRepo repositories.UserRepository
}

func NewTierRequestService(
	tx repositories.Transactor,
	reqRepo repositories.TierRequestRepository,
	userRepo repositories.UserRepository,
) TierRequestService {
	return &tierRequestService{
		tx:       tx,
		reqRepo:  reqRepo,
		userRepo: userRepo,
	}
}

func (s *tierRequestService) RequestUpgrade(ctx context.Context, userID int, requestedTier models.Tier) (*models.TierRequest, error) {
	if !requestedTier.IsValid() {
		return nil, ErrInvalidTier
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	// Только монотонное повышение: понижения в этом ядре нет.
	if !requestedTier.Above(user.Tier) {
		return nil, ErrTierNotUpgrade
	}

	existing, err := s.reqRepo.FindPendingByUser(ctx, userID)
	if err != nil && !errors.Is(err, repositories.ErrTierRequestNotFound) {
		return nil, fmt.Errorf("failed to check pending tier request: %w", err)
	}
	if existing != nil {
		return nil, ErrPendingTierRequest
	}

	req := &models.TierRequest{
		UserID:        userID,
		CurrentTier:   user.Tier,
		RequestedTier: requestedTier,
		Status:        models.TierRequestStatusPending,
	}

	if err := s.reqRepo.Create(ctx, req); err != nil {
		if errors.Is(err, repositories.ErrTierRequestPendingExists) {
			return nil, ErrPendingTierRequest
		}
		return nil, err
	}
	return req, nil
}

func (s *tierRequestService) requireAdmin(ctx context.Context, adminID int) (*models.User, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", adminID, err)
	}
	if !admin.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return admin, nil
}

func (s *tierRequestService) ListPending(ctx context.Context, adminID int) ([]models.TierRequest, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.reqRepo.ListPending(ctx)
}

func (s *tierRequestService) Approve(ctx context.Context, requestID, adminID int) (*models.TierRequest, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	var req *models.TierRequest
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.reqRepo.GetByIDForUpdate(ctx, exec, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrTierRequestNotFound) {
				return ErrTierRequestNotFound
			}
			return err
		}
		if locked.Status != models.TierRequestStatusPending {
			return ErrTierRequestResolved
		}

		user, err := s.userRepo.GetByIDForUpdate(ctx, exec, locked.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		// Тир мог вырасти после подачи запроса; повышение остаётся строго
		// монотонным.
		if !locked.RequestedTier.Above(user.Tier) {
			return ErrTierNotUpgrade
		}

		// Повышение тира и пометка approved - одна транзакция: запрос не
		// должен наблюдаться approved при неизменённом тире, и наоборот.
		now := time.Now()
		if err := s.userRepo.UpdateTier(ctx, exec, user.ID, locked.RequestedTier); err != nil {
			return err
		}
		if err := s.reqRepo.Resolve(ctx, exec, requestID, models.TierRequestStatusApproved, now); err != nil {
			return err
		}

		locked.Status = models.TierRequestStatusApproved
		locked.ProcessedAt = &now
		req = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *tierRequestService) Reject(ctx context.Context, requestID, adminID int) (*models.TierRequest, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	var req *models.TierRequest
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.reqRepo.GetByIDForUpdate(ctx, exec, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrTierRequestNotFound) {
				return ErrTierRequestNotFound
			}
			return err
		}
		if locked.Status != models.TierRequestStatusPending {
			return ErrTierRequestResolved
		}

		now := time.Now()
		if err := s.reqRepo.Resolve(ctx, exec, requestID, models.TierRequestStatusRejected, now); err != nil {
			return err
		}

		locked.Status = models.TierRequestStatusRejected
		locked.ProcessedAt = &now
		req = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}
