package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/scrim-system/live"
	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/repositories"
)

type ApplyInput struct {
	SelectedMaps    []string `json:"selected_maps"`
	PreferredRounds int      `json:"preferred_rounds"`
	PreferredGames  int      `json:"preferred_games"`
	Message         string   `json:"message"`
}

type ApplicationService interface {
	// Apply подаёт заявку команды текущего пользователя на открытый скрим.
	// Порядок проверок фиксирован: состояние скрима, свой скрим, повторная
	// заявка, тировая совместимость.
	Apply(ctx context.Context, scrimID, currentUserID int, input ApplyInput) (*models.Application, error)
	// Resolve принимает одну заявку и атомарно отклоняет остальные,
	// переводя скрим в filled.
	Resolve(ctx context.Context, scrimID, applicationID, currentUserID int) (*models.Scrim, error)
}

type applicationService struct {
	tx        repositories.Transactor
	appRepo   repositories.ApplicationRepository
	scrimRepo repositories.ScrimRepository
	teamRepo  repositories.TeamRepository
	userRepo  repositories.UserRepository
	notifier  BoardNotifier
}

func NewApplicationService(
	tx repositories.Transactor,
	appRepo repositories.ApplicationRepository,
	scrimRepo repositories.ScrimRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	notifier BoardNotifier,
) ApplicationService {
	return &applicationService{
		tx:        tx,
		appRepo:   appRepo,
		scrimRepo: scrimRepo,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		notifier:  notifier,
	}
}

func validateApplyInput(input ApplyInput, scrim *models.Scrim) error {
	scrimMaps := make(map[string]struct{}, len(scrim.Maps))
	for _, name := range scrim.Maps {
		scrimMaps[name] = struct{}{}
	}
	for _, name := range input.SelectedMaps {
		if _, ok := scrimMaps[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMapsNotSubset, name)
		}
	}
	if !models.IsValidMaxRounds(input.PreferredRounds) {
		return ErrScrimInvalidRounds
	}
	if input.PreferredGames < 1 {
		return ErrScrimInvalidGames
	}
	return nil
}

func (s *applicationService) Apply(ctx context.Context, scrimID, currentUserID int, input ApplyInput) (*models.Application, error) {
	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}
	if user.TeamID == nil {
		return nil, ErrUserHasNoTeam
	}
	teamID := *user.TeamID

	scrim, err := s.scrimRepo.GetByID(ctx, scrimID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrScrimNotFound
		}
		return nil, fmt.Errorf("failed to get scrim %d: %w", scrimID, err)
	}

	// 1. Скрим должен быть открыт.
	if scrim.Status != models.ScrimStatusOpen {
		return nil, ErrScrimNotOpen
	}
	// 2. На свой скрим подавать нельзя.
	if scrim.TeamID == teamID {
		return nil, ErrOwnScrimApplication
	}
	// 3. Повторная заявка - ошибка, не тихий дубликат.
	existing, err := s.appRepo.FindByScrimAndTeam(ctx, scrimID, teamID)
	if err != nil && !errors.Is(err, repositories.ErrApplicationNotFound) {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateApplication
	}
	// 4. Тир команды должен покрывать тир скрима.
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if !team.Tier.CanAccess(scrim.Tier) {
		return nil, ErrTierNotVisible
	}

	if err := validateApplyInput(input, scrim); err != nil {
		return nil, err
	}

	app := &models.Application{
		ScrimID:         scrimID,
		TeamID:          teamID,
		SelectedMaps:    input.SelectedMaps,
		PreferredRounds: input.PreferredRounds,
		PreferredGames:  input.PreferredGames,
		Message:         input.Message,
		Status:          models.ApplicationStatusPending,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Перепроверка под блокировкой: скрим мог истечь или заполниться
		// между первой проверкой и вставкой.
		locked, err := s.scrimRepo.GetByIDForUpdate(ctx, exec, scrimID)
		if err != nil {
			if errors.Is(err, repositories.ErrScrimNotFound) {
				return ErrScrimNotFound
			}
			return err
		}
		if locked.Status != models.ScrimStatusOpen {
			return ErrScrimNotOpen
		}
		if err := s.appRepo.Create(ctx, exec, app); err != nil {
			if errors.Is(err, repositories.ErrApplicationConflict) {
				return ErrDuplicateApplication
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (s *applicationService) Resolve(ctx context.Context, scrimID, applicationID, currentUserID int) (*models.Scrim, error) {
	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}

	var scrim *models.Scrim
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.scrimRepo.GetByIDForUpdate(ctx, exec, scrimID)
		if err != nil {
			if errors.Is(err, repositories.ErrScrimNotFound) {
				return ErrScrimNotFound
			}
			return err
		}
		if user.TeamID == nil || *user.TeamID != locked.TeamID {
			return ErrNotTeamMember
		}
		if locked.Status != models.ScrimStatusOpen {
			return ErrScrimNotOpen
		}

		app, err := s.appRepo.GetByID(ctx, applicationID)
		if err != nil {
			if errors.Is(err, repositories.ErrApplicationNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if app.ScrimID != scrimID || app.Status != models.ApplicationStatusPending {
			return ErrApplicationNotFound
		}

		// filled + accept + reject остальных - одна транзакция: частично
		// применённый resolve наблюдаться не должен.
		if err := s.appRepo.UpdateStatus(ctx, exec, applicationID, models.ApplicationStatusAccepted); err != nil {
			return err
		}
		if err := s.appRepo.RejectPendingExcept(ctx, exec, scrimID, applicationID); err != nil {
			return err
		}
		if err := s.scrimRepo.MarkFilled(ctx, exec, scrimID, applicationID); err != nil {
			return err
		}

		locked.Status = models.ScrimStatusFilled
		locked.AcceptedApplicationID = &applicationID
		scrim = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(live.BoardRoom, live.Message{
			Type:    live.EventScrimFilled,
			Payload: scrim,
			RoomID:  live.BoardRoom,
		})
	}
	return scrim, nil
}
