package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/scrim-system/live"
	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/repositories"
)

// BoardNotifier транслирует события жизненного цикла скримов на живую доску.
// Реализуется live.Hub; в тестах может быть nil.
type BoardNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

type CreateScrimInput struct {
	CreatorID       int       `json:"-"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Maps            []string  `json:"maps"`
	MaxRounds       int       `json:"max_rounds"`
	NumGames        int       `json:"num_games"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	MaxParticipants int       `json:"max_participants"`
}

// ScrimListFilter - фильтры поверх тировой видимости.
type ScrimListFilter struct {
	Tier      *models.Tier
	Status    *models.ScrimStatus
	MaxRounds *int
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type ScrimService interface {
	CreateScrim(ctx context.Context, input CreateScrimInput) (*models.Scrim, error)
	// ListVisible возвращает скримы, доступные аккаунту по тиру, после
	// пользовательских фильтров, отсортированные по scheduled_time (id -
	// tie-break).
	ListVisible(ctx context.Context, userID int, filter ScrimListFilter) ([]models.Scrim, error)
	GetScrim(ctx context.Context, userID, scrimID int) (*models.Scrim, error)
	// Close переводит filled-скрим в closed после сыгранного матча.
	Close(ctx context.Context, scrimID, currentUserID int) (*models.Scrim, error)
	// CloseExpired переводит в expired все просроченные open/filled скримы.
	// Идемпотентна, безопасна при конкурентных apply/resolve.
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

type scrimService struct {
	tx        repositories.Transactor
	scrimRepo repositories.ScrimRepository
	teamRepo  repositories.TeamRepository
	userRepo  repositories.UserRepository
	appRepo   repositories.ApplicationRepository
	notifier  BoardNotifier
}

func NewScrimService(
	tx repositories.Transactor,
	scrimRepo repositories.ScrimRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	appRepo repositories.ApplicationRepository,
	notifier BoardNotifier,
) ScrimService {
	return &scrimService{
		tx:        tx,
		scrimRepo: scrimRepo,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		appRepo:   appRepo,
		notifier:  notifier,
	}
}

func validateScrimInput(input CreateScrimInput, now time.Time) error {
	if input.Title == "" {
		return ErrScrimTitleRequired
	}
	if len(input.Maps) == 0 {
		return ErrScrimMapsRequired
	}
	if invalid := models.InvalidMaps(input.Maps); len(invalid) > 0 {
		return fmt.Errorf("%w: %v", ErrScrimInvalidMaps, invalid)
	}
	if !models.IsValidMaxRounds(input.MaxRounds) {
		return ErrScrimInvalidRounds
	}
	if input.NumGames < 1 {
		return ErrScrimInvalidGames
	}
	if !input.ScheduledTime.After(now) {
		return ErrScrimScheduleInPast
	}
	if input.MaxParticipants < 2 || input.MaxParticipants%2 != 0 {
		return ErrScrimInvalidCapacity
	}
	return nil
}

func (s *scrimService) CreateScrim(ctx context.Context, input CreateScrimInput) (*models.Scrim, error) {
	if err := validateScrimInput(input, time.Now()); err != nil {
		return nil, err
	}

	creator, err := s.userRepo.GetByID(ctx, input.CreatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", input.CreatorID, err)
	}
	if creator.TeamID == nil {
		return nil, ErrUserHasNoTeam
	}

	// Постить может любой участник команды от её имени.
	team, err := s.teamRepo.GetByID(ctx, *creator.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", *creator.TeamID, err)
	}

	// Тир скрима наследуется от команды в момент создания.
	scrim := &models.Scrim{
		TeamID:          team.ID,
		Title:           input.Title,
		Description:     input.Description,
		Maps:            input.Maps,
		MaxRounds:       input.MaxRounds,
		NumGames:        input.NumGames,
		ScheduledTime:   input.ScheduledTime,
		MaxParticipants: input.MaxParticipants,
		Tier:            team.Tier,
		Status:          models.ScrimStatusOpen,
	}

	if err := s.scrimRepo.Create(ctx, scrim); err != nil {
		return nil, err
	}

	s.broadcast(live.EventScrimCreated, scrim)
	return scrim, nil
}

func (s *scrimService) ListVisible(ctx context.Context, userID int, filter ScrimListFilter) ([]models.Scrim, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	repoFilter := repositories.ListScrimsFilter{
		VisibleTiers: user.Tier.AccessibleTiers(),
		Status:       filter.Status,
		MaxRounds:    filter.MaxRounds,
		From:         filter.From,
		To:           filter.To,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}

	// Явный фильтр по тиру пересекается с видимостью: запрошенный тир выше
	// доступного даёт пустой список, а не ошибку.
	if filter.Tier != nil {
		if !filter.Tier.IsValid() {
			return nil, ErrInvalidTier
		}
		if !user.Tier.CanAccess(*filter.Tier) {
			return []models.Scrim{}, nil
		}
		repoFilter.Tier = filter.Tier
	}

	return s.scrimRepo.List(ctx, repoFilter)
}

func (s *scrimService) GetScrim(ctx context.Context, userID, scrimID int) (*models.Scrim, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	scrim, err := s.scrimRepo.GetByID(ctx, scrimID)
	if err != nil {
		if errors.Is(err, repositories.ErrScrimNotFound) {
			return nil, ErrScrimNotFound
		}
		return nil, fmt.Errorf("failed to get scrim %d: %w", scrimID, err)
	}

	if !user.Tier.CanAccess(scrim.Tier) {
		// Скрытый тиром скрим неотличим от несуществующего.
		return nil, ErrScrimNotFound
	}

	apps, err := s.appRepo.ListByScrim(ctx, scrimID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for scrim %d: %w", scrimID, err)
	}
	scrim.Applications = apps
	return scrim, nil
}

func (s *scrimService) Close(ctx context.Context, scrimID, currentUserID int) (*models.Scrim, error) {
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
		if !locked.Status.CanTransitionTo(models.ScrimStatusClosed) {
			return ErrScrimNotFilled
		}
		if err := s.scrimRepo.UpdateStatus(ctx, exec, scrimID, models.ScrimStatusClosed); err != nil {
			return err
		}
		locked.Status = models.ScrimStatusClosed
		scrim = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(live.EventScrimClosed, scrim)
	return scrim, nil
}

func (s *scrimService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.scrimRepo.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.broadcast(live.EventScrimExpired, map[string]int{"scrim_id": id})
	}
	return len(ids), nil
}

func (s *scrimService) broadcast(eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastToRoom(live.BoardRoom, live.Message{
		Type:    eventType,
		Payload: payload,
		RoomID:  live.BoardRoom,
	})
}
