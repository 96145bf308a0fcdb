package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/repositories"
	"github.com/Dosada05/scrim-system/storage"
)

// UserService - читающая сторона хранилища аккаунтов. Тир аккаунта меняет
// только TierRequestService, team_id - только TeamService.
type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	GetByID(ctx context.Context, userID int) (*models.User, error)
	RanksFor(tier models.Tier) []string
}

type userService struct {
	userRepo repositories.UserRepository
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
) UserService {
	return &userService{
		userRepo: userRepo,
		teamRepo: teamRepo,
		uploader: uploader,
	}
}

func (s *userService) GetByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *user.TeamID)
		if err != nil {
			if !errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, fmt.Errorf("failed to get team %d: %w", *user.TeamID, err)
			}
		} else {
			if s.uploader != nil && team.LogoKey != nil {
				url := s.uploader.GetPublicURL(*team.LogoKey)
				team.LogoURL = &url
			}
			user.Team = team
		}
	}

	return user, nil
}

// RanksFor возвращает ранговую лестницу, отображаемую аккаунту данного тира.
func (s *userService) RanksFor(tier models.Tier) []string {
	if tier == models.TierPublic {
		return models.PublicRanks
	}
	return models.TierRanks
}
