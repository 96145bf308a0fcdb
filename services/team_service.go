package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/repositories"
	"github.com/Dosada05/scrim-system/storage"
	"golang.org/x/sync/errgroup"
)

const defaultMaxMembers = 5

type CreateTeamInput struct {
	CreatorID   int    `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxMembers  int    `json:"max_members"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID int) (*models.Team, error)
	// GetMyTeam возвращает команду аккаунта вместе с составом и её скримами.
	GetMyTeam(ctx context.Context, userID int) (*models.Team, error)
	// AddMember добавляет игрока по нику. Только владелец команды.
	AddMember(ctx context.Context, teamID, currentUserID int, username string) (*models.User, error)
	UploadLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error)
}

type teamService struct {
	tx        repositories.Transactor
	teamRepo  repositories.TeamRepository
	userRepo  repositories.UserRepository
	scrimRepo repositories.ScrimRepository
	uploader  storage.FileUploader
}

func NewTeamService(
	tx repositories.Transactor,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	scrimRepo repositories.ScrimRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		tx:        tx,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		scrimRepo: scrimRepo,
		uploader:  uploader,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if input.MaxMembers == 0 {
		input.MaxMembers = defaultMaxMembers
	}
	if input.MaxMembers < 1 {
		return nil, ErrTeamInvalidCapacity
	}

	creator, err := s.userRepo.GetByID(ctx, input.CreatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", input.CreatorID, err)
	}

	// tier_1 и tier_2 могут только вступать в команды, не создавать их.
	if creator.Tier == models.Tier1 || creator.Tier == models.Tier2 {
		return nil, ErrTierCannotCreateTeam
	}
	if creator.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	// Тир команды наследуется от создателя в момент создания и далее
	// не меняется.
	team := &models.Team{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     creator.ID,
		Tier:        creator.Tier,
		MaxMembers:  input.MaxMembers,
		AverageRank: models.AverageRank([]string{creator.Rank}),
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return err
		}
		if err := s.userRepo.AssignTeam(ctx, exec, creator.ID, team.ID); err != nil {
			if errors.Is(err, repositories.ErrUserAlreadyInTeam) {
				return ErrUserAlreadyInTeam
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	creator.PasswordHash = ""
	creator.TeamID = &team.ID
	team.Members = []models.User{*creator}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if s.uploader != nil && team.LogoKey != nil {
		url := s.uploader.GetPublicURL(*team.LogoKey)
		team.LogoURL = &url
	}
	return team, nil
}

func (s *teamService) GetMyTeam(ctx context.Context, userID int) (*models.Team, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user.TeamID == nil {
		return nil, ErrTeamNotFound
	}

	team, err := s.GetTeamByID(ctx, *user.TeamID)
	if err != nil {
		return nil, err
	}

	// Состав и скримы команды не зависят друг от друга - тянем параллельно.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		members, err := s.userRepo.ListByTeamID(gctx, team.ID)
		if err != nil {
			return fmt.Errorf("failed to list members of team %d: %w", team.ID, err)
		}
		for i := range members {
			members[i].PasswordHash = ""
		}
		team.Members = members
		return nil
	})

	g.Go(func() error {
		scrims, err := s.scrimRepo.List(gctx, repositories.ListScrimsFilter{TeamID: &team.ID})
		if err != nil {
			return fmt.Errorf("failed to list scrims of team %d: %w", team.ID, err)
		}
		team.Scrims = scrims
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, currentUserID int, username string) (*models.User, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.OwnerID != currentUserID {
		return nil, ErrOwnerActionForbidden
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	if user.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Блокировка строки команды сериализует проверку вместимости.
		locked, err := s.teamRepo.GetByIDForUpdate(ctx, exec, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		count, err := s.teamRepo.CountMembers(ctx, exec, teamID)
		if err != nil {
			return err
		}
		if count >= locked.MaxMembers {
			return ErrTeamFull
		}

		if err := s.userRepo.AssignTeam(ctx, exec, user.ID, teamID); err != nil {
			if errors.Is(err, repositories.ErrUserAlreadyInTeam) {
				return ErrUserAlreadyInTeam
			}
			return err
		}

		// average_rank - display-only агрегат, пересчитывается тут же.
		members, err := s.userRepo.ListByTeamID(ctx, teamID)
		if err != nil {
			return err
		}
		ranks := make([]string, 0, len(members)+1)
		for _, m := range members {
			ranks = append(ranks, m.Rank)
		}
		ranks = append(ranks, user.Rank)
		return s.teamRepo.UpdateAverageRank(ctx, exec, teamID, models.AverageRank(ranks))
	})
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	user.TeamID = &teamID
	return user, nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != currentUserID {
		return nil, ErrOwnerActionForbidden
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("logo storage is not configured")
	}

	ext := ".png"
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	key := path.Join("teams", fmt.Sprintf("%d", teamID), "logo"+ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &result.Key); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	team.LogoKey = &result.Key
	team.LogoURL = &result.Location
	return team, nil
}
