package services

import (
	"context"
	"sort"
	"time"

	"github.com/Dosada05/scrim-system/live"
	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/repositories"
)

// fakeTransactor выполняет функцию без реальной транзакции: фейковые
// репозитории игнорируют exec.
type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	return fn(nil)
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(user models.User) *models.User {
	if user.ID == 0 {
		user.ID = r.nextID
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	stored := user
	r.users[stored.ID] = &stored
	return &stored
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[stored.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) AssignTeam(ctx context.Context, exec repositories.SQLExecutor, userID, teamID int) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if user.TeamID != nil {
		return repositories.ErrUserAlreadyInTeam
	}
	id := teamID
	user.TeamID = &id
	return nil
}

func (r *fakeUserRepo) ClearTeam(ctx context.Context, exec repositories.SQLExecutor, userID int) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.TeamID = nil
	return nil
}

func (r *fakeUserRepo) UpdateTier(ctx context.Context, exec repositories.SQLExecutor, userID int, tier models.Tier) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Tier = tier
	return nil
}

func (r *fakeUserRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	var members []models.User
	for _, user := range r.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			members = append(members, *user)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

type fakeTeamRepo struct {
	teams  map[int]*models.Team
	users  *fakeUserRepo
	nextID int
}

func newFakeTeamRepo(users *fakeUserRepo) *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team), users: users, nextID: 1}
}

func (r *fakeTeamRepo) add(team models.Team) *models.Team {
	if team.ID == 0 {
		team.ID = r.nextID
	}
	if team.ID >= r.nextID {
		r.nextID = team.ID + 1
	}
	stored := team
	r.teams[stored.ID] = &stored
	return &stored
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	for _, existing := range r.teams {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.nextID
	r.nextID++
	stored := *team
	r.teams[stored.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTeamRepo) CountMembers(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
	members, _ := r.users.ListByTeamID(ctx, teamID)
	return len(members), nil
}

func (r *fakeTeamRepo) UpdateAverageRank(ctx context.Context, exec repositories.SQLExecutor, teamID int, averageRank string) error {
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.AverageRank = averageRank
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = logoKey
	return nil
}

type fakeScrimRepo struct {
	scrims map[int]*models.Scrim
	nextID int
}

func newFakeScrimRepo() *fakeScrimRepo {
	return &fakeScrimRepo{scrims: make(map[int]*models.Scrim), nextID: 1}
}

func (r *fakeScrimRepo) add(scrim models.Scrim) *models.Scrim {
	if scrim.ID == 0 {
		scrim.ID = r.nextID
	}
	if scrim.ID >= r.nextID {
		r.nextID = scrim.ID + 1
	}
	stored := scrim
	r.scrims[stored.ID] = &stored
	return &stored
}

func (r *fakeScrimRepo) Create(ctx context.Context, scrim *models.Scrim) error {
	scrim.ID = r.nextID
	r.nextID++
	scrim.CreatedAt = time.Now()
	stored := *scrim
	r.scrims[stored.ID] = &stored
	return nil
}

func (r *fakeScrimRepo) GetByID(ctx context.Context, id int) (*models.Scrim, error) {
	scrim, ok := r.scrims[id]
	if !ok {
		return nil, repositories.ErrScrimNotFound
	}
	copied := *scrim
	return &copied, nil
}

func (r *fakeScrimRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Scrim, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeScrimRepo) List(ctx context.Context, filter repositories.ListScrimsFilter) ([]models.Scrim, error) {
	var out []models.Scrim
	for _, scrim := range r.scrims {
		if len(filter.VisibleTiers) > 0 {
			visible := false
			for _, tier := range filter.VisibleTiers {
				if scrim.Tier == tier {
					visible = true
					break
				}
			}
			if !visible {
				continue
			}
		}
		if filter.Tier != nil && scrim.Tier != *filter.Tier {
			continue
		}
		if filter.Status != nil && scrim.Status != *filter.Status {
			continue
		}
		if filter.TeamID != nil && scrim.TeamID != *filter.TeamID {
			continue
		}
		if filter.MaxRounds != nil && scrim.MaxRounds != *filter.MaxRounds {
			continue
		}
		out = append(out, *scrim)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, nil
}

func (r *fakeScrimRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ScrimStatus) error {
	scrim, ok := r.scrims[id]
	if !ok {
		return repositories.ErrScrimNotFound
	}
	scrim.Status = status
	return nil
}

func (r *fakeScrimRepo) MarkFilled(ctx context.Context, exec repositories.SQLExecutor, id int, acceptedApplicationID int) error {
	scrim, ok := r.scrims[id]
	if !ok {
		return repositories.ErrScrimNotFound
	}
	scrim.Status = models.ScrimStatusFilled
	appID := acceptedApplicationID
	scrim.AcceptedApplicationID = &appID
	return nil
}

func (r *fakeScrimRepo) ExpireDue(ctx context.Context, now time.Time) ([]int, error) {
	var ids []int
	for _, scrim := range r.scrims {
		if scrim.Status.Terminal() {
			continue
		}
		if scrim.ScheduledTime.Before(now) {
			scrim.Status = models.ScrimStatusExpired
			ids = append(ids, scrim.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

type fakeApplicationRepo struct {
	apps   map[int]*models.Application
	nextID int
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[int]*models.Application), nextID: 1}
}

func (r *fakeApplicationRepo) add(app models.Application) *models.Application {
	if app.ID == 0 {
		app.ID = r.nextID
	}
	if app.ID >= r.nextID {
		r.nextID = app.ID + 1
	}
	stored := app
	r.apps[stored.ID] = &stored
	return &stored
}

func (r *fakeApplicationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, app *models.Application) error {
	for _, existing := range r.apps {
		if existing.ScrimID == app.ScrimID && existing.TeamID == app.TeamID {
			return repositories.ErrApplicationConflict
		}
	}
	app.ID = r.nextID
	r.nextID++
	app.CreatedAt = time.Now()
	stored := *app
	r.apps[stored.ID] = &stored
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id int) (*models.Application, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, repositories.ErrApplicationNotFound
	}
	copied := *app
	return &copied, nil
}

func (r *fakeApplicationRepo) FindByScrimAndTeam(ctx context.Context, scrimID, teamID int) (*models.Application, error) {
	for _, app := range r.apps {
		if app.ScrimID == scrimID && app.TeamID == teamID {
			copied := *app
			return &copied, nil
		}
	}
	return nil, repositories.ErrApplicationNotFound
}

func (r *fakeApplicationRepo) ListByScrim(ctx context.Context, scrimID int) ([]models.Application, error) {
	var out []models.Application
	for _, app := range r.apps {
		if app.ScrimID == scrimID {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeApplicationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ApplicationStatus) error {
	app, ok := r.apps[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	app.Status = status
	return nil
}

func (r *fakeApplicationRepo) RejectPendingExcept(ctx context.Context, exec repositories.SQLExecutor, scrimID, acceptedID int) error {
	for _, app := range r.apps {
		if app.ScrimID == scrimID && app.ID != acceptedID && app.Status == models.ApplicationStatusPending {
			app.Status = models.ApplicationStatusRejected
		}
	}
	return nil
}

type fakeTierRequestRepo struct {
	requests map[int]*models.TierRequest
	nextID   int
}

func newFakeTierRequestRepo() *fakeTierRequestRepo {
	return &fakeTierRequestRepo{requests: make(map[int]*models.TierRequest), nextID: 1}
}

func (r *fakeTierRequestRepo) add(req models.TierRequest) *models.TierRequest {
	if req.ID == 0 {
		req.ID = r.nextID
	}
	if req.ID >= r.nextID {
		r.nextID = req.ID + 1
	}
	stored := req
	r.requests[stored.ID] = &stored
	return &stored
}

func (r *fakeTierRequestRepo) Create(ctx context.Context, req *models.TierRequest) error {
	for _, existing := range r.requests {
		if existing.UserID == req.UserID && existing.Status == models.TierRequestStatusPending {
			return repositories.ErrTierRequestPendingExists
		}
	}
	req.ID = r.nextID
	r.nextID++
	req.CreatedAt = time.Now()
	stored := *req
	r.requests[stored.ID] = &stored
	return nil
}

func (r *fakeTierRequestRepo) GetByID(ctx context.Context, id int) (*models.TierRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrTierRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeTierRequestRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TierRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTierRequestRepo) FindPendingByUser(ctx context.Context, userID int) (*models.TierRequest, error) {
	for _, req := range r.requests {
		if req.UserID == userID && req.Status == models.TierRequestStatusPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, repositories.ErrTierRequestNotFound
}

func (r *fakeTierRequestRepo) ListPending(ctx context.Context) ([]models.TierRequest, error) {
	var out []models.TierRequest
	for _, req := range r.requests {
		if req.Status == models.TierRequestStatusPending {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTierRequestRepo) Resolve(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TierRequestStatus, processedAt time.Time) error {
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrTierRequestNotFound
	}
	req.Status = status
	copied := processedAt
	req.ProcessedAt = &copied
	return nil
}

// fakeNotifier собирает события, отправленные на live-доску.
type fakeNotifier struct {
	events []live.Message
}

func (n *fakeNotifier) BroadcastToRoom(roomID string, message interface{}) {
	if m, ok := message.(live.Message); ok {
		n.events = append(n.events, m)
	}
}
