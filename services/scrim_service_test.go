package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/scrim-system/live"
	"github.com/Dosada05/scrim-system/models"
)

type scrimFixture struct {
	svc      ScrimService
	users    *fakeUserRepo
	teams    *fakeTeamRepo
	scrims   *fakeScrimRepo
	apps     *fakeApplicationRepo
	notifier *fakeNotifier
}

func newScrimFixture() *scrimFixture {
	users := newFakeUserRepo()
	teams := newFakeTeamRepo(users)
	scrims := newFakeScrimRepo()
	apps := newFakeApplicationRepo()
	notifier := &fakeNotifier{}
	svc := NewScrimService(&fakeTransactor{}, scrims, teams, users, apps, notifier)
	return &scrimFixture{svc: svc, users: users, teams: teams, scrims: scrims, apps: apps, notifier: notifier}
}

func (f *scrimFixture) addMemberWithTeam(username string, tier models.Tier) (*models.User, *models.Team) {
	user := f.users.add(models.User{Username: username, Tier: tier, Rank: "Gold 1"})
	team := f.teams.add(models.Team{Name: username + "-team", OwnerID: user.ID, MaxMembers: 5, Tier: tier})
	f.users.AssignTeam(context.Background(), nil, user.ID, team.ID)
	return user, team
}

func validScrimInput(creatorID int) CreateScrimInput {
	return CreateScrimInput{
		CreatorID:       creatorID,
		Title:           "evening run",
		Maps:            []string{"Ascent", "Haven"},
		MaxRounds:       models.MaxRoundsShort,
		NumGames:        2,
		ScheduledTime:   time.Now().Add(3 * time.Hour),
		MaxParticipants: 10,
	}
}

func TestCreateScrimSuccess(t *testing.T) {
	f := newScrimFixture()
	member, team := f.addMemberWithTeam("host", models.Tier3)

	scrim, err := f.svc.CreateScrim(context.Background(), validScrimInput(member.ID))
	if err != nil {
		t.Fatalf("create scrim: %v", err)
	}
	if scrim.Status != models.ScrimStatusOpen {
		t.Fatalf("expected open, got %s", scrim.Status)
	}
	if scrim.TeamID != team.ID {
		t.Fatalf("expected team %d, got %d", team.ID, scrim.TeamID)
	}
	if scrim.Tier != models.Tier3 {
		t.Fatalf("expected scrim tier inherited from team, got %s", scrim.Tier)
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != live.EventScrimCreated {
		t.Fatal("expected SCRIM_CREATED broadcast")
	}
}

func TestCreateScrimValidation(t *testing.T) {
	f := newScrimFixture()
	member, _ := f.addMemberWithTeam("host", models.TierPublic)

	cases := []struct {
		name    string
		mutate  func(*CreateScrimInput)
		wantErr error
	}{
		{"empty title", func(in *CreateScrimInput) { in.Title = "" }, ErrScrimTitleRequired},
		{"no maps", func(in *CreateScrimInput) { in.Maps = nil }, ErrScrimMapsRequired},
		{"unknown map", func(in *CreateScrimInput) { in.Maps = []string{"Dust2"} }, ErrScrimInvalidMaps},
		{"bad rounds", func(in *CreateScrimInput) { in.MaxRounds = 15 }, ErrScrimInvalidRounds},
		{"zero games", func(in *CreateScrimInput) { in.NumGames = 0 }, ErrScrimInvalidGames},
		{"past schedule", func(in *CreateScrimInput) { in.ScheduledTime = time.Now().Add(-time.Hour) }, ErrScrimScheduleInPast},
		{"odd participants", func(in *CreateScrimInput) { in.MaxParticipants = 7 }, ErrScrimInvalidCapacity},
		{"too few participants", func(in *CreateScrimInput) { in.MaxParticipants = 0 }, ErrScrimInvalidCapacity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validScrimInput(member.ID)
			tc.mutate(&input)
			_, err := f.svc.CreateScrim(context.Background(), input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateScrimWithoutTeam(t *testing.T) {
	f := newScrimFixture()
	loner := f.users.add(models.User{Username: "loner", Tier: models.TierPublic, Rank: "Gold 1"})

	_, err := f.svc.CreateScrim(context.Background(), validScrimInput(loner.ID))
	if !errors.Is(err, ErrUserHasNoTeam) {
		t.Fatalf("expected ErrUserHasNoTeam, got %v", err)
	}
}

func TestListVisibleHidesHigherTiers(t *testing.T) {
	f := newScrimFixture()
	viewer, _ := f.addMemberWithTeam("viewer", models.Tier3)
	_, hostTeam := f.addMemberWithTeam("host", models.Tier1)

	f.scrims.add(models.Scrim{TeamID: hostTeam.ID, Title: "public", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(time.Hour)})
	f.scrims.add(models.Scrim{TeamID: hostTeam.ID, Title: "t3", Tier: models.Tier3, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(2 * time.Hour)})
	f.scrims.add(models.Scrim{TeamID: hostTeam.ID, Title: "t1", Tier: models.Tier1, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(3 * time.Hour)})

	scrims, err := f.svc.ListVisible(context.Background(), viewer.ID, ScrimListFilter{})
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if len(scrims) != 2 {
		t.Fatalf("expected 2 visible scrims, got %d", len(scrims))
	}
	for _, scrim := range scrims {
		if scrim.Tier == models.Tier1 {
			t.Fatal("tier_1 scrim must not be visible to tier_3 viewer")
		}
	}
}

// Список стабильно отсортирован: scheduled_time по возрастанию, при
// равенстве - меньший id первым.
func TestListVisibleOrdering(t *testing.T) {
	f := newScrimFixture()
	viewer, _ := f.addMemberWithTeam("viewer", models.TierPublic)
	_, hostTeam := f.addMemberWithTeam("host", models.TierPublic)

	base := time.Now().Add(time.Hour).Truncate(time.Second)
	f.scrims.add(models.Scrim{ID: 30, TeamID: hostTeam.ID, Title: "late", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: base.Add(2 * time.Hour)})
	f.scrims.add(models.Scrim{ID: 20, TeamID: hostTeam.ID, Title: "tied-b", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: base})
	f.scrims.add(models.Scrim{ID: 5, TeamID: hostTeam.ID, Title: "early", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: base.Add(-30 * time.Minute)})
	f.scrims.add(models.Scrim{ID: 10, TeamID: hostTeam.ID, Title: "tied-a", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: base})

	scrims, err := f.svc.ListVisible(context.Background(), viewer.ID, ScrimListFilter{})
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}

	wantIDs := []int{5, 10, 20, 30}
	if len(scrims) != len(wantIDs) {
		t.Fatalf("expected %d scrims, got %d", len(wantIDs), len(scrims))
	}
	for i, want := range wantIDs {
		if scrims[i].ID != want {
			t.Fatalf("position %d: expected scrim %d, got %d", i, want, scrims[i].ID)
		}
	}
}

// Явный фильтр по недоступному тиру даёт пустой список, а не ошибку.
func TestListVisibleFilterAboveAccessIsEmpty(t *testing.T) {
	f := newScrimFixture()
	viewer, _ := f.addMemberWithTeam("viewer", models.TierPublic)
	_, hostTeam := f.addMemberWithTeam("host", models.Tier1)
	f.scrims.add(models.Scrim{TeamID: hostTeam.ID, Title: "t1", Tier: models.Tier1, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(time.Hour)})

	tier := models.Tier1
	scrims, err := f.svc.ListVisible(context.Background(), viewer.ID, ScrimListFilter{Tier: &tier})
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if len(scrims) != 0 {
		t.Fatalf("expected empty list, got %d", len(scrims))
	}
}

func TestListVisibleInvalidTierFilter(t *testing.T) {
	f := newScrimFixture()
	viewer, _ := f.addMemberWithTeam("viewer", models.TierPublic)

	tier := models.Tier("diamond")
	_, err := f.svc.ListVisible(context.Background(), viewer.ID, ScrimListFilter{Tier: &tier})
	if !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

// Скрытый тиром скрим неотличим от несуществующего.
func TestGetScrimHiddenByTier(t *testing.T) {
	f := newScrimFixture()
	viewer, _ := f.addMemberWithTeam("viewer", models.TierPublic)
	_, hostTeam := f.addMemberWithTeam("host", models.Tier1)
	scrim := f.scrims.add(models.Scrim{TeamID: hostTeam.ID, Title: "t1", Tier: models.Tier1, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(time.Hour)})

	_, err := f.svc.GetScrim(context.Background(), viewer.ID, scrim.ID)
	if !errors.Is(err, ErrScrimNotFound) {
		t.Fatalf("expected ErrScrimNotFound, got %v", err)
	}
}

func TestGetScrimIncludesApplications(t *testing.T) {
	f := newScrimFixture()
	viewer, _ := f.addMemberWithTeam("viewer", models.TierPublic)
	_, hostTeam := f.addMemberWithTeam("host", models.TierPublic)
	scrim := f.scrims.add(models.Scrim{TeamID: hostTeam.ID, Title: "run", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(time.Hour)})
	// Заявки добавляем не по порядку: выдача обязана идти по порядку прибытия.
	f.apps.add(models.Application{ID: 7, ScrimID: scrim.ID, TeamID: 42, Status: models.ApplicationStatusPending})
	f.apps.add(models.Application{ID: 3, ScrimID: scrim.ID, TeamID: 43, Status: models.ApplicationStatusPending})
	f.apps.add(models.Application{ID: 5, ScrimID: scrim.ID, TeamID: 44, Status: models.ApplicationStatusPending})

	got, err := f.svc.GetScrim(context.Background(), viewer.ID, scrim.ID)
	if err != nil {
		t.Fatalf("get scrim: %v", err)
	}
	if len(got.Applications) != 3 {
		t.Fatalf("expected 3 applications, got %d", len(got.Applications))
	}
	for i, want := range []int{3, 5, 7} {
		if got.Applications[i].ID != want {
			t.Fatalf("position %d: expected application %d, got %d", i, want, got.Applications[i].ID)
		}
	}
}

func TestCloseFilledScrim(t *testing.T) {
	f := newScrimFixture()
	member, team := f.addMemberWithTeam("host", models.TierPublic)
	scrim := f.scrims.add(models.Scrim{TeamID: team.ID, Title: "run", Tier: models.TierPublic, Status: models.ScrimStatusFilled, ScheduledTime: time.Now().Add(time.Hour)})

	closed, err := f.svc.Close(context.Background(), scrim.ID, member.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != models.ScrimStatusClosed {
		t.Fatalf("expected closed, got %s", closed.Status)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != live.EventScrimClosed {
		t.Fatal("expected SCRIM_CLOSED broadcast")
	}
}

func TestCloseOpenScrimFails(t *testing.T) {
	f := newScrimFixture()
	member, team := f.addMemberWithTeam("host", models.TierPublic)
	scrim := f.scrims.add(models.Scrim{TeamID: team.ID, Title: "run", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(time.Hour)})

	_, err := f.svc.Close(context.Background(), scrim.ID, member.ID)
	if !errors.Is(err, ErrScrimNotFilled) {
		t.Fatalf("expected ErrScrimNotFilled, got %v", err)
	}
}

func TestCloseByOutsiderFails(t *testing.T) {
	f := newScrimFixture()
	_, team := f.addMemberWithTeam("host", models.TierPublic)
	outsider, _ := f.addMemberWithTeam("outsider", models.TierPublic)
	scrim := f.scrims.add(models.Scrim{TeamID: team.ID, Title: "run", Tier: models.TierPublic, Status: models.ScrimStatusFilled, ScheduledTime: time.Now().Add(time.Hour)})

	_, err := f.svc.Close(context.Background(), scrim.ID, outsider.ID)
	if !errors.Is(err, ErrNotTeamMember) {
		t.Fatalf("expected ErrNotTeamMember, got %v", err)
	}
}

func TestCloseExpiredIsIdempotent(t *testing.T) {
	f := newScrimFixture()
	_, team := f.addMemberWithTeam("host", models.TierPublic)
	due := f.scrims.add(models.Scrim{TeamID: team.ID, Title: "past", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(-time.Hour)})
	f.scrims.add(models.Scrim{TeamID: team.ID, Title: "future", Tier: models.TierPublic, Status: models.ScrimStatusOpen, ScheduledTime: time.Now().Add(time.Hour)})

	now := time.Now()
	count, err := f.svc.CloseExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("close expired: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired scrim, got %d", count)
	}

	expired, _ := f.scrims.GetByID(context.Background(), due.ID)
	if expired.Status != models.ScrimStatusExpired {
		t.Fatalf("expected expired, got %s", expired.Status)
	}

	// Повторный запуск ничего не находит.
	count, err = f.svc.CloseExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("second close expired: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on second run, got %d", count)
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != live.EventScrimExpired {
		t.Fatal("expected a single SCRIM_EXPIRED broadcast")
	}
}
