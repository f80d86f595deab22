package repos

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
)

func TestTeamRepoGetByOrganizationAndName(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepo(db, newTestLogger(t))

	orgID := uuid.New()
	seedTeam(t, repo, orgID, "Engineering", false)

	got, err := repo.GetByOrganizationAndName(testCtx(), orgID.String(), "Engineering")
	if err != nil {
		t.Fatalf("GetByOrganizationAndName: %v", err)
	}
	if got == nil {
		t.Fatalf("expected team, got nil")
	}
	if got.Name != "Engineering" {
		t.Fatalf("name: want=%q got=%q", "Engineering", got.Name)
	}

	missing, err := repo.GetByOrganizationAndName(testCtx(), orgID.String(), "Marketing")
	if err != nil {
		t.Fatalf("GetByOrganizationAndName missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing name, got %+v", missing)
	}
}

func TestTeamRepoRejectsDuplicateOrgName(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepo(db, newTestLogger(t))

	orgID := uuid.New()
	first := seedTeam(t, repo, orgID, "Engineering", false)

	dup := *first
	dup.ID = uuid.New()
	dup.Memberships = nil
	if _, err := repo.Create(testCtx(), []*domain.Team{&dup}); err == nil {
		t.Fatalf("expected unique violation for duplicate (organization, name)")
	}
}

func TestTeamRepoDeleteCascadeRemovesMemberships(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	teamRepo := NewTeamRepo(db, log)
	memberRepo := NewTeamMembershipRepo(db, log)

	orgID := uuid.New()
	team := seedTeam(t, teamRepo, orgID, "Engineering", false)
	seedMembership(t, memberRepo, team.ID, "u1")
	seedMembership(t, memberRepo, team.ID, "u2")

	if err := teamRepo.DeleteCascade(testCtx(), team.ID); err != nil {
		t.Fatalf("DeleteCascade: %v", err)
	}

	gone, err := teamRepo.GetByID(testCtx(), team.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected team deleted, got %+v", gone)
	}
	rows, err := memberRepo.ListByTeamIDs(testCtx(), []uuid.UUID{team.ID})
	if err != nil {
		t.Fatalf("ListByTeamIDs after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("memberships after cascade: want=0 got=%d", len(rows))
	}

	// deleting again is a no-op
	if err := teamRepo.DeleteCascade(testCtx(), team.ID); err != nil {
		t.Fatalf("DeleteCascade repeat: %v", err)
	}
}

func TestTeamRepoGetDefaultByOrganization(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepo(db, newTestLogger(t))

	orgID := uuid.New()
	seedTeam(t, repo, orgID, "Engineering", false)
	def := seedTeam(t, repo, orgID, "default", true)

	got, err := repo.GetDefaultByOrganization(testCtx(), orgID.String())
	if err != nil {
		t.Fatalf("GetDefaultByOrganization: %v", err)
	}
	if got == nil || got.ID != def.ID {
		t.Fatalf("default team: want=%s got=%+v", def.ID, got)
	}

	other, err := repo.GetDefaultByOrganization(testCtx(), uuid.NewString())
	if err != nil {
		t.Fatalf("GetDefaultByOrganization other org: %v", err)
	}
	if other != nil {
		t.Fatalf("expected nil default for unknown org, got %+v", other)
	}
}

func TestTeamRepoListFiltersByMemberUser(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	teamRepo := NewTeamRepo(db, log)
	memberRepo := NewTeamMembershipRepo(db, log)

	orgID := uuid.New()
	eng := seedTeam(t, teamRepo, orgID, "Engineering", false)
	seedTeam(t, teamRepo, orgID, "Marketing", false)
	seedMembership(t, memberRepo, eng.ID, "u1")

	rows, total, err := teamRepo.List(testCtx(), TeamListFilter{
		OrganizationID: orgID.String(),
		MemberUserIDs:  []string{"u1"},
	}, TeamSortNameAsc, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("filtered list: want total=1 len=1 got total=%d len=%d", total, len(rows))
	}
	if rows[0].ID != eng.ID {
		t.Fatalf("filtered team: want=%s got=%s", eng.ID, rows[0].ID)
	}

	all, total, err := teamRepo.List(testCtx(), TeamListFilter{OrganizationID: orgID.String()}, TeamSortNameAsc, 10, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("unfiltered list: want total=2 len=2 got total=%d len=%d", total, len(all))
	}
	if all[0].Name != "Engineering" || all[1].Name != "Marketing" {
		t.Fatalf("name sort order wrong: got %q, %q", all[0].Name, all[1].Name)
	}
}
