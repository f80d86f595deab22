package participant

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
	"github.com/yungbote/teamcore-backend/internal/repos"
	"github.com/yungbote/teamcore-backend/internal/saga"
)

type handlerFixture struct {
	db          *gorm.DB
	teams       repos.TeamRepo
	memberships repos.TeamMembershipRepo
	handler     *TeamHandlers
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Team{}, &domain.TeamMembership{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	teams := repos.NewTeamRepo(db, log)
	memberships := repos.NewTeamMembershipRepo(db, log)
	return &handlerFixture{
		db:          db,
		teams:       teams,
		memberships: memberships,
		handler:     NewTeamHandlers(log, db, teams, memberships, saga.NewLockRegistry()),
	}
}

func command(t *testing.T, kind string, lock *saga.LockTarget, payload any) saga.Command {
	t.Helper()
	cmd, err := saga.NewCommand(kind, saga.ChannelTeam, lock, payload)
	if err != nil {
		t.Fatalf("NewCommand %q: %v", kind, err)
	}
	cmd.CorrelationID = uuid.New()
	return cmd
}

func (f *handlerFixture) seedTeam(t *testing.T, orgID uuid.UUID, name string, isDefault bool) *domain.Team {
	t.Helper()
	now := time.Now().UTC()
	team := &domain.Team{
		ID:             uuid.New(),
		OrganizationID: orgID.String(),
		Name:           name,
		IsDefault:      isDefault,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.teams.Create(dbctx.Context{Ctx: context.Background()}, []*domain.Team{team}); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}

func TestTeamHandlersCreateTeamAndSeedMembers(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	teamID := uuid.New()
	cmd := command(t, saga.KindCreateTeamAndSeedMembersExec, saga.TeamLock(teamID), saga.CreateTeamAndSeedMembersCmd{
		OperatorID:     "op",
		TeamID:         teamID,
		OrganizationID: orgID,
		Name:           "Engineering",
		MemberUserIDs:  []string{"u1", "u2", "u2"},
	})

	rep := f.handler.Handle(context.Background(), cmd)
	if !rep.IsSuccess() {
		t.Fatalf("create reply: want success got %q (%s)", rep.Outcome, rep.Message)
	}
	var out saga.TeamWithMembersReply
	if err := json.Unmarshal(rep.Payload, &out); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	if out.TeamID != teamID || out.Name != "Engineering" {
		t.Fatalf("reply team: got %+v", out)
	}
	if len(out.Memberships) != 2 {
		t.Fatalf("seeded memberships: want=2 got=%d", len(out.Memberships))
	}

	team, err := f.teams.GetByID(dbctx.Context{Ctx: context.Background()}, teamID)
	if err != nil || team == nil {
		t.Fatalf("team row after create: team=%v err=%v", team, err)
	}
	if team.IsDefault {
		t.Fatalf("created team must not be default")
	}
}

func TestTeamHandlersCreateDuplicateNameFails(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	f.seedTeam(t, orgID, "Engineering", false)

	cmd := command(t, saga.KindCreateTeamAndSeedMembersExec, nil, saga.CreateTeamAndSeedMembersCmd{
		TeamID:         uuid.New(),
		OrganizationID: orgID,
		Name:           "Engineering",
	})
	rep := f.handler.Handle(context.Background(), cmd)
	if rep.IsSuccess() {
		t.Fatalf("expected failure for duplicate name")
	}
	if rep.Code != domain.CodeDuplicateName {
		t.Fatalf("failure code: want=%q got=%q", domain.CodeDuplicateName, rep.Code)
	}
}

func TestTeamHandlersUndoCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	team := f.seedTeam(t, orgID, "Engineering", false)
	memberships := []*domain.TeamMembership{{
		ID:        uuid.New(),
		TeamID:    team.ID,
		UserID:    "u1",
		CreatedAt: time.Now().UTC(),
	}}
	if _, err := f.memberships.Create(dbctx.Context{Ctx: context.Background()}, memberships); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	undo := command(t, saga.KindCreateTeamAndSeedMembersUndo, saga.TeamLock(team.ID), saga.UndoCreateTeamCmd{TeamID: team.ID})
	for i := 0; i < 2; i++ {
		rep := f.handler.Handle(context.Background(), undo)
		if !rep.IsSuccess() {
			t.Fatalf("undo attempt %d: want success got %q (%s)", i+1, rep.Outcome, rep.Message)
		}
	}

	gone, err := f.teams.GetByID(dbctx.Context{Ctx: context.Background()}, team.ID)
	if err != nil {
		t.Fatalf("GetByID after undo: %v", err)
	}
	if gone != nil {
		t.Fatalf("team should be deleted, got %+v", gone)
	}
	rows, err := f.memberships.ListByTeamIDs(dbctx.Context{Ctx: context.Background()}, []uuid.UUID{team.ID})
	if err != nil {
		t.Fatalf("ListByTeamIDs after undo: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("memberships after undo: want=0 got=%d", len(rows))
	}
}

func TestTeamHandlersAddMembersRejectsDuplicates(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	team := f.seedTeam(t, orgID, "Engineering", false)
	seed := command(t, saga.KindAddMembersExec, saga.TeamLock(team.ID), saga.AddMembersCmd{
		TeamID:        team.ID,
		MemberUserIDs: []string{"u1"},
	})
	if rep := f.handler.Handle(context.Background(), seed); !rep.IsSuccess() {
		t.Fatalf("seed add: %s", rep.Message)
	}

	dup := command(t, saga.KindAddMembersExec, saga.TeamLock(team.ID), saga.AddMembersCmd{
		TeamID:        team.ID,
		MemberUserIDs: []string{"u1", "u2"},
	})
	rep := f.handler.Handle(context.Background(), dup)
	if rep.IsSuccess() {
		t.Fatalf("expected already-member failure")
	}
	if rep.Code != domain.CodeAlreadyMember {
		t.Fatalf("failure code: want=%q got=%q", domain.CodeAlreadyMember, rep.Code)
	}
	var details map[string]any
	if err := json.Unmarshal(rep.Payload, &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	dups, _ := details["duplicate_user_ids"].([]any)
	if len(dups) != 1 || dups[0] != "u1" {
		t.Fatalf("duplicate user ids: want=[u1] got=%v", details["duplicate_user_ids"])
	}

	// nothing partial was written
	rows, err := f.memberships.ListByTeamIDs(dbctx.Context{Ctx: context.Background()}, []uuid.UUID{team.ID})
	if err != nil {
		t.Fatalf("ListByTeamIDs: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("memberships after rejected add: want=1 got=%d", len(rows))
	}
}

func TestTeamHandlersUndoAddMembersIsIdempotent(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	team := f.seedTeam(t, orgID, "Engineering", false)
	add := command(t, saga.KindAddMembersExec, saga.TeamLock(team.ID), saga.AddMembersCmd{
		TeamID:        team.ID,
		MemberUserIDs: []string{"u1", "u2"},
	})
	rep := f.handler.Handle(context.Background(), add)
	if !rep.IsSuccess() {
		t.Fatalf("add: %s", rep.Message)
	}
	var out saga.MembershipsReply
	if err := json.Unmarshal(rep.Payload, &out); err != nil {
		t.Fatalf("unmarshal add reply: %v", err)
	}
	ids := make([]uuid.UUID, 0, len(out.Memberships))
	for _, m := range out.Memberships {
		ids = append(ids, m.ID)
	}

	undo := command(t, saga.KindAddMembersUndo, saga.TeamLock(team.ID), saga.UndoAddMembersCmd{
		TeamID:        team.ID,
		MembershipIDs: ids,
	})
	for i := 0; i < 2; i++ {
		if rep := f.handler.Handle(context.Background(), undo); !rep.IsSuccess() {
			t.Fatalf("undo attempt %d: %s", i+1, rep.Message)
		}
	}
	rows, err := f.memberships.ListByTeamIDs(dbctx.Context{Ctx: context.Background()}, []uuid.UUID{team.ID})
	if err != nil {
		t.Fatalf("ListByTeamIDs: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("memberships after undo twice: want=0 got=%d", len(rows))
	}
}

func TestTeamHandlersAddMembersToDefaultSkipsExisting(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	def := f.seedTeam(t, orgID, "default", true)
	seed := command(t, saga.KindAddMembersExec, saga.TeamLock(def.ID), saga.AddMembersCmd{
		TeamID:        def.ID,
		MemberUserIDs: []string{"u1"},
	})
	if rep := f.handler.Handle(context.Background(), seed); !rep.IsSuccess() {
		t.Fatalf("seed add: %s", rep.Message)
	}

	cmd := command(t, saga.KindAddMembersToDefaultExec, nil, saga.AddMembersToDefaultTeamCmd{
		OrganizationID: orgID,
		MemberUserIDs:  []string{"u1", "u2"},
	})
	rep := f.handler.Handle(context.Background(), cmd)
	if !rep.IsSuccess() {
		t.Fatalf("add to default: %s", rep.Message)
	}
	var out saga.MembershipsReply
	if err := json.Unmarshal(rep.Payload, &out); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	if out.TeamID != def.ID {
		t.Fatalf("resolved team: want=%s got=%s", def.ID, out.TeamID)
	}
	if len(out.Memberships) != 1 || out.Memberships[0].UserID != "u2" {
		t.Fatalf("inserted memberships: want only u2, got %+v", out.Memberships)
	}
}

func TestTeamHandlersAddMembersToDefaultWithoutDefaultFails(t *testing.T) {
	f := newFixture(t)

	cmd := command(t, saga.KindAddMembersToDefaultExec, nil, saga.AddMembersToDefaultTeamCmd{
		OrganizationID: uuid.New(),
		MemberUserIDs:  []string{"u1"},
	})
	rep := f.handler.Handle(context.Background(), cmd)
	if rep.IsSuccess() {
		t.Fatalf("expected failure when org has no default team")
	}
	if rep.Code != domain.CodeTeamNotFound {
		t.Fatalf("failure code: want=%q got=%q", domain.CodeTeamNotFound, rep.Code)
	}
}

func TestTeamHandlersValidateTeamsExistReportsMissing(t *testing.T) {
	f := newFixture(t)

	orgID := uuid.New()
	team := f.seedTeam(t, orgID, "Engineering", false)
	missing := uuid.New()

	cmd := command(t, saga.KindValidateTeamsExist, nil, saga.ValidateTeamsExistCmd{
		TeamIDs: []uuid.UUID{team.ID, missing},
	})
	rep := f.handler.Handle(context.Background(), cmd)
	if rep.IsSuccess() {
		t.Fatalf("expected missing-team failure")
	}
	if rep.Code != domain.CodeTeamNotFound {
		t.Fatalf("failure code: want=%q got=%q", domain.CodeTeamNotFound, rep.Code)
	}
	var details map[string]any
	if err := json.Unmarshal(rep.Payload, &details); err != nil {
		t.Fatalf("unmarshal details: %v", err)
	}
	missingIDs, _ := details["missing_ids"].([]any)
	if len(missingIDs) != 1 || missingIDs[0] != missing.String() {
		t.Fatalf("missing ids: want=[%s] got=%v", missing, details["missing_ids"])
	}

	ok := command(t, saga.KindValidateTeamsExist, nil, saga.ValidateTeamsExistCmd{TeamIDs: []uuid.UUID{team.ID}})
	if rep := f.handler.Handle(context.Background(), ok); !rep.IsSuccess() {
		t.Fatalf("validate existing: %s", rep.Message)
	}
}
