package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
	"github.com/yungbote/teamcore-backend/internal/pkg/dbctx"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&domain.Team{},
		&domain.TeamMembership{},
		&domain.JobRun{},
		&domain.JobRunEvent{},
		&domain.SagaRun{},
		&domain.SagaAction{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func testCtx() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func seedTeam(t *testing.T, repo TeamRepo, orgID uuid.UUID, name string, isDefault bool) *domain.Team {
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
	if _, err := repo.Create(testCtx(), []*domain.Team{team}); err != nil {
		t.Fatalf("seed team %q: %v", name, err)
	}
	return team
}

func seedMembership(t *testing.T, repo TeamMembershipRepo, teamID uuid.UUID, userID string) *domain.TeamMembership {
	t.Helper()
	row := &domain.TeamMembership{
		ID:        uuid.New(),
		TeamID:    teamID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := repo.Create(testCtx(), []*domain.TeamMembership{row}); err != nil {
		t.Fatalf("seed membership %s: %v", userID, err)
	}
	return row
}
