package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/teamcore-backend/internal/domain"
	"github.com/yungbote/teamcore-backend/internal/logger"
)

func TestValidateCreatedTeamRejectsReservedNames(t *testing.T) {
	env := newServiceEnv(t)
	validator := NewTeamValidator(testLogger(t), env.teams)

	for _, name := range []string{"default", "admin", "everyone"} {
		err := validator.ValidateCreatedTeam(context.Background(), uuid.New(), name)
		var reserved *domain.ReservedNameError
		if !errors.As(err, &reserved) {
			t.Fatalf("name %q: want ReservedNameError got %v", name, err)
		}
		if reserved.Name != name {
			t.Fatalf("reserved name: want=%q got=%q", name, reserved.Name)
		}
	}
}

func TestValidateCreatedTeamRejectsDuplicate(t *testing.T) {
	env := newServiceEnv(t)
	validator := NewTeamValidator(testLogger(t), env.teams)

	orgID := uuid.New()
	env.seedTeam(t, orgID, "Engineering", false)

	err := validator.ValidateCreatedTeam(context.Background(), orgID, "Engineering")
	var dup *domain.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateNameError got %v", err)
	}

	// same name in another organization is fine
	if err := validator.ValidateCreatedTeam(context.Background(), uuid.New(), "Engineering"); err != nil {
		t.Fatalf("other org: %v", err)
	}
}

func TestValidateTeamActionMissingTeam(t *testing.T) {
	env := newServiceEnv(t)
	validator := NewTeamValidator(testLogger(t), env.teams)

	missing := uuid.New()
	_, err := validator.ValidateTeamAction(context.Background(), missing, domain.ActionAddUsers)
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("want NotFoundError got %v", err)
	}
	if len(notFound.MissingIDs) != 1 || notFound.MissingIDs[0] != missing {
		t.Fatalf("missing ids: want=[%s] got=%v", missing, notFound.MissingIDs)
	}
}

func TestValidateTeamActionProtectsDefaultTeam(t *testing.T) {
	env := newServiceEnv(t)
	validator := NewTeamValidator(testLogger(t), env.teams)

	orgID := uuid.New()
	def := env.seedTeam(t, orgID, "default", true)
	regular := env.seedTeam(t, orgID, "Engineering", false)

	for _, action := range []string{domain.ActionUpdateProfile, domain.ActionDelete, domain.ActionAddUsers, domain.ActionRemoveUsers} {
		_, err := validator.ValidateTeamAction(context.Background(), def.ID, action)
		var protected *domain.DefaultTeamProtectedError
		if !errors.As(err, &protected) {
			t.Fatalf("action %q on default team: want DefaultTeamProtectedError got %v", action, err)
		}
		if protected.Action != action {
			t.Fatalf("protected action: want=%q got=%q", action, protected.Action)
		}

		team, err := validator.ValidateTeamAction(context.Background(), regular.ID, action)
		if err != nil {
			t.Fatalf("action %q on regular team: %v", action, err)
		}
		if team.ID != regular.ID {
			t.Fatalf("returned team: want=%s got=%s", regular.ID, team.ID)
		}
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}
