package authz

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pantry-service/internal/domain"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

type fakeTeamStore struct {
	teams   map[string]*domain.Team
	members map[string]*domain.TeamMember
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{
		teams:   make(map[string]*domain.Team),
		members: make(map[string]*domain.TeamMember),
	}
}

func (f *fakeTeamStore) GetTeam(_ context.Context, teamID string) (*domain.Team, error) {
	if team, ok := f.teams[teamID]; ok {
		return team, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTeamStore) GetMember(_ context.Context, teamID, userID string) (*domain.TeamMember, error) {
	if member, ok := f.members[teamID+"/"+userID]; ok {
		return member, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTeamStore) addMember(teamID, userID string, role domain.TeamRole) {
	f.members[teamID+"/"+userID] = &domain.TeamMember{TeamID: teamID, UserID: userID, Role: role}
}

func testGuard() (*Guard, *fakeTeamStore) {
	store := newFakeTeamStore()
	store.teams["team-1"] = &domain.Team{ID: "team-1", OwnerUserID: "owner"}
	store.addMember("team-1", "admin", domain.TeamRoleAdmin)
	store.addMember("team-1", "member", domain.TeamRoleMember)
	return NewGuard(store), store
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", want)
	}
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("error code = %s, want %s", got, want)
	}
}

func TestResolveOwner(t *testing.T) {
	guard, _ := testGuard()

	membership, err := guard.Resolve(context.Background(), "owner", "team-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if membership == nil || !membership.IsOwner || membership.Role != domain.TeamRoleOwner {
		t.Fatalf("owner not resolved: %+v", membership)
	}
}

func TestResolveUnknownTeam(t *testing.T) {
	guard, _ := testGuard()

	_, err := guard.Resolve(context.Background(), "owner", "missing-team")
	assertCode(t, err, "NOT_FOUND")
}

func TestRequireMemberOutsider(t *testing.T) {
	guard, _ := testGuard()

	_, err := guard.RequireMember(context.Background(), "stranger", "team-1")
	assertCode(t, err, CodeNotMember)
}

func TestRequireAdminPrecedence(t *testing.T) {
	guard, _ := testGuard()

	// A non-member gets NOT_MEMBER, never INSUFFICIENT_ROLE.
	_, err := guard.RequireAdmin(context.Background(), "stranger", "team-1")
	assertCode(t, err, CodeNotMember)

	_, err = guard.RequireAdmin(context.Background(), "member", "team-1")
	assertCode(t, err, CodeInsufficientRole)

	if _, err := guard.RequireAdmin(context.Background(), "admin", "team-1"); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if _, err := guard.RequireAdmin(context.Background(), "owner", "team-1"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
}

func TestRequireOwner(t *testing.T) {
	guard, _ := testGuard()

	_, err := guard.RequireOwner(context.Background(), "member", "team-1")
	assertCode(t, err, CodeOwnerOnly)

	_, err = guard.RequireOwner(context.Background(), "admin", "team-1")
	assertCode(t, err, CodeOwnerOnly)

	if _, err := guard.RequireOwner(context.Background(), "owner", "team-1"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
}

func TestCheckRoleAssignment(t *testing.T) {
	guard, _ := testGuard()
	owner := &Membership{IsOwner: true, Role: domain.TeamRoleOwner}
	admin := &Membership{Role: domain.TeamRoleAdmin}

	if err := guard.CheckRoleAssignment(owner, domain.TeamRoleAdmin); err != nil {
		t.Fatalf("owner granting admin should pass: %v", err)
	}
	if err := guard.CheckRoleAssignment(admin, domain.TeamRoleMember); err != nil {
		t.Fatalf("admin granting member should pass: %v", err)
	}

	assertCode(t, guard.CheckRoleAssignment(admin, domain.TeamRoleAdmin), CodeOwnerRequiredForRole)
	assertCode(t, guard.CheckRoleAssignment(owner, domain.TeamRoleOwner), CodeOwnerAssignmentForbidden)
}

func TestRequireTeamResourceShape(t *testing.T) {
	guard, _ := testGuard()

	existing := func(context.Context) (bool, error) { return true, nil }
	missing := func(context.Context) (bool, error) { return false, nil }

	// Non-member and missing resource come back indistinguishable by code
	// and status; only the message differs.
	_, errOutsider := guard.RequireTeamResource(context.Background(), "stranger", "team-1", existing)
	assertCode(t, errOutsider, "NOT_FOUND")

	_, errMissing := guard.RequireTeamResource(context.Background(), "member", "team-1", missing)
	assertCode(t, errMissing, "NOT_FOUND")

	outsiderStatus := apperrors.ToDomainError(errOutsider).HTTPStatus
	missingStatus := apperrors.ToDomainError(errMissing).HTTPStatus
	if outsiderStatus != missingStatus {
		t.Fatalf("status codes differ: %d vs %d", outsiderStatus, missingStatus)
	}

	if _, err := guard.RequireTeamResource(context.Background(), "member", "team-1", existing); err != nil {
		t.Fatalf("member with existing resource should pass: %v", err)
	}
}
