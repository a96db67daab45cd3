package interfaces

import (
	"context"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
)

// Console is the surface the HTTP controller and the one-shot CLI commands
// consume. Implementations own the session state (credentials and the
// memoized team identifier).
type Console interface {
	// SetCredentials replaces the API key and invalidates the memoized
	// team identifier together with it
	SetCredentials(ctx context.Context, apiKey string)

	// SelfTest probes a fixed set of endpoints and reports outcomes
	SelfTest(ctx context.Context) *model.SelfTestReport

	// ResolveTeamID discovers (and memoizes) the team identifier
	ResolveTeamID(ctx context.Context) (types.TeamID, bool)

	// Member operations
	ListMembers(ctx context.Context, page, size int) ([]model.Member, int, error)
	GetAllMembers(ctx context.Context) ([]model.Member, error)
	GetMember(ctx context.Context, id types.MemberID) (*model.Member, error)
	CreateMember(ctx context.Context, draft *model.MemberDraft) (*model.Member, error)
	UpdateMember(ctx context.Context, id types.MemberID, input *model.MemberUpdate) (*model.Member, error)
	DeleteMember(ctx context.Context, id types.MemberID) error

	// Group operations
	ListGroups(ctx context.Context) ([]model.Group, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	AssignGroups(ctx context.Context, id types.MemberID, groupIDs []types.GroupID) (*model.GroupAssignmentResult, error)
}
