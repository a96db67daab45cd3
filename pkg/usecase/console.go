package usecase

import (
	"context"
	"sync"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/interfaces"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/dicloak-labs/dicloak-console/pkg/service/dicloak"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
)

// Console fronts the DICloak client for the controller and CLI. It owns
// the per-member operation locks: two triggers on the same member must not
// interleave their write-verify sequences.
type Console struct {
	client *dicloak.Client

	mu    sync.Mutex
	locks map[types.MemberID]*memberLock
}

// memberLock serializes operations on one member. refs counts holders and
// waiters so the entry can be dropped once the last one releases.
type memberLock struct {
	mu   sync.Mutex
	refs int
}

var _ interfaces.Console = (*Console)(nil)

// NewConsole creates a Console use case
func NewConsole(client *dicloak.Client) *Console {
	return &Console{
		client: client,
		locks:  make(map[types.MemberID]*memberLock),
	}
}

// acquireMemberLock blocks until this member's lock is held and returns
// the release function. The lock map stays bounded by the number of
// members with in-flight operations.
func (u *Console) acquireMemberLock(id types.MemberID) func() {
	u.mu.Lock()
	l, ok := u.locks[id]
	if !ok {
		l = &memberLock{}
		u.locks[id] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(u.locks, id)
		}
		u.mu.Unlock()
	}
}

// withOperationID attaches a correlation id to the context logger so the
// probe and strategy logs of one user action can be grouped.
func withOperationID(ctx context.Context) context.Context {
	logger := ctxlog.From(ctx).With("operation_id", uuid.New().String())
	return ctxlog.With(ctx, logger)
}

// SetCredentials replaces the API key; the memoized team identifier is
// invalidated with it.
func (u *Console) SetCredentials(ctx context.Context, apiKey string) {
	ctxlog.From(ctx).Info("credentials replaced, team identifier invalidated")
	u.client.SetAPIKey(apiKey)
}

// SelfTest runs the connectivity self-test
func (u *Console) SelfTest(ctx context.Context) *model.SelfTestReport {
	return u.client.SelfTest(withOperationID(ctx))
}

// ResolveTeamID discovers the team identifier for the current credentials
func (u *Console) ResolveTeamID(ctx context.Context) (types.TeamID, bool) {
	return u.client.ResolveTeamID(withOperationID(ctx))
}

// ListMembers fetches one page of members
func (u *Console) ListMembers(ctx context.Context, page, size int) ([]model.Member, int, error) {
	return u.client.ListMembers(ctx, page, size)
}

// GetAllMembers fetches the complete member collection
func (u *Console) GetAllMembers(ctx context.Context) ([]model.Member, error) {
	return u.client.GetAllMembers(withOperationID(ctx))
}

// GetMember fetches one member's detail
func (u *Console) GetMember(ctx context.Context, id types.MemberID) (*model.Member, error) {
	return u.client.GetMember(ctx, id)
}

// CreateMember registers a new member
func (u *Console) CreateMember(ctx context.Context, draft *model.MemberDraft) (*model.Member, error) {
	return u.client.CreateMember(withOperationID(ctx), draft)
}

// UpdateMember performs a strict full update, serialized per member
func (u *Console) UpdateMember(ctx context.Context, id types.MemberID, input *model.MemberUpdate) (*model.Member, error) {
	release := u.acquireMemberLock(id)
	defer release()
	return u.client.UpdateMemberStrict(withOperationID(ctx), id, input)
}

// DeleteMember removes a member, serialized per member
func (u *Console) DeleteMember(ctx context.Context, id types.MemberID) error {
	release := u.acquireMemberLock(id)
	defer release()
	return u.client.DeleteMember(withOperationID(ctx), id)
}

// ListGroups fetches the group collection
func (u *Console) ListGroups(ctx context.Context) ([]model.Group, error) {
	return u.client.ListGroups(ctx)
}

// ListRoles fetches the role catalog
func (u *Console) ListRoles(ctx context.Context) ([]model.Role, error) {
	return u.client.ListRoles(ctx)
}

// AssignGroups runs the assignment strategy cascade, serialized per member
func (u *Console) AssignGroups(ctx context.Context, id types.MemberID, groupIDs []types.GroupID) (*model.GroupAssignmentResult, error) {
	release := u.acquireMemberLock(id)
	defer release()
	return u.client.AssignGroups(withOperationID(ctx), id, groupIDs)
}
