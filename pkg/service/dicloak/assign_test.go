package dicloak_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

// assignFixture is a stateful fake of the endpoints the assignment cascade
// touches: one member, a set of readable groups, and knobs for making the
// write paths lie or fail.
type assignFixture struct {
	mu sync.Mutex

	member     model.Member
	groups     map[string]model.Group
	patchCount int
	putCount   int
	// patchSeq records the all_env_group value of each member PATCH
	patchSeq []bool

	// patchApplies controls whether a member PATCH actually lands
	patchApplies bool
	// requireTransition makes a specific-group PATCH land only when the
	// member is currently in the all-groups state
	requireTransition bool
	// patchStatus, when non-zero, fails member PATCH with that status
	patchStatus int
	// putStatus, when non-zero, fails group PUT with that status
	putStatus int
}

func newAssignFixture() *assignFixture {
	return &assignFixture{
		member: model.Member{
			ID:        "m1",
			Name:      "Alice",
			Authority: "admin",
			Type:      types.MemberTypeInternal,
			RoleID:    "r1",
		},
		groups: map[string]model.Group{
			"g1": {ID: "g1", Name: "Alpha"},
			"g2": {ID: "g2", Name: "Beta"},
		},
		patchApplies: true,
	}
}

func (f *assignFixture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/v1/user/profile":
			writeEnvelope(w, 0, `{"team_id":"team-1"}`)

		case r.Method == http.MethodGet && r.URL.Path == "/v1/member/m1":
			raw, _ := json.Marshal(f.member)
			writeEnvelope(w, 0, string(raw))

		case r.Method == http.MethodPatch && r.URL.Path == "/v1/member/m1":
			f.patchCount++
			if f.patchStatus != 0 {
				w.WriteHeader(f.patchStatus)
				return
			}
			var body struct {
				AllEnvGroup bool            `json:"all_env_group"`
				EnvGroupIDs []types.GroupID `json:"env_group_ids"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				f.patchSeq = append(f.patchSeq, body.AllEnvGroup)
				applies := f.patchApplies
				if f.requireTransition && !body.AllEnvGroup && !f.member.AllEnvGroup {
					applies = false
				}
				if applies {
					if body.AllEnvGroup {
						f.member.AllEnvGroup = true
						f.member.EnvGroupList = nil
					} else {
						f.member.AllEnvGroup = false
						f.member.EnvGroupList = nil
						for _, id := range body.EnvGroupIDs {
							f.member.EnvGroupList = append(f.member.EnvGroupList,
								model.GroupRef{GroupID: id})
						}
					}
				}
			}
			writeEnvelope(w, 0, `null`)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/env/group/"):
			id := strings.TrimPrefix(r.URL.Path, "/v1/env/group/")
			g, ok := f.groups[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			raw, _ := json.Marshal(g)
			writeEnvelope(w, 0, string(raw))

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v1/env/group/"):
			f.putCount++
			if f.putStatus != 0 {
				w.WriteHeader(f.putStatus)
				return
			}
			writeEnvelope(w, 0, `null`)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestValidateGroupIDsPartition(t *testing.T) {
	f := newAssignFixture()
	client := newTestClient(t, f.handler())

	v := client.ValidateGroupIDs(context.Background(),
		[]types.GroupID{"g1", "missing", "g2", "g1"})
	gt.Equal(t, []types.GroupID{"g1", "g2"}, v.ValidIDs)
	gt.Equal(t, []types.GroupID{"missing"}, v.InvalidIDs)
}

func TestAssignGroupsAllInvalid(t *testing.T) {
	f := newAssignFixture()
	client := newTestClient(t, f.handler())

	result, err := client.AssignGroups(context.Background(), "m1",
		[]types.GroupID{"nope", "nada"})
	gt.NoError(t, err).Required()
	gt.False(t, result.Success)
	gt.Equal(t, 2, len(result.InvalidIDs))
	gt.Equal(t, 0, len(result.Suggestions))
	// No write was attempted
	gt.Equal(t, 0, f.patchCount)
	gt.Equal(t, 0, f.putCount)
}

func TestAssignGroupsMemberUpdateStrategy(t *testing.T) {
	f := newAssignFixture()
	client := newTestClient(t, f.handler())

	result, err := client.AssignGroups(context.Background(), "m1",
		[]types.GroupID{"g1", "g2", "missing"})
	gt.NoError(t, err).Required()
	gt.True(t, result.Success)
	gt.Equal(t, model.AssignViaMemberUpdate, result.Method)
	gt.Equal(t, []types.GroupID{"g1", "g2"}, result.ValidIDs)
	gt.Equal(t, []types.GroupID{"missing"}, result.InvalidIDs)
	gt.Equal(t, types.TeamID("team-1"), result.TeamID)
	gt.Equal(t, 2, len(result.AppliedGroups))
	// The group-side fallback never ran
	gt.Equal(t, 0, f.putCount)
}

func TestAssignGroupsFallsBackToGroupUpdate(t *testing.T) {
	f := newAssignFixture()
	// Member PATCH is accepted but silently ignored, so the verification
	// read keeps the list empty and the cascade moves on.
	f.patchApplies = false
	client := newTestClient(t, f.handler())

	result, err := client.AssignGroups(context.Background(), "m1",
		[]types.GroupID{"g1", "g2"})
	gt.NoError(t, err).Required()
	gt.True(t, result.Success)
	gt.Equal(t, model.AssignViaGroupUpdate, result.Method)
	gt.Equal(t, 2, f.putCount)
}

func TestAssignGroupsTransitionStrategy(t *testing.T) {
	f := newAssignFixture()
	// A deployment that ignores a direct specific-group set unless the
	// member is already in the all-groups state, and rejects group-side
	// writes: only the two-phase transition can land.
	f.requireTransition = true
	f.putStatus = http.StatusForbidden
	client := newTestClient(t, f.handler())

	result, err := client.AssignGroups(context.Background(), "m1",
		[]types.GroupID{"g1", "g2"})
	gt.NoError(t, err).Required()
	gt.True(t, result.Success)
	gt.Equal(t, model.AssignViaTransition, result.Method)
	gt.Equal(t, 2, len(result.AppliedGroups))
	// Direct set first, then all-groups, then the specific list
	gt.Equal(t, []bool{false, true, false}, f.patchSeq)
	gt.False(t, f.member.AllEnvGroup)
	gt.Equal(t, 2, len(f.member.EnvGroupList))
}

func TestAssignGroupsExhaustedReturnsSuggestions(t *testing.T) {
	f := newAssignFixture()
	f.patchStatus = http.StatusForbidden
	f.putStatus = http.StatusForbidden
	client := newTestClient(t, f.handler())

	result, err := client.AssignGroups(context.Background(), "m1",
		[]types.GroupID{"g1"})
	gt.NoError(t, err).Required()
	gt.False(t, result.Success)
	gt.A(t, result.Suggestions).Longer(0)
	gt.Equal(t, []types.GroupID{"g1"}, result.ValidIDs)
}

func TestAssignGroupsSkipsAlreadyPresentMember(t *testing.T) {
	f := newAssignFixture()
	f.patchApplies = false
	f.groups["g1"] = model.Group{
		ID:   "g1",
		Name: "Alpha",
		MemberList: []model.GroupMember{
			{MemberID: "m1", Name: "Alice"},
		},
	}
	client := newTestClient(t, f.handler())

	result, err := client.AssignGroups(context.Background(), "m1",
		[]types.GroupID{"g1", "g2"})
	gt.NoError(t, err).Required()
	gt.True(t, result.Success)
	gt.Equal(t, model.AssignViaGroupUpdate, result.Method)
	// g1 already contains the member; only g2 was written
	gt.Equal(t, 1, f.putCount)
}
