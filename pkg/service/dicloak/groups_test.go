package dicloak_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestFindWorkingGroupsEndpointDocumentedFirst(t *testing.T) {
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/v1/user/profile":
			writeEnvelope(w, 0, `{"team_id":"team-1"}`)
		case "/v1/env/group":
			writeEnvelope(w, 0, `{"list":[{"id":"g1","name":"Alpha"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	discovery, ok := client.FindWorkingGroupsEndpoint(context.Background())
	gt.True(t, ok)
	gt.V(t, discovery).NotNil()
	gt.Equal(t, "/v1/env/group", discovery.Endpoint)
	gt.Equal(t, "data.list", discovery.Shape)
	gt.Equal(t, types.TeamID("team-1"), discovery.TeamID)
	gt.Equal(t, 1, len(discovery.Groups))
	gt.Equal(t, types.GroupID("g1"), discovery.Groups[0].ID)
}

func TestFindWorkingGroupsEndpointFallsThrough(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/user/profile":
			writeEnvelope(w, 0, `{"team_id":"team-1"}`)
		case "/v1/env/group":
			// Answers but with no recognizable group array
			writeEnvelope(w, 0, `{"count":0}`)
		case "/v1/groups":
			writeEnvelope(w, 0, `{"groups":[{"group_id":"g9","name":"Fallback"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	discovery, ok := client.FindWorkingGroupsEndpoint(context.Background())
	gt.True(t, ok)
	gt.Equal(t, "/v1/groups", discovery.Endpoint)
	gt.Equal(t, "data.groups", discovery.Shape)
	gt.Equal(t, types.GroupID("g9"), discovery.Groups[0].ID)
}

func TestFindWorkingGroupsEndpointNoMatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, ok := client.FindWorkingGroupsEndpoint(context.Background())
	gt.False(t, ok)
}

func TestListGroupsDocumentedEndpoint(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/env/group" && r.URL.Query().Get("all") == "true" {
			writeEnvelope(w, 0, `{"list":[{"id":"g1","name":"Alpha"},{"id":"g2","name":"Beta"}]}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	groups, err := client.ListGroups(context.Background())
	gt.NoError(t, err).Required()
	gt.Equal(t, 2, len(groups))
	gt.Equal(t, "Alpha", groups[0].Name)
}

func TestListGroupsFallsBackToBareEndpoint(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/env/group" {
			if r.URL.Query().Get("all") == "true" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeEnvelope(w, 0, `{"list":[{"id":"g1","name":"Bare"}]}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	groups, err := client.ListGroups(context.Background())
	gt.NoError(t, err).Required()
	gt.Equal(t, 1, len(groups))
	gt.Equal(t, "Bare", groups[0].Name)
}

func TestListGroupsEmptySnapshotOnTotalFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	groups, err := client.ListGroups(context.Background())
	gt.NoError(t, err).Required()
	gt.Equal(t, 0, len(groups))
	gt.False(t, groups == nil)
}

func TestGetGroupPrefersTeamQualified(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/user/profile":
			writeEnvelope(w, 0, `{"team_id":"team-1"}`)
		case "/v1/env/group/g1":
			gt.Equal(t, "team-1", r.URL.Query().Get("team_id"))
			writeEnvelope(w, 0, `{"id":"g1","name":"Qualified","member_list":[{"member_id":"m1","name":"A"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	group, err := client.GetGroup(context.Background(), "g1")
	gt.NoError(t, err).Required()
	gt.Equal(t, types.GroupID("g1"), group.ID)
	gt.Equal(t, "Qualified", group.Name)
	gt.Equal(t, 1, len(group.MemberList))
}

func TestUpdateGroupPayload(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/user/profile":
			writeEnvelope(w, 0, `{"team_id":"team-1"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/v1/env/group/g1":
			body, _ := io.ReadAll(r.Body)
			gt.NoError(t, json.Unmarshal(body, &captured))
			writeEnvelope(w, 0, `null`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	err := client.UpdateGroup(context.Background(), "g1", model.Group{
		Name:   "Renamed",
		Remark: "note",
		MemberList: []model.GroupMember{
			{MemberID: "m1"},
			{MemberID: "m2"},
		},
	})
	gt.NoError(t, err).Required()
	gt.Equal(t, "Renamed", captured["name"])
	gt.Equal(t, "note", captured["remark"])
	gt.Equal(t, "team-1", captured["team_id"])
	ids := captured["member_ids"].([]any)
	gt.Equal(t, 2, len(ids))
}
