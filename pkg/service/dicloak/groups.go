package dicloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// groupsEndpoint is one discovery candidate
type groupsEndpoint struct {
	path   string
	method string
}

// groupsEndpointCandidates builds the ordered candidate list for listing
// groups. The officially documented endpoint stays first; team-qualified
// variants are inserted when an identifier resolved.
func groupsEndpointCandidates(teamID types.TeamID) []groupsEndpoint {
	candidates := []groupsEndpoint{
		{"/v1/env/group", http.MethodGet},
		{"/v1/env/groups", http.MethodGet},
		{"/v1/groups", http.MethodGet},
		{"/v1/profile/groups", http.MethodGet},
		{"/v1/environment/groups", http.MethodGet},
	}
	if teamID != "" {
		candidates = append(candidates,
			groupsEndpoint{fmt.Sprintf("/v1/team/%s/env/groups", teamID), http.MethodGet},
			groupsEndpoint{"/v1/env/group?team_id=" + url.QueryEscape(teamID.String()), http.MethodGet},
			groupsEndpoint{"/v1/groups?team_id=" + url.QueryEscape(teamID.String()), http.MethodGet},
		)
	}
	candidates = append(candidates,
		groupsEndpoint{"/v1/env/list", http.MethodGet},
		groupsEndpoint{"/v1/profiles", http.MethodGet},
		groupsEndpoint{"/v1/member/groups", http.MethodGet},
		groupsEndpoint{"/v1/env/group?page=1&size=100", http.MethodGet},
		groupsEndpoint{"/v1/groups?all=true", http.MethodGet},
	)
	return candidates
}

// GroupsDiscovery is the outcome of group endpoint discovery
type GroupsDiscovery struct {
	Endpoint string        `json:"endpoint"`
	Shape    string        `json:"shape"`
	Groups   []model.Group `json:"groups"`
	TeamID   types.TeamID  `json:"team_id,omitempty"`
}

// FindWorkingGroupsEndpoint probes the candidate endpoints in order and
// returns the first whose payload yields a recognizable group array. The
// boolean is false when no candidate matched; individual candidate
// failures are soft and logged.
func (c *Client) FindWorkingGroupsEndpoint(ctx context.Context) (*GroupsDiscovery, bool) {
	logger := ctxlog.From(ctx)
	teamID, _ := c.ResolveTeamID(ctx)

	for _, candidate := range groupsEndpointCandidates(teamID) {
		raw, err := c.request(ctx, candidate.method, candidate.path, nil)
		if err != nil {
			logger.Debug("groups endpoint candidate failed", "path", candidate.path, "error", err)
			continue
		}
		groups, shape, ok := extractGroups(raw)
		if !ok {
			continue
		}
		logger.Info("working groups endpoint found",
			"path", candidate.path, "shape", shape, "count", len(groups))
		return &GroupsDiscovery{
			Endpoint: candidate.path,
			Shape:    shape,
			Groups:   toGroups(groups),
			TeamID:   teamID,
		}, true
	}
	return nil, false
}

// ListGroups fetches the group collection through the documented endpoint,
// degrading to the bare endpoint and finally to an empty snapshot. Callers
// treat an empty list as valid output.
func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	logger := ctxlog.From(ctx)

	for _, path := range []string{"/v1/env/group?all=true&detail=true", "/v1/env/group"} {
		raw, err := c.request(ctx, http.MethodGet, path, nil)
		if err != nil {
			logger.Warn("group listing failed", "path", path, "error", err)
			continue
		}
		var v struct {
			List []rawGroup `json:"list"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("group listing returned unexpected shape", "path", path, "error", err)
			continue
		}
		if v.List != nil {
			return toGroups(v.List), nil
		}
	}

	return []model.Group{}, nil
}

// GetGroup reads one group, preferring the team-qualified endpoint when an
// identifier is known.
func (c *Client) GetGroup(ctx context.Context, id types.GroupID) (*model.Group, error) {
	if teamID, ok := c.ResolveTeamID(ctx); ok {
		g, err := c.getGroupAt(ctx, fmt.Sprintf("/v1/env/group/%s?team_id=%s",
			url.PathEscape(id.String()), url.QueryEscape(teamID.String())))
		if err == nil {
			return g, nil
		}
		ctxlog.From(ctx).Debug("team-qualified group read failed", "group_id", id, "error", err)
	}
	return c.getGroupAt(ctx, "/v1/env/group/"+url.PathEscape(id.String()))
}

func (c *Client) getGroupAt(ctx context.Context, path string) (*model.Group, error) {
	raw, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !hasData(raw) {
		return nil, goerr.Wrap(model.ErrGroupNotFound, "group read returned no data", goerr.V("path", path))
	}
	var g rawGroup
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, goerr.Wrap(err, "failed to decode group",
			goerr.T(model.ErrTagUnexpectedResponse), goerr.V("path", path))
	}
	grp := g.toModel()
	return &grp, nil
}

// groupUpdate is the wire payload for PUT on a group endpoint
type groupUpdate struct {
	Name      string           `json:"name"`
	MemberIDs []types.MemberID `json:"member_ids"`
	Remark    string           `json:"remark"`
	TeamID    types.TeamID     `json:"team_id,omitempty"`
}

// UpdateGroup replaces a group's name, remark and membership list
func (c *Client) UpdateGroup(ctx context.Context, id types.GroupID, upd model.Group) error {
	teamID, _ := c.ResolveTeamID(ctx)
	memberIDs := make([]types.MemberID, 0, len(upd.MemberList))
	for _, m := range upd.MemberList {
		memberIDs = append(memberIDs, m.MemberID)
	}
	payload := groupUpdate{
		Name:      upd.Name,
		MemberIDs: memberIDs,
		Remark:    upd.Remark,
		TeamID:    teamID,
	}
	_, err := c.request(ctx, http.MethodPut, "/v1/env/group/"+url.PathEscape(id.String()), payload)
	return err
}
