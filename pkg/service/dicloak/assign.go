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

// assignmentSuggestions is the fixed remediation guidance returned when
// every strategy fails.
var assignmentSuggestions = []string{
	"Verify the group ids are correct",
	"Confirm the API key has permission to modify groups",
	"Check whether a team identifier was detected; a missing one often causes group writes to be rejected",
	"This may be a limitation of the current DICloak version",
	"Consider granting access to all groups instead",
}

// GroupIDValidation splits requested ids into those readable through at
// least one candidate endpoint and those readable through none. Valid and
// invalid together cover the input exactly once each.
type GroupIDValidation struct {
	ValidIDs   []types.GroupID
	InvalidIDs []types.GroupID
}

// groupValidationCandidates returns the per-id read variants: plain,
// team-qualified by query, team-qualified by path.
func groupValidationCandidates(id types.GroupID, teamID types.TeamID) []string {
	paths := []string{"/v1/env/group/" + url.PathEscape(id.String())}
	if teamID != "" {
		paths = append(paths,
			fmt.Sprintf("/v1/env/group/%s?team_id=%s",
				url.PathEscape(id.String()), url.QueryEscape(teamID.String())),
			fmt.Sprintf("/v1/team/%s/env/group/%s", teamID, url.PathEscape(id.String())),
		)
	}
	return paths
}

// ValidateGroupIDs checks each id against the candidate read endpoints. An
// id counts as valid when any variant returns data. Duplicates in the
// input are collapsed.
func (c *Client) ValidateGroupIDs(ctx context.Context, ids []types.GroupID) GroupIDValidation {
	logger := ctxlog.From(ctx)
	teamID, ok := c.ResolveTeamID(ctx)
	if !ok {
		logger.Warn("validating group ids without a team identifier")
	}

	var v GroupIDValidation
	seen := make(map[types.GroupID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		found := false
		for _, path := range groupValidationCandidates(id, teamID) {
			raw, err := c.request(ctx, http.MethodGet, path, nil)
			if err != nil {
				logger.Debug("group validation probe failed", "group_id", id, "path", path, "error", err)
				continue
			}
			if hasData(raw) {
				found = true
				break
			}
		}
		if found {
			v.ValidIDs = append(v.ValidIDs, id)
		} else {
			logger.Warn("group id did not validate on any endpoint", "group_id", id)
			v.InvalidIDs = append(v.InvalidIDs, id)
		}
	}
	return v
}

// AssignGroups puts a member into the given groups by trying independent
// write strategies in order until one succeeds. Strategies A and C verify
// with a follow-up read; strategy B trusts the write status alone, an
// asymmetry of the external service's observed behavior that is preserved
// deliberately. A structured failure result (not an error) is returned
// when every strategy fails.
func (c *Client) AssignGroups(ctx context.Context, memberID types.MemberID, groupIDs []types.GroupID) (*model.GroupAssignmentResult, error) {
	logger := ctxlog.From(ctx)
	teamID, _ := c.ResolveTeamID(ctx)

	validation := c.ValidateGroupIDs(ctx, groupIDs)
	if len(validation.ValidIDs) == 0 {
		return &model.GroupAssignmentResult{
			Success:    false,
			Message:    "none of the requested group ids are valid",
			ValidIDs:   validation.ValidIDs,
			InvalidIDs: validation.InvalidIDs,
			TeamID:     teamID,
		}, nil
	}
	if len(validation.InvalidIDs) > 0 {
		logger.Warn("proceeding with valid group ids only", "invalid_ids", validation.InvalidIDs)
	}

	strategies := []struct {
		name string
		run  func(context.Context) (*model.GroupAssignmentResult, error)
	}{
		{"member-update", func(ctx context.Context) (*model.GroupAssignmentResult, error) {
			return c.assignViaMemberUpdate(ctx, memberID, teamID, validation.ValidIDs)
		}},
		{"group-update", func(ctx context.Context) (*model.GroupAssignmentResult, error) {
			return c.assignViaGroupUpdate(ctx, memberID, teamID, validation.ValidIDs)
		}},
		{"all-group-transition", func(ctx context.Context) (*model.GroupAssignmentResult, error) {
			return c.assignViaTransition(ctx, memberID, teamID, validation.ValidIDs)
		}},
	}

	for _, strategy := range strategies {
		res, err := strategy.run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warn("assignment strategy failed", "strategy", strategy.name, "error", err)
			continue
		}
		if res == nil {
			logger.Info("assignment strategy completed but did not verify", "strategy", strategy.name)
			continue
		}
		res.ValidIDs = validation.ValidIDs
		res.InvalidIDs = validation.InvalidIDs
		res.TeamID = teamID
		return res, nil
	}

	return &model.GroupAssignmentResult{
		Success:     false,
		Message:     "all assignment strategies failed",
		ValidIDs:    validation.ValidIDs,
		InvalidIDs:  validation.InvalidIDs,
		TeamID:      teamID,
		Suggestions: assignmentSuggestions,
	}, nil
}

// memberPatchPayload carries the member's current identity fields so a
// partial group change does not blank them on strict deployments.
func memberPatchPayload(m *model.Member, teamID types.TeamID) map[string]any {
	p := map[string]any{
		"name":      m.Name,
		"authority": m.Authority,
		"role_id":   m.RoleID,
		"type":      m.Type,
	}
	if teamID != "" {
		p["team_id"] = teamID
	}
	if m.Email != "" {
		p["email"] = m.Email
	}
	if m.Username != "" {
		p["username"] = m.Username
	}
	if m.Phone != "" {
		p["phone"] = m.Phone
	}
	if m.Status != "" {
		p["status"] = m.Status
	}
	if m.Remark != "" {
		p["remark"] = m.Remark
	}
	return p
}

// assignViaMemberUpdate is strategy A: patch the member with the explicit
// id list, wait for the write to settle, and verify via re-read. A nil
// result with nil error means the write was accepted but not applied.
func (c *Client) assignViaMemberUpdate(ctx context.Context, memberID types.MemberID, teamID types.TeamID, validIDs []types.GroupID) (*model.GroupAssignmentResult, error) {
	current, err := c.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	payload := memberPatchPayload(current, teamID)
	payload["all_env_group"] = false
	payload["env_group_ids"] = validIDs

	if _, err := c.request(ctx, http.MethodPatch, memberPath(memberID), payload); err != nil {
		return nil, err
	}
	if err := wait(ctx, c.intervals.WriteVerify); err != nil {
		return nil, err
	}

	updated, err := c.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(updated.EnvGroupList) == 0 {
		return nil, nil
	}
	return &model.GroupAssignmentResult{
		Success:       true,
		Method:        model.AssignViaMemberUpdate,
		Message:       fmt.Sprintf("%d groups applied", len(updated.EnvGroupList)),
		AppliedGroups: updated.EnvGroupList,
	}, nil
}

// assignViaGroupUpdate is strategy B: write the member into each group's
// membership list. Success means at least one group write went through.
func (c *Client) assignViaGroupUpdate(ctx context.Context, memberID types.MemberID, teamID types.TeamID, validIDs []types.GroupID) (*model.GroupAssignmentResult, error) {
	logger := ctxlog.From(ctx)
	updated := 0

	for _, groupID := range validIDs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		group, path, err := c.readGroupForUpdate(ctx, groupID, teamID)
		if err != nil {
			logger.Debug("group read failed during group-side assignment",
				"group_id", groupID, "error", err)
			continue
		}

		memberIDs := make([]types.MemberID, 0, len(group.MemberList)+1)
		present := false
		for _, gm := range group.MemberList {
			memberIDs = append(memberIDs, gm.MemberID)
			if gm.MemberID == memberID {
				present = true
			}
		}
		if present {
			continue
		}
		memberIDs = append(memberIDs, memberID)

		payload := groupUpdate{
			Name:      group.Name,
			MemberIDs: memberIDs,
			Remark:    group.Remark,
			TeamID:    teamID,
		}
		if _, err := c.request(ctx, http.MethodPut, path, payload); err != nil {
			logger.Warn("group membership write failed", "group_id", groupID, "error", err)
			continue
		}
		updated++
	}

	if updated == 0 {
		return nil, nil
	}
	return &model.GroupAssignmentResult{
		Success: true,
		Method:  model.AssignViaGroupUpdate,
		Message: fmt.Sprintf("member added to %d groups", updated),
	}, nil
}

// readGroupForUpdate returns the group and the endpoint it answered on, so
// the follow-up PUT reuses the variant this deployment accepts.
func (c *Client) readGroupForUpdate(ctx context.Context, groupID types.GroupID, teamID types.TeamID) (*model.Group, string, error) {
	var lastErr error
	for _, path := range groupValidationCandidates(groupID, teamID) {
		raw, err := c.request(ctx, http.MethodGet, path, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if !hasData(raw) {
			continue
		}
		var g rawGroup
		if err := json.Unmarshal(raw, &g); err != nil {
			lastErr = goerr.Wrap(err, "failed to decode group",
				goerr.T(model.ErrTagUnexpectedResponse), goerr.V("path", path))
			continue
		}
		grp := g.toModel()
		return &grp, path, nil
	}
	if lastErr == nil {
		lastErr = goerr.Wrap(model.ErrGroupNotFound, "no endpoint variant returned the group",
			goerr.V("group_id", groupID))
	}
	return nil, "", lastErr
}

// assignViaTransition is strategy C: some deployments only accept entering
// specific-group mode as a transition out of the all-groups state, not as
// a direct set. A crash between the two phases leaves the member in the
// all-groups state, which is a legitimate member state.
func (c *Client) assignViaTransition(ctx context.Context, memberID types.MemberID, teamID types.TeamID, validIDs []types.GroupID) (*model.GroupAssignmentResult, error) {
	current, err := c.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	allPayload := memberPatchPayload(current, teamID)
	allPayload["all_env_group"] = true
	if _, err := c.request(ctx, http.MethodPatch, memberPath(memberID), allPayload); err != nil {
		return nil, err
	}
	if err := wait(ctx, c.intervals.AllGroupSwitch); err != nil {
		return nil, err
	}

	specificPayload := memberPatchPayload(current, teamID)
	specificPayload["all_env_group"] = false
	specificPayload["env_group_ids"] = validIDs
	if _, err := c.request(ctx, http.MethodPatch, memberPath(memberID), specificPayload); err != nil {
		return nil, err
	}
	if err := wait(ctx, c.intervals.WriteVerify); err != nil {
		return nil, err
	}

	updated, err := c.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(updated.EnvGroupList) == 0 {
		return nil, nil
	}
	return &model.GroupAssignmentResult{
		Success:       true,
		Method:        model.AssignViaTransition,
		Message:       fmt.Sprintf("%d groups applied via all-group transition", len(updated.EnvGroupList)),
		AppliedGroups: updated.EnvGroupList,
	}, nil
}
