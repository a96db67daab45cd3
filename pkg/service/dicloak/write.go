package dicloak

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// CreateMember registers a new member. Type defaults to INTERNAL; all
// other fields pass through as given, unset optional fields omitted.
// Field validation is the service's job, not the client's.
func (c *Client) CreateMember(ctx context.Context, draft *model.MemberDraft) (*model.Member, error) {
	if draft == nil {
		return nil, goerr.New("member draft is required", goerr.T(model.ErrTagValidation))
	}

	memberType := draft.Type
	if memberType == "" {
		memberType = types.MemberTypeInternal
	}

	payload := map[string]any{
		"name":          draft.Name,
		"type":          memberType,
		"all_env_group": draft.AllEnvGroup,
	}
	if draft.Email != "" {
		payload["email"] = draft.Email
	}
	if draft.Phone != "" {
		payload["phone"] = draft.Phone
	}
	if draft.Authority != "" {
		payload["authority"] = draft.Authority
	}
	if draft.RoleID != "" {
		payload["role_id"] = draft.RoleID
	}
	if draft.Status != "" {
		payload["status"] = draft.Status
	}
	if draft.Remark != "" {
		payload["remark"] = draft.Remark
	}
	if draft.EnvGroupIDs != nil {
		payload["env_group_ids"] = draft.EnvGroupIDs
	}

	raw, err := c.request(ctx, http.MethodPost, "/v1/member", payload)
	if err != nil {
		return nil, err
	}

	var m model.Member
	if hasData(raw) {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode created member",
				goerr.T(model.ErrTagUnexpectedResponse))
		}
	}
	return &m, nil
}

// UpdateMemberStrict performs a full PUT update with strict validation:
// name, email, authority and type are required; a missing role_id falls
// back to the first role-catalog entry; all values are normalized to the
// wire types and unset optional fields are stripped (the external API
// rejects unexpected nulls on some fields).
func (c *Client) UpdateMemberStrict(ctx context.Context, memberID types.MemberID, input *model.MemberUpdate) (*model.Member, error) {
	if memberID == "" {
		return nil, goerr.New("member id is required", goerr.T(model.ErrTagValidation))
	}
	if input == nil || !input.HasRequiredFields() {
		return nil, goerr.Wrap(model.ErrMissingRequiredFields, "strict update rejected",
			goerr.V("member_id", memberID))
	}

	teamID, _ := c.ResolveTeamID(ctx)

	roleID := input.RoleID
	if roleID == "" {
		roles, err := c.ListRoles(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "role_id not provided and role catalog fetch failed",
				goerr.T(model.ErrTagValidation), goerr.V("member_id", memberID))
		}
		if len(roles) == 0 {
			return nil, goerr.Wrap(model.ErrNoRolesAvailable, "cannot pick a fallback role",
				goerr.V("member_id", memberID))
		}
		roleID = roles[0].ID
		ctxlog.From(ctx).Info("using fallback role", "role_id", roleID, "role_name", roles[0].Name)
	}

	payload := map[string]any{
		"name":          strings.TrimSpace(input.Name),
		"email":         strings.TrimSpace(input.Email),
		"authority":     input.Authority,
		"type":          string(input.Type),
		"role_id":       roleID.String(),
		"all_env_group": input.AllEnvGroup,
		"env_group_ids": normalizeGroupIDs(input),
	}
	if input.Status != "" {
		payload["status"] = string(input.Status)
	}
	if input.Remark != "" {
		payload["remark"] = input.Remark
	}
	if input.Phone != "" {
		payload["phone"] = input.Phone
	}
	if input.Username != "" {
		payload["username"] = input.Username
	}
	if input.ManagerID != "" {
		payload["manager_id"] = input.ManagerID
	}
	if input.AgentID != "" {
		payload["agent_id"] = input.AgentID
	}
	if teamID != "" {
		payload["team_id"] = teamID.String()
	}

	raw, err := c.request(ctx, http.MethodPut, memberPath(memberID), payload)
	if err != nil {
		switch {
		case goerr.HasTag(err, model.ErrTagNotFound):
			return nil, goerr.Wrap(model.ErrMemberNotFound, "cannot update missing member",
				goerr.V("member_id", memberID))
		case goerr.HasTag(err, model.ErrTagPermission):
			return nil, goerr.Wrap(model.ErrPermissionDenied, "not allowed to update member",
				goerr.V("member_id", memberID))
		case goerr.HasTag(err, model.ErrTagValidation):
			return nil, goerr.Wrap(model.ErrInvalidMemberData, "update rejected by DICloak",
				goerr.V("member_id", memberID))
		}
		return nil, err
	}

	var m model.Member
	if hasData(raw) {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode updated member",
				goerr.T(model.ErrTagUnexpectedResponse), goerr.V("member_id", memberID))
		}
	}
	return &m, nil
}

// normalizeGroupIDs applies the all_env_group exclusivity rule: the
// explicit id list is only meaningful when all_env_group is off. Blank
// entries are filtered.
func normalizeGroupIDs(input *model.MemberUpdate) []string {
	if input.AllEnvGroup {
		return []string{}
	}
	ids := make([]string, 0, len(input.EnvGroupIDs))
	for _, id := range input.EnvGroupIDs {
		s := strings.TrimSpace(id.String())
		if s == "" {
			continue
		}
		ids = append(ids, s)
	}
	return ids
}

// DeleteMember removes a member. A missing target is reported as already
// deleted rather than a generic HTTP failure.
func (c *Client) DeleteMember(ctx context.Context, memberID types.MemberID) error {
	if memberID == "" {
		return goerr.New("member id is required", goerr.T(model.ErrTagValidation))
	}

	if _, err := c.request(ctx, http.MethodDelete, memberPath(memberID), nil); err != nil {
		switch {
		case goerr.HasTag(err, model.ErrTagNotFound):
			return goerr.Wrap(model.ErrMemberAlreadyDeleted, "delete target missing",
				goerr.V("member_id", memberID))
		case goerr.HasTag(err, model.ErrTagPermission):
			return goerr.Wrap(model.ErrPermissionDenied, "not allowed to delete member",
				goerr.V("member_id", memberID))
		}
		return err
	}
	return nil
}
