package model

import (
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
)

// GroupRef is a group membership entry as reported on a member detail
type GroupRef struct {
	GroupID types.GroupID `json:"group_id"`
	Name    string        `json:"name,omitempty"`
}

// Member represents a DICloak team member. When AllEnvGroup is set the
// external service ignores EnvGroupList entirely; the two must never be
// treated as independently authoritative.
type Member struct {
	ID           types.MemberID     `json:"id"`
	TeamID       types.TeamID       `json:"team_id,omitempty"`
	Name         string             `json:"name"`
	Username     string             `json:"username,omitempty"`
	Email        string             `json:"email,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Authority    string             `json:"authority"`
	Type         types.MemberType   `json:"type"`
	RoleID       types.RoleID       `json:"role_id"`
	Status       types.MemberStatus `json:"status,omitempty"`
	Remark       string             `json:"remark,omitempty"`
	AllEnvGroup  bool               `json:"all_env_group"`
	EnvGroupList []GroupRef         `json:"env_group_list,omitempty"`
	ManagerID    string             `json:"manager_id,omitempty"`
	AgentID      string             `json:"agent_id,omitempty"`
}

// MemberDraft carries the fields for member creation. Type defaults to
// INTERNAL when left empty; everything else is passed through as given.
type MemberDraft struct {
	Name        string             `json:"name"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Authority   string             `json:"authority,omitempty"`
	Type        types.MemberType   `json:"type,omitempty"`
	RoleID      types.RoleID       `json:"role_id,omitempty"`
	Status      types.MemberStatus `json:"status,omitempty"`
	Remark      string             `json:"remark,omitempty"`
	AllEnvGroup bool               `json:"all_env_group"`
	EnvGroupIDs []types.GroupID    `json:"env_group_ids,omitempty"`
}

// MemberUpdate carries the fields for a strict full update. Name, Email,
// Authority and Type are required; RoleID falls back to the first entry of
// the role catalog when empty.
type MemberUpdate struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Username    string             `json:"username,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Authority   string             `json:"authority"`
	Type        types.MemberType   `json:"type"`
	RoleID      types.RoleID       `json:"role_id,omitempty"`
	Status      types.MemberStatus `json:"status,omitempty"`
	Remark      string             `json:"remark,omitempty"`
	AllEnvGroup bool               `json:"all_env_group"`
	EnvGroupIDs []types.GroupID    `json:"env_group_ids,omitempty"`
	ManagerID   string             `json:"manager_id,omitempty"`
	AgentID     string             `json:"agent_id,omitempty"`
}

// HasRequiredFields reports whether the strict update preconditions hold
func (u *MemberUpdate) HasRequiredFields() bool {
	return u.Name != "" && u.Email != "" && u.Authority != "" && u.Type != ""
}
