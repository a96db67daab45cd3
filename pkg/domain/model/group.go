package model

import (
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
)

// GroupMember is one membership entry of a group
type GroupMember struct {
	MemberID types.MemberID `json:"member_id"`
	Name     string         `json:"name,omitempty"`
}

// Group is a read-through snapshot of an environment group. Groups are
// owned by the external service; a snapshot is valid only until the next
// fetch.
type Group struct {
	ID         types.GroupID `json:"id"`
	Name       string        `json:"name"`
	Remark     string        `json:"remark,omitempty"`
	MemberList []GroupMember `json:"member_list,omitempty"`
}

// Role is an entry of the member role catalog
type Role struct {
	ID   types.RoleID `json:"id"`
	Name string       `json:"name"`
}
