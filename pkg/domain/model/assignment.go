package model

import (
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
)

// AssignmentMethod names the write strategy that produced a result
type AssignmentMethod string

// Assignment strategies, in cascade order
const (
	AssignViaMemberUpdate AssignmentMethod = "member-update"
	AssignViaGroupUpdate  AssignmentMethod = "group-update"
	AssignViaTransition   AssignmentMethod = "all-group-transition"
)

// GroupAssignmentResult is the terminal artifact of the assignment
// orchestrator. Method records which strategy succeeded so operators can
// tell how this deployment accepts group writes.
type GroupAssignmentResult struct {
	Success       bool             `json:"success"`
	Method        AssignmentMethod `json:"method,omitempty"`
	Message       string           `json:"message"`
	AppliedGroups []GroupRef       `json:"applied_groups,omitempty"`
	ValidIDs      []types.GroupID  `json:"valid_ids,omitempty"`
	InvalidIDs    []types.GroupID  `json:"invalid_ids,omitempty"`
	TeamID        types.TeamID     `json:"team_id,omitempty"`
	Suggestions   []string         `json:"suggestions,omitempty"`
}

// EndpointCheck is the outcome of a single connectivity probe
type EndpointCheck struct {
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Status   int    `json:"status,omitempty"`
	Note     string `json:"note,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SelfTestReport summarizes the connectivity self-test. Healthy means at
// least one authenticated probe succeeded.
type SelfTestReport struct {
	Healthy     bool            `json:"healthy"`
	Checks      []EndpointCheck `json:"checks"`
	Diagnostics []EndpointCheck `json:"diagnostics,omitempty"`
	TeamID      types.TeamID    `json:"team_id,omitempty"`
}
