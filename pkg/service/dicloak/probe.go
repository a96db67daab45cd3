package dicloak

import (
	"encoding/json"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
)

// rawGroup tolerates the id/group_id and member_id/id inconsistencies
// observed across DICloak deployments.
type rawGroup struct {
	ID         types.GroupID    `json:"id"`
	GroupID    types.GroupID    `json:"group_id"`
	Name       string           `json:"name"`
	Remark     string           `json:"remark"`
	MemberList []rawGroupMember `json:"member_list"`
}

type rawGroupMember struct {
	MemberID types.MemberID `json:"member_id"`
	ID       types.MemberID `json:"id"`
	Name     string         `json:"name"`
}

func (g rawGroup) identifier() types.GroupID {
	if g.ID != "" {
		return g.ID
	}
	return g.GroupID
}

func (g rawGroup) toModel() model.Group {
	out := model.Group{
		ID:     g.identifier(),
		Name:   g.Name,
		Remark: g.Remark,
	}
	for _, m := range g.MemberList {
		id := m.MemberID
		if id == "" {
			id = m.ID
		}
		out.MemberList = append(out.MemberList, model.GroupMember{MemberID: id, Name: m.Name})
	}
	return out
}

func toGroups(raws []rawGroup) []model.Group {
	groups := make([]model.Group, 0, len(raws))
	for _, g := range raws {
		groups = append(groups, g.toModel())
	}
	return groups
}

// groupExtractor pulls a group array out of one known payload shape. Each
// extractor is a pure function over the envelope data; composing them in a
// fixed slice makes the fallback order testable in isolation.
type groupExtractor struct {
	path    string
	extract func(json.RawMessage) []rawGroup
}

// groupExtractors is the priority order for locating group arrays in
// heterogeneous payloads. Earlier entries match the documented response
// shape and must stay first.
var groupExtractors = []groupExtractor{
	{"data.list", func(raw json.RawMessage) []rawGroup {
		var v struct {
			List []rawGroup `json:"list"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return v.List
	}},
	{"data.groups", func(raw json.RawMessage) []rawGroup {
		var v struct {
			Groups []rawGroup `json:"groups"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return v.Groups
	}},
	{"data.env_groups", func(raw json.RawMessage) []rawGroup {
		var v struct {
			EnvGroups []rawGroup `json:"env_groups"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return v.EnvGroups
	}},
	{"data.data.list", func(raw json.RawMessage) []rawGroup {
		var v struct {
			Data struct {
				List []rawGroup `json:"list"`
			} `json:"data"`
		}
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return v.Data.List
	}},
	{"data", func(raw json.RawMessage) []rawGroup {
		var v []rawGroup
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return v
	}},
}

// extractGroups returns the first non-empty group array found along the
// known payload shapes, plus the path that matched. A match requires the
// first element to carry an id or group_id field.
func extractGroups(raw json.RawMessage) ([]rawGroup, string, bool) {
	for _, ex := range groupExtractors {
		groups := ex.extract(raw)
		if len(groups) == 0 {
			continue
		}
		if groups[0].identifier() == "" {
			continue
		}
		return groups, ex.path, true
	}
	return nil, "", false
}

// rawTeam is an entry of a team-listing payload
type rawTeam struct {
	ID     types.TeamID `json:"id"`
	TeamID types.TeamID `json:"team_id"`
	Name   string       `json:"name"`
}

func (t rawTeam) identifier() types.TeamID {
	if t.ID != "" {
		return t.ID
	}
	return t.TeamID
}

// extractTeams accepts either a {list: [...]} wrapper or a bare array
func extractTeams(raw json.RawMessage) []rawTeam {
	var wrapped struct {
		List []rawTeam `json:"list"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.List) > 0 {
		return wrapped.List
	}
	var direct []rawTeam
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}
	return nil
}
