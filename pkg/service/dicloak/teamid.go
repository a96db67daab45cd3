package dicloak

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
)

// teamListEndpoints are the candidate team-listing endpoints, probed in
// order as the last discovery stage.
var teamListEndpoints = []string{
	"/v1/teams",
	"/v1/team/list",
	"/v1/user/teams",
}

// ResolveTeamID returns the team identifier for the current credentials,
// discovering it on first use. The boolean reports whether an identifier
// is available. Successful resolutions are memoized; a total failure is
// not, so the next call re-probes.
func (c *Client) ResolveTeamID(ctx context.Context) (types.TeamID, bool) {
	c.mu.Lock()
	if c.teamIDResolved {
		id := c.teamID
		c.mu.Unlock()
		return id, id != ""
	}
	c.mu.Unlock()

	id := c.discoverTeamID(ctx)
	if id != "" {
		c.mu.Lock()
		c.teamID = id
		c.teamIDResolved = true
		c.mu.Unlock()
	}
	return id, id != ""
}

// discoverTeamID walks the probe chain in order, short-circuiting on the
// first structurally valid answer. Probe failures are soft: the system
// degrades to "probably right" over "definitely unknown" because DICloak
// accepts writes with a stale-but-same-tenant identifier.
func (c *Client) discoverTeamID(ctx context.Context) types.TeamID {
	logger := ctxlog.From(ctx)

	// Probe 0: verify the known candidate with a read that requires a
	// team identifier.
	if c.knownTeamID != "" {
		raw, err := c.request(ctx, http.MethodGet,
			"/v1/env/group?team_id="+url.QueryEscape(c.knownTeamID.String()), nil)
		if err == nil && hasData(raw) {
			logger.Debug("team identifier confirmed via known candidate", "team_id", c.knownTeamID)
			return c.knownTeamID
		}
		logger.Debug("known team identifier probe failed", "team_id", c.knownTeamID, "error", err)
	}

	// Probe 1: user profile
	profile, err := requestInto[struct {
		TeamID types.TeamID `json:"team_id"`
	}](ctx, c, http.MethodGet, "/v1/user/profile", nil)
	if err == nil && profile.TeamID != "" {
		logger.Debug("team identifier from user profile", "team_id", profile.TeamID)
		return profile.TeamID
	}
	if err != nil {
		logger.Debug("user profile probe failed", "error", err)
	}

	// Probe 2: the first member of a single-item page carries the tenant
	page, err := requestInto[memberPage](ctx, c, http.MethodGet, "/v1/members?page=1&size=1", nil)
	if err == nil && len(page.List) > 0 && page.List[0].TeamID != "" {
		logger.Debug("team identifier from member list", "team_id", page.List[0].TeamID)
		return page.List[0].TeamID
	}
	if err != nil {
		logger.Debug("member list probe failed", "error", err)
	}

	// Probe 3: candidate team-listing endpoints
	for _, path := range teamListEndpoints {
		raw, err := c.request(ctx, http.MethodGet, path, nil)
		if err != nil {
			logger.Debug("team listing probe failed", "path", path, "error", err)
			continue
		}
		teams := extractTeams(raw)
		if len(teams) == 0 {
			continue
		}
		if id := teams[0].identifier(); id != "" {
			logger.Debug("team identifier from team listing", "path", path, "team_id", id)
			return id
		}
	}

	// Every probe failed; degrade to the known candidate rather than
	// giving up entirely.
	if c.knownTeamID != "" {
		logger.Warn("team identifier discovery exhausted, falling back to known candidate",
			"team_id", c.knownTeamID)
		return c.knownTeamID
	}

	logger.Warn("team identifier could not be discovered")
	return ""
}
