package dicloak

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/m-mizutani/ctxlog"
)

// selfTestEndpoints are cheap reads exercising authentication and the
// resource families the console touches.
var selfTestEndpoints = []string{
	"/v1/env/list",
	"/v1/members?page=1&size=1",
	"/v1/member/roles",
}

// diagnosticTimeout bounds the raw connectivity probes. Only diagnostics
// carry their own timeout; the CRUD paths rely on the caller's context.
const diagnosticTimeout = 5 * time.Second

// SelfTest probes a fixed set of endpoints and reports per-endpoint
// outcomes. The session is healthy when at least one probe succeeds; when
// none does, raw connectivity diagnostics are attached.
func (c *Client) SelfTest(ctx context.Context) *model.SelfTestReport {
	logger := ctxlog.From(ctx)
	report := &model.SelfTestReport{}

	for _, ep := range selfTestEndpoints {
		check := model.EndpointCheck{Endpoint: ep}
		if _, err := c.request(ctx, http.MethodGet, ep, nil); err != nil {
			check.Error = err.Error()
			logger.Warn("self-test endpoint failed", "endpoint", ep, "error", err)
		} else {
			check.OK = true
			report.Healthy = true
		}
		report.Checks = append(report.Checks, check)
	}

	if report.Healthy {
		if teamID, ok := c.ResolveTeamID(ctx); ok {
			report.TeamID = teamID
		}
	} else {
		report.Diagnostics = c.Diagnose(ctx)
	}
	return report
}

// Diagnose performs raw connectivity checks outside the envelope contract,
// each with its own short timeout. Useful when every authenticated probe
// fails: it distinguishes "service down" from "key rejected".
func (c *Client) Diagnose(ctx context.Context) []model.EndpointCheck {
	probes := []struct {
		name string
		url  string
	}{
		{"service root", c.serviceRootURL()},
		{"api base", c.baseURL + "/v1/env/list"},
	}

	out := make([]model.EndpointCheck, 0, len(probes))
	for _, probe := range probes {
		out = append(out, c.rawProbe(ctx, probe.name, probe.url))
	}
	return out
}

func (c *Client) rawProbe(ctx context.Context, name, rawURL string) model.EndpointCheck {
	pctx, cancel := context.WithTimeout(ctx, diagnosticTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.EndpointCheck{Endpoint: name, Error: err.Error()}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.EndpointCheck{Endpoint: name, Error: err.Error()}
	}
	defer resp.Body.Close()

	check := model.EndpointCheck{Endpoint: name, OK: true, Status: resp.StatusCode}
	if resp.StatusCode == http.StatusUnauthorized {
		check.Note = "service is up but rejected the request; the API key is the likely problem"
	}
	return check
}

func (c *Client) serviceRootURL() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	u.Path = "/"
	u.RawQuery = ""
	return u.String()
}
