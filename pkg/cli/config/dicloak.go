package config

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/dicloak-labs/dicloak-console/pkg/service/dicloak"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// DICloak holds the external service connection configuration
type DICloak struct {
	BaseURL     string
	APIKey      string
	KnownTeamID string
	Timeout     time.Duration
}

// Flags returns CLI flags for DICloak configuration
func (d *DICloak) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "DICloak API base URL (including the /openapi prefix)",
			Category:    "DICloak",
			Value:       "http://127.0.0.1:52140/openapi",
			Sources:     cli.EnvVars("DICLOAK_BASE_URL"),
			Destination: &d.BaseURL,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "DICloak API key (X-API-KEY header)",
			Category:    "DICloak",
			Sources:     cli.EnvVars("DICLOAK_API_KEY"),
			Destination: &d.APIKey,
		},
		&cli.StringFlag{
			Name:        "known-team-id",
			Usage:       "Previously seen team identifier to verify first and fall back to",
			Category:    "DICloak",
			Sources:     cli.EnvVars("DICLOAK_KNOWN_TEAM_ID"),
			Destination: &d.KnownTeamID,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Per-request timeout for DICloak calls",
			Category:    "DICloak",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("DICLOAK_REQUEST_TIMEOUT"),
			Destination: &d.Timeout,
		},
	}
}

// Validate validates the DICloak configuration
func (d *DICloak) Validate() error {
	if d.BaseURL == "" {
		return goerr.New("base URL is required")
	}
	if _, err := url.Parse(d.BaseURL); err != nil {
		return goerr.Wrap(err, "invalid base URL", goerr.V("base_url", d.BaseURL))
	}
	return nil
}

// Configure creates a DICloak client from the configuration
func (d *DICloak) Configure(intervals dicloak.Intervals) *dicloak.Client {
	return dicloak.New(d.BaseURL, d.APIKey,
		dicloak.WithHTTPClient(&http.Client{Timeout: d.Timeout}),
		dicloak.WithKnownTeamID(types.TeamID(d.KnownTeamID)),
		dicloak.WithIntervals(intervals),
	)
}

// LogValue returns structured log value. The API key itself is never
// logged.
func (d DICloak) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", d.BaseURL),
		slog.Bool("has_api_key", d.APIKey != ""),
		slog.String("known_team_id", d.KnownTeamID),
		slog.Duration("timeout", d.Timeout),
	)
}
