package cli

import (
	"context"

	"github.com/dicloak-labs/dicloak-console/pkg/cli/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdGroups() *cli.Command {
	var (
		dicloakCfg   config.DICloak
		intervalsCfg config.Intervals
	)

	shared := joinFlags(dicloakCfg.Flags(), intervalsCfg.Flags())

	return &cli.Command{
		Name:  "groups",
		Usage: "Inspect environment groups",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List environment groups",
				Flags: shared,
				Action: func(ctx context.Context, c *cli.Command) error {
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}
					groups, err := console.ListGroups(ctx)
					if err != nil {
						return err
					}
					return printJSON(map[string]any{"list": groups, "total": len(groups)})
				},
			},
			{
				Name:  "discover",
				Usage: "Probe candidate group endpoints and report the first that answers",
				Flags: shared,
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := dicloakCfg.Validate(); err != nil {
						return err
					}
					if dicloakCfg.APIKey == "" {
						return goerr.New("API key is required. Set --api-key or DICLOAK_API_KEY")
					}

					client := dicloakCfg.Configure(intervalsCfg.Configure())
					discovery, ok := client.FindWorkingGroupsEndpoint(ctx)
					if !ok {
						return printJSON(map[string]any{"found": false})
					}
					return printJSON(map[string]any{"found": true, "discovery": discovery})
				},
			},
			{
				Name:  "roles",
				Usage: "List the role catalog",
				Flags: shared,
				Action: func(ctx context.Context, c *cli.Command) error {
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}
					roles, err := console.ListRoles(ctx)
					if err != nil {
						return err
					}
					return printJSON(map[string]any{"list": roles, "total": len(roles)})
				},
			},
		},
	}
}
