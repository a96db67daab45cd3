package cli

import (
	"context"

	"github.com/dicloak-labs/dicloak-console/pkg/cli/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdAssign() *cli.Command {
	var (
		dicloakCfg   config.DICloak
		intervalsCfg config.Intervals
		groupIDs     []string
	)

	flags := joinFlags(dicloakCfg.Flags(), intervalsCfg.Flags(), []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "group-id",
			Usage:       "Group to assign (repeatable)",
			Destination: &groupIDs,
		},
	})

	return &cli.Command{
		Name:      "assign",
		Usage:     "Assign environment groups to a member",
		ArgsUsage: "<member-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := memberIDArg(c)
			if err != nil {
				return err
			}
			if len(groupIDs) == 0 {
				return goerr.New("at least one --group-id is required")
			}

			console, err := buildConsole(&dicloakCfg, &intervalsCfg)
			if err != nil {
				return err
			}

			result, err := console.AssignGroups(ctx, id, toGroupIDs(groupIDs))
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}
