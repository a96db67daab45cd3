package cli

import (
	"context"

	"github.com/dicloak-labs/dicloak-console/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdSelfTest() *cli.Command {
	var (
		dicloakCfg   config.DICloak
		intervalsCfg config.Intervals
	)

	return &cli.Command{
		Name:  "selftest",
		Usage: "Probe the DICloak API and report reachability",
		Flags: joinFlags(dicloakCfg.Flags(), intervalsCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			console, err := buildConsole(&dicloakCfg, &intervalsCfg)
			if err != nil {
				return err
			}
			return printJSON(console.SelfTest(ctx))
		},
	}
}
