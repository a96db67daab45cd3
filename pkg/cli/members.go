package cli

import (
	"context"

	"github.com/dicloak-labs/dicloak-console/pkg/cli/config"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMembers() *cli.Command {
	var (
		dicloakCfg   config.DICloak
		intervalsCfg config.Intervals
	)

	shared := joinFlags(dicloakCfg.Flags(), intervalsCfg.Flags())

	var (
		listPage int
		listSize int
	)

	var draft model.MemberDraft
	var draftType, draftStatus, draftRole string
	var draftGroups []string

	var update model.MemberUpdate
	var updateType, updateStatus, updateRole string
	var updateGroups []string

	return &cli.Command{
		Name:  "members",
		Usage: "Manage team members",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List team members",
				Flags: joinFlags(shared, []cli.Flag{
					&cli.IntFlag{
						Name:        "page",
						Usage:       "Page number (omit to fetch all members)",
						Destination: &listPage,
					},
					&cli.IntFlag{
						Name:        "size",
						Usage:       "Page size",
						Value:       100,
						Destination: &listSize,
					},
				}),
				Action: func(ctx context.Context, c *cli.Command) error {
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}

					if listPage > 0 {
						members, total, err := console.ListMembers(ctx, listPage, listSize)
						if err != nil {
							return err
						}
						return printJSON(map[string]any{"list": members, "total": total})
					}

					members, err := console.GetAllMembers(ctx)
					if err != nil {
						return err
					}
					return printJSON(map[string]any{"list": members, "total": len(members)})
				},
			},
			{
				Name:      "get",
				Usage:     "Show a single member",
				ArgsUsage: "<member-id>",
				Flags:     shared,
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := memberIDArg(c)
					if err != nil {
						return err
					}
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}
					member, err := console.GetMember(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(member)
				},
			},
			{
				Name:  "create",
				Usage: "Create a member",
				Flags: joinFlags(shared, []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Member name", Required: true, Destination: &draft.Name},
					&cli.StringFlag{Name: "email", Usage: "Member email", Destination: &draft.Email},
					&cli.StringFlag{Name: "phone", Usage: "Member phone", Destination: &draft.Phone},
					&cli.StringFlag{Name: "authority", Usage: "Member authority", Destination: &draft.Authority},
					&cli.StringFlag{Name: "type", Usage: "Member type (INTERNAL or EXTERNAL)", Destination: &draftType},
					&cli.StringFlag{Name: "role-id", Usage: "Role identifier", Destination: &draftRole},
					&cli.StringFlag{Name: "status", Usage: "Member status (ENABLED or DISABLED)", Destination: &draftStatus},
					&cli.StringFlag{Name: "remark", Usage: "Free-form remark", Destination: &draft.Remark},
					&cli.BoolFlag{Name: "all-env-group", Usage: "Grant access to every group", Destination: &draft.AllEnvGroup},
					&cli.StringSliceFlag{Name: "group-id", Usage: "Group to assign (repeatable)", Destination: &draftGroups},
				}),
				Action: func(ctx context.Context, c *cli.Command) error {
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}

					draft.Type = types.MemberType(draftType)
					draft.Status = types.MemberStatus(draftStatus)
					draft.RoleID = types.RoleID(draftRole)
					draft.EnvGroupIDs = toGroupIDs(draftGroups)

					member, err := console.CreateMember(ctx, &draft)
					if err != nil {
						return err
					}
					return printJSON(member)
				},
			},
			{
				Name:      "update",
				Usage:     "Fully update a member",
				ArgsUsage: "<member-id>",
				Flags: joinFlags(shared, []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Member name", Required: true, Destination: &update.Name},
					&cli.StringFlag{Name: "email", Usage: "Member email", Required: true, Destination: &update.Email},
					&cli.StringFlag{Name: "authority", Usage: "Member authority", Required: true, Destination: &update.Authority},
					&cli.StringFlag{Name: "type", Usage: "Member type (INTERNAL or EXTERNAL)", Required: true, Destination: &updateType},
					&cli.StringFlag{Name: "username", Usage: "Member username", Destination: &update.Username},
					&cli.StringFlag{Name: "phone", Usage: "Member phone", Destination: &update.Phone},
					&cli.StringFlag{Name: "role-id", Usage: "Role identifier (defaults to the first catalog role)", Destination: &updateRole},
					&cli.StringFlag{Name: "status", Usage: "Member status (ENABLED or DISABLED)", Destination: &updateStatus},
					&cli.StringFlag{Name: "remark", Usage: "Free-form remark", Destination: &update.Remark},
					&cli.BoolFlag{Name: "all-env-group", Usage: "Grant access to every group", Destination: &update.AllEnvGroup},
					&cli.StringSliceFlag{Name: "group-id", Usage: "Group to assign (repeatable)", Destination: &updateGroups},
				}),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := memberIDArg(c)
					if err != nil {
						return err
					}
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}

					update.Type = types.MemberType(updateType)
					update.Status = types.MemberStatus(updateStatus)
					update.RoleID = types.RoleID(updateRole)
					update.EnvGroupIDs = toGroupIDs(updateGroups)

					member, err := console.UpdateMember(ctx, id, &update)
					if err != nil {
						return err
					}
					return printJSON(member)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a member",
				ArgsUsage: "<member-id>",
				Flags:     shared,
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := memberIDArg(c)
					if err != nil {
						return err
					}
					console, err := buildConsole(&dicloakCfg, &intervalsCfg)
					if err != nil {
						return err
					}
					if err := console.DeleteMember(ctx, id); err != nil {
						return err
					}
					return printJSON(map[string]any{"deleted": id})
				},
			},
		},
	}
}

func memberIDArg(c *cli.Command) (types.MemberID, error) {
	id := c.Args().First()
	if id == "" {
		return "", goerr.New("member ID argument is required")
	}
	return types.MemberID(id), nil
}

func toGroupIDs(ids []string) []types.GroupID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]types.GroupID, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.GroupID(id))
	}
	return out
}
