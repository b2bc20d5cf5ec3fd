package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/caarlos0/tablewriter"
	"github.com/dustin/go-humanize"
	"github.com/mundesk/mundesk/cmd"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/spf13/cobra"
)

// Command is the user subcommand.
var Command = &cobra.Command{
	Use:                "user",
	Aliases:            []string{"users"},
	Short:              "Manage privileged users",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

// userFlags are the flags shared by create, promote, and edit.
type userFlags struct {
	role          string
	name          string
	committee     string
	committeeRole string
	active        bool
}

func (f *userFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.role, "role", "r", "", "role of the user (chair, co_chair, director, superadmin)")
	c.Flags().StringVarP(&f.name, "name", "n", "", "full name of the user")
	c.Flags().StringVarP(&f.committee, "committee", "c", "", "committee id, name, or abbreviation")
	c.Flags().StringVar(&f.committeeRole, "committee-role", "", "role within the committee (chair, co_chair)")
	c.Flags().BoolVar(&f.active, "active", true, "whether the user is active")
}

// options builds the user options from the flags that were set on c.
func (f *userFlags) options(ctx context.Context, c *cobra.Command, be *backend.Backend) (proto.UserOptions, error) {
	var opts proto.UserOptions
	flags := c.Flags()
	if flags.Changed("role") {
		r := access.Role(f.role)
		opts.Role = &r
	}
	if flags.Changed("name") {
		opts.FullName = &f.name
	}
	if flags.Changed("active") {
		opts.IsActive = &f.active
	}
	if flags.Changed("committee") {
		id := ""
		if f.committee != "" {
			com, err := cmd.FindCommittee(ctx, be, f.committee)
			if err != nil {
				return opts, err
			}
			id = com.ID
		}
		opts.CommitteeID = &id
	}
	if flags.Changed("committee-role") {
		r := access.Role(f.committeeRole)
		opts.CommitteeRole = &r
	}

	return opts, nil
}

// findUser looks a privileged user up by id, then by email.
func findUser(ctx context.Context, be *backend.Backend, ref string) (*proto.PrivilegedUser, error) {
	u, err := be.User(ctx, ref)
	if errors.Is(err, proto.ErrUserNotFound) {
		return be.UserByEmail(ctx, ref)
	}

	return u, err
}

func init() {
	var (
		password string
		createFlags, promoteFlags, editFlags userFlags
	)

	userCreateCommand := &cobra.Command{
		Use:   "create EMAIL",
		Short: "Sign up a new identity with a privileged role",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			opts, err := createFlags.options(ctx, c, be)
			if err != nil {
				return err
			}
			if opts.IsActive == nil {
				opts.IsActive = &createFlags.active
			}

			u, err := be.CreateUser(ctx, args[0], password, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.OutOrStdout(), u.ID)
			return nil
		},
	}
	userCreateCommand.Flags().StringVarP(&password, "password", "p", "", "password of the new identity")
	createFlags.register(userCreateCommand)

	userPromoteCommand := &cobra.Command{
		Use:   "promote EMAIL",
		Short: "Grant a privileged role to an existing identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			opts, err := promoteFlags.options(ctx, c, be)
			if err != nil {
				return err
			}
			if opts.IsActive == nil {
				opts.IsActive = &promoteFlags.active
			}

			u, err := be.PromoteUser(ctx, args[0], opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.OutOrStdout(), u.ID)
			return nil
		},
	}
	promoteFlags.register(userPromoteCommand)

	userEditCommand := &cobra.Command{
		Use:   "edit USER",
		Short: "Edit a privileged user by id or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			u, err := findUser(ctx, be, args[0])
			if err != nil {
				return err
			}

			opts, err := editFlags.options(ctx, c, be)
			if err != nil {
				return err
			}

			_, err = be.EditUser(ctx, u.ID, opts)
			return err
		},
	}
	editFlags.register(userEditCommand)

	userDeleteCommand := &cobra.Command{
		Use:   "delete USER",
		Short: "Revoke a privileged user by id or email",
		Long:  "Revoke a privileged user by id or email. The identity can still sign in as a delegate.",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			u, err := findUser(ctx, be, args[0])
			if err != nil {
				return err
			}

			return be.DeleteUser(ctx, u.ID)
		},
	}

	userListCommand := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List privileged users",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			users, err := be.Users(ctx)
			if err != nil {
				return err
			}

			committees := map[string]string{}
			cs, err := be.Committees(ctx)
			if err != nil {
				return err
			}
			for _, com := range cs {
				committees[com.ID] = com.Name
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				users,
				[]string{"Email", "Role", "Level", "Committee", "Active", "Created"},
				func(u *proto.PrivilegedUser) ([]string, error) {
					com := "-"
					if u.CommitteeID != "" {
						com = committees[u.CommitteeID]
						if u.CommitteeRole != "" {
							com += " (" + string(u.CommitteeRole) + ")"
						}
					}
					return []string{
						u.Email,
						string(u.Role),
						u.Role.Level().String(),
						com,
						strconv.FormatBool(u.IsActive),
						humanize.Time(u.CreatedAt),
					}, nil
				},
			)
		},
	}

	Command.AddCommand(
		userCreateCommand,
		userPromoteCommand,
		userEditCommand,
		userDeleteCommand,
		userListCommand,
	)
}
