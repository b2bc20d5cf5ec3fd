package committee

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/tablewriter"
	"github.com/mundesk/mundesk/cmd"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/spf13/cobra"
)

// Command is the committee subcommand.
var Command = &cobra.Command{
	Use:                "committee",
	Aliases:            []string{"committees"},
	Short:              "Manage committees",
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
}

func init() {
	var (
		abbr     string
		capacity int
	)

	committeeCreateCommand := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a committee",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			com, err := be.CreateCommittee(ctx, proto.CommitteeOptions{
				Name:         args[0],
				Abbreviation: abbr,
				Capacity:     capacity,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(c.OutOrStdout(), com.ID)
			return nil
		},
	}
	committeeCreateCommand.Flags().StringVarP(&abbr, "abbr", "a", "", "committee abbreviation")
	committeeCreateCommand.Flags().IntVar(&capacity, "capacity", 0, "number of delegate seats")

	committeeDeleteCommand := &cobra.Command{
		Use:   "delete COMMITTEE",
		Short: "Delete a committee by id, name, or abbreviation",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			com, err := cmd.FindCommittee(ctx, be, args[0])
			if err != nil {
				return err
			}

			return be.DeleteCommittee(ctx, com.ID)
		},
	}

	committeeListCommand := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List committees",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			be := backend.FromContext(ctx)
			cs, err := be.Committees(ctx)
			if err != nil {
				return err
			}

			return tablewriter.Render(
				c.OutOrStdout(),
				cs,
				[]string{"Name", "Abbreviation", "Chair", "Co-Chair", "Seats"},
				func(com *proto.Committee) ([]string, error) {
					return []string{
						com.Name,
						com.Abbreviation,
						com.Chair,
						com.CoChair,
						strconv.Itoa(com.SeatsFilled) + "/" + strconv.Itoa(com.Capacity),
					}, nil
				},
			)
		},
	}

	Command.AddCommand(
		committeeCreateCommand,
		committeeDeleteCommand,
		committeeListCommand,
	)
}
