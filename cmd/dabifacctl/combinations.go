package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlesng35/dabifac/internal/bootstrap"
)

const savedAtLayout = "2006/01/02 15:04"

func newCombinationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "combinations",
		Aliases: []string{"combos"},
		Short:   "List, show and delete saved combinations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the newest saved combinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				records, err := stack.Combinations.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No combinations saved")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tSAVED")
				for _, record := range records {
					fmt.Fprintf(w, "%d\t%s\t%s\n", record.ID, record.Title, record.SavedAt.In(time.Local).Format(savedAtLayout))
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one combination as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				record, err := stack.Combinations.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(record)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a combination. Missing ids are not an error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				if err := stack.Combinations.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
				return nil
			})
		},
	})

	return cmd
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid combination id %q", raw)
	}
	return id, nil
}
