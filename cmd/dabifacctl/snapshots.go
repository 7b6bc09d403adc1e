package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesng35/dabifac/internal/bootstrap"
)

func newSnapshotsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect and drive the asset snapshot lifecycle",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the running version and stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				status, err := stack.Assets.Status(cmd.Context())
				if err != nil {
					return err
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(status)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Fetch every manifest resource into a new snapshot",
		Long: `Fetch every manifest resource for the configured version. Nothing is stored
unless every resource was fetched successfully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				if err := stack.Assets.Install(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "installed %s (%d resources)\n", stack.Assets.Tag(), len(stack.Assets.Resources()))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "activate",
		Short: "Evict snapshots of other versions and activate the installed one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				before, err := stack.Assets.Status(cmd.Context())
				if err != nil {
					return err
				}
				if err := stack.Assets.Activate(cmd.Context()); err != nil {
					return err
				}
				var purged []string
				for _, snapshot := range before.Snapshots {
					if snapshot.Name != stack.Assets.Tag() {
						purged = append(purged, snapshot.Name)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "activated %s", stack.Assets.Tag())
				if len(purged) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), ", evicted %s", strings.Join(purged, ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove cached resources that belong to no snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStack(cmd.Context(), opts, func(stack *bootstrap.Stack) error {
				removed, err := stack.Cache.PruneOrphans(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d orphaned resources\n", removed)
				return nil
			})
		},
	})

	return cmd
}
