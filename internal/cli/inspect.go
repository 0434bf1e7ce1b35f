package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "get <version>",
		Short: "Print the broker pack with the given version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, open, func(s *session) error {
				p, err := s.svc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printPack(cmd, p)
			})
		},
	}
}

func newLatestCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the most recently created broker pack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, open, func(s *session) error {
				p, err := s.svc.GetLatest(cmd.Context())
				if err != nil {
					return err
				}
				return printPack(cmd, p)
			})
		},
	}
}

func newRepairPointerCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "repair-pointer",
		Short: "Point the latest pointer at the newest stored pack",
		Long: "Scans stored packs by creation time and rewrites the latest pointer. " +
			"Safe to run repeatedly; use it after a create reported pointer lag.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, open, func(s *session) error {
				ptr, err := s.svc.RebuildPointer(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "latest -> %s (updated_at %s)\n", ptr.Version, ptr.UpdatedAt)
				return nil
			})
		},
	}
}
