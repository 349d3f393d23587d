package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation commands (admin only)",
		Long: `Review, approve, and reject pending ments.

These commands require an admin account; the backend rejects them for
everyone else.`,
	}

	cmd.AddCommand(newAdminPendingCommand())
	cmd.AddCommand(newAdminApproveCommand())
	cmd.AddCommand(newAdminRejectCommand())

	return cmd
}

func newAdminPendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List ments awaiting moderation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			ments, err := ctx.Client.PendingMents(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch pending ments: %w", err)
			}

			if len(ments) == 0 {
				fmt.Println("Nothing waiting for moderation")
				return nil
			}

			printMarkdown(ctx, formatMents(ments))
			return nil
		},
	}
}

func newAdminApproveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve MENT_ID",
		Short: "Approve a pending ment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			mentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ment id %q", args[0])
			}

			if err := ctx.Client.ApproveMent(cmd.Context(), mentID); err != nil {
				return fmt.Errorf("failed to approve ment %d: %w", mentID, err)
			}
			fmt.Printf("Approved ment %d\n", mentID)
			return nil
		},
	}
}

func newAdminRejectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reject MENT_ID",
		Short: "Reject a pending ment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			mentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ment id %q", args[0])
			}

			if err := ctx.Client.RejectMent(cmd.Context(), mentID); err != nil {
				return fmt.Errorf("failed to reject ment %d: %w", mentID, err)
			}
			fmt.Printf("Rejected ment %d\n", mentID)
			return nil
		},
	}
}
