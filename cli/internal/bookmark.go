package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newBookmarkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarked ments",
	}

	cmd.AddCommand(newBookmarkAddCommand())
	cmd.AddCommand(newBookmarkRemoveCommand())
	cmd.AddCommand(newBookmarkListCommand())

	return cmd
}

func newBookmarkAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add MENT_ID",
		Short: "Bookmark a ment",
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

			if err := ctx.Client.AddBookmark(cmd.Context(), mentID); err != nil {
				return fmt.Errorf("failed to add bookmark: %w", err)
			}
			fmt.Printf("Bookmarked ment %d\n", mentID)
			return nil
		},
	}
}

func newBookmarkRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove MENT_ID",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			mentID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ment id %q", args[0])
			}

			if err := ctx.Client.DeleteBookmark(cmd.Context(), mentID); err != nil {
				return fmt.Errorf("failed to remove bookmark: %w", err)
			}
			fmt.Printf("Removed bookmark for ment %d\n", mentID)
			return nil
		},
	}
}

func newBookmarkListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			bookmarks, err := ctx.Client.MyBookmarks(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch bookmarks: %w", err)
			}

			if len(bookmarks) == 0 {
				fmt.Println("No bookmarks yet")
				return nil
			}

			var sb strings.Builder
			for _, b := range bookmarks {
				fmt.Fprintf(&sb, "- **#%d** (%s) %s\n", b.MentNum, b.MentTag, b.Comment)
			}
			printMarkdown(ctx, sb.String())
			return nil
		},
	}
}
