package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and activity stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			profile, err := ctx.Client.GetProfile(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch profile: %w", err)
			}

			fmt.Printf("Nickname:  %s\n", profile.Nickname)
			fmt.Printf("Posts:     %d\n", profile.PostCount)
			fmt.Printf("Likes:     %d\n", profile.TotalLikes)
			fmt.Printf("Bookmarks: %d\n", profile.BookmarkCount)
			return nil
		},
	}
}
