package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mentapp/mentapp-go/internal/client"
)

func newMentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ment",
		Short: "Browse, submit, and translate ments",
	}

	cmd.AddCommand(newMentListCommand())
	cmd.AddCommand(newMentSubmitCommand())
	cmd.AddCommand(newMentTranslateCommand())

	return cmd
}

func newMentListCommand() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approved ments",
		Long:  `List the public ment feed. Works without logging in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			ments, err := ctx.Client.MentList(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch ments: %w", err)
			}

			if tag != "" {
				filtered := ments[:0]
				for _, m := range ments {
					if m.Tag == tag {
						filtered = append(filtered, m)
					}
				}
				ments = filtered
			}

			if len(ments) == 0 {
				fmt.Println("No ments found")
				return nil
			}

			printMarkdown(ctx, formatMents(ments))
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only show ments with this tag")

	return cmd
}

func newMentSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit TEXT",
		Short: "Submit a new ment for moderation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			submitted, err := ctx.Client.SubmitMent(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to submit ment: %w", err)
			}

			fmt.Printf("Submitted for moderation (tag: %s)\n", submitted.Tag)
			return nil
		},
	}
}

func newMentTranslateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "translate TEXT",
		Short: "Translate a Korean ment to Lao",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := cliContextFrom(cmd)
			if err != nil {
				return err
			}

			translated, err := ctx.Client.Translate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}
			if translated == "" {
				return fmt.Errorf("the translation service returned an empty result")
			}

			fmt.Println(translated)
			return nil
		},
	}
}

// formatMents renders a ment list as markdown for glamour.
func formatMents(ments []client.MentItem) string {
	var sb strings.Builder
	for _, m := range ments {
		fmt.Fprintf(&sb, "## #%d · %s\n\n", m.MentID, m.Tag)
		fmt.Fprintf(&sb, "%s\n\n", m.ContentKo)
		if m.ContentLo != "" {
			fmt.Fprintf(&sb, "> %s\n\n", m.ContentLo)
		}
		fmt.Fprintf(&sb, "*— %s, %s*\n\n", m.AuthorNickname, m.CreatedAt)
	}
	return sb.String()
}
