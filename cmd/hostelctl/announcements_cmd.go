package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAnnouncementsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "announcements",
		Aliases: []string{"ann"},
		Short:   "Read and publish hostel announcements",
	}
	cmd.AddCommand(newAnnListCmd(a), newAnnPostCmd(a), newAnnDeleteCmd(a), newAnnCommentCmd(a))
	return cmd
}

func newAnnListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Announcements for everyone and for your block",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, staff, management); err != nil {
				return err
			}
			items, err := a.client.Announcements(cmd.Context())
			if err != nil {
				return err
			}
			printAnnouncements(cmd.OutOrStdout(), items, time.Now())
			return nil
		},
	}
}

func newAnnPostCmd(a *app) *cobra.Command {
	var title, content, block string
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish an announcement",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), management); err != nil {
				return err
			}
			ann, err := a.client.PostAnnouncement(cmd.Context(), title, content, block)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", ann.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "headline (required)")
	cmd.Flags().StringVarP(&content, "content", "m", "", "body (required)")
	cmd.Flags().StringVarP(&block, "block", "b", "", "only show to this block")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newAnnDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), management); err != nil {
				return err
			}
			return a.client.DeleteAnnouncement(cmd.Context(), args[0])
		},
	}
}

func newAnnCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> [text]",
		Short: "Show the comments on an announcement, or add one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, staff, management); err != nil {
				return err
			}
			if len(args) == 2 {
				if _, err := a.client.CommentAnnouncement(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
			}
			items, err := a.client.AnnouncementComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			for _, c := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s [%s] (%s): %s\n", nonEmpty(c.AuthorName, "someone"), c.AuthorRole, ago(c.CreatedAt, now), c.Text)
			}
			return nil
		},
	}
}
