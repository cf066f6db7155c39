package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hostel-ts/internal/models"
	"hostel-ts/pkg/client"
)

func newLostFoundCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lostfound",
		Aliases: []string{"lf"},
		Short:   "The hostel lost-and-found board",
	}
	cmd.AddCommand(newLFListCmd(a), newLFPostCmd(a), newLFClaimCmd(a), newLFStatusCmd(a))
	return cmd
}

func newLFListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lost, found or claimed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, management); err != nil {
				return err
			}
			items, err := a.client.LostFound(cmd.Context(), models.ItemStatus(strings.ToLower(status)))
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), items, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(models.ItemLost), "lost, found or claimed")
	return cmd
}

func newLFPostCmd(a *app) *cobra.Command {
	var in client.NewItem
	var found bool
	var photo string
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post something you lost or found",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student); err != nil {
				return err
			}
			if photo != "" {
				f, err := os.Open(photo)
				if err != nil {
					return err
				}
				in.ImageURL, err = a.client.UploadItemPhoto(cmd.Context(), filepath.Base(photo), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to upload %s: %w", photo, err)
				}
			}
			in.Status = string(models.ItemLost)
			if found {
				in.Status = string(models.ItemFound)
			}
			it, err := a.client.PostItem(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s posted %s (%s)\n", color.GreenString("✓"), it.ID, it.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.ItemName, "name", "n", "", "what the item is (required)")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "details")
	cmd.Flags().StringVarP(&in.Location, "location", "l", "", "where it was lost or found")
	cmd.Flags().BoolVar(&found, "found", false, "you found it (default: you lost it)")
	cmd.Flags().StringVar(&photo, "photo", "", "image to attach")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLFClaimCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <id>",
		Short: "Mark an item as yours, or as recovered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student); err != nil {
				return err
			}
			it, err := a.client.ClaimItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s claimed\n", color.GreenString("✓"), it.ItemName)
			return nil
		},
	}
}

func newLFStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <lost|found|claimed>",
		Short: "Change the status of an item you posted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, management); err != nil {
				return err
			}
			st := models.ItemStatus(strings.ToLower(args[1]))
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			it, err := a.client.SetItemStatus(cmd.Context(), args[0], st)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", it.ItemName, it.Status)
			return nil
		},
	}
}
