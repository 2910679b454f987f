package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/holygrail/holygrail-web/internal/domain/model"
)

const defaultLeaderboardLimit = 10

func uploadCmd(get func() *app) *cobra.Command {
	var title, subject string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a study resource for moderation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if a.auth.Current(cmd.Context()) == nil {
				return errNotLoggedIn
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			if title == "" {
				title = name
			}
			res, err := a.backend.UploadResource(cmd.Context(), model.UploadInput{
				Title:       title,
				Subject:     subject,
				Filename:    name,
				ContentType: mime.TypeByExtension(filepath.Ext(name)),
				Content:     f,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %q as resource %d (%s)\n", res.Title, res.ID, res.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "resource title (default: file name)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "subject the resource belongs to")
	return cmd
}

func leaderboardCmd(get func() *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top contributors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := get().backend.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No contributors yet.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tUSER\tUPLOADS\tDOWNLOADS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", e.Rank, e.Username, e.Uploads, e.Downloads)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLeaderboardLimit, "number of rows (max 100)")
	return cmd
}
