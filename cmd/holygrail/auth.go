package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/domain/model"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// whoamiRankWindow is how far down the leaderboard whoami looks for the user.
const whoamiRankWindow = 100

func loginCmd(get func() *app) *cobra.Command {
	var in ports.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long:  `Log in with a username and password. The password is read from stdin when --password is not given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Password = pw
			}
			sess, err := get().auth.Login(cmd.Context(), in)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), "Logged in", sess)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "account password (prefer stdin)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func registerCmd(get func() *app) *cobra.Command {
	var in ports.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Password = pw
			}
			sess, err := get().auth.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), "Registered", sess)
			if !sess.User.Verified {
				fmt.Fprintln(cmd.OutOrStdout(), "Check your email and run `holygrail verify <code>`.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "account password (prefer stdin)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func verifyCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Confirm the account with the emailed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := get().auth.Verify(cmd.Context(), ports.VerifyInput{Code: args[0]})
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), "Verified", sess)
			return nil
		},
	}
}

func whoamiCmd(get func() *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Long: `Show the stored session. With --refresh the profile is reloaded from the
API and the user's leaderboard rank is looked up at the same time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx := cmd.Context()

			sess := a.auth.Current(ctx)
			if sess == nil {
				return errNotLoggedIn
			}
			if !refresh {
				printSession(cmd.OutOrStdout(), "Logged in", sess)
				return nil
			}

			var (
				fresh   *domainauth.Session
				entries []model.LeaderboardEntry
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				fresh, err = a.auth.RefreshProfile(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				if entries, err = a.backend.Leaderboard(gctx, whoamiRankWindow); err != nil {
					// The rank is decoration; the profile is what matters.
					a.logger.WarnContext(gctx, "leaderboard lookup failed", "error", err)
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			printSession(cmd.OutOrStdout(), "Logged in", fresh)
			for _, e := range entries {
				if e.Username == fresh.User.Username {
					fmt.Fprintf(cmd.OutOrStdout(), "Leaderboard rank: #%d (%d uploads)\n", e.Rank, e.Uploads)
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the API")
	return cmd
}

func logoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := get().auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func printSession(w io.Writer, verb string, sess *domainauth.Session) {
	fmt.Fprintf(w, "%s as %s (%s)\n", verb, sess.User.Username, sess.User.Role)
	fmt.Fprintf(w, "Session expires %s\n", sess.ExpiresAt.Local().Format(time.RFC1123))
}

// readSecret reads one line from r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required (--password or stdin)")
	}
	return line, nil
}
