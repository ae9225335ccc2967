package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quiz-portal-client/internal/config"
	"quiz-portal-client/internal/errors"
	"quiz-portal-client/internal/infra/portal"
	"quiz-portal-client/internal/terminal"
)

const defaultBaseURL = "http://localhost:5000/api"

func (o *options) tokenFile() string {
	if o.cfg.Portal.TokenFile != "" {
		return o.cfg.Portal.TokenFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "quizctl", "token")
}

// portalClient builds the REST client. With authenticated set it also
// resolves the access token: --token or PORTAL_TOKEN, then the config, then
// the file written by login.
func (o *options) portalClient(authenticated bool) (*portal.Client, error) {
	baseURL := o.cfg.Portal.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := portal.NewClient(portal.Config{
		BaseURL: baseURL,
		Timeout: config.TTLDuration(o.cfg.Portal.Timeout, 10*time.Second),
	})
	if !authenticated {
		return client, nil
	}

	token := o.token
	if token == "" {
		token = o.cfg.Portal.Token
	}
	if token == "" {
		var err error
		if token, err = portal.LoadToken(o.tokenFile()); err != nil {
			return nil, loginHint(err)
		}
	}
	return client.WithToken(token), nil
}

// loginHint turns authentication failures into a message telling the user
// to log in again.
func loginHint(err error) error {
	if errors.HasCode(err, errors.CodeUnauthenticated) {
		return fmt.Errorf("%w: run quizctl login", err)
	}
	return err
}

func newLoginCmd(o *options) *cobra.Command {
	var className, roll, pin string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a student and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pin == "" {
				fmt.Fprint(cmd.OutOrStdout(), "PIN: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				pin = strings.TrimSpace(line)
			}

			client, err := o.portalClient(false)
			if err != nil {
				return err
			}
			token, who, err := client.Login(cmd.Context(), className, roll, pin)
			if err != nil {
				return err
			}
			if err := portal.SaveToken(o.tokenFile(), token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (class %s).\n", who.Name, who.Class)
			return nil
		},
	}
	cmd.Flags().StringVar(&className, "class", "", "class name")
	cmd.Flags().StringVar(&roll, "roll", "", "roll number")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN; prompted for when empty")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("roll")
	return cmd
}

func newDashboardCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show active quizzes, past results and badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.portalClient(true)
			if err != nil {
				return err
			}
			dash, err := client.Dashboard(cmd.Context())
			if err != nil {
				return loginHint(err)
			}
			return terminal.PrintDashboard(cmd.OutOrStdout(), dash)
		},
	}
}

func newReviewCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "review RESULT_ID",
		Short: "Compare the answers of a past result with the correct ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.portalClient(true)
			if err != nil {
				return err
			}
			items, err := client.Review(cmd.Context(), args[0])
			if err != nil {
				return loginHint(err)
			}
			return terminal.PrintReview(cmd.OutOrStdout(), items)
		},
	}
}

func newLeaderboardCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top students",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.portalClient(true)
			if err != nil {
				return err
			}
			entries, err := client.Leaderboard(cmd.Context())
			if err != nil {
				return loginHint(err)
			}
			return terminal.PrintLeaderboard(cmd.OutOrStdout(), entries)
		},
	}
}
