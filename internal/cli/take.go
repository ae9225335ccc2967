package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/config"
	"quiz-portal-client/internal/terminal"
)

func newTakeCmd(o *options) *cobra.Command {
	var clearScreen bool
	cmd := &cobra.Command{
		Use:   "take QUIZ_ID",
		Short: "Take a quiz against the countdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.portalClient(true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info, err := client.Quiz(ctx, args[0])
			if err != nil {
				return loginHint(err)
			}

			ctrl := app.NewController(app.Config{
				Transport:     client,
				SubmitTimeout: config.TTLDuration(o.cfg.Session.SubmitTimeout, 30*time.Second),
			})
			runCtx, cancelRun := context.WithCancel(context.Background())
			defer cancelRun()
			go func() { _ = ctrl.Run(runCtx) }()

			if _, err := ctrl.Launch(ctx, info); err != nil {
				return loginHint(err)
			}

			console := terminal.NewConsole(terminal.Options{
				Out:         cmd.OutOrStdout(),
				Shuffle:     o.cfg.ShuffleOptions(),
				ClearScreen: clearScreen,
			})
			res, err := console.Take(ctx, ctrl, cmd.InOrStdin())
			switch {
			case stderrors.Is(err, context.Canceled):
				fmt.Fprintln(cmd.OutOrStdout(), "\nInterrupted, quiz abandoned.")
				return nil
			case err != nil:
				return err
			case res != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "Review it with: quizctl review %s\n", res.ResultID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearScreen, "clear", false, "redraw the whole screen on every update")
	return cmd
}
