// Package terminal renders quiz sessions on a text console and turns typed
// command lines into session intents.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
)

const progressWidth = 20

// ErrHelp is returned by Parse for the help command.
var ErrHelp = errors.New(errors.CodeInvalidArgument, errors.WithMessagef("help requested"))

type Options struct {
	Out io.Writer
	// Shuffle shows the options of every question in a random order, fixed
	// for the question for the whole session.
	Shuffle bool
	// Seed seeds the shuffle; zero seeds from the current time.
	Seed int64
	// ClearScreen redraws the whole screen on every snapshot.
	ClearScreen bool
}

// Console is a presentation adapter for one session at a time. It is not
// safe for concurrent use.
type Console struct {
	out     io.Writer
	shuffle bool
	rnd     *rand.Rand
	clear   bool

	order    map[string][]string
	lastView string
}

func NewConsole(o Options) *Console {
	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Console{
		out:     o.Out,
		shuffle: o.Shuffle,
		rnd:     rand.New(rand.NewSource(seed)),
		clear:   o.ClearScreen,
		order:   make(map[string][]string),
	}
}

// Options returns the options of q in display order.
func (c *Console) Options(q domain.Question) []string {
	if order, ok := c.order[q.ID]; ok {
		return order
	}
	order := make([]string, len(q.Options))
	copy(order, q.Options)
	if c.shuffle {
		c.rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	c.order[q.ID] = order
	return order
}

// Parse maps a command line to an intent for the session shown in snap.
func (c *Console) Parse(line string, snap domain.Snapshot) (app.Intent, error) {
	cmd := strings.ToLower(strings.TrimSpace(line))

	if snap.State == domain.StateAwaitingConfirmation {
		switch cmd {
		case "y", "yes":
			return app.ConfirmSubmit{}, nil
		case "n", "no", "c", "cancel":
			return app.CancelSubmit{}, nil
		}
	}

	switch cmd {
	case "n", "next":
		return app.Next{}, nil
	case "p", "prev":
		return app.Prev{}, nil
	case "s", "submit", "r", "retry":
		return app.RequestSubmit{}, nil
	case "q", "quit":
		return app.Abandon{}, nil
	case "h", "help", "?":
		return nil, ErrHelp
	}

	if n, err := strconv.Atoi(cmd); err == nil {
		opts := c.Options(snap.Question)
		if n < 1 || n > len(opts) {
			return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("choose an option between 1 and %d", len(opts)))
		}
		return app.Select{QuestionID: snap.Question.ID, Option: opts[n-1]}, nil
	}
	return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown command %q, h for help", cmd))
}

// Render prints snap. Without ClearScreen a snapshot that only advances the
// countdown prints a short time notice now and then instead of a full frame.
func (c *Console) Render(snap domain.Snapshot) {
	view := viewKey(snap)
	if !c.clear && view == c.lastView {
		if snap.State == domain.StateInProgress && (snap.Remaining%30 == 0 || snap.Remaining <= 10) {
			fmt.Fprintf(c.out, "  %s left\n", formatRemaining(snap.Remaining))
		}
		return
	}
	c.lastView = view

	if c.clear {
		fmt.Fprint(c.out, "\033[H\033[2J")
	}

	switch snap.State {
	case domain.StateNotStarted:
		fmt.Fprintln(c.out, "No quiz in progress.")
		return
	case domain.StateSubmitting:
		fmt.Fprintln(c.out, "Submitting answers...")
		return
	case domain.StateSubmitted:
		if snap.Result != nil {
			fmt.Fprintf(c.out, "Submitted. Score %d/%d (result %s)\n", snap.Result.Score, snap.Result.Total, snap.Result.ResultID)
		}
		return
	}

	fmt.Fprintf(c.out, "\n%s | question %d/%d | %s left\n", snap.Title, snap.Index+1, snap.Total, formatRemaining(snap.Remaining))
	fmt.Fprintf(c.out, "%s answered %d/%d\n\n", progressBar(snap.Fraction), snap.Answered, snap.Total)
	fmt.Fprintln(c.out, snap.Question.Text)
	for i, o := range c.Options(snap.Question) {
		mark := " "
		if snap.Selected != nil && *snap.Selected == o {
			mark = "*"
		}
		fmt.Fprintf(c.out, " %s %d) %s\n", mark, i+1, o)
	}
	fmt.Fprintln(c.out)

	switch snap.State {
	case domain.StateAwaitingConfirmation:
		fmt.Fprintf(c.out, "%d question(s) unanswered. Submit anyway? [y/n]\n", snap.Unanswered)
	case domain.StateFailed:
		fmt.Fprintf(c.out, "Submission failed: %s\nr to retry, n/p to look through your answers.\n", snap.Err)
	default:
		fmt.Fprintln(c.out, "n next | p prev | 1-4 select | s submit | q quit")
	}
}

func (c *Console) help() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  1-4      select the numbered option")
	fmt.Fprintln(c.out, "  n, p     next or previous question")
	fmt.Fprintln(c.out, "  s        submit (r retries a failed submission)")
	fmt.Fprintln(c.out, "  y, n     answer the submit confirmation")
	fmt.Fprintln(c.out, "  q        abandon the quiz without submitting")
}

// Take drives ctrl with command lines read from in until the session is
// submitted, abandoned or in is exhausted. It returns nil without error when
// the session ended without a result. Once in is exhausted a submission in
// flight is waited for: its result is returned, or an error if it failed.
func (c *Console) Take(ctx context.Context, ctrl *app.Controller, in io.Reader) (*domain.Result, error) {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	lines := make(chan string)
	// the scanner goroutine ends with in; it may outlive Take on a terminal
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// set once in is exhausted and a submission is still in flight
	waiting := false

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case snap, ok := <-updates:
			if !ok {
				return nil, app.ErrStopped
			}
			c.Render(snap)
			switch {
			case snap.State == domain.StateSubmitted && snap.Result != nil:
				res := *snap.Result
				return &res, nil
			case waiting && snap.State == domain.StateFailed:
				return nil, errors.New(errors.CodeUnavailable, errors.WithMessagef("submission failed: %s", snap.Err))
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				_, err := ctrl.Abandon(ctx)
				switch {
				case err == nil:
					fmt.Fprintln(c.out, "Input closed, quiz abandoned.")
					return nil, nil
				case errors.HasCode(err, errors.CodeFailedPrecondition):
					fmt.Fprintln(c.out, "Input closed, waiting for the submission to finish.")
					waiting = true
					continue
				}
				return nil, err
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			done, err := c.dispatch(ctx, ctrl, line)
			if err != nil {
				return nil, err
			}
			if done {
				fmt.Fprintln(c.out, "Quiz abandoned.")
				return nil, nil
			}
		}
	}
}

// dispatch runs one command line. It reports true once the session has been
// abandoned.
func (c *Console) dispatch(ctx context.Context, ctrl *app.Controller, line string) (bool, error) {
	snap := ctrl.Snapshot()
	intent, err := c.Parse(line, snap)
	switch {
	case err == ErrHelp:
		c.help()
		return false, nil
	case err != nil:
		fmt.Fprintln(c.out, errors.Convert(err).Message)
		return false, nil
	}

	_, err = ctrl.Dispatch(ctx, intent)
	switch {
	case errors.HasCode(err, errors.CodeFailedPrecondition):
		// rejected intents leave the session as it was
		return false, nil
	case err != nil:
		return false, err
	}
	_, abandoned := intent.(app.Abandon)
	return abandoned, nil
}

func viewKey(s domain.Snapshot) string {
	sel := ""
	if s.Selected != nil {
		sel = *s.Selected
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s", s.State, s.Index, s.Question.ID, sel, s.Err)
}

func formatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func progressBar(fraction float64) string {
	filled := int(fraction*progressWidth + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > progressWidth {
		filled = progressWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled) + "]"
}
