package terminal

import (
	"fmt"
	"io"
	"text/tabwriter"

	"quiz-portal-client/internal/domain"
)

const dateLayout = "02 Jan 2006 15:04"

// PrintDashboard writes the active quizzes, history and badges of a student.
func PrintDashboard(w io.Writer, d domain.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ACTIVE QUIZZES")
	if len(d.ActiveQuizzes) == 0 {
		fmt.Fprintln(tw, "  none")
	} else {
		fmt.Fprintln(tw, "  ID\tTITLE\tCLUB\tQUESTIONS\tMINUTES\tSTATUS")
		for _, q := range d.ActiveQuizzes {
			status := "open"
			if q.Completed {
				status = "completed"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%d\t%s\n", q.ID, q.Title, q.Club.Name, q.TotalQuestions, q.TimeLimitMinutes, status)
		}
	}

	fmt.Fprintln(tw, "\nHISTORY")
	if len(d.History) == 0 {
		fmt.Fprintln(tw, "  none")
	} else {
		fmt.Fprintln(tw, "  RESULT\tQUIZ\tSCORE\tTAKEN")
		for _, h := range d.History {
			fmt.Fprintf(tw, "  %s\t%s\t%d/%d\t%s\n", h.ResultID, h.QuizTitle, h.Score, h.TotalQuestions, h.Timestamp.Local().Format(dateLayout))
		}
	}

	if len(d.Badges) > 0 {
		fmt.Fprintln(tw, "\nBADGES")
		for _, b := range d.Badges {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", b.Name, b.Description, b.AwardedOn)
		}
	}
	return tw.Flush()
}

// PrintReview writes every question of a result with the submitted and the
// correct answer.
func PrintReview(w io.Writer, items []domain.ReviewItem) error {
	for i, it := range items {
		verdict := "wrong"
		if it.Correct {
			verdict = "correct"
		}
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, it.QuestionText, verdict)
		fmt.Fprintf(w, "   your answer:    %s\n", it.SubmittedAnswer)
		fmt.Fprintf(w, "   correct answer: %s\n", it.CorrectAnswer)
		if it.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", it.Explanation)
		}
	}
	return nil
}

func PrintLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RANK\tNAME\tCLASS\tPOINTS\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t\n", e.Rank, e.Name, e.Class, e.Points)
	}
	return tw.Flush()
}
