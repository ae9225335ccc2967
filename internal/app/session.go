package app

import (
	"fmt"

	"quiz-portal-client/internal/clock"
	"quiz-portal-client/internal/domain"
)

const (
	minOptions = 2
	maxOptions = 4
)

// Session is one attempt at one quiz: the question set, the position in it,
// the answer ledger and the submission state. It holds no timer and does no
// I/O; the Controller drives it and performs the effects it asks for.
// Session is not safe for concurrent use.
type Session struct {
	info      domain.QuizInfo
	questions []domain.Question
	index     int
	answers   *domain.Ledger
	state     domain.State
	forced    bool
	result    *domain.Result
	lastErr   error
}

// NewSession validates the quiz content and returns a session in progress at
// the first question.
func NewSession(info domain.QuizInfo, questions []domain.Question) (*Session, error) {
	if err := validate(info, questions); err != nil {
		return nil, err
	}

	qs := make([]domain.Question, len(questions))
	for i, q := range questions {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		qs[i] = domain.Question{ID: q.ID, Text: q.Text, Options: opts}
	}

	return &Session{
		info:      info,
		questions: qs,
		answers:   domain.NewLedger(),
		state:     domain.StateInProgress,
	}, nil
}

func validate(info domain.QuizInfo, questions []domain.Question) error {
	if info.TimeLimitMinutes <= 0 {
		return domain.InvalidQuizData("time limit must be positive, got %d minutes", info.TimeLimitMinutes)
	}
	if len(questions) == 0 {
		return domain.InvalidQuizData("quiz %s has no questions", info.ID)
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return domain.InvalidQuizData("question %d has no id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return domain.InvalidQuizData("duplicate question id %s", q.ID)
		}
		seen[q.ID] = struct{}{}

		if n := len(q.Options); n < minOptions || n > maxOptions {
			return domain.InvalidQuizData("question %s has %d options", q.ID, n)
		}
		opts := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if o == "" {
				return domain.InvalidQuizData("question %s has an empty option", q.ID)
			}
			if _, dup := opts[o]; dup {
				return domain.InvalidQuizData("question %s repeats option %q", q.ID, o)
			}
			opts[o] = struct{}{}
		}
	}
	return nil
}

// DurationSeconds is the countdown length of the session.
func (s *Session) DurationSeconds() int {
	return s.info.TimeLimitMinutes * 60
}

func (s *Session) State() domain.State { return s.state }

func (s *Session) Info() domain.QuizInfo { return s.info }

func (s *Session) Index() int { return s.index }

func (s *Session) Current() domain.Question { return s.questions[s.index] }

// Answers returns a copy of the ledger.
func (s *Session) Answers() map[string]string { return s.answers.Map() }

func (s *Session) Unanswered() int {
	return len(s.questions) - s.answers.Count()
}

func (s *Session) Result() (domain.Result, bool) {
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// Select records option for the question currently displayed.
func (s *Session) Select(questionID, option string) error {
	if s.state != domain.StateInProgress {
		return domain.IllegalTransition("select", s.state)
	}

	q := s.questions[s.index]
	if q.ID != questionID {
		return domain.IllegalTransition(fmt.Sprintf("select %s while showing %s", questionID, q.ID), s.state)
	}
	if !q.HasOption(option) {
		return domain.IllegalTransition(fmt.Sprintf("select unknown option %q on %s", option, q.ID), s.state)
	}

	s.answers.Set(questionID, option)
	return nil
}

// Next moves to the following question, staying put on the last one.
func (s *Session) Next() error {
	if !s.canNavigate() {
		return domain.IllegalTransition("next", s.state)
	}
	if s.index < len(s.questions)-1 {
		s.index++
	}
	return nil
}

// Prev moves to the preceding question, staying put on the first one.
func (s *Session) Prev() error {
	if !s.canNavigate() {
		return domain.IllegalTransition("prev", s.state)
	}
	if s.index > 0 {
		s.index--
	}
	return nil
}

// A failed session can still be browsed while the student decides to retry.
func (s *Session) canNavigate() bool {
	return s.state == domain.StateInProgress || s.state == domain.StateFailed
}

// RequestSubmit asks to hand the quiz in. With unanswered questions left the
// session waits for confirmation and the count is returned; otherwise, and
// when retrying a failed submission, the submission to send is returned.
func (s *Session) RequestSubmit() (unanswered int, sub *domain.Submission, err error) {
	switch s.state {
	case domain.StateInProgress:
		if n := s.Unanswered(); n > 0 {
			s.state = domain.StateAwaitingConfirmation
			return n, nil, nil
		}
	case domain.StateFailed:
	default:
		return 0, nil, domain.IllegalTransition("request submit", s.state)
	}

	sub, ok := s.begin(false)
	if !ok {
		return 0, nil, domain.IllegalTransition("request submit", s.state)
	}
	return s.Unanswered(), sub, nil
}

// ConfirmSubmit submits despite unanswered questions. It also serves as the
// retry of a failed submission.
func (s *Session) ConfirmSubmit() (*domain.Submission, error) {
	if s.state != domain.StateAwaitingConfirmation && s.state != domain.StateFailed {
		return nil, domain.IllegalTransition("confirm submit", s.state)
	}
	sub, _ := s.begin(false)
	return sub, nil
}

// CancelSubmit dismisses the confirmation and resumes the quiz.
func (s *Session) CancelSubmit() error {
	if s.state != domain.StateAwaitingConfirmation {
		return domain.IllegalTransition("cancel submit", s.state)
	}
	s.state = domain.StateInProgress
	return nil
}

// Expire forces the submission when the deadline passes, skipping any
// pending confirmation.
func (s *Session) Expire() (*domain.Submission, error) {
	if s.state != domain.StateInProgress && s.state != domain.StateAwaitingConfirmation {
		return nil, domain.IllegalTransition("expire", s.state)
	}
	sub, _ := s.begin(true)
	return sub, nil
}

// begin is the one-shot gate: it moves the session to submitting and builds
// the payload, or reports false if a submission is in flight or done.
func (s *Session) begin(forced bool) (*domain.Submission, bool) {
	switch s.state {
	case domain.StateInProgress, domain.StateAwaitingConfirmation, domain.StateFailed:
	default:
		return nil, false
	}

	s.state = domain.StateSubmitting
	s.forced = forced
	s.lastErr = nil
	return &domain.Submission{
		QuizID:  s.info.ID,
		Answers: s.answers.Map(),
	}, true
}

// Complete records the server's verdict.
func (s *Session) Complete(res domain.Result) error {
	if s.state != domain.StateSubmitting {
		return domain.IllegalTransition("complete", s.state)
	}
	s.state = domain.StateSubmitted
	s.result = &res
	return nil
}

// Fail records a failed submission; answers and questions are kept for a retry.
func (s *Session) Fail(err error) error {
	if s.state != domain.StateSubmitting {
		return domain.IllegalTransition("fail", s.state)
	}
	s.state = domain.StateFailed
	s.lastErr = err
	return nil
}

// Snapshot renders the session for presentation, using tick for the timer.
func (s *Session) Snapshot(tick clock.Tick) domain.Snapshot {
	q := s.questions[s.index]
	snap := domain.Snapshot{
		QuizID:     s.info.ID,
		Title:      s.info.Title,
		Question:   q,
		Index:      s.index,
		Total:      len(s.questions),
		Remaining:  tick.Remaining,
		Fraction:   tick.Fraction,
		Answered:   s.answers.Count(),
		Unanswered: s.Unanswered(),
		State:      s.state,
		Forced:     s.forced,
		Result:     s.result,
	}
	if opt, ok := s.answers.Get(q.ID); ok {
		snap.Selected = &opt
		snap.HasSelection = true
	}
	if s.lastErr != nil {
		snap.Err = s.lastErr.Error()
	}
	return snap.Clone()
}
