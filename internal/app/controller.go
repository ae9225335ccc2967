package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quiz-portal-client/internal/clock"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
	"quiz-portal-client/internal/telemetry"
)

const defaultSubmitTimeout = 30 * time.Second

// ErrStopped is returned by Dispatch once Run has returned.
var ErrStopped = errors.New(errors.CodeUnavailable, errors.WithMessagef("session controller stopped"))

// Transport fetches quiz content from the portal and submits answers to it.
type Transport interface {
	FetchQuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	SubmitQuiz(ctx context.Context, sub domain.Submission) (domain.Result, error)
}

type Config struct {
	Transport Transport
	// NewTickerFunc, Now and TickInterval configure the countdown; see
	// clock.Config.
	NewTickerFunc func(d time.Duration) clock.Ticker
	Now           func() time.Time
	TickInterval  time.Duration
	// SubmitTimeout bounds the submit call, which intents cannot cancel.
	SubmitTimeout time.Duration
}

// Controller owns at most one live Session and serializes every intent,
// clock tick and submission completion through the goroutine running Run.
type Controller struct {
	transport     Transport
	clock         *clock.Clock
	submitTimeout time.Duration

	requests    chan request
	completions chan completion
	done        chan struct{}

	// owned by the Run goroutine
	session *Session
	trigger string

	mu          sync.RWMutex
	last        domain.Snapshot
	subscribers map[chan domain.Snapshot]struct{}
}

type request struct {
	intent Intent
	reply  chan response
}

type response struct {
	reply Reply
	err   error
}

type completion struct {
	session *Session
	result  domain.Result
	err     error
	elapsed time.Duration
}

// Reply is what the controller answers to an intent.
type Reply struct {
	// Unanswered is set when RequestSubmit needs a confirmation.
	Unanswered int
	Snapshot   domain.Snapshot
}

func NewController(c Config) *Controller {
	timeout := c.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}

	return &Controller{
		transport: c.Transport,
		clock: clock.New(clock.Config{
			NewTickerFunc: c.NewTickerFunc,
			Now:           c.Now,
			Interval:      c.TickInterval,
		}),
		submitTimeout: timeout,
		requests:      make(chan request),
		// only one submission is ever in flight
		completions: make(chan completion, 1),
		done:        make(chan struct{}),
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// Run processes intents until ctx is done. The countdown is cancelled on
// return; a submission still in flight completes in the background and its
// outcome is dropped.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.clock.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-c.requests:
			reply, err := c.handle(ctx, req.intent)
			req.reply <- response{reply: reply, err: err}

		case <-c.clock.C():
			c.onTick(ctx)

		case cmp := <-c.completions:
			c.onCompletion(ctx, cmp)
		}
	}
}

// Dispatch hands an intent to the loop and waits for its outcome. Guard
// violations come back as domain.ErrIllegalTransition and leave the session
// untouched.
func (c *Controller) Dispatch(ctx context.Context, in Intent) (Reply, error) {
	req := request{intent: in, reply: make(chan response, 1)}

	select {
	case c.requests <- req:
	case <-c.done:
		return Reply{}, ErrStopped
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.reply, resp.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Launch fetches the questions of info and starts a session with them.
func (c *Controller) Launch(ctx context.Context, info domain.QuizInfo) (Reply, error) {
	if s := c.Snapshot(); s.State.Live() {
		return Reply{}, domain.IllegalTransition("start", s.State)
	}
	if info.Completed {
		return Reply{}, errors.New(errors.CodeAlreadyExists, errors.WithMessagef("quiz %s already completed", info.ID))
	}

	questions, err := c.transport.FetchQuizQuestions(ctx, info.ID)
	if err != nil {
		return Reply{}, err
	}

	return c.Dispatch(ctx, Start{Info: info, Questions: questions})
}

func (c *Controller) Start(ctx context.Context, info domain.QuizInfo, questions []domain.Question) (Reply, error) {
	return c.Dispatch(ctx, Start{Info: info, Questions: questions})
}

func (c *Controller) Select(ctx context.Context, questionID, option string) (Reply, error) {
	return c.Dispatch(ctx, Select{QuestionID: questionID, Option: option})
}

func (c *Controller) Next(ctx context.Context) (Reply, error) {
	return c.Dispatch(ctx, Next{})
}

func (c *Controller) Prev(ctx context.Context) (Reply, error) {
	return c.Dispatch(ctx, Prev{})
}

func (c *Controller) RequestSubmit(ctx context.Context) (Reply, error) {
	return c.Dispatch(ctx, RequestSubmit{})
}

func (c *Controller) ConfirmSubmit(ctx context.Context) (Reply, error) {
	return c.Dispatch(ctx, ConfirmSubmit{})
}

func (c *Controller) CancelSubmit(ctx context.Context) (Reply, error) {
	return c.Dispatch(ctx, CancelSubmit{})
}

func (c *Controller) Abandon(ctx context.Context) (Reply, error) {
	return c.Dispatch(ctx, Abandon{})
}

// Snapshot returns the latest published snapshot.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last.Clone()
}

// Subscribe returns a channel of snapshots starting with the current one. A
// slow reader only ever finds the latest snapshot waiting. The caller must
// invoke the returned cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 1)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	ch <- c.last.Clone()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) handle(ctx context.Context, in Intent) (Reply, error) {
	reply, err := c.apply(ctx, in)
	if err != nil {
		if errors.HasCode(err, errors.CodeFailedPrecondition) {
			telemetry.IllegalIntents.WithLabelValues(in.intentName()).Inc()
			slog.DebugContext(ctx, "session: intent rejected", "intent", in.intentName(), "error", err)
		}
		return Reply{Snapshot: c.Snapshot()}, err
	}

	reply.Snapshot = c.publish()
	return reply, nil
}

func (c *Controller) apply(ctx context.Context, in Intent) (Reply, error) {
	if _, ok := in.(Start); !ok && c.session == nil {
		return Reply{}, domain.IllegalTransition(in.intentName(), c.Snapshot().State)
	}

	switch in := in.(type) {
	case Start:
		return Reply{}, c.start(ctx, in)

	case Select:
		return Reply{}, c.session.Select(in.QuestionID, in.Option)

	case Next:
		return Reply{}, c.session.Next()

	case Prev:
		return Reply{}, c.session.Prev()

	case RequestSubmit:
		n, sub, err := c.session.RequestSubmit()
		if err != nil {
			return Reply{}, err
		}
		if sub == nil {
			return Reply{Unanswered: n}, nil
		}
		c.submit(ctx, *sub, telemetry.TriggerManual)
		return Reply{}, nil

	case ConfirmSubmit:
		sub, err := c.session.ConfirmSubmit()
		if err != nil {
			return Reply{}, err
		}
		c.submit(ctx, *sub, telemetry.TriggerManual)
		return Reply{}, nil

	case CancelSubmit:
		return Reply{}, c.session.CancelSubmit()

	case Abandon:
		return Reply{}, c.abandon(ctx)
	}

	return Reply{}, domain.IllegalTransition(in.intentName(), c.session.State())
}

func (c *Controller) start(ctx context.Context, in Start) error {
	if c.session != nil && c.session.State().Live() {
		return domain.IllegalTransition("start", c.session.State())
	}

	s, err := NewSession(in.Info, in.Questions)
	if err != nil {
		return err
	}
	c.session = s
	telemetry.SessionsStarted.Inc()
	slog.InfoContext(ctx, "session: started",
		"quiz_id", in.Info.ID,
		"questions", len(in.Questions),
		"time_limit_minutes", in.Info.TimeLimitMinutes,
	)

	if expired := c.clock.Start(s.DurationSeconds()); expired {
		c.expire(ctx)
	}
	return nil
}

func (c *Controller) abandon(ctx context.Context) error {
	state := c.session.State()
	if state == domain.StateSubmitting || state == domain.StateSubmitted {
		return domain.IllegalTransition("abandon", state)
	}

	c.clock.Cancel()
	slog.InfoContext(ctx, "session: abandoned",
		"quiz_id", c.session.Info().ID,
		"answered", len(c.session.Answers()),
	)
	telemetry.SessionsAbandoned.Inc()
	c.session = nil
	return nil
}

func (c *Controller) onTick(ctx context.Context) {
	tick, ok := c.clock.Advance()
	if !ok || c.session == nil {
		return
	}
	if tick.Expired {
		c.expire(ctx)
	}
	c.publish()
}

func (c *Controller) expire(ctx context.Context) {
	sub, err := c.session.Expire()
	if err != nil {
		slog.DebugContext(ctx, "session: expiry ignored", "error", err)
		return
	}
	slog.InfoContext(ctx, "session: deadline reached, forcing submission", "quiz_id", sub.QuizID)
	c.submit(ctx, *sub, telemetry.TriggerForced)
}

// submit runs the single transport call of the submission protocol. The
// session is already submitting, so nothing else can start another one until
// the completion is handled.
func (c *Controller) submit(ctx context.Context, sub domain.Submission, trigger string) {
	c.clock.Cancel()
	c.trigger = trigger

	s := c.session
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.submitTimeout)
	go func() {
		defer cancel()

		start := time.Now()
		res, err := c.transport.SubmitQuiz(callCtx, sub)
		c.completions <- completion{session: s, result: res, err: err, elapsed: time.Since(start)}
	}()
}

func (c *Controller) onCompletion(ctx context.Context, cmp completion) {
	if cmp.session != c.session {
		return
	}

	telemetry.SubmitDuration.Observe(cmp.elapsed.Seconds())
	if cmp.err != nil {
		telemetry.Submissions.WithLabelValues(c.trigger, telemetry.OutcomeFailed).Inc()
		slog.ErrorContext(ctx, "session: submission failed",
			"quiz_id", c.session.Info().ID,
			"trigger", c.trigger,
			"error", cmp.err,
		)
		_ = c.session.Fail(cmp.err)
		c.publish()
		return
	}

	telemetry.Submissions.WithLabelValues(c.trigger, telemetry.OutcomeSubmitted).Inc()
	slog.InfoContext(ctx, "session: submitted",
		"quiz_id", c.session.Info().ID,
		"result_id", cmp.result.ResultID,
		"score", cmp.result.Score,
		"total", cmp.result.Total,
	)
	_ = c.session.Complete(cmp.result)
	c.publish()
	c.session = nil
}

// publish builds the current snapshot and fans it out to subscribers,
// replacing any snapshot a slow subscriber has not read yet.
func (c *Controller) publish() domain.Snapshot {
	var snap domain.Snapshot
	if c.session != nil {
		snap = c.session.Snapshot(c.clock.Tick())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = snap
	for ch := range c.subscribers {
		select {
		case ch <- snap.Clone():
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap.Clone()
		}
	}
	return snap.Clone()
}
