package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/clock"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
)

// SessionBackend is the portal access of one bridged connection.
type SessionBackend interface {
	app.Transport
	Quiz(ctx context.Context, quizID string) (domain.QuizInfo, error)
}

type WSConfig struct {
	// Backend returns the portal access for the token a connection carries;
	// token is empty when the connection carries none.
	Backend func(token string) SessionBackend

	NewTickerFunc func(d time.Duration) clock.Ticker
	TickInterval  time.Duration
	SubmitTimeout time.Duration
}

// WSHandler bridges a browser to a quiz session: every connection gets its
// own session controller, sends intents and receives snapshots.
type WSHandler struct {
	c        WSConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(c WSConfig) *WSHandler {
	return &WSHandler{
		c: c,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type confirmPayload struct {
	Unanswered int `json:"unanswered"`
}

type rejectedPayload struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
}

type errorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Outbound message types.
const (
	msgSnapshot = "snapshot"
	msgConfirm  = "confirm"
	msgResult   = "result"
	msgRejected = "rejected"
	msgError    = "error"
)

// ServeWS upgrades HTTP requests to websockets and runs one quiz session per
// connection. The quiz is chosen with the quizId query parameter; an access
// token may be passed as token.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	backend := h.c.Backend(r.URL.Query().Get("token"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ctrl := app.NewController(app.Config{
		Transport:     backend,
		NewTickerFunc: h.c.NewTickerFunc,
		TickInterval:  h.c.TickInterval,
		SubmitTimeout: h.c.SubmitTimeout,
	})
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = ctrl.Run(ctx)
	}()
	defer func() {
		cancel()
		<-runDone
	}()

	info, err := backend.Quiz(ctx, quizID)
	if err == nil {
		_, err = ctrl.Launch(ctx, info)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: msgError, Payload: toErrorPayload(err)})
		return
	}

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// the writer is the only goroutine that writes to conn
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.DebugContext(ctx, "ws: write failed", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: msgSnapshot, Payload: snap}}
				if snap.State == domain.StateSubmitted && snap.Result != nil {
					msgs = append(msgs, outboundMessage[any]{Type: msgResult, Payload: *snap.Result})
				}
				for _, m := range msgs {
					select {
					case send <- m:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handle(ctx, ctrl, inbound); ok {
			select {
			case send <- msg:
			case <-writerDone:
			}
		}
	}

	if _, err := ctrl.Abandon(ctx); err == nil {
		slog.InfoContext(ctx, "ws: connection closed, session abandoned", "quiz_id", quizID)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle dispatches one inbound message. Snapshots reach the client through
// the subscription; the returned message, if any, is an extra reply.
func (h *WSHandler) handle(ctx context.Context, ctrl *app.Controller, in inboundMessage) (outboundMessage[any], bool) {
	intent, err := decodeIntent(in)
	if err != nil {
		return outboundMessage[any]{Type: msgError, Payload: toErrorPayload(err)}, true
	}

	reply, err := ctrl.Dispatch(ctx, intent)
	switch {
	case errors.HasCode(err, errors.CodeFailedPrecondition):
		return outboundMessage[any]{Type: msgRejected, Payload: rejectedPayload{
			Intent:  app.IntentName(intent),
			Message: errors.Convert(err).Message,
		}}, true
	case err != nil:
		return outboundMessage[any]{Type: msgError, Payload: toErrorPayload(err)}, true
	case reply.Unanswered > 0:
		return outboundMessage[any]{Type: msgConfirm, Payload: confirmPayload{Unanswered: reply.Unanswered}}, true
	}
	return outboundMessage[any]{}, false
}

func decodeIntent(in inboundMessage) (app.Intent, error) {
	switch in.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid select payload"))
		}
		return app.Select{QuestionID: p.QuestionID, Option: p.Option}, nil
	case "next":
		return app.Next{}, nil
	case "prev":
		return app.Prev{}, nil
	case "submit":
		return app.RequestSubmit{}, nil
	case "confirm":
		return app.ConfirmSubmit{}, nil
	case "cancel":
		return app.CancelSubmit{}, nil
	case "abandon":
		return app.Abandon{}, nil
	}
	return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unsupported message type %q", in.Type))
}

func toErrorPayload(err error) errorPayload {
	e := errors.Convert(err)
	return errorPayload{Code: e.Code.String(), Message: e.Message}
}
