// Package portal is the REST client of the student portal. It is the
// session controller's transport.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
	"quiz-portal-client/internal/portalapi"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api.
	BaseURL string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient returns a portal client with sane timeouts.
func NewClient(c Config) *Client {
	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   3 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
			},
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(c.BaseURL, "/"),
		token:      c.Token,
		httpClient: httpClient,
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Token() string {
	return c.token
}

// Identity decodes the subject of the current token without verifying its
// signature; the portal does the verifying.
func (c *Client) Identity() (domain.Identity, error) {
	if c.token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	var claims portalapi.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, &claims); err != nil {
		return domain.Identity{}, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("malformed access token"), errors.WithCause(err))
	}
	return claims.Identity.Domain(), nil
}

// Login exchanges student credentials for an access token.
func (c *Client) Login(ctx context.Context, className, roll, pin string) (string, domain.Identity, error) {
	var resp portalapi.LoginResponse
	err := c.do(ctx, http.MethodPost, portalapi.PathLogin, portalapi.LoginRequest{
		ClassName: className,
		Roll:      roll,
		PIN:       pin,
	}, &resp)
	if err != nil {
		return "", domain.Identity{}, err
	}
	if resp.AccessToken == "" {
		return "", domain.Identity{}, errors.New(errors.CodeInternal, errors.WithMessagef("login response without token"))
	}
	return resp.AccessToken, resp.User.Domain(), nil
}

func (c *Client) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var resp portalapi.DashboardResponse
	if err := c.do(ctx, http.MethodGet, portalapi.PathDashboard, nil, &resp); err != nil {
		return domain.Dashboard{}, err
	}
	return resp.Domain(), nil
}

// Quiz finds an active quiz of the student's dashboard by ID.
func (c *Client) Quiz(ctx context.Context, quizID string) (domain.QuizInfo, error) {
	dash, err := c.Dashboard(ctx)
	if err != nil {
		return domain.QuizInfo{}, err
	}
	for _, q := range dash.ActiveQuizzes {
		if q.ID == quizID {
			return q, nil
		}
	}
	return domain.QuizInfo{}, domain.ErrQuizNotFound
}

func (c *Client) FetchQuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var resp []portalapi.Question
	if err := c.do(ctx, http.MethodGet, portalapi.PathQuizDetails+url.PathEscape(quizID), nil, &resp); err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(resp))
	for _, q := range resp {
		questions = append(questions, q.Domain())
	}
	return questions, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, sub domain.Submission) (domain.Result, error) {
	if sub.Answers == nil {
		// the portal expects an object, never null
		sub.Answers = map[string]string{}
	}

	var res domain.Result
	if err := c.do(ctx, http.MethodPost, portalapi.PathSubmitQuiz, sub, &res); err != nil {
		return domain.Result{}, err
	}
	return res, nil
}

func (c *Client) Review(ctx context.Context, resultID string) ([]domain.ReviewItem, error) {
	var resp []portalapi.ReviewItem
	if err := c.do(ctx, http.MethodGet, portalapi.PathReview+url.PathEscape(resultID), nil, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.ReviewItem, 0, len(resp))
	for _, r := range resp {
		items = append(items, r.Domain())
	}
	return items, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, portalapi.PathLeaderboard, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do sends one request and decodes a 2xx JSON body into out. Transport
// failures are CodeUnavailable; non-2xx statuses map through
// errors.FromHTTPStatus.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Internal(fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Internal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "portal: request failed", "method", method, "path", path, "error", err)
		return errors.New(errors.CodeUnavailable,
			errors.WithMessagef("portal unreachable"), errors.WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New(errors.CodeInternal,
			errors.WithMessagef("decode %s response", path), errors.WithCause(err))
	}
	return nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	msg := strings.TrimSpace(string(b))
	var er portalapi.ErrorResponse
	if json.Unmarshal(b, &er) == nil && er.Text() != "" {
		msg = er.Text()
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return errors.New(errors.FromHTTPStatus(resp.StatusCode),
		errors.WithMessagef("portal error %d: %s", resp.StatusCode, msg))
}
