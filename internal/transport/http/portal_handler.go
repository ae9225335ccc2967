package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
	"quiz-portal-client/internal/portalapi"
)

const identityKey = "portal.identity"

// PortalHandler serves the student REST API of the development portal.
type PortalHandler struct {
	service *app.PortalService
}

func NewPortalHandler(service *app.PortalService) *PortalHandler {
	return &PortalHandler{service: service}
}

// Register mounts the API on r, typically the /api group.
func (h *PortalHandler) Register(r gin.IRouter) {
	r.POST(portalapi.PathLogin, h.login)

	student := r.Group("/student", h.authenticate)
	student.GET("/dashboard-data", h.dashboard)
	student.GET("/quiz-details/:id", h.quizDetails)
	student.POST("/submit-quiz", h.submitQuiz)
	student.GET("/review-details/:id", h.review)
	student.GET("/leaderboard", h.leaderboard)
}

// authenticate requires a valid bearer token and stores its subject.
func (h *PortalHandler) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, portalapi.ErrorResponse{Msg: "Missing Authorization Header"})
		return
	}

	who, err := h.service.VerifyToken(token)
	if err != nil {
		e := errors.Convert(err)
		c.AbortWithStatusJSON(e.HTTPStatusCode(), portalapi.ErrorResponse{Msg: e.Message})
		return
	}
	c.Set(identityKey, who)
	c.Next()
}

func identity(c *gin.Context) domain.Identity {
	who, _ := c.Get(identityKey)
	id, _ := who.(domain.Identity)
	return id
}

func (h *PortalHandler) login(c *gin.Context) {
	var req portalapi.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid login payload")))
		return
	}

	token, who, err := h.service.Login(c.Request.Context(), req.ClassName, req.Roll, req.PIN)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, portalapi.LoginResponse{AccessToken: token, User: who})
}

func (h *PortalHandler) dashboard(c *gin.Context) {
	dash, err := h.service.Dashboard(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := portalapi.DashboardResponse{
		ActiveQuizzes: make([]portalapi.ActiveQuiz, 0, len(dash.ActiveQuizzes)),
		History:       make([]portalapi.HistoryEntry, 0, len(dash.History)),
		Badges:        make([]portalapi.Badge, 0, len(dash.Badges)),
	}
	for _, q := range dash.ActiveQuizzes {
		resp.ActiveQuizzes = append(resp.ActiveQuizzes, portalapi.FromQuizInfo(q))
	}
	for _, e := range dash.History {
		resp.History = append(resp.History, portalapi.FromHistoryEntry(e))
	}
	for _, b := range dash.Badges {
		resp.Badges = append(resp.Badges, portalapi.Badge{
			Name:        b.Name,
			Description: b.Description,
			IconURL:     b.IconURL,
			AwardedOn:   b.AwardedOn,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PortalHandler) quizDetails(c *gin.Context) {
	questions, err := h.service.QuizQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]portalapi.Question, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, portalapi.FromQuestion(q))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PortalHandler) submitQuiz(c *gin.Context) {
	var sub domain.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		writeError(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid submission payload")))
		return
	}

	res, err := h.service.Submit(c.Request.Context(), identity(c), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PortalHandler) review(c *gin.Context) {
	items, err := h.service.Review(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]portalapi.ReviewItem, 0, len(items))
	for _, it := range items {
		resp = append(resp, portalapi.FromReviewItem(it))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PortalHandler) leaderboard(c *gin.Context) {
	entries, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func writeError(c *gin.Context, err error) {
	e := errors.Convert(err)
	status := e.HTTPStatusCode()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "portal: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, portalapi.ErrorResponse{Message: e.Message})
}
