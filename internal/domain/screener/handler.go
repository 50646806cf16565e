package screener

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/referral/internal/platform/ai"
	"github.com/carebridge/referral/internal/platform/auth"
	"github.com/carebridge/referral/internal/platform/web"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleGuardian, auth.RoleAdmin))
	g.POST("/referrals/:id/screener/start", h.Start)
	g.POST("/referrals/:id/screener/messages", h.AppendMessage)
	g.POST("/referrals/:id/screener/complete", h.Complete)
	g.GET("/referrals/:id/screener", h.GetSession)
}

func (h *Handler) Start(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	session, err := h.svc.Start(c.Request().Context(), referralID)
	if err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, session)
}

type appendRequest struct {
	Text string `json:"text"`
}

func (h *Handler) AppendMessage(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var req appendRequest
	if err := c.Bind(&req); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	session, err := h.svc.AppendUserMessage(c.Request().Context(), referralID, req.Text)
	if err != nil {
		var pe *ai.ProviderError
		switch {
		case errors.As(err, &pe):
			// The user turn is saved; the client may retry for a reply.
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"errors":  []string{"assistant is temporarily unavailable, your message was saved"},
				"session": session,
			})
		case errors.Is(err, ErrAlreadyCompleted):
			return web.WriteError(c, http.StatusConflict, err)
		default:
			return web.WriteError(c, http.StatusBadRequest, err)
		}
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) Complete(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	session, err := h.svc.Complete(c.Request().Context(), referralID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotStarted):
			return web.WriteError(c, http.StatusNotFound, err)
		case errors.Is(err, ErrAlreadyCompleted):
			return web.WriteError(c, http.StatusConflict, err)
		case errors.Is(err, ErrTooFewMessages):
			return web.WriteError(c, http.StatusUnprocessableEntity, err)
		default:
			return web.WriteError(c, http.StatusInternalServerError, err)
		}
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) GetSession(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	session, err := h.svc.GetSession(c.Request().Context(), referralID)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "screener session not found")
	}
	return c.JSON(http.StatusOK, session)
}
