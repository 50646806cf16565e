package comms

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	chat := api.Group("", auth.RequireRole(auth.RoleGuardian, auth.RoleAdmin))
	chat.POST("/referrals/:id/chats", h.CreateThread)
	chat.GET("/referrals/:id/chats", h.ListThreads)
	chat.POST("/chats/:thread_id/messages", h.PostMessage)
	chat.GET("/chats/:thread_id/messages", h.ListMessages)

	notes := api.Group("", auth.RequireRole(auth.RoleAdmin))
	notes.POST("/referrals/:id/notes", h.AddNote)
	notes.GET("/referrals/:id/notes", h.ListNotes)
}

func (h *Handler) CreateThread(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var t ChatThread
	if err := c.Bind(&t); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	t.ReferralID = referralID
	if err := h.svc.CreateThread(c.Request().Context(), &t); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListThreads(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	threads, err := h.svc.ListThreads(c.Request().Context(), referralID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, threads)
}

func (h *Handler) PostMessage(c echo.Context) error {
	threadID, err := uuid.Parse(c.Param("thread_id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid thread_id")
	}
	var m ChatMessage
	if err := c.Bind(&m); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	m.ThreadID = threadID
	if authorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		m.AuthorID = authorID
	}
	if err := h.svc.PostMessage(c.Request().Context(), &m); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMessages(c echo.Context) error {
	threadID, err := uuid.Parse(c.Param("thread_id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid thread_id")
	}
	messages, err := h.svc.ListMessages(c.Request().Context(), threadID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *Handler) AddNote(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var n AdminNote
	if err := c.Bind(&n); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	n.ReferralID = referralID
	if authorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		n.AuthorID = authorID
	}
	if err := h.svc.AddNote(c.Request().Context(), &n); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	notes, err := h.svc.ListNotes(c.Request().Context(), referralID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, notes)
}
