package referral

import (
	"errors"
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
	g := api.Group("", auth.RequireRole(auth.RoleGuardian, auth.RoleAdmin))
	g.POST("/referrals", h.Create)
	g.GET("/referrals/:id", h.Get)
	g.GET("/referrals/:id/readiness", h.Readiness)
	g.POST("/referrals/:id/submit", h.Submit)
	g.POST("/referrals/:id/withdraw", h.Withdraw)
	g.POST("/referrals/:id/steps", h.RecordStep)
	g.POST("/referrals/:id/deletion-request", h.RequestDeletion)
	g.GET("/children/:child_id/referrals", h.ListByChild)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/referrals/:id/transition", h.Transition)
	admin.POST("/referrals/:id/schedule", h.Schedule)
	admin.POST("/referrals/:id/deletion-approval", h.ApproveDeletion)
	admin.POST("/referrals/:id/deletion-rejection", h.RejectDeletion)
	admin.GET("/referrals/:id/packet", h.GetPacket)
}

// writeDomainError translates state machine and readiness failures to
// the public error shape.
func writeDomainError(c echo.Context, err error) error {
	var notReady *NotReadyError
	var invalid *InvalidTransitionError
	var duplicate *DuplicateActiveReferralError
	switch {
	case errors.As(err, &notReady):
		msgs := make([]string, 0, len(notReady.Missing))
		for _, section := range notReady.Missing {
			msgs = append(msgs, section+" is incomplete")
		}
		return web.ErrorList(c, http.StatusUnprocessableEntity, msgs...)
	case errors.As(err, &invalid):
		return web.ErrorList(c, http.StatusConflict, err.Error())
	case errors.As(err, &duplicate):
		return web.ErrorList(c, http.StatusConflict, err.Error())
	default:
		return web.WriteError(c, http.StatusBadRequest, err)
	}
}

type createRequest struct {
	ChildID uuid.UUID `json:"child_id"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	ref, err := h.svc.Create(c.Request().Context(), req.ChildID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, ref)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "referral not found")
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) ListByChild(c echo.Context) error {
	childID, err := uuid.Parse(c.Param("child_id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid child_id")
	}
	refs, err := h.svc.ListByChild(c.Request().Context(), childID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, refs)
}

func (h *Handler) Readiness(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	readiness, err := h.svc.CheckReadiness(c.Request().Context(), id)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "referral not found")
	}
	return c.JSON(http.StatusOK, readiness)
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.Submit(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) Withdraw(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.Withdraw(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ref)
}

type transitionRequest struct {
	Target string `json:"target"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	ref, err := h.svc.Transition(c.Request().Context(), id, Status(req.Target))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) Schedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var session ScheduledSession
	if err := c.Bind(&session); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	ref, err := h.svc.Schedule(c.Request().Context(), id, session)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ref)
}

type stepRequest struct {
	Step string `json:"step"`
}

func (h *Handler) RecordStep(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	ref, err := h.svc.RecordStep(c.Request().Context(), id, req.Step)
	if err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) RequestDeletion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.RequestDeletion(c.Request().Context(), id)
	if err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) ApproveDeletion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.ApproveDeletion(c.Request().Context(), id)
	if err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) RejectDeletion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	ref, err := h.svc.RejectDeletion(c.Request().Context(), id)
	if err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, ref)
}

func (h *Handler) GetPacket(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	document, err := h.svc.GetPacket(c.Request().Context(), id)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "packet not generated yet")
	}
	return c.JSONBlob(http.StatusOK, document)
}
