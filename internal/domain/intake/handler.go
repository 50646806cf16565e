package intake

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
	g := api.Group("", auth.RequireRole(auth.RoleGuardian, auth.RoleAdmin))
	g.PUT("/referrals/:id/intake", h.SaveResponse)
	g.GET("/referrals/:id/intake", h.GetResponse)
	g.POST("/referrals/:id/consents", h.AcceptConsent)
	g.GET("/referrals/:id/consents", h.ListConsents)
}

func (h *Handler) SaveResponse(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var r IntakeResponse
	if err := c.Bind(&r); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	r.ReferralID = referralID
	if err := h.svc.SaveResponse(c.Request().Context(), &r); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) GetResponse(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.GetResponse(c.Request().Context(), referralID)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "intake response not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) AcceptConsent(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var rec ConsentRecord
	if err := c.Bind(&rec); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	rec.ReferralID = referralID
	rec.IPAddress = c.RealIP()
	rec.UserAgent = c.Request().UserAgent()
	if err := h.svc.AcceptConsent(c.Request().Context(), &rec); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListConsents(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	records, err := h.svc.ListConsents(c.Request().Context(), referralID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, records)
}
