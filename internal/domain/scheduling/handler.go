package scheduling

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
	g.PUT("/referrals/:id/scheduling", h.SavePreference)
	g.GET("/referrals/:id/scheduling", h.GetPreference)
}

func (h *Handler) SavePreference(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var p SchedulingPreference
	if err := c.Bind(&p); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	p.ReferralID = referralID
	if err := h.svc.SavePreference(c.Request().Context(), &p); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPreference(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPreference(c.Request().Context(), referralID)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "scheduling preference not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"preference":        p,
		"suggested_windows": p.SuggestedWindows(),
	})
}
