package insurance

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
	g.PUT("/referrals/:id/insurance", h.SaveDetail)
	g.GET("/referrals/:id/insurance", h.GetDetail)
	g.POST("/referrals/:id/insurance/uploads", h.RegisterUpload)
	g.GET("/referrals/:id/insurance/uploads", h.ListUploads)
	g.GET("/referrals/:id/cost-estimate", h.GetEstimate)
	g.POST("/referrals/:id/cost-estimate/refresh", h.RefreshEstimate)
}

func (h *Handler) SaveDetail(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var d InsuranceDetail
	if err := c.Bind(&d); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	d.ReferralID = referralID
	if err := h.svc.SaveDetail(c.Request().Context(), &d); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDetail(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDetail(c.Request().Context(), referralID)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "insurance detail not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) RegisterUpload(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var u InsuranceUpload
	if err := c.Bind(&u); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	u.ReferralID = referralID
	if err := h.svc.RegisterUpload(c.Request().Context(), &u); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUploads(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	uploads, err := h.svc.ListUploads(c.Request().Context(), referralID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, uploads)
}

func (h *Handler) GetEstimate(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetEstimate(c.Request().Context(), referralID)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "cost estimate not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"estimate":   e,
		"disclaimer": CostDisclaimer,
	})
}

func (h *Handler) RefreshEstimate(c echo.Context) error {
	referralID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RefreshEstimate(c.Request().Context(), referralID); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	e, err := h.svc.GetEstimate(c.Request().Context(), referralID)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"estimate":   e,
		"disclaimer": CostDisclaimer,
	})
}
