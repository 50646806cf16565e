package family

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/referral/internal/platform/auth"
	"github.com/carebridge/referral/internal/platform/web"
	"github.com/carebridge/referral/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleGuardian, auth.RoleAdmin))
	g.POST("/parents", h.CreateParent)
	g.GET("/parents/:id", h.GetParent)
	g.PUT("/parents/:id", h.UpdateParent)
	g.POST("/parents/:id/children", h.CreateChild)
	g.GET("/parents/:id/children", h.ListChildren)
	g.GET("/children/:id", h.GetChild)
	g.PUT("/children/:id", h.UpdateChild)
}

func (h *Handler) CreateParent(c echo.Context) error {
	var p ParentProfile
	if err := c.Bind(&p); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	if err := h.svc.CreateParent(c.Request().Context(), &p); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetParent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetParent(c.Request().Context(), id)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "parent profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateParent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var p ParentProfile
	if err := c.Bind(&p); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	p.ID = id
	if err := h.svc.UpdateParent(c.Request().Context(), &p); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateChild(c echo.Context) error {
	parentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var child ChildProfile
	if err := c.Bind(&child); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	child.ParentID = parentID
	if err := h.svc.CreateChild(c.Request().Context(), &child); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusCreated, child)
}

func (h *Handler) ListChildren(c echo.Context) error {
	parentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	children, total, err := h.svc.ListChildren(c.Request().Context(), parentID, pg.Limit, pg.Offset)
	if err != nil {
		return web.WriteError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(children, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetChild(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	child, err := h.svc.GetChild(c.Request().Context(), id)
	if err != nil {
		return web.ErrorList(c, http.StatusNotFound, "child profile not found")
	}
	return c.JSON(http.StatusOK, child)
}

func (h *Handler) UpdateChild(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return web.ErrorList(c, http.StatusBadRequest, "invalid id")
	}
	var child ChildProfile
	if err := c.Bind(&child); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	child.ID = id
	if err := h.svc.UpdateChild(c.Request().Context(), &child); err != nil {
		return web.WriteError(c, http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, child)
}
