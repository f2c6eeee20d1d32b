package feedback

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
	"github.com/prescripto/prescripto/pkg/pagination"
)

type Handler struct {
	svc   *Service
	table auth.RouteTable
}

func NewHandler(svc *Service, table auth.RouteTable) *Handler {
	return &Handler{svc: svc, table: table}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/feedback", h.Create, h.table.Require("feedback.create"))
	api.GET("/admin/feedback", h.List, h.table.Require("admin.feedback.list"))
}

func (h *Handler) Create(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apierror.Validation("invalid request body")
	}
	f, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
