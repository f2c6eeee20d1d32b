package appointment

import (
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/appointments", h.Create, h.table.Require("appointments.create"))
	api.GET("/appointments", h.List, h.table.Require("appointments.list"))
	api.GET("/appointments/:id", h.Get, h.table.Require("appointments.get"))
	api.PATCH("/appointments/:id/cancel", h.Cancel, h.table.Require("appointments.cancel"))
	api.POST("/appointments/:id/prescription", h.Complete, h.table.Require("appointments.prescription"))
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
	a, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	a, err := h.svc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Complete(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	var in CompleteInput
	if err := c.Bind(&in); err != nil {
		return apierror.Validation("invalid request body")
	}
	p, err := h.svc.CompleteWithPrescription(c.Request().Context(), actor, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}
