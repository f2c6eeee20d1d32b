package testbooking

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
	api.POST("/test-bookings", h.Create, h.table.Require("bookings.create"))
	api.GET("/test-bookings", h.List, h.table.Require("bookings.list"))
	api.GET("/test-bookings/:id", h.Get, h.table.Require("bookings.get"))
	api.PUT("/test-bookings/:id/status", h.SetStatus, h.table.Require("bookings.status"))
	api.POST("/test-bookings/:id/upload-report", h.UploadReport, h.table.Require("bookings.report"))
	api.PUT("/test-bookings/:id/notes", h.UpdateNotes, h.table.Require("bookings.notes"))
	api.POST("/test-bookings/:id/cancel", h.Cancel, h.table.Require("bookings.cancel"))
	api.DELETE("/test-bookings/:id", h.Delete, h.table.Require("bookings.delete"))
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
	b, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
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
	b, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&in); err != nil {
		return apierror.Validation("invalid request body")
	}
	b, err := h.svc.SetStatus(c.Request().Context(), id, in.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) UploadReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	fh, err := c.FormFile("report")
	if err != nil {
		return apierror.Validation("report file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return apierror.Unexpected("failed to read report file")
	}
	defer f.Close()

	b, err := h.svc.UploadReport(c.Request().Context(), id, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateNotes(c echo.Context) error {
	actor, err := auth.MustActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	var in struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&in); err != nil {
		return apierror.Validation("invalid request body")
	}
	b, err := h.svc.UpdateNotes(c.Request().Context(), actor, id, in.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
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
	b, err := h.svc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
