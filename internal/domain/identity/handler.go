package identity

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

// RegisterRoutes mounts the public auth endpoints on public and the
// authenticated account endpoints on api.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	api.GET("/doctors", h.ListDoctors, h.table.Require("doctors.list"))

	api.POST("/admin/doctor", h.CreateDoctor, h.table.Require("admin.doctor.create"))
	api.POST("/admin/patient", h.CreatePatient, h.table.Require("admin.patient.create"))
	api.DELETE("/admin/user/:id", h.DeleteUser, h.table.Require("admin.user.delete"))
	api.GET("/admin/doctors", h.AdminListDoctors, h.table.Require("admin.doctors.list"))
	api.GET("/admin/patients", h.ListPatients, h.table.Require("admin.patients.list"))
	api.GET("/admin/users", h.ListUsers, h.table.Require("admin.users.list"))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apierror.Validation("invalid request body")
	}
	a, err := h.svc.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apierror.Validation("invalid request body")
	}
	token, a, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, Account: a})
}

type createDoctorRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Speciality string  `json:"speciality"`
	Fee        float64 `json:"fee"`
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req createDoctorRequest
	if err := c.Bind(&req); err != nil {
		return apierror.Validation("invalid request body")
	}
	a, err := h.svc.CreateDoctor(c.Request().Context(), req.Name, req.Email, req.Password, req.Speciality, req.Fee)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apierror.Validation("invalid request body")
	}
	a, err := h.svc.CreatePatient(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.Validation("invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("speciality"), pg.Limit, pg.Offset)
	if err != nil {
		return apierror.Unexpected("failed to list doctors")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AdminListDoctors(c echo.Context) error {
	return h.ListDoctors(c)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apierror.Unexpected("failed to list patients")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apierror.Unexpected("failed to list users")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
