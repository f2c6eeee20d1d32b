package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/prescripto/prescripto/internal/platform/apierror"
)

// RouteTable maps a route key to the set of roles allowed to invoke it.
// Keeping the mapping as plain data makes the coarse allow-list testable
// without any transport wiring. The table is necessary but not sufficient:
// handlers still run the per-instance ownership policy after loading the
// target resource.
type RouteTable map[string][]Role

// Allowed reports whether role may invoke the route identified by key.
// Unknown keys deny everything.
func (t RouteTable) Allowed(key string, role Role) bool {
	roles, ok := t[key]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns echo middleware enforcing the table entry for key.
func (t RouteTable) Require(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := MustActor(c)
			if err != nil {
				return err
			}
			if !t.Allowed(key, actor.Role) {
				return apierror.Forbidden("access denied")
			}
			return next(c)
		}
	}
}

// Routes is the canonical allow-list for the clinic API.
func Routes() RouteTable {
	anyAuthenticated := []Role{RolePatient, RoleDoctor, RoleAdmin, RoleLab}
	staff := []Role{RoleAdmin, RoleLab}

	return RouteTable{
		"appointments.create":       {RolePatient},
		"appointments.list":         {RolePatient, RoleDoctor, RoleAdmin},
		"appointments.get":          {RolePatient, RoleDoctor, RoleAdmin},
		"appointments.cancel":       {RolePatient, RoleDoctor, RoleAdmin},
		"appointments.prescription": {RoleDoctor},

		"prescriptions.create": {RoleDoctor, RoleAdmin},
		"prescriptions.get":    {RolePatient, RoleDoctor, RoleAdmin},

		"tests.list":   anyAuthenticated,
		"tests.create": staff,
		"tests.update": staff,
		"tests.delete": staff,

		"bookings.create": {RolePatient},
		"bookings.list":   anyAuthenticated,
		"bookings.get":    anyAuthenticated,
		"bookings.status": staff,
		"bookings.report": staff,
		"bookings.notes":  {RoleDoctor, RoleAdmin, RoleLab},
		"bookings.cancel": {RolePatient, RoleAdmin, RoleLab},
		"bookings.delete": staff,

		"doctors.list": anyAuthenticated,

		"feedback.create":     {RolePatient},
		"admin.feedback.list": {RoleAdmin},

		"admin.doctor.create":  {RoleAdmin},
		"admin.patient.create": {RoleAdmin},
		"admin.user.delete":    {RoleAdmin},
		"admin.doctors.list":   {RoleAdmin},
		"admin.patients.list":  {RoleAdmin, RoleDoctor},
		"admin.users.list":     {RoleAdmin},
	}
}
