package prescription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
)

func newContext(e *echo.Echo, method, target, body string, actor auth.Actor) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Create(t *testing.T) {
	svc, _, dir := newTestService()
	h := NewHandler(svc, nil)
	e := echo.New()

	patientID := dir.add(auth.RolePatient, "Asha")
	doctorID := dir.add(auth.RoleDoctor, "Dr. Rao")

	body := fmt.Sprintf(`{"patient_id":%q,"doctor_id":%q,"medicines":[{"name":"Paracetamol","dosage":"500mg"}],"notes":"rest"}`,
		patientID, doctorID)
	c, rec := newContext(e, http.MethodPost, "/api/prescriptions", body, auth.Actor{ID: doctorID, Role: auth.RoleDoctor})

	if err := h.Create(c); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got Prescription
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Medicines) != 1 || got.Medicines[0].Name != "Paracetamol" {
		t.Errorf("unexpected medicines: %+v", got.Medicines)
	}
}

func TestHandler_Get_Forbidden(t *testing.T) {
	svc, _, dir := newTestService()
	h := NewHandler(svc, nil)
	e := echo.New()

	patientID := dir.add(auth.RolePatient, "Asha")
	doctorID := dir.add(auth.RoleDoctor, "Dr. Rao")

	p, err := svc.Create(context.Background(), auth.Actor{ID: doctorID, Role: auth.RoleDoctor}, CreateInput{
		PatientID: patientID,
		Medicines: []Medicine{{Name: "X"}},
	})
	if err != nil {
		t.Fatalf("seed Create() error: %v", err)
	}

	otherDoctor := auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}
	c, _ := newContext(e, http.MethodGet, "/api/prescriptions/"+p.ID.String(), "", otherDoctor)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err = h.Get(c)
	if apierror.CodeOf(err) != apierror.CodeForbidden {
		t.Errorf("expected forbidden for non-prescribing doctor, got %v", err)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc, nil)
	e := echo.New()

	c, _ := newContext(e, http.MethodGet, "/api/prescriptions/nope", "", auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.Get(c)
	if apierror.CodeOf(err) != apierror.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
