package appointment

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prescripto/prescripto/internal/domain/identity"
	"github.com/prescripto/prescripto/internal/domain/prescription"
	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
)

// -- Mocks --

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
	failCreate   bool
	failGet      bool
	failStatus   bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if m.failCreate {
		return fmt.Errorf("insert failed")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	if m.failGet {
		return nil, fmt.Errorf("connection reset")
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if m.failStatus {
		return fmt.Errorf("update failed")
	}
	a, ok := m.appointments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, from time.Time, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID && a.Status != StatusCancelled && !a.Date.Before(from) {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })
	return items, len(items), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Status != StatusCancelled {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	return items, len(items), nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		items = append(items, a)
	}
	return items, len(items), nil
}

type mockDirectory struct {
	accounts map[uuid.UUID]*identity.Account
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{accounts: make(map[uuid.UUID]*identity.Account)}
}

func (m *mockDirectory) Get(_ context.Context, id uuid.UUID) (*identity.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apierror.NotFound("account not found")
	}
	return a, nil
}

func (m *mockDirectory) addDoctor(name, speciality string, fee float64) uuid.UUID {
	id := uuid.New()
	m.accounts[id] = &identity.Account{
		ID: id, Name: name, Email: name + "@clinic.example",
		Role: auth.RoleDoctor, Speciality: &speciality, Fee: &fee,
	}
	return id
}

func (m *mockDirectory) addPatient(name, email string) uuid.UUID {
	id := uuid.New()
	m.accounts[id] = &identity.Account{ID: id, Name: name, Email: email, Role: auth.RolePatient}
	return id
}

type mockPrescriptions struct {
	created []*prescription.Prescription
	fail    bool
}

func (m *mockPrescriptions) Create(_ context.Context, p *prescription.Prescription) error {
	if m.fail {
		return fmt.Errorf("insert failed")
	}
	p.ID = uuid.New()
	m.created = append(m.created, p)
	return nil
}

// fakeTx runs the function directly and remembers whether it returned an
// error, standing in for commit versus rollback.
type fakeTx struct {
	calls      int
	rolledBack bool
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}

type mockNotifier struct {
	recipients []string
	data       []map[string]string
}

func (m *mockNotifier) AppointmentBooked(_ context.Context, to string, data map[string]string) {
	m.recipients = append(m.recipients, to)
	m.data = append(m.data, data)
}

type testEnv struct {
	svc      *Service
	repo     *mockRepo
	dir      *mockDirectory
	pres     *mockPrescriptions
	tx       *fakeTx
	notifier *mockNotifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:     newMockRepo(),
		dir:      newMockDirectory(),
		pres:     &mockPrescriptions{},
		tx:       &fakeTx{},
		notifier: &mockNotifier{},
	}
	env.svc = NewService(env.repo, env.pres, env.dir, env.tx, env.notifier,
		Clinic{Name: "City Clinic", Website: "https://clinic.example"})
	return env
}

func validInput(doctorID uuid.UUID) CreateInput {
	return CreateInput{
		DoctorID: doctorID,
		Date:     time.Now().Add(24 * time.Hour),
		TimeSlot: "Morning",
		Phone:    "9876543210",
	}
}

// -- Tests --

func TestCreate_SnapshotsDoctorDetails(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	a, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if a.DoctorName != "Dr. Rao" || a.Speciality != "Cardiology" || a.Fee != 500 {
		t.Errorf("expected doctor snapshot, got %q %q %.0f", a.DoctorName, a.Speciality, a.Fee)
	}
	if a.Status != StatusBooked {
		t.Errorf("expected status booked, got %q", a.Status)
	}
	if a.PatientID != patientID {
		t.Errorf("expected patient taken from actor, got %s", a.PatientID)
	}
}

func TestCreate_SendsConfirmationEmail(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	_, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if len(env.notifier.recipients) != 1 || env.notifier.recipients[0] != "asha@example.com" {
		t.Fatalf("expected one confirmation to the patient, got %v", env.notifier.recipients)
	}
	if env.notifier.data[0]["doctor_name"] != "Dr. Rao" {
		t.Errorf("expected doctor name in email data, got %v", env.notifier.data[0])
	}
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")
	actor := auth.Actor{ID: patientID, Role: auth.RolePatient}

	badAge := 130
	badGender := "unknown"

	cases := []struct {
		name   string
		mutate func(in *CreateInput)
	}{
		{"short phone", func(in *CreateInput) { in.Phone = "12345" }},
		{"alpha phone", func(in *CreateInput) { in.Phone = "98765x3210" }},
		{"age too high", func(in *CreateInput) { in.Age = &badAge }},
		{"bad gender", func(in *CreateInput) { in.Gender = &badGender }},
		{"zero date", func(in *CreateInput) { in.Date = time.Time{} }},
		{"empty slot", func(in *CreateInput) { in.TimeSlot = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(doctorID)
			tc.mutate(&in)
			_, err := env.svc.Create(context.Background(), actor, in)
			if apierror.CodeOf(err) != apierror.CodeValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(env.repo.appointments) != 0 {
		t.Errorf("expected no writes on validation failure, found %d", len(env.repo.appointments))
	}
}

func TestCreate_DoctorMustExist(t *testing.T) {
	env := newTestEnv()
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	_, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(uuid.New()))
	if apierror.CodeOf(err) != apierror.CodeNotFound {
		t.Errorf("expected not_found for unknown doctor, got %v", err)
	}
}

func TestCreate_PatientRefIsNotADoctor(t *testing.T) {
	env := newTestEnv()
	patientID := env.dir.addPatient("Asha", "asha@example.com")
	otherPatient := env.dir.addPatient("Ravi", "ravi@example.com")

	_, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(otherPatient))
	if apierror.CodeOf(err) != apierror.CodeNotFound {
		t.Errorf("expected not_found for non-doctor reference, got %v", err)
	}
}

func TestCreate_EmailFailureDoesNotFailBooking(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	// Actor whose account does not resolve: the email lookup fails, the
	// booking must still succeed.
	actor := auth.Actor{ID: uuid.New(), Role: auth.RolePatient}

	a, err := env.svc.Create(context.Background(), actor, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if a.Status != StatusBooked {
		t.Errorf("expected booked, got %q", a.Status)
	}
	if len(env.notifier.recipients) != 0 {
		t.Errorf("expected no email sent, got %v", env.notifier.recipients)
	}
}

func TestCancel_OwnershipPolicy(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	cases := []struct {
		name    string
		actor   auth.Actor
		allowed bool
	}{
		{"owner patient", auth.Actor{ID: patientID, Role: auth.RolePatient}, true},
		{"other patient", auth.Actor{ID: uuid.New(), Role: auth.RolePatient}, false},
		{"assigned doctor", auth.Actor{ID: doctorID, Role: auth.RoleDoctor}, true},
		{"other doctor", auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor}, false},
		{"admin", auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, true},
		{"lab", auth.Actor{ID: uuid.New(), Role: auth.RoleLab}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
			if err != nil {
				t.Fatalf("seed Create() error: %v", err)
			}
			got, err := env.svc.Cancel(context.Background(), tc.actor, a.ID)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected cancel allowed, got %v", err)
				}
				if got.Status != StatusCancelled {
					t.Errorf("expected cancelled, got %q", got.Status)
				}
			} else if apierror.CodeOf(err) != apierror.CodeForbidden {
				t.Errorf("expected forbidden, got %v", err)
			}
		})
	}
}

func TestCancel_CompletedAppointmentIsAllowed(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	a, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := env.repo.UpdateStatus(context.Background(), a.ID, StatusCompleted); err != nil {
		t.Fatalf("seed status: %v", err)
	}

	got, err := env.svc.Cancel(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, a.ID)
	if err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected completed appointment to become cancelled, got %q", got.Status)
	}
}

func TestComplete_WritesPrescriptionAndStatusTogether(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha Verma", "asha@example.com")

	a, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	p, err := env.svc.CompleteWithPrescription(context.Background(), auth.Actor{ID: doctorID, Role: auth.RoleDoctor}, a.ID, CompleteInput{
		Medicines: []prescription.Medicine{{Name: "Paracetamol", Dosage: "500mg"}},
		Notes:     "rest",
	})
	if err != nil {
		t.Fatalf("CompleteWithPrescription() error: %v", err)
	}
	if env.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", env.tx.calls)
	}
	if p.AppointmentID == nil || *p.AppointmentID != a.ID {
		t.Errorf("expected prescription linked to appointment, got %v", p.AppointmentID)
	}
	if p.PatientName != "Asha Verma" || p.DoctorName != "Dr. Rao" {
		t.Errorf("expected name snapshots, got %q / %q", p.PatientName, p.DoctorName)
	}
	if p.ClinicName != "City Clinic" {
		t.Errorf("expected clinic stamped, got %q", p.ClinicName)
	}
	if env.repo.appointments[a.ID].Status != StatusCompleted {
		t.Errorf("expected appointment completed, got %q", env.repo.appointments[a.ID].Status)
	}
}

func TestComplete_StatusFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	a, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	env.repo.failStatus = true

	_, err = env.svc.CompleteWithPrescription(context.Background(), auth.Actor{ID: doctorID, Role: auth.RoleDoctor}, a.ID, CompleteInput{
		Medicines: []prescription.Medicine{{Name: "X"}},
	})
	if apierror.CodeOf(err) != apierror.CodeUnexpected {
		t.Fatalf("expected unexpected error, got %v", err)
	}
	if !env.tx.rolledBack {
		t.Error("expected the transaction to roll back")
	}
}

func TestComplete_OnlyAssignedDoctor(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")

	a, err := env.svc.Create(context.Background(), auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	in := CompleteInput{Medicines: []prescription.Medicine{{Name: "X"}}}
	for _, actor := range []auth.Actor{
		{ID: uuid.New(), Role: auth.RoleDoctor},
		{ID: patientID, Role: auth.RolePatient},
		{ID: uuid.New(), Role: auth.RoleAdmin},
	} {
		if _, err := env.svc.CompleteWithPrescription(context.Background(), actor, a.ID, in); apierror.CodeOf(err) != apierror.CodeForbidden {
			t.Errorf("actor %s/%s: expected forbidden, got %v", actor.Role, actor.ID, err)
		}
	}
}

func TestComplete_SecondAttemptConflicts(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")
	ctx := context.Background()

	a, err := env.svc.Create(ctx, auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	doctor := auth.Actor{ID: doctorID, Role: auth.RoleDoctor}
	in := CompleteInput{Medicines: []prescription.Medicine{{Name: "Paracetamol"}}}
	if _, err := env.svc.CompleteWithPrescription(ctx, doctor, a.ID, in); err != nil {
		t.Fatalf("first CompleteWithPrescription() error: %v", err)
	}

	_, err = env.svc.CompleteWithPrescription(ctx, doctor, a.ID, in)
	if apierror.CodeOf(err) != apierror.CodeConflict {
		t.Fatalf("expected conflict on second completion, got %v", err)
	}
	if len(env.pres.created) != 1 {
		t.Errorf("expected exactly one prescription referencing the appointment, got %d", len(env.pres.created))
	}
	if env.repo.appointments[a.ID].Status != StatusCompleted {
		t.Errorf("expected appointment to stay completed, got %q", env.repo.appointments[a.ID].Status)
	}
}

func TestComplete_CancelledAppointmentConflicts(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	patientID := env.dir.addPatient("Asha", "asha@example.com")
	ctx := context.Background()

	a, err := env.svc.Create(ctx, auth.Actor{ID: patientID, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, auth.Actor{ID: patientID, Role: auth.RolePatient}, a.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	_, err = env.svc.CompleteWithPrescription(ctx, auth.Actor{ID: doctorID, Role: auth.RoleDoctor}, a.ID,
		CompleteInput{Medicines: []prescription.Medicine{{Name: "X"}}})
	if apierror.CodeOf(err) != apierror.CodeConflict {
		t.Errorf("expected conflict for cancelled appointment, got %v", err)
	}
	if len(env.pres.created) != 0 {
		t.Errorf("expected no prescription written, got %d", len(env.pres.created))
	}
}

func TestList_RoleScoping(t *testing.T) {
	env := newTestEnv()
	doctorID := env.dir.addDoctor("Dr. Rao", "Cardiology", 500)
	asha := env.dir.addPatient("Asha", "asha@example.com")
	ravi := env.dir.addPatient("Ravi", "ravi@example.com")
	ctx := context.Background()

	a1, err := env.svc.Create(ctx, auth.Actor{ID: asha, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := env.svc.Create(ctx, auth.Actor{ID: ravi, Role: auth.RolePatient}, validInput(doctorID)); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	cancelled, err := env.svc.Create(ctx, auth.Actor{ID: asha, Role: auth.RolePatient}, validInput(doctorID))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, auth.Actor{ID: asha, Role: auth.RolePatient}, cancelled.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	items, total, err := env.svc.List(ctx, auth.Actor{ID: asha, Role: auth.RolePatient}, 20, 0)
	if err != nil {
		t.Fatalf("patient List() error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != a1.ID {
		t.Errorf("expected only the patient's live booking, got total=%d items=%d", total, len(items))
	}

	_, total, err = env.svc.List(ctx, auth.Actor{ID: doctorID, Role: auth.RoleDoctor}, 20, 0)
	if err != nil {
		t.Fatalf("doctor List() error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected doctor to see 2 live appointments, got %d", total)
	}

	_, total, err = env.svc.List(ctx, auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, 20, 0)
	if err != nil {
		t.Fatalf("admin List() error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected admin to see all 3 including cancelled, got %d", total)
	}

	if _, _, err := env.svc.List(ctx, auth.Actor{ID: uuid.New(), Role: auth.RoleLab}, 20, 0); apierror.CodeOf(err) != apierror.CodeForbidden {
		t.Errorf("expected forbidden for lab role, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.Get(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, uuid.New())
	if apierror.CodeOf(err) != apierror.CodeNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestGet_StoreFailureIsUnexpected(t *testing.T) {
	env := newTestEnv()
	env.repo.failGet = true
	_, err := env.svc.Get(context.Background(), auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}, uuid.New())
	if apierror.CodeOf(err) != apierror.CodeUnexpected {
		t.Errorf("expected unexpected for a store failure, got %v", err)
	}
}
