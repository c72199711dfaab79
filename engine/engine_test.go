package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"deviceloan/models"
	"deviceloan/state"
	"deviceloan/store"
)

// sinkRecorder captures audit calls without touching a store.
type sinkRecorder struct {
	actions []string
}

func (s *sinkRecorder) Log(_ context.Context, actor *models.Profile, action, _ string) {
	if actor == nil {
		return
	}
	s.actions = append(s.actions, action)
}

// failGateway refuses every call, simulating an unreachable store.
type failGateway struct{}

func (failGateway) Invoke(context.Context, store.Action, string, any) (*store.Result, error) {
	return nil, errors.New("store unreachable")
}

var (
	adminActor   = models.Profile{ID: "admin-user", Username: "Admin", Email: "admin@spk.ac.th", Role: models.RoleAdmin}
	teacherActor = models.Profile{ID: "T1", Username: "Alice Teacher", Email: "alice@school.test", Role: models.RoleTeacher}
	studentActor = models.Profile{ID: "S1", Username: "Bob Student", Email: "bob@school.test", Role: models.RoleStudent}
)

func seedGateway(t *testing.T) *store.MemoryGateway {
	t.Helper()
	g := store.NewMemoryGateway()
	seed := func(coll string, rows ...any) {
		if err := g.Seed(coll, rows...); err != nil {
			t.Fatalf("seed %s: %v", coll, err)
		}
	}
	seed(store.Products, models.Product{
		ID: "PROD-1", Name: "MacBook Air", Category: "Laptop",
		DefaultAccessories: []string{"Charger"},
	})
	seed(store.Devices,
		models.Device{ID: "dev-1", SerialNumber: "SN-1", ProductID: "PROD-1", Status: models.StatusAvailable},
		models.Device{
			ID: "dev-2", SerialNumber: "SN-2", ProductID: "PROD-1",
			Status: models.StatusPendingApproval, BorrowedBy: "Alice Teacher",
			BorrowDate: "2026-01-05T00:00:00Z",
		},
		models.Device{
			ID: "dev-3", SerialNumber: "SN-3", ProductID: "PROD-1",
			Status: models.StatusBorrowed, BorrowedBy: "Bob Student",
			BorrowDate: "2026-02-01T00:00:00Z", AppleID: "bob@icloud.com",
			BorrowedAccessories: "Charger",
		},
	)
	seed(store.Teachers, models.TeacherUser{
		ID: "T1", Username: "Alice Teacher", Email: "alice@school.test",
		Role: models.RoleTeacher, Department: "Science",
	})
	seed(store.StudentsM4, models.StudentUser{
		ID: "S1", Username: "Bob Student", Email: "bob@school.test",
		Role: models.RoleStudent, StudentID: "66001", Grade: 4, Classroom: "2",
	})
	return g
}

func newTestEngine(t *testing.T) (*Engine, *state.AppState, *store.MemoryGateway, *sinkRecorder) {
	t.Helper()
	gw := seedGateway(t)
	st := state.New()
	if err := st.LoadInitial(context.Background(), gw); err != nil {
		t.Fatalf("load initial: %v", err)
	}
	rec := &sinkRecorder{}
	return New(gw, st, rec, nil), st, gw, rec
}

func TestRequestBorrowStudentDirect(t *testing.T) {
	eng, st, _, rec := newTestEngine(t)

	d, err := eng.RequestBorrow(context.Background(), "dev-1", studentActor)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if d.Status != models.StatusBorrowed {
		t.Fatalf("want Borrowed, got %s", d.Status)
	}
	if d.BorrowedBy != "Bob Student" {
		t.Fatalf("borrowedBy = %q", d.BorrowedBy)
	}
	// Direct self-borrow sets no due date; only approve and assign do.
	if d.DueDate != "" {
		t.Fatalf("direct borrow must not set a due date, got %q", d.DueDate)
	}
	got, _ := st.DeviceByID("dev-1")
	if got.Status != models.StatusBorrowed {
		t.Fatalf("projection not updated: %s", got.Status)
	}
	if len(rec.actions) != 1 || rec.actions[0] != models.ActionBorrowRequested {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestRequestBorrowTeacherPends(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	d, err := eng.RequestBorrow(context.Background(), "dev-1", teacherActor)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if d.Status != models.StatusPendingApproval {
		t.Fatalf("want Pending Approval, got %s", d.Status)
	}
}

func TestRequestBorrowDesignationMismatch(t *testing.T) {
	eng, st, gw, _ := newTestEngine(t)
	if err := gw.Seed(store.Products, models.Product{
		ID: "PROD-1", Name: "MacBook Air", Category: "Laptop", DesignatedFor: models.RoleTeacher,
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.LoadInitial(context.Background(), gw); err != nil {
		t.Fatal(err)
	}

	_, err := eng.RequestBorrow(context.Background(), "dev-1", studentActor)
	if !errors.Is(err, ErrEligibility) {
		t.Fatalf("want ErrEligibility, got %v", err)
	}
}

func TestApproveComputesTeacherDueDate(t *testing.T) {
	eng, _, _, rec := newTestEngine(t)

	d, success, err := eng.Approve(context.Background(), "dev-2", "alice@icloud.com", "handled", []string{"Charger"}, adminActor)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if d.Status != models.StatusBorrowed {
		t.Fatalf("want Borrowed, got %s", d.Status)
	}
	bd, err := time.Parse(time.RFC3339, d.BorrowDate)
	if err != nil {
		t.Fatalf("borrow date %q: %v", d.BorrowDate, err)
	}
	// dev-2 is pending for Alice, a teacher: five-year term.
	if want := bd.AddDate(5, 0, 0).UTC().Format(time.RFC3339); d.DueDate != want {
		t.Fatalf("due date: want %s, got %s", want, d.DueDate)
	}
	if success.BorrowerRole != string(models.RoleTeacher) || success.BorrowerName != "Alice Teacher" {
		t.Fatalf("success summary = %+v", success)
	}
	if len(rec.actions) != 1 || rec.actions[0] != models.ActionRequestApproved {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestApproveRequiresAppleID(t *testing.T) {
	eng, st, _, rec := newTestEngine(t)

	_, _, err := eng.Approve(context.Background(), "dev-2", "   ", "", nil, adminActor)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	d, _ := st.DeviceByID("dev-2")
	if d.Status != models.StatusPendingApproval {
		t.Fatalf("device moved on a failed approve: %s", d.Status)
	}
	if len(rec.actions) != 0 {
		t.Fatalf("failed approve must not log, got %v", rec.actions)
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	_, _, err := eng.Approve(context.Background(), "dev-2", "a@icloud.com", "", nil, teacherActor)
	if !errors.Is(err, ErrEligibility) {
		t.Fatalf("want ErrEligibility, got %v", err)
	}
}

func TestRejectClearsLoanFields(t *testing.T) {
	eng, st, _, rec := newTestEngine(t)

	d, err := eng.Reject(context.Background(), "dev-2", adminActor)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if d.Status != models.StatusAvailable {
		t.Fatalf("want Available, got %s", d.Status)
	}
	if d.BorrowedBy != "" || d.AppleID != "" || d.BorrowNotes != "" {
		t.Fatalf("loan fields not cleared: %+v", d)
	}
	if len(st.History()) != 0 {
		t.Fatal("reject must not create history")
	}
	if len(rec.actions) != 1 || rec.actions[0] != models.ActionRequestRejected {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestRejectNonPendingIsNoOp(t *testing.T) {
	eng, st, _, rec := newTestEngine(t)

	if _, err := eng.Reject(context.Background(), "dev-1", adminActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("want ErrEligibility, got %v", err)
	}
	// A second reject after a successful one is the same precondition failure.
	if _, err := eng.Reject(context.Background(), "dev-2", adminActor); err != nil {
		t.Fatalf("first reject: %v", err)
	}
	if _, err := eng.Reject(context.Background(), "dev-2", adminActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("second reject should fail preconditions, got %v", err)
	}
	if len(rec.actions) != 1 {
		t.Fatalf("exactly one audit entry expected, got %v", rec.actions)
	}
	d, _ := st.DeviceByID("dev-2")
	if d.Status != models.StatusAvailable {
		t.Fatalf("device state = %s", d.Status)
	}
}

func TestAssignComputesStudentDueDate(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	d, success, err := eng.Assign(context.Background(), "dev-1", studentActor, "bob@icloud.com", "", []string{"Charger"}, adminActor)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if d.Status != models.StatusBorrowed || d.BorrowedBy != "Bob Student" {
		t.Fatalf("device = %+v", d)
	}
	bd, _ := time.Parse(time.RFC3339, d.BorrowDate)
	if want := bd.AddDate(2, 6, 0).UTC().Format(time.RFC3339); d.DueDate != want {
		t.Fatalf("due date: want %s, got %s", want, d.DueDate)
	}
	if success.BorrowerRole != string(models.RoleStudent) {
		t.Fatalf("success summary = %+v", success)
	}
}

func TestReturnWritesOneHistoryEntry(t *testing.T) {
	eng, st, gw, rec := newTestEngine(t)

	d, entry, err := eng.Return(context.Background(), "dev-3", studentActor, "bob@icloud.com", "scratched lid")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if d.Status != models.StatusAvailable {
		t.Fatalf("want Available, got %s", d.Status)
	}
	if d.BorrowedBy != "" || d.BorrowDate != "" || d.DueDate != "" || d.AppleID != "" {
		t.Fatalf("loan fields not cleared: %+v", d)
	}

	if entry.Status != models.HistoryReturned {
		t.Fatalf("history status = %s", entry.Status)
	}
	if entry.DeviceID != "dev-3" || entry.BorrowDate != "2026-02-01T00:00:00Z" {
		t.Fatalf("history entry = %+v", entry)
	}
	if entry.ReturnNotes != "scratched lid" || entry.AppleID != "bob@icloud.com" {
		t.Fatalf("history entry = %+v", entry)
	}
	if got := st.History(); len(got) != 1 || got[0].HistoryID != entry.HistoryID {
		t.Fatalf("projection history = %+v", got)
	}

	var rows []models.HistoryEntry
	if err := store.ReadInto(context.Background(), gw, store.History, &rows); err != nil {
		t.Fatalf("read history: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("stored history rows = %d", len(rows))
	}
	if len(rec.actions) != 1 || rec.actions[0] != models.ActionDeviceReturned {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestFailedWriteLeavesStateUntouched(t *testing.T) {
	gw := seedGateway(t)
	st := state.New()
	if err := st.LoadInitial(context.Background(), gw); err != nil {
		t.Fatal(err)
	}
	rec := &sinkRecorder{}
	eng := New(failGateway{}, st, rec, nil)

	_, err := eng.RequestBorrow(context.Background(), "dev-1", studentActor)
	var remote *store.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("want RemoteError, got %v", err)
	}
	d, _ := st.DeviceByID("dev-1")
	if d.Status != models.StatusAvailable || d.BorrowedBy != "" {
		t.Fatalf("state mutated on failed write: %+v", d)
	}
	if len(rec.actions) != 0 {
		t.Fatalf("failed write must not log, got %v", rec.actions)
	}
}

func TestReportIssueLeavesDeviceState(t *testing.T) {
	eng, st, _, rec := newTestEngine(t)

	req, err := eng.ReportIssue(context.Background(), "dev-3", studentActor, "screen flickers", "Front office", "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if req.Status != models.ServicePending {
		t.Fatalf("ticket status = %s", req.Status)
	}
	if req.Device.ID != "dev-3" || req.Device.SerialNumber != "SN-3" {
		t.Fatalf("device snapshot = %+v", req.Device)
	}
	// Reporting opens a ticket only; the device stays where it was.
	d, _ := st.DeviceByID("dev-3")
	if d.Status != models.StatusBorrowed {
		t.Fatalf("device moved on report: %s", d.Status)
	}
	if len(rec.actions) != 1 || rec.actions[0] != models.ActionRepairRequested {
		t.Fatalf("audit actions = %v", rec.actions)
	}

	if _, err := eng.ReportIssue(context.Background(), "dev-3", studentActor, "  ", "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank description: want ErrValidation, got %v", err)
	}
}

func TestAdvanceServiceRequest(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	req, err := eng.ReportIssue(context.Background(), "dev-1", studentActor, "dead pixel", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.AdvanceServiceRequest(context.Background(), req.ID, studentActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("non-admin advance: want ErrEligibility, got %v", err)
	}

	r, err := eng.AdvanceServiceRequest(context.Background(), req.ID, adminActor)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.ServiceInProgress {
		t.Fatalf("want In Progress, got %s", r.Status)
	}
	r, err = eng.AdvanceServiceRequest(context.Background(), req.ID, adminActor)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.ServiceResolved {
		t.Fatalf("want Resolved, got %s", r.Status)
	}
	if _, err := eng.AdvanceServiceRequest(context.Background(), req.ID, adminActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("resolved tickets are terminal, got %v", err)
	}
}

func TestSaveDeviceHydratesFromProduct(t *testing.T) {
	eng, st, _, _ := newTestEngine(t)

	d, err := eng.SaveDevice(context.Background(), models.Device{
		ID: "dev-9", SerialNumber: "SN-9", ProductID: "PROD-1",
	}, adminActor)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if d.Status != models.StatusAvailable {
		t.Fatalf("default status = %s", d.Status)
	}
	if d.Name != "MacBook Air" || d.Category != "Laptop" {
		t.Fatalf("not hydrated: %+v", d)
	}
	if _, ok := st.DeviceByID("dev-9"); !ok {
		t.Fatal("device missing from projection")
	}

	if _, err := eng.SaveDevice(context.Background(), models.Device{SerialNumber: "SN-10"}, adminActor); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing id: want ErrValidation, got %v", err)
	}
	if _, err := eng.SaveDevice(context.Background(), models.Device{ID: "x"}, teacherActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("non-admin save: want ErrEligibility, got %v", err)
	}
}

func TestDeleteDevice(t *testing.T) {
	eng, st, _, _ := newTestEngine(t)

	if err := eng.DeleteDevice(context.Background(), "dev-1", adminActor); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := st.DeviceByID("dev-1"); ok {
		t.Fatal("device still in projection")
	}
	if err := eng.DeleteDevice(context.Background(), "dev-1", adminActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("double delete: want ErrEligibility, got %v", err)
	}
	if err := eng.DeleteDevice(context.Background(), "dev-2", studentActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("non-admin delete: want ErrEligibility, got %v", err)
	}
}

func TestSaveProductAssignsIDAndRehydrates(t *testing.T) {
	eng, st, _, _ := newTestEngine(t)

	p, err := eng.SaveProduct(context.Background(), models.Product{Name: "iPad mini", Category: "iPad"}, adminActor)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(p.ID) < 6 || p.ID[:5] != "PROD-" {
		t.Fatalf("generated id = %q", p.ID)
	}

	// Editing the existing product must flow into its devices.
	p2, err := eng.SaveProduct(context.Background(), models.Product{
		ID: "PROD-1", Name: "MacBook Air M3", Category: "Laptop",
	}, adminActor)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := st.DeviceByID("dev-1")
	if d.Name != p2.Name {
		t.Fatalf("device not re-hydrated: %q", d.Name)
	}

	if _, err := eng.SaveProduct(context.Background(), models.Product{Name: ""}, adminActor); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name: want ErrValidation, got %v", err)
	}
}
