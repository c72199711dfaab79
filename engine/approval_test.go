package engine

import (
	"context"
	"errors"
	"testing"

	"deviceloan/models"
	"deviceloan/state"
)

func newApprovalEngine(t *testing.T) (*ApprovalEngine, *state.AppState, *sinkRecorder) {
	t.Helper()
	gw := seedGateway(t)
	st := state.New()
	if err := st.LoadInitial(context.Background(), gw); err != nil {
		t.Fatalf("load initial: %v", err)
	}
	rec := &sinkRecorder{}
	return NewApprovalEngine(gw, st, rec, nil), st, rec
}

func TestSubmitRequest(t *testing.T) {
	eng, st, _ := newApprovalEngine(t)

	req, err := eng.SubmitRequest(context.Background(), "PROD-1", 3, teacherActor)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != models.ApprovalPending {
		t.Fatalf("status = %s", req.Status)
	}
	if req.ProductName != "MacBook Air" || req.Quantity != 3 {
		t.Fatalf("request = %+v", req)
	}
	if req.RequestedBy != "Alice Teacher" || req.RequestedByRole != models.RoleTeacher {
		t.Fatalf("requester = %+v", req)
	}
	if got := st.ProductApprovals(); len(got) != 1 {
		t.Fatalf("projection approvals = %d", len(got))
	}

	if _, err := eng.SubmitRequest(context.Background(), "PROD-1", 0, teacherActor); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero quantity: want ErrValidation, got %v", err)
	}
	if _, err := eng.SubmitRequest(context.Background(), "no-such", 1, teacherActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("unknown product: want ErrEligibility, got %v", err)
	}
}

func TestDecideApprove(t *testing.T) {
	eng, st, rec := newApprovalEngine(t)

	req, err := eng.SubmitRequest(context.Background(), "PROD-1", 2, teacherActor)
	if err != nil {
		t.Fatal(err)
	}

	got, err := eng.Decide(context.Background(), req.ID, true, "", adminActor)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if got.Status != models.ApprovalApproved {
		t.Fatalf("status = %s", got.Status)
	}
	if got.ApprovedBy != "Admin" || got.ApprovalDate == "" {
		t.Fatalf("decision stamp = %+v", got)
	}
	stored, _ := st.ProductApprovalByID(req.ID)
	if stored.Status != models.ApprovalApproved {
		t.Fatalf("projection status = %s", stored.Status)
	}
	if len(rec.actions) != 1 || rec.actions[0] != models.ActionProductApproval {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestDecideRejectWithReason(t *testing.T) {
	eng, _, _ := newApprovalEngine(t)

	req, err := eng.SubmitRequest(context.Background(), "PROD-1", 2, teacherActor)
	if err != nil {
		t.Fatal(err)
	}
	got, err := eng.Decide(context.Background(), req.ID, false, "budget exhausted", adminActor)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if got.Status != models.ApprovalRejected || got.RejectionReason != "budget exhausted" {
		t.Fatalf("request = %+v", got)
	}
}

func TestDecideIsTerminal(t *testing.T) {
	eng, _, _ := newApprovalEngine(t)

	req, err := eng.SubmitRequest(context.Background(), "PROD-1", 1, teacherActor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Decide(context.Background(), req.ID, true, "", adminActor); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Decide(context.Background(), req.ID, false, "", adminActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("second decision must fail, got %v", err)
	}
}

func TestDecideRequiresAdmin(t *testing.T) {
	eng, _, _ := newApprovalEngine(t)

	req, err := eng.SubmitRequest(context.Background(), "PROD-1", 1, teacherActor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Decide(context.Background(), req.ID, true, "", teacherActor); !errors.Is(err, ErrEligibility) {
		t.Fatalf("want ErrEligibility, got %v", err)
	}
}
