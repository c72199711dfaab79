package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deviceloan/models"
	"deviceloan/state"
	"deviceloan/store"
)

// ApprovalEngine runs the product (device model) request workflow: a teacher
// asks for stock, an admin approves or rejects, and that is the end of it.
// Approval never provisions devices; that stays a manual admin step.
type ApprovalEngine struct {
	gw    store.Gateway
	state *state.AppState
	sink  activitySink
	log   *zap.Logger
}

func NewApprovalEngine(gw store.Gateway, st *state.AppState, sink activitySink, log *zap.Logger) *ApprovalEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalEngine{gw: gw, state: st, sink: sink, log: log}
}

// SubmitRequest files a new product request on behalf of the requester.
func (a *ApprovalEngine) SubmitRequest(ctx context.Context, productID string, quantity int, requester models.Profile) (models.ProductApprovalRequest, error) {
	if quantity <= 0 {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	product, ok := a.state.ProductByID(productID)
	if !ok {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: product %s not found", ErrEligibility, productID)
	}

	req := models.ProductApprovalRequest{
		ID:              uuid.NewString(),
		ProductID:       product.ID,
		ProductName:     product.Name,
		Category:        product.Category,
		ImageURL:        product.ImageURL,
		Quantity:        quantity,
		RequestedBy:     requester.Username,
		RequestedByRole: requester.Role,
		RequestedDate:   nowISO(),
		Status:          models.ApprovalPending,
	}
	payload, err := store.Sanitize(req)
	if err != nil {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := store.Call(ctx, a.gw, store.ActionAppend, store.ProductApprovals, payload); err != nil {
		return models.ProductApprovalRequest{}, err
	}
	a.state.PrependProductApproval(req)
	return req, nil
}

// Decide resolves a pending request. Approved and Rejected are terminal;
// both stamp the deciding admin and the decision date.
func (a *ApprovalEngine) Decide(ctx context.Context, requestID string, approved bool, rejectionReason string, actor models.Profile) (models.ProductApprovalRequest, error) {
	if !actor.IsAdmin() {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: deciding product requests requires an admin", ErrEligibility)
	}
	req, ok := a.state.ProductApprovalByID(requestID)
	if !ok {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: request %s not found", ErrEligibility, requestID)
	}
	if req.Status != models.ApprovalPending {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: request is already %s", ErrEligibility, req.Status)
	}

	if approved {
		req.Status = models.ApprovalApproved
	} else {
		req.Status = models.ApprovalRejected
		req.RejectionReason = rejectionReason
	}
	req.ApprovedBy = actor.Username
	req.ApprovalDate = nowISO()

	payload, err := store.Sanitize(req)
	if err != nil {
		return models.ProductApprovalRequest{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := store.Call(ctx, a.gw, store.ActionUpdate, store.ProductApprovals, payload); err != nil {
		return models.ProductApprovalRequest{}, err
	}
	a.state.PutProductApproval(req)

	verb := "approved"
	if !approved {
		verb = "rejected"
	}
	a.sink.Log(ctx, &actor, models.ActionProductApproval,
		fmt.Sprintf("%s %s product %s requested by %s", actor.Username, verb, req.ProductName, req.RequestedBy))
	return req, nil
}
