package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deviceloan/models"
	"deviceloan/state"
	"deviceloan/store"
)

// Engine drives the device lifecycle. Every operation persists through the
// gateway first and touches the in-memory projections only on success, so a
// failed write leaves local state exactly as it was.
type Engine struct {
	gw    store.Gateway
	state *state.AppState
	sink  activitySink
	log   *zap.Logger
}

// activitySink is what the engine needs from the audit side; satisfied by
// *activity.Sink.
type activitySink interface {
	Log(ctx context.Context, actor *models.Profile, action, details string)
}

func New(gw store.Gateway, st *state.AppState, sink activitySink, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{gw: gw, state: st, sink: sink, log: log}
}

// BorrowSuccess feeds the admin-facing confirmation surface after an approve
// or assign.
type BorrowSuccess struct {
	BorrowerName string `json:"borrowerName"`
	BorrowerRole string `json:"borrowerRole"`
	DeviceName   string `json:"deviceName"`
}

func nowISO() string { return time.Now().UTC().Format(time.RFC3339) }

// dueDateFor computes the loan term from the borrow date: students keep a
// device for two and a half years, teachers for five.
func dueDateFor(role models.UserRole, borrowDate time.Time) string {
	switch role {
	case models.RoleStudent:
		return borrowDate.AddDate(2, 6, 0).UTC().Format(time.RFC3339)
	case models.RoleTeacher:
		return borrowDate.AddDate(5, 0, 0).UTC().Format(time.RFC3339)
	}
	return ""
}

// persistDevicePatch writes a partial device update through the gateway.
func (e *Engine) persistDevicePatch(ctx context.Context, patch map[string]any) error {
	payload, err := store.Sanitize(patch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	_, err = store.Call(ctx, e.gw, store.ActionUpdate, store.Devices, payload)
	return err
}

func applyPatch(d models.Device, patch map[string]any) models.Device {
	for k, v := range patch {
		s, _ := v.(string)
		switch k {
		case "status":
			d.Status = models.DeviceStatus(s)
		case "borrowedBy":
			d.BorrowedBy = s
		case "borrowDate":
			d.BorrowDate = s
		case "dueDate":
			d.DueDate = s
		case "appleId":
			d.AppleID = s
		case "borrowNotes":
			d.BorrowNotes = s
		case "borrowedAccessories":
			d.BorrowedAccessories = s
		}
	}
	return d
}

// RequestBorrow moves an Available device into Borrowed, or into Pending
// Approval when the requester is a teacher. No due date is applied on the
// direct self-borrow path; only approve and assign compute one.
func (e *Engine) RequestBorrow(ctx context.Context, deviceID string, requester models.Profile) (models.Device, error) {
	unlock := e.state.LockDevice(deviceID)
	defer unlock()

	device, ok := e.state.DeviceByID(deviceID)
	if !ok {
		return models.Device{}, fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}
	if !Eligible(device, requester.Role) {
		return models.Device{}, fmt.Errorf("%w: %s is designated for %s", ErrEligibility, device.ID, device.DesignatedFor)
	}
	next, err := Next(device.Status, OpRequestBorrow, requester.Role)
	if err != nil {
		return models.Device{}, err
	}

	patch := map[string]any{
		"id":         device.ID,
		"status":     string(next),
		"borrowedBy": requester.Username,
		"borrowDate": nowISO(),
	}
	if err := e.persistDevicePatch(ctx, patch); err != nil {
		return models.Device{}, err
	}

	updated := applyPatch(device, patch)
	e.state.PutDevice(updated)

	verb := "borrowed"
	if next == models.StatusPendingApproval {
		verb = "requested"
	}
	e.sink.Log(ctx, &requester, models.ActionBorrowRequested,
		fmt.Sprintf("User %s (%s) %s %s", requester.Username, requester.Role, verb, updated.Name))
	return updated, nil
}

// Approve turns a pending teacher request into an active loan. The
// requester's role is resolved by borrower display name against the combined
// directory, defaulting to Student; the due date follows that role.
func (e *Engine) Approve(ctx context.Context, deviceID, appleID, borrowNotes string, accessories []string, approver models.Profile) (models.Device, *BorrowSuccess, error) {
	if strings.TrimSpace(appleID) == "" {
		return models.Device{}, nil, fmt.Errorf("%w: Apple ID is required for approval", ErrValidation)
	}

	unlock := e.state.LockDevice(deviceID)
	defer unlock()

	device, ok := e.state.DeviceByID(deviceID)
	if !ok {
		return models.Device{}, nil, fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}
	if _, err := Next(device.Status, OpApprove, approver.Role); err != nil {
		return models.Device{}, nil, err
	}

	borrowerRole := e.state.RoleByUsername(device.BorrowedBy)
	borrowDate := time.Now().UTC()
	patch := map[string]any{
		"id":                  device.ID,
		"status":              string(models.StatusBorrowed),
		"borrowDate":          borrowDate.Format(time.RFC3339),
		"dueDate":             dueDateFor(borrowerRole, borrowDate),
		"appleId":             appleID,
		"borrowNotes":         borrowNotes,
		"borrowedAccessories": strings.Join(accessories, ", "),
	}
	if err := e.persistDevicePatch(ctx, patch); err != nil {
		return models.Device{}, nil, err
	}

	updated := applyPatch(device, patch)
	e.state.PutDevice(updated)
	e.sink.Log(ctx, &approver, models.ActionRequestApproved,
		fmt.Sprintf("Admin action on %s for %s", updated.Name, updated.BorrowedBy))

	return updated, &BorrowSuccess{
		BorrowerName: updated.BorrowedBy,
		BorrowerRole: string(borrowerRole),
		DeviceName:   updated.Name,
	}, nil
}

// Reject reverts a pending request to Available and clears the loan fields.
// Rejecting a device that is not pending is a precondition failure and
// produces no log or notification.
func (e *Engine) Reject(ctx context.Context, deviceID string, approver models.Profile) (models.Device, error) {
	unlock := e.state.LockDevice(deviceID)
	defer unlock()

	device, ok := e.state.DeviceByID(deviceID)
	if !ok {
		return models.Device{}, fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}
	if _, err := Next(device.Status, OpReject, approver.Role); err != nil {
		return models.Device{}, err
	}

	requester := device.BorrowedBy
	patch := map[string]any{
		"id":                  device.ID,
		"status":              string(models.StatusAvailable),
		"borrowedBy":          "",
		"appleId":             "",
		"borrowNotes":         "",
		"borrowedAccessories": "",
	}
	if err := e.persistDevicePatch(ctx, patch); err != nil {
		return models.Device{}, err
	}

	updated := applyPatch(device, patch)
	e.state.PutDevice(updated)
	e.sink.Log(ctx, &approver, models.ActionRequestRejected,
		fmt.Sprintf("Admin action on %s for %s", updated.Name, requester))
	return updated, nil
}

// Assign is the admin bypass of the request/approval flow: the device goes
// straight to Borrowed against the chosen user, with the same role-based due
// date rule as Approve.
func (e *Engine) Assign(ctx context.Context, deviceID string, target models.Profile, appleID, borrowNotes string, accessories []string, admin models.Profile) (models.Device, *BorrowSuccess, error) {
	unlock := e.state.LockDevice(deviceID)
	defer unlock()

	device, ok := e.state.DeviceByID(deviceID)
	if !ok {
		return models.Device{}, nil, fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}
	if _, err := Next(device.Status, OpAssign, admin.Role); err != nil {
		return models.Device{}, nil, err
	}

	borrowDate := time.Now().UTC()
	patch := map[string]any{
		"id":                  device.ID,
		"status":              string(models.StatusBorrowed),
		"borrowedBy":          target.Username,
		"borrowDate":          borrowDate.Format(time.RFC3339),
		"dueDate":             dueDateFor(target.Role, borrowDate),
		"appleId":             appleID,
		"borrowNotes":         borrowNotes,
		"borrowedAccessories": strings.Join(accessories, ", "),
	}
	if err := e.persistDevicePatch(ctx, patch); err != nil {
		return models.Device{}, nil, err
	}

	updated := applyPatch(device, patch)
	e.state.PutDevice(updated)
	e.sink.Log(ctx, &admin, models.ActionDeviceAssigned,
		fmt.Sprintf("Admin assigned %s to %s. AppleID: %s", updated.Name, target.Username, appleID))

	return updated, &BorrowSuccess{
		BorrowerName: target.Username,
		BorrowerRole: string(target.Role),
		DeviceName:   updated.Name,
	}, nil
}

// Return closes the loan: the device goes back to Available with every loan
// field cleared, and exactly one immutable history entry captures the loan
// that just ended. The caller confirms cloud sign-out before invoking this.
func (e *Engine) Return(ctx context.Context, deviceID string, returner models.Profile, icloudEmail, returnNotes string) (models.Device, models.HistoryEntry, error) {
	unlock := e.state.LockDevice(deviceID)
	defer unlock()

	device, ok := e.state.DeviceByID(deviceID)
	if !ok {
		return models.Device{}, models.HistoryEntry{}, fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}
	if _, err := Next(device.Status, OpReturn, returner.Role); err != nil {
		return models.Device{}, models.HistoryEntry{}, err
	}

	patch := map[string]any{
		"id":                  device.ID,
		"status":              string(models.StatusAvailable),
		"borrowedBy":          "",
		"borrowDate":          "",
		"dueDate":             "",
		"appleId":             "",
		"borrowNotes":         "",
		"borrowedAccessories": "",
	}
	if err := e.persistDevicePatch(ctx, patch); err != nil {
		return models.Device{}, models.HistoryEntry{}, err
	}

	entry := models.HistoryEntry{
		HistoryID:           uuid.NewString(),
		DeviceID:            device.ID,
		UserID:              returner.ID,
		BorrowerName:        returner.Username,
		BorrowDate:          device.BorrowDate,
		ReturnDate:          nowISO(),
		Status:              models.HistoryReturned,
		AppleID:             device.AppleID,
		BorrowNotes:         device.BorrowNotes,
		ReturnNotes:         returnNotes,
		BorrowedAccessories: device.BorrowedAccessories,
	}
	if payload, err := store.Sanitize(entry); err == nil {
		// The device row is already cleared; a failed history append is
		// logged but does not roll the return back.
		if _, err := store.Call(ctx, e.gw, store.ActionAppend, store.History, payload); err != nil {
			e.log.Warn("history append failed", zap.String("device", device.ID), zap.Error(err))
		}
	}

	updated := applyPatch(device, patch)
	e.state.PutDevice(updated)
	e.state.PrependHistory(entry)
	e.sink.Log(ctx, &returner, models.ActionDeviceReturned,
		fmt.Sprintf("%s returned by %s. iCloud: %s. Notes: %s", device.Name, returner.Username, icloudEmail, returnNotes))
	return updated, entry, nil
}

// ReportIssue opens a repair ticket. It does not move the device out of its
// current state; Maintenance is entered through the admin device editor.
func (e *Engine) ReportIssue(ctx context.Context, deviceID string, reporter models.Profile, description, repairLocation, repairImageURL string) (models.ServiceRequest, error) {
	if strings.TrimSpace(description) == "" {
		return models.ServiceRequest{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	device, ok := e.state.DeviceByID(deviceID)
	if !ok {
		return models.ServiceRequest{}, fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}

	req := models.ServiceRequest{
		ID: uuid.NewString(),
		Device: models.ServiceDevice{
			ID:           device.ID,
			Name:         device.Name,
			SerialNumber: device.SerialNumber,
		},
		ReportedBy:     reporter.Username,
		Description:    description,
		Status:         models.ServicePending,
		ReportedAt:     nowISO(),
		RepairLocation: repairLocation,
		RepairImageURL: repairImageURL,
	}
	// Flattened for the sheet; the nested device snapshot is rebuilt on read.
	payload, err := store.Sanitize(map[string]any{
		"id":                 req.ID,
		"deviceId":           device.ID,
		"deviceName":         device.Name,
		"deviceSerialNumber": device.SerialNumber,
		"reportedBy":         req.ReportedBy,
		"description":        req.Description,
		"repairLocation":     req.RepairLocation,
		"repairImageUrl":     req.RepairImageURL,
		"status":             string(req.Status),
		"reportedAt":         req.ReportedAt,
	})
	if err != nil {
		return models.ServiceRequest{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := store.Call(ctx, e.gw, store.ActionAppend, store.Service, payload); err != nil {
		return models.ServiceRequest{}, err
	}

	e.state.PrependServiceRequest(req)
	e.sink.Log(ctx, &reporter, models.ActionRepairRequested,
		fmt.Sprintf("Repair requested for %s by %s", device.Name, reporter.Username))
	return req, nil
}

// AdvanceServiceRequest moves a ticket one step forward. There is no reverse
// transition.
func (e *Engine) AdvanceServiceRequest(ctx context.Context, requestID string, actor models.Profile) (models.ServiceRequest, error) {
	if !actor.IsAdmin() {
		return models.ServiceRequest{}, fmt.Errorf("%w: advancing a ticket requires an admin", ErrEligibility)
	}
	req, ok := e.state.ServiceRequestByID(requestID)
	if !ok {
		return models.ServiceRequest{}, fmt.Errorf("%w: service request %s not found", ErrEligibility, requestID)
	}
	next := models.NextServiceStatus(req.Status)
	if next == "" {
		return models.ServiceRequest{}, fmt.Errorf("%w: ticket is already %s", ErrEligibility, req.Status)
	}

	payload := map[string]any{"id": req.ID, "status": string(next)}
	if _, err := store.Call(ctx, e.gw, store.ActionUpdate, store.Service, payload); err != nil {
		return models.ServiceRequest{}, err
	}
	req.Status = next
	e.state.PutServiceRequest(req)
	return req, nil
}

// SaveDevice creates or edits a catalog entry. Derived display fields are
// stripped before persisting and re-hydrated afterwards; the editor is also
// the only path into Maintenance and Lost.
func (e *Engine) SaveDevice(ctx context.Context, d models.Device, actor models.Profile) (models.Device, error) {
	if !actor.IsAdmin() {
		return models.Device{}, fmt.Errorf("%w: editing devices requires an admin", ErrEligibility)
	}
	if strings.TrimSpace(d.ID) == "" {
		return models.Device{}, fmt.Errorf("%w: device id is required", ErrValidation)
	}
	if d.Status == "" {
		d.Status = models.StatusAvailable
	}

	action := store.ActionAppend
	if _, exists := e.state.DeviceByID(d.ID); exists {
		action = store.ActionUpdate
	}
	payload, err := store.Sanitize(d.StripDerived())
	if err != nil {
		return models.Device{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := store.Call(ctx, e.gw, action, store.Devices, payload); err != nil {
		return models.Device{}, err
	}

	var prod *models.Product
	if p, ok := e.state.ProductByID(d.ProductID); ok {
		prod = &p
	}
	hydrated := d.StripDerived().Hydrate(prod)
	if prod == nil {
		// Legacy standalone device: keep the display fields the caller set.
		hydrated = d
	}
	e.state.PutDevice(hydrated)
	return hydrated, nil
}

// DeleteDevice removes a device from the catalog regardless of state. The
// confirmation step lives with the caller.
func (e *Engine) DeleteDevice(ctx context.Context, deviceID string, actor models.Profile) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: deleting devices requires an admin", ErrEligibility)
	}
	unlock := e.state.LockDevice(deviceID)
	defer unlock()

	if _, ok := e.state.DeviceByID(deviceID); !ok {
		return fmt.Errorf("%w: device %s not found", ErrEligibility, deviceID)
	}
	if _, err := store.Call(ctx, e.gw, store.ActionDelete, store.Devices, map[string]any{"id": deviceID}); err != nil {
		return err
	}
	e.state.RemoveDevice(deviceID)
	e.log.Info("device deleted", zap.String("device", deviceID), zap.String("by", actor.Email))
	return nil
}

// SaveProduct creates or edits a product template and re-hydrates the devices
// that instantiate it.
func (e *Engine) SaveProduct(ctx context.Context, p models.Product, actor models.Profile) (models.Product, error) {
	if !actor.IsAdmin() {
		return models.Product{}, fmt.Errorf("%w: editing products requires an admin", ErrEligibility)
	}
	if strings.TrimSpace(p.Name) == "" {
		return models.Product{}, fmt.Errorf("%w: product name is required", ErrValidation)
	}

	action := store.ActionUpdate
	if p.ID == "" {
		p.ID = "PROD-" + uuid.NewString()
		action = store.ActionAppend
	} else if _, exists := e.state.ProductByID(p.ID); !exists {
		action = store.ActionAppend
	}
	payload, err := store.Sanitize(p)
	if err != nil {
		return models.Product{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := store.Call(ctx, e.gw, action, store.Products, payload); err != nil {
		return models.Product{}, err
	}
	e.state.PutProduct(p)
	return p, nil
}

func (e *Engine) DeleteProduct(ctx context.Context, productID string, actor models.Profile) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: deleting products requires an admin", ErrEligibility)
	}
	if _, ok := e.state.ProductByID(productID); !ok {
		return fmt.Errorf("%w: product %s not found", ErrEligibility, productID)
	}
	if _, err := store.Call(ctx, e.gw, store.ActionDelete, store.Products, map[string]any{"id": productID}); err != nil {
		return err
	}
	e.state.RemoveProduct(productID)
	return nil
}
