package models

// ActivityLog is one row of the append-only audit trail.
type ActivityLog struct {
	Timestamp string `json:"timestamp"`
	UserEmail string `json:"userEmail"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// Action tags written by the engines.
const (
	ActionBorrowRequested = "BORROW_REQUESTED"
	ActionRequestApproved = "REQUEST_APPROVED"
	ActionRequestRejected = "REQUEST_REJECTED"
	ActionDeviceReturned  = "DEVICE_RETURNED"
	ActionDeviceAssigned  = "DEVICE_ASSIGNED"
	ActionRepairRequested = "REPAIR_REQUESTED"
	ActionProductApproval = "PRODUCT_APPROVAL"
)

type Notification struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Type    string `json:"type"` // info | success | error
}
